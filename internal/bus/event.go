// Package bus defines the message types that flow between chat channels
// and the conversation controller.
package bus

import "time"

// Event is one inbound message or command received from a chat channel.
// It is constructed once at the transport boundary; nothing downstream
// ever touches a channel-specific update object.
type Event struct {
	channel       string   // "telegram", "bridge"
	conversation  int64    // chat identifier within the channel
	title         string   // chat display title, may be empty for DMs
	userID        int64    // sending user identifier
	userName      string   // sending user display name
	forwardedFrom string   // forward-origin display name, empty if not forwarded
	messageID     int      // channel-native message identifier
	text          string   // full message text
	command       string   // parsed command name, empty for plain messages
	args          []string // command arguments, nil for plain messages
	timestamp     time.Time
}

// NewEvent creates an Event with Timestamp set to now.
// Use SetCommand and SetForwardedFrom to attach optional fields.
func NewEvent(channel string, conversation, userID int64, userName, text string) Event {
	return Event{
		channel:      channel,
		conversation: conversation,
		userID:       userID,
		userName:     userName,
		text:         text,
		timestamp:    time.Now(),
	}
}

func (e Event) Channel() string       { return e.channel }
func (e Event) Conversation() int64   { return e.conversation }
func (e Event) Title() string         { return e.title }
func (e Event) UserID() int64         { return e.userID }
func (e Event) UserName() string      { return e.userName }
func (e Event) ForwardedFrom() string { return e.forwardedFrom }
func (e Event) MessageID() int        { return e.messageID }
func (e Event) Text() string          { return e.text }
func (e Event) Command() string       { return e.command }
func (e Event) Args() []string        { return e.args }
func (e Event) Timestamp() time.Time  { return e.timestamp }

func (e *Event) SetTitle(title string)        { e.title = title }
func (e *Event) SetMessageID(id int)          { e.messageID = id }
func (e *Event) SetForwardedFrom(name string) { e.forwardedFrom = name }

// SetCommand marks the event as a command with its arguments.
func (e *Event) SetCommand(name string, args []string) {
	e.command = name
	e.args = args
}

// IsCommand reports whether the event carries a parsed command.
func (e Event) IsCommand() bool { return e.command != "" }

// AuthorName returns the display name to record for this message: the
// forward-origin name when the message was forwarded, the sender otherwise.
func (e Event) AuthorName() string {
	if e.forwardedFrom != "" {
		return e.forwardedFrom
	}
	return e.userName
}

// Preview returns a short snippet of the message text for logging.
func (e Event) Preview() string {
	preview := e.text
	if len(preview) > 80 {
		preview = preview[:80] + "..."
	}
	return preview
}
