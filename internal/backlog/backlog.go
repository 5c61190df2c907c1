// Package backlog implements the bounded per-conversation message log.
//
// Each tracked conversation owns one Backlog: an ordered list of entries
// with a fixed capacity. When a backlog is full the oldest entry is
// dropped before the new one is appended, so the newest message is always
// retained even at capacity 1.
package backlog

// ConversationID identifies one tracked chat. It is the key into all
// per-conversation state.
type ConversationID int64

// Entry is one retained message. Author is the forward-origin display
// name when the message was forwarded, otherwise the sender's.
type Entry struct {
	Author string
	Text   string
}

// Backlog is a bounded FIFO of entries. Not safe for concurrent use;
// Table serializes access.
type Backlog struct {
	entries  []Entry
	capacity int
}

func newBacklog(capacity int) *Backlog {
	if capacity < 1 {
		capacity = 1
	}
	return &Backlog{capacity: capacity}
}

// append adds e, evicting the oldest entry first if the backlog is full.
func (b *Backlog) append(e Entry) {
	b.entries = append(b.entries, e)
	if len(b.entries) > b.capacity {
		tail := make([]Entry, b.capacity)
		copy(tail, b.entries[len(b.entries)-b.capacity:])
		b.entries = tail
	}
}

// snapshot returns a copy of the entries in insertion order.
func (b *Backlog) snapshot() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *Backlog) clear() { b.entries = b.entries[:0] }

func (b *Backlog) len() int { return len(b.entries) }
