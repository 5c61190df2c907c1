package bus

import "context"

// Bus is the contract between chat channels and the controller.
// Channels push Events; the controller consumes them in arrival order.
type Bus interface {
	// Publish delivers an event from a channel to the controller.
	Publish(e Event)
	// Events returns a receive-only channel for the controller to consume.
	Events() <-chan Event
}

// EventBus is the default in-process Bus implementation backed by a
// buffered Go channel, so channel adapters never block on a slow consumer.
type EventBus struct {
	ch chan Event
}

func NewEventBus(bufSize int) *EventBus {
	return &EventBus{ch: make(chan Event, bufSize)}
}

func (b *EventBus) Publish(e Event) { b.ch <- e }

func (b *EventBus) Events() <-chan Event { return b.ch }

// DeliverOptions carries optional rendering hints for outbound messages.
type DeliverOptions struct {
	// HTML requests rich formatting where the channel supports it.
	// Channels that cannot render HTML send the text as-is.
	HTML bool
}

// Transport is the outbound side of a chat channel.
// Deliver returns the channel-native identifier of the sent message so the
// caller can later remove ephemeral placeholders via Delete. Channels that
// cannot report message identifiers return 0; Delete with id 0 is a no-op.
type Transport interface {
	Deliver(ctx context.Context, conversation int64, text string, opts DeliverOptions) (messageID int, err error)
	Delete(ctx context.Context, conversation int64, messageID int) error
}
