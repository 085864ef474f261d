package pubsub

import "time"

// EventKind classifies a registry event.
type EventKind uint8

const (
	// EventSubscribe is emitted after a subscription is added.
	EventSubscribe EventKind = iota + 1

	// EventUnsubscribe is emitted after an unsubscribe call, even one that
	// removed nothing.
	EventUnsubscribe

	// EventPublish is emitted once per publish, before any callback runs.
	EventPublish

	// EventDeliver is emitted after a callback returns successfully.
	EventDeliver

	// EventFailure is emitted after a callback returns an error or panics.
	EventFailure
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventSubscribe:
		return "subscribe"
	case EventUnsubscribe:
		return "unsubscribe"
	case EventPublish:
		return "publish"
	case EventDeliver:
		return "deliver"
	case EventFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// ParseEventKind returns the kind with the given name.
func ParseEventKind(s string) (EventKind, bool) {
	for k := EventSubscribe; k <= EventFailure; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Event describes something that happened in a registry.
type Event struct {
	Time time.Time
	Kind EventKind

	// Channel is the subscribed, unsubscribed or published channel.
	Channel string

	// Subject is the subscription channel a publish was delivered to.
	Subject string

	// HandleID identifies the subscription, when there is one.
	HandleID string

	// Args is the number of published arguments.
	Args int

	// Matched is the number of subscriptions a publish matched.
	Matched int

	// Removed is the number of subscriptions an unsubscribe removed.
	Removed int

	// Duration is how long a callback ran.
	Duration time.Duration

	// Err is the failure message for EventFailure.
	Err string
}

// Observer receives registry events. Observe is called synchronously from
// the goroutine that caused the event and must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) {
	f(e)
}
