package events

import "time"

// Kind names an event as namespace.name.
type Kind string

// Event is implemented by every call event.
type Event interface {
	Kind() Kind
	CallSID() string
	OccurredAt() time.Time
}

// Base is embedded by every event. It ties the event to the call it
// happened on.
type Base struct {
	kind       Kind
	callSID    string
	occurredAt time.Time
}

func NewBase(kind Kind, callSID string) Base {
	return Base{kind: kind, callSID: callSID, occurredAt: time.Now()}
}

func (b Base) Kind() Kind            { return b.kind }
func (b Base) CallSID() string       { return b.callSID }
func (b Base) OccurredAt() time.Time { return b.occurredAt }
