package latch

import "fmt"

// EventKind distinguishes the notifications a Session publishes.
type EventKind int

const (
	// ValueChanged is published when an accepted write changes the value.
	ValueChanged EventKind = iota + 1

	// LockChanged is published when the lock flag flips.
	LockChanged
)

// String returns the string representation of the kind.
func (k EventKind) String() string {
	switch k {
	case ValueChanged:
		return "value_changed"
	case LockChanged:
		return "lock_changed"
	default:
		return "unknown"
	}
}

// Event is delivered to observers after every accepted change.
// Value is meaningful for ValueChanged, Locked for LockChanged.
type Event struct {
	Kind   EventKind
	Value  int
	Locked bool
}

// ValueChangedEvent returns a ValueChanged event carrying v.
func ValueChangedEvent(v int) Event {
	return Event{Kind: ValueChanged, Value: v}
}

// LockChangedEvent returns a LockChanged event carrying locked.
func LockChangedEvent(locked bool) Event {
	return Event{Kind: LockChanged, Locked: locked}
}

// String formats the event for logs and test failures.
func (e Event) String() string {
	switch e.Kind {
	case ValueChanged:
		return fmt.Sprintf("ValueChanged(%d)", e.Value)
	case LockChanged:
		return fmt.Sprintf("LockChanged(%t)", e.Locked)
	default:
		return "Event(unknown)"
	}
}
