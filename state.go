package latch

// State represents the edit-lock state of a Session.
type State int32

const (
	// StateLocked indicates the value is writable only by the background
	// refresher. This is the initial state.
	StateLocked State = iota

	// StateEditing indicates an interactive edit session owns write access.
	// Background writes are dropped until the session is committed or
	// cancelled.
	StateEditing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateEditing:
		return "editing"
	default:
		return "unknown"
	}
}

// stateOf maps the lock flag to a State.
func stateOf(locked bool) State {
	if locked {
		return StateLocked
	}
	return StateEditing
}
