package latch

import "github.com/zoobzio/capitan"

// Field keys for latch events.
var (
	// KeySession identifies the Session that emitted the event.
	KeySession = capitan.NewStringKey("session")

	// KeyValue is the value written or committed.
	KeyValue = capitan.NewIntKey("value")

	// KeyState is the session state at the time of the event.
	KeyState = capitan.NewStringKey("state")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyEvent is the observer event being delivered when a panic occurred.
	KeyEvent = capitan.NewStringKey("event")

	// KeyInterval is the configured refresh interval.
	KeyInterval = capitan.NewDurationKey("interval")
)
