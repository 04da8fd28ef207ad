package latch

import "sync/atomic"

// Snapshot is a consistent view of the shared value and its lock flag.
type Snapshot struct {
	Value  int
	Locked bool
}

// SharedValue stores the current value together with the lock flag.
// Both fields live in a single immutable Snapshot swapped atomically, so a
// reader never observes a torn combination.
//
// SharedValue carries no policy. The setters are only called by Session
// while it holds its mutex.
type SharedValue struct {
	current atomic.Pointer[Snapshot]
}

// newSharedValue creates a SharedValue holding seed in the locked state.
func newSharedValue(seed int) *SharedValue {
	v := &SharedValue{}
	v.current.Store(&Snapshot{Value: seed, Locked: true})
	return v
}

// Read returns the current value and lock flag.
func (v *SharedValue) Read() (int, bool) {
	s := v.current.Load()
	return s.Value, s.Locked
}

// Snapshot returns the current snapshot by value.
func (v *SharedValue) Snapshot() Snapshot {
	return *v.current.Load()
}

// setValue stores n and reports whether the value changed.
func (v *SharedValue) setValue(n int) bool {
	old := v.current.Load()
	if old.Value == n {
		return false
	}
	v.current.Store(&Snapshot{Value: n, Locked: old.Locked})
	return true
}

// setLocked stores b and reports whether the lock flag changed.
func (v *SharedValue) setLocked(b bool) bool {
	old := v.current.Load()
	if old.Locked == b {
		return false
	}
	v.current.Store(&Snapshot{Value: old.Value, Locked: b})
	return true
}
