package latch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// Session arbitrates writes to a SharedValue between the background
// refresher and a single interactive edit session.
//
// Every state transition and the check that guards it run under one mutex,
// which also queues the resulting events in transition order. Events are
// delivered after the mutex is released, one at a time and first in first
// out, so observers may call any Session method, including the mutating
// ones. Events raised by an observer are delivered once the current event
// has reached every observer. A call returns after its own events have been
// delivered, unless another goroutine is already delivering, in which case
// that goroutine delivers them.
type Session struct {
	id       string
	mu       sync.Mutex
	value    *SharedValue
	notifier *Notifier
	metrics  MetricsProvider

	queueMu  sync.Mutex
	pending  []Event
	draining bool
}

// NewSession creates a Session in the locked state holding 0.
//
// Instance configuration uses chainable methods, which must be called
// before the Session is shared:
//
//	session := latch.NewSession().Seed(500).Metrics(provider)
func NewSession() *Session {
	return &Session{
		id:       uuid.NewString(),
		value:    newSharedValue(0),
		notifier: NewNotifier(),
	}
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Seed sets the initial value. Must be called before first use.
func (s *Session) Seed(v int) *Session {
	s.value = newSharedValue(v)
	return s
}

// Metrics sets a metrics provider for observability integration.
// Must be called before first use.
func (s *Session) Metrics(provider MetricsProvider) *Session {
	s.metrics = provider
	s.notifier.metrics = provider
	return s
}

// ObserverFailureHistory sets the number of observer failures to retain.
// Use 0 to disable retention. Default: DefaultFailureHistory.
// Must be called before first use.
func (s *Session) ObserverFailureHistory(n int) *Session {
	s.notifier.failures = newRing[ObserverFailure](n)
	return s
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// ID returns the identifier attached to every signal the Session emits.
func (s *Session) ID() string {
	return s.id
}

// Read returns the current value and lock flag as one consistent pair.
func (s *Session) Read() (int, bool) {
	return s.value.Read()
}

// Snapshot returns the current value and lock flag.
func (s *Session) Snapshot() Snapshot {
	return s.value.Snapshot()
}

// State returns the current edit-lock state.
func (s *Session) State() State {
	_, locked := s.value.Read()
	return stateOf(locked)
}

// Subscribe registers an observer for ValueChanged and LockChanged events.
func (s *Session) Subscribe(fn Observer) Subscription {
	return s.notifier.Subscribe(fn)
}

// Unsubscribe removes an observer. Returns true if it was registered.
func (s *Session) Unsubscribe(sub Subscription) bool {
	return s.notifier.Unsubscribe(sub)
}

// ObserverFailures returns recent observer panics, oldest first.
func (s *Session) ObserverFailures() []ObserverFailure {
	return s.notifier.Failures()
}

// -----------------------------------------------------------------------------
// Transitions
// -----------------------------------------------------------------------------

// BeginEdit opens an interactive edit session. Background writes are dropped
// until CommitEdit or CancelEdit. Calling it while already editing is a no-op.
func (s *Session) BeginEdit() {
	s.mu.Lock()
	defer s.flush()
	defer s.mu.Unlock()

	if !s.value.setLocked(false) {
		return
	}
	value, _ := s.value.Read()
	capitan.Emit(context.Background(), EditBegun,
		KeySession.Field(s.id),
		KeyValue.Field(value),
	)
	s.publishLock(false)
}

// ApplyInteractiveInput parses text and, if an edit session is open and the
// text is a valid integer, stores it. Returns false without changing
// anything when no session is open or the text does not parse.
func (s *Session) ApplyInteractiveInput(text string) bool {
	n, err := ParseInput(text)

	s.mu.Lock()
	defer s.flush()
	defer s.mu.Unlock()

	if _, locked := s.value.Read(); locked || err != nil {
		if s.metrics != nil {
			s.metrics.OnInputRejected()
		}
		return false
	}

	if s.value.setValue(n) {
		s.enqueue(ValueChangedEvent(n))
	}
	return true
}

// CommitEdit closes the edit session and re-engages the lock. The value is
// whatever the last accepted input set. No-op when not editing.
func (s *Session) CommitEdit() {
	s.closeEdit(true)
}

// CancelEdit closes the edit session and re-engages the lock. Input applied
// during the session is kept; there is no rollback. No-op when not editing.
func (s *Session) CancelEdit() {
	s.closeEdit(false)
}

// TryBackgroundWrite stores v if no edit session is open. During an edit the
// write is dropped, not queued. Returns whether the write was accepted.
func (s *Session) TryBackgroundWrite(v int) bool {
	s.mu.Lock()
	defer s.flush()
	defer s.mu.Unlock()

	ctx := context.Background()
	if _, locked := s.value.Read(); !locked {
		capitan.Emit(ctx, RefreshDropped,
			KeySession.Field(s.id),
			KeyValue.Field(v),
		)
		if s.metrics != nil {
			s.metrics.OnBackgroundWrite(false)
		}
		return false
	}

	if s.metrics != nil {
		s.metrics.OnBackgroundWrite(true)
	}
	if s.value.setValue(v) {
		capitan.Emit(ctx, BackgroundAccepted,
			KeySession.Field(s.id),
			KeyValue.Field(v),
		)
		s.enqueue(ValueChangedEvent(v))
	}
	return true
}

// closeEdit re-locks the value and emits the commit or cancel signal.
func (s *Session) closeEdit(committed bool) {
	s.mu.Lock()
	defer s.flush()
	defer s.mu.Unlock()

	if !s.value.setLocked(true) {
		return
	}
	value, _ := s.value.Read()
	signal := EditCancelled
	if committed {
		signal = EditCommitted
	}
	capitan.Emit(context.Background(), signal,
		KeySession.Field(s.id),
		KeyValue.Field(value),
		KeyState.Field(StateLocked.String()),
	)
	s.publishLock(true)
}

// publishLock reports a lock flip to metrics and queues it for observers.
// Must be called with s.mu held.
func (s *Session) publishLock(locked bool) {
	if s.metrics != nil {
		s.metrics.OnLockChange(locked)
	}
	s.enqueue(LockChangedEvent(locked))
}

// enqueue appends e to the delivery queue. Must be called with s.mu held so
// queue order matches transition order.
func (s *Session) enqueue(e Event) {
	s.queueMu.Lock()
	s.pending = append(s.pending, e)
	s.queueMu.Unlock()
}

// flush delivers queued events unless a delivery is already running, in
// which case that delivery picks them up. Must be called without s.mu held.
func (s *Session) flush() {
	s.queueMu.Lock()
	if s.draining {
		s.queueMu.Unlock()
		return
	}
	s.draining = true

	for len(s.pending) > 0 {
		e := s.pending[0]
		s.pending = s.pending[1:]
		s.queueMu.Unlock()

		s.notifier.Publish(e)

		s.queueMu.Lock()
	}
	s.draining = false
	s.queueMu.Unlock()
}

// ParseInput converts interactive text to a value. Surrounding whitespace
// is ignored; the remainder must be a base-10 integer in int range.
func ParseInput(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInput, text)
	}
	return n, nil
}
