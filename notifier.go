package latch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/capitan"
)

// DefaultFailureHistory is the number of observer failures retained by default.
const DefaultFailureHistory = 16

// Observer receives change notifications.
type Observer func(Event)

// Subscription identifies a registered observer. The zero value is never
// issued and unsubscribing it is a no-op.
type Subscription uint64

// ObserverFailure records a panic raised by an observer during delivery.
type ObserverFailure struct {
	Subscription Subscription
	Event        Event
	Panic        any
	Stack        []byte
}

// Error implements error.
func (f ObserverFailure) Error() string {
	return fmt.Sprintf("observer %d panicked on %s: %v", f.Subscription, f.Event, f.Panic)
}

type subscriber struct {
	id       Subscription
	observer Observer
}

// Notifier fans events out to registered observers synchronously and in
// subscription order. It holds no references beyond the registration list;
// observers that are no longer needed must be unsubscribed.
type Notifier struct {
	mu       sync.RWMutex
	subs     []subscriber
	nextID   atomic.Uint64
	failures *ring[ObserverFailure]
	metrics  MetricsProvider
}

// NewNotifier creates an empty notifier retaining DefaultFailureHistory
// observer failures.
func NewNotifier() *Notifier {
	return &Notifier{
		failures: newRing[ObserverFailure](DefaultFailureHistory),
	}
}

// Subscribe registers an observer and returns its handle.
// A nil observer is ignored and the zero Subscription is returned.
func (n *Notifier) Subscribe(fn Observer) Subscription {
	if fn == nil {
		return 0
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	id := Subscription(n.nextID.Add(1))
	n.subs = append(n.subs, subscriber{id: id, observer: fn})
	return id
}

// Unsubscribe removes an observer. Returns true if it was registered.
// An observer removed while a publish is in flight may still receive that
// one event.
func (n *Notifier) Unsubscribe(sub Subscription) bool {
	if sub == 0 {
		return false
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.subs {
		if s.id == sub {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Count returns the number of registered observers.
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Publish delivers e to every registered observer and returns once all of
// them have run. A panicking observer is recovered and recorded; delivery
// continues with the rest.
func (n *Notifier) Publish(e Event) {
	n.mu.RLock()
	subs := make([]subscriber, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	for _, s := range subs {
		n.deliver(s, e)
	}
}

// Failures returns recent observer failures, oldest first.
func (n *Notifier) Failures() []ObserverFailure {
	return n.failures.all()
}

// deliver invokes a single observer, isolating any panic.
func (n *Notifier) deliver(s subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			failure := ObserverFailure{
				Subscription: s.id,
				Event:        e,
				Panic:        r,
				Stack:        debug.Stack(),
			}
			n.failures.push(failure)
			capitan.Emit(context.Background(), ObserverPanicked,
				KeyEvent.Field(e.String()),
				KeyError.Field(failure.Error()),
			)
			if n.metrics != nil {
				n.metrics.OnObserverPanic()
			}
		}
	}()
	s.observer(e)
}
