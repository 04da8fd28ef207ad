package latch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// DefaultInterval is the default time between background samples.
const DefaultInterval = time.Second

// Refresher is the background writer. Once per interval it samples a value
// and offers it to the Session via TryBackgroundWrite. Writes rejected
// because an edit is in progress are dropped and not retried; the next tick
// tries again with a fresh sample.
type Refresher struct {
	session  *Session
	sampler  Sampler
	interval time.Duration
	clock    clockz.Clock
	syncMode bool
	metrics  MetricsProvider
	onStop   func()

	lastError    atomic.Pointer[error]
	errorHistory *ring[error]

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// NewRefresher creates a Refresher writing into session.
//
// Defaults: DefaultInterval, DefaultSampler, real clock. Instance
// configuration uses chainable methods before calling Start():
//
//	r := latch.NewRefresher(session).
//	    Interval(500 * time.Millisecond).
//	    Sampler(mySampler)
func NewRefresher(session *Session) *Refresher {
	return &Refresher{
		session:  session,
		sampler:  DefaultSampler(),
		interval: DefaultInterval,
		clock:    clockz.RealClock,
		done:     make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Interval sets the time between ticks. Non-positive values are ignored.
// Default: 1s. Must be called before Start().
func (r *Refresher) Interval(d time.Duration) *Refresher {
	if d > 0 {
		r.interval = d
	}
	return r
}

// Sampler sets the source of background values. A nil sampler is ignored.
// Default: DefaultSampler(). Must be called before Start().
func (r *Refresher) Sampler(s Sampler) *Refresher {
	if s != nil {
		r.sampler = s
	}
	return r
}

// Clock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic tick testing.
// Must be called before Start().
func (r *Refresher) Clock(clock clockz.Clock) *Refresher {
	r.clock = clock
	return r
}

// SyncMode disables the background goroutine. Start performs only the first
// tick; further ticks are driven by calling Tick. Must be called before Start().
func (r *Refresher) SyncMode() *Refresher {
	r.syncMode = true
	return r
}

// Metrics sets a metrics provider for sampler failures.
// Must be called before Start().
func (r *Refresher) Metrics(provider MetricsProvider) *Refresher {
	r.metrics = provider
	return r
}

// OnStop sets a callback invoked after the loop exits.
// Must be called before Start().
func (r *Refresher) OnStop(fn func()) *Refresher {
	r.onStop = fn
	return r
}

// ErrorHistorySize sets the number of recent sampler errors to retain.
// Use 0 (default) to only retain the most recent error via LastError().
// Must be called before Start().
func (r *Refresher) ErrorHistorySize(n int) *Refresher {
	r.errorHistory = newRing[error](n)
	return r
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// LastError returns the last sampler error, or nil if the last sample
// succeeded.
func (r *Refresher) LastError() error {
	ptr := r.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns recent sampler errors, oldest first.
// Returns nil if error history is not enabled (see ErrorHistorySize).
func (r *Refresher) ErrorHistory() []error {
	return r.errorHistory.all()
}

// Done is closed once the loop has exited. In sync mode it is closed as soon
// as Start returns.
func (r *Refresher) Done() <-chan struct{} {
	return r.done
}

// Start runs the first tick immediately and then ticks once per interval
// until ctx is canceled. It returns without waiting for the loop.
//
// Start can only be called once. Subsequent calls return ErrAlreadyStarted.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.started = true
	r.mu.Unlock()

	capitan.Emit(ctx, RefreshStarted,
		KeySession.Field(r.session.ID()),
		KeyInterval.Field(r.interval),
	)

	if r.syncMode {
		r.Tick(ctx)
		r.stop(ctx)
		return nil
	}

	// The ticker exists before Start returns so a clock advanced right after
	// the first tick is never missed.
	ticker := r.clock.NewTicker(r.interval)
	go r.run(ctx, ticker)
	return nil
}

// Tick performs one iteration: check for cancellation, sample, and offer the
// sample to the session. Returns whether a background write was accepted.
func (r *Refresher) Tick(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}

	start := r.clock.Now()
	v, err := r.sampler.Sample(ctx)
	if err != nil {
		r.setError(fmt.Errorf("sample failed: %w", err))
		capitan.Emit(ctx, RefreshSampleFailed,
			KeySession.Field(r.session.ID()),
			KeyError.Field(err.Error()),
		)
		if r.metrics != nil {
			r.metrics.OnSampleFailure(r.clock.Since(start))
		}
		return false
	}

	r.lastError.Store(nil)
	r.errorHistory.clear()
	return r.session.TryBackgroundWrite(v)
}

// run drives ticks from the ticker until ctx is canceled.
func (r *Refresher) run(ctx context.Context, ticker clockz.Ticker) {
	defer r.stop(ctx)
	defer ticker.Stop()

	r.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			r.Tick(ctx)
		}
	}
}

// stop emits the stopped signal, runs OnStop and closes Done.
func (r *Refresher) stop(ctx context.Context) {
	_, locked := r.session.Read()
	capitan.Emit(ctx, RefreshStopped,
		KeySession.Field(r.session.ID()),
		KeyState.Field(stateOf(locked).String()),
	)
	if r.onStop != nil {
		r.onStop()
	}
	close(r.done)
}

// setError stores an error atomically and adds it to the error history.
func (r *Refresher) setError(err error) {
	e := err
	r.lastError.Store(&e)
	r.errorHistory.push(err)
}
