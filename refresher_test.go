package latch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// sequenceSampler returns the given values in order, then repeats the last.
type sequenceSampler struct {
	mu     sync.Mutex
	values []int
	calls  int
}

func (s *sequenceSampler) Sample(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.values) {
		i = len(s.values) - 1
	}
	s.calls++
	return s.values[i], nil
}

func (s *sequenceSampler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// valueEvents subscribes and forwards every ValueChanged value to a channel.
func valueEvents(s *Session) <-chan int {
	ch := make(chan int, 64)
	s.Subscribe(func(e Event) {
		if e.Kind == ValueChanged {
			ch <- e.Value
		}
	})
	return ch
}

func waitValue(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ValueChanged")
		return 0
	}
}

func TestRefresher_SteadyBackgroundRefresh(t *testing.T) {
	ctx := context.Background()
	s := NewSession()
	rec := record(s)

	r := NewRefresher(s).
		Sampler(&sequenceSampler{values: []int{1000, 2000, 3000}}).
		SyncMode()

	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	r.Tick(ctx)
	r.Tick(ctx)

	assertRead(t, s, 3000, true)
	assertEvents(t, rec.all(),
		ValueChangedEvent(1000),
		ValueChangedEvent(2000),
		ValueChangedEvent(3000),
	)
}

func TestRefresher_EditShieldsFromRefresh(t *testing.T) {
	ctx := context.Background()
	s := NewSession()
	rec := record(s)

	r := NewRefresher(s).
		Sampler(&sequenceSampler{values: []int{5000, 6000}}).
		SyncMode()

	s.BeginEdit()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if r.Tick(ctx) {
		t.Error("expected tick during edit to be dropped")
	}
	s.ApplyInteractiveInput("77")
	s.CommitEdit()

	assertRead(t, s, 77, true)
	for _, e := range rec.all() {
		if e.Kind == ValueChanged && (e.Value == 5000 || e.Value == 6000) {
			t.Fatalf("background sample published during edit: %v", rec.all())
		}
	}
}

func TestRefresher_ResumesAfterEdit(t *testing.T) {
	ctx := context.Background()
	s := NewSession()

	r := NewRefresher(s).
		Sampler(&sequenceSampler{values: []int{5000, 6000, 7000}}).
		SyncMode()

	s.BeginEdit()
	_ = r.Start(ctx)
	r.Tick(ctx)
	s.CommitEdit()

	if !r.Tick(ctx) {
		t.Fatal("expected tick after commit to be accepted")
	}
	assertRead(t, s, 7000, true)
}

func TestRefresher_FakeClockTicks(t *testing.T) {
	clock := clockz.NewFakeClock()
	s := NewSession()
	values := valueEvents(s)

	r := NewRefresher(s).
		Interval(time.Second).
		Sampler(&sequenceSampler{values: []int{1000, 2000, 3000}}).
		Clock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// First tick runs immediately.
	if v := waitValue(t, values); v != 1000 {
		t.Fatalf("expected 1000, got %d", v)
	}

	clock.Advance(time.Second)
	clock.BlockUntilReady()
	if v := waitValue(t, values); v != 2000 {
		t.Fatalf("expected 2000, got %d", v)
	}

	clock.Advance(time.Second)
	clock.BlockUntilReady()
	if v := waitValue(t, values); v != 3000 {
		t.Fatalf("expected 3000, got %d", v)
	}

	assertRead(t, s, 3000, true)
}

func TestRefresher_FakeClockKeepsTicking(t *testing.T) {
	clock := clockz.NewFakeClock()
	s := NewSession()
	values := valueEvents(s)

	want := []int{10, 20, 30, 40, 50, 60, 70, 80}
	r := NewRefresher(s).
		Interval(time.Second).
		Sampler(&sequenceSampler{values: want}).
		Clock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = r.Start(ctx)

	if v := waitValue(t, values); v != want[0] {
		t.Fatalf("expected %d, got %d", want[0], v)
	}
	for _, w := range want[1:] {
		clock.Advance(time.Second)
		clock.BlockUntilReady()
		if v := waitValue(t, values); v != w {
			t.Fatalf("expected %d, got %d", w, v)
		}
	}
}

func TestRefresher_NoTickBeforeInterval(t *testing.T) {
	clock := clockz.NewFakeClock()
	s := NewSession()
	values := valueEvents(s)
	sampler := &sequenceSampler{values: []int{1000, 2000}}

	r := NewRefresher(s).
		Interval(time.Second).
		Sampler(sampler).
		Clock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = r.Start(ctx)
	waitValue(t, values)

	clock.Advance(500 * time.Millisecond)
	clock.BlockUntilReady()

	select {
	case v := <-values:
		t.Fatalf("unexpected tick before interval elapsed: %d", v)
	case <-time.After(50 * time.Millisecond):
	}
	if n := sampler.count(); n != 1 {
		t.Errorf("expected 1 sample, got %d", n)
	}
}

func TestRefresher_StopsPromptlyOnCancel(t *testing.T) {
	clock := clockz.NewFakeClock()
	s := NewSession()
	values := valueEvents(s)

	var stopped atomic.Bool
	r := NewRefresher(s).
		Interval(time.Hour).
		Clock(clock).
		OnStop(func() { stopped.Store(true) })

	ctx, cancel := context.WithCancel(context.Background())
	_ = r.Start(ctx)
	waitValue(t, values)

	// The fake clock is never advanced, so only cancellation can end the wait.
	cancel()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop after cancel")
	}
	if !stopped.Load() {
		t.Error("expected OnStop to be called")
	}
}

func TestRefresher_StartTwice(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRefresher(NewSession()).SyncMode()

	if err := r.Start(ctx); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := r.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestRefresher_SyncModeClosesDone(t *testing.T) {
	r := NewRefresher(NewSession()).SyncMode()
	_ = r.Start(context.Background())

	select {
	case <-r.Done():
	default:
		t.Error("expected Done to be closed in sync mode")
	}
}

func TestRefresher_TickChecksCancellationFirst(t *testing.T) {
	s := NewSession()
	sampler := &sequenceSampler{values: []int{1000}}
	r := NewRefresher(s).Sampler(sampler).SyncMode()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if r.Tick(ctx) {
		t.Error("expected canceled tick to report false")
	}
	if n := sampler.count(); n != 0 {
		t.Errorf("expected sampler not to be called, got %d calls", n)
	}
	assertRead(t, s, 0, true)
}

func TestRefresher_SampleFailure(t *testing.T) {
	ctx := context.Background()
	metrics := &recordingMetrics{}
	s := NewSession()
	rec := record(s)

	failing := true
	sampler := SamplerFunc(func(context.Context) (int, error) {
		if failing {
			return 0, errors.New("sensor offline")
		}
		return 4321, nil
	})

	r := NewRefresher(s).
		Sampler(sampler).
		Metrics(metrics).
		ErrorHistorySize(4).
		SyncMode()

	_ = r.Start(ctx)
	r.Tick(ctx)

	if r.LastError() == nil {
		t.Fatal("expected LastError after failed sample")
	}
	if n := len(r.ErrorHistory()); n != 2 {
		t.Errorf("expected 2 errors in history, got %d", n)
	}
	if metrics.sampleFailures != 2 {
		t.Errorf("expected 2 sample failure metrics, got %d", metrics.sampleFailures)
	}
	assertEvents(t, rec.all())

	failing = false
	if !r.Tick(ctx) {
		t.Fatal("expected tick to succeed once sampler recovers")
	}
	if r.LastError() != nil {
		t.Errorf("expected LastError cleared, got %v", r.LastError())
	}
	if h := r.ErrorHistory(); h != nil {
		t.Errorf("expected history cleared, got %v", h)
	}
	assertRead(t, s, 4321, true)
}

func TestRefresher_IgnoresInvalidConfiguration(t *testing.T) {
	r := NewRefresher(NewSession()).Interval(0).Interval(-time.Second).Sampler(nil)

	if r.interval != DefaultInterval {
		t.Errorf("expected default interval, got %v", r.interval)
	}
	if r.sampler == nil {
		t.Error("expected default sampler retained")
	}
}

func TestRefresher_RealClock(t *testing.T) {
	s := NewSession()
	values := valueEvents(s)

	r := NewRefresher(s).
		Interval(5 * time.Millisecond).
		Sampler(&sequenceSampler{values: []int{1, 2, 3, 4}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = r.Start(ctx)

	for _, want := range []int{1, 2, 3, 4} {
		if v := waitValue(t, values); v != want {
			t.Fatalf("expected %d, got %d", want, v)
		}
	}

	cancel()
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestRefresher_EmitsDroppedSignal(t *testing.T) {
	ctx := context.Background()
	dropped := make(chan int, 8)
	capitan.Hook(RefreshDropped, func(_ context.Context, e *capitan.Event) {
		if v, ok := KeyValue.From(e); ok && v == 8642 {
			select {
			case dropped <- v:
			default:
			}
		}
	})

	s := NewSession()
	r := NewRefresher(s).
		Sampler(SamplerFunc(func(context.Context) (int, error) { return 8642, nil })).
		SyncMode()

	s.BeginEdit()
	_ = r.Start(ctx)

	select {
	case v := <-dropped:
		if v != 8642 {
			t.Errorf("expected dropped value 8642, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for dropped signal")
	}
}
