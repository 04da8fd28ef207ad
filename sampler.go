package latch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
)

// Default bounds for RandomSampler, half-open: [DefaultMin, DefaultMax).
const (
	DefaultMin = 1000
	DefaultMax = 10000
)

// Sampler produces the next candidate value for a background write.
type Sampler interface {
	Sample(ctx context.Context) (int, error)
}

// SamplerFunc adapts a function into a Sampler.
type SamplerFunc func(ctx context.Context) (int, error)

// Sample calls f.
func (f SamplerFunc) Sample(ctx context.Context) (int, error) {
	return f(ctx)
}

// RandomSampler draws uniformly from [min, max).
type RandomSampler struct {
	min int
	max int
}

// NewRandomSampler creates a RandomSampler over [minValue, maxValue).
// Returns ErrInvalidRange if the range is empty.
func NewRandomSampler(minValue, maxValue int) (*RandomSampler, error) {
	if maxValue <= minValue {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, minValue, maxValue)
	}
	return &RandomSampler{min: minValue, max: maxValue}, nil
}

// DefaultSampler returns a RandomSampler over [DefaultMin, DefaultMax).
func DefaultSampler() *RandomSampler {
	return &RandomSampler{min: DefaultMin, max: DefaultMax}
}

// Sample returns a uniformly distributed value in the sampler's range.
// The span is computed unsigned so the full int range is usable.
func (s *RandomSampler) Sample(_ context.Context) (int, error) {
	span := uint64(s.max) - uint64(s.min)
	return int(uint64(s.min) + rand.Uint64N(span)), nil
}

// Ensure RandomSampler implements Sampler.
var _ Sampler = (*RandomSampler)(nil)

// WatchSampler adapts a Watcher into a Sampler. Each payload emitted by the
// watcher is parsed with ParseInput; the latest valid one is returned by
// Sample. Payloads that do not parse are ignored and recorded in LastError.
type WatchSampler struct {
	latest    atomic.Pointer[int]
	lastError atomic.Pointer[error]
	done      chan struct{}
}

// NewWatchSampler starts watching w and returns a sampler fed by it.
// The sampler stops consuming when ctx is canceled or the watcher closes
// its channel.
func NewWatchSampler(ctx context.Context, w Watcher) (*WatchSampler, error) {
	changes, err := w.Watch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}

	s := &WatchSampler{done: make(chan struct{})}
	go s.consume(ctx, changes)
	return s, nil
}

// Sample returns the latest value received from the watcher, or ErrNoSample
// if none has arrived yet.
func (s *WatchSampler) Sample(_ context.Context) (int, error) {
	ptr := s.latest.Load()
	if ptr == nil {
		return 0, ErrNoSample
	}
	return *ptr, nil
}

// LastError returns the last parse error, or nil if the most recent payload
// was valid.
func (s *WatchSampler) LastError() error {
	ptr := s.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// Done is closed once the sampler stops consuming the watcher.
func (s *WatchSampler) Done() <-chan struct{} {
	return s.done
}

func (s *WatchSampler) consume(ctx context.Context, changes <-chan []byte) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-changes:
			if !ok {
				return
			}
			n, err := ParseInput(string(raw))
			if err != nil {
				e := err
				s.lastError.Store(&e)
				continue
			}
			s.latest.Store(&n)
			s.lastError.Store(nil)
		}
	}
}

// Ensure WatchSampler implements Sampler.
var _ Sampler = (*WatchSampler)(nil)
