package latch

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key session and refresher events.
type MetricsProvider interface {
	// OnLockChange is called when the lock flag flips.
	OnLockChange(locked bool)

	// OnBackgroundWrite is called for every background write attempt.
	// accepted is false when the write was dropped during an edit.
	OnBackgroundWrite(accepted bool)

	// OnInputRejected is called when interactive input is refused.
	OnInputRejected()

	// OnSampleFailure is called when the refresher's sampler fails.
	// Duration is the time spent in the sampler.
	OnSampleFailure(duration time.Duration)

	// OnObserverPanic is called when an observer panics during delivery.
	OnObserverPanic()
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnLockChange(_ bool)             {}
func (NoOpMetricsProvider) OnBackgroundWrite(_ bool)        {}
func (NoOpMetricsProvider) OnInputRejected()                {}
func (NoOpMetricsProvider) OnSampleFailure(_ time.Duration) {}
func (NoOpMetricsProvider) OnObserverPanic()                {}
