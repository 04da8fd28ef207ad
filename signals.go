package latch

import "github.com/zoobzio/capitan"

// Edit session signals.
var (
	// EditBegun is emitted when an interactive edit session opens.
	EditBegun = capitan.NewSignal(
		"latch.edit.begun",
		"Interactive edit session opened",
	)

	// EditCommitted is emitted when an edit session is committed.
	EditCommitted = capitan.NewSignal(
		"latch.edit.committed",
		"Interactive edit committed",
	)

	// EditCancelled is emitted when an edit session is cancelled.
	EditCancelled = capitan.NewSignal(
		"latch.edit.cancelled",
		"Interactive edit cancelled",
	)
)

// Background write signals.
var (
	// BackgroundAccepted is emitted when a background write is applied.
	BackgroundAccepted = capitan.NewSignal(
		"latch.background.accepted",
		"Background write applied",
	)

	// RefreshDropped is emitted when a background write is dropped because
	// an edit session is open.
	RefreshDropped = capitan.NewSignal(
		"latch.refresh.dropped",
		"Background write dropped during edit",
	)
)

// Refresher lifecycle signals.
var (
	// RefreshStarted is emitted when a Refresher begins ticking.
	RefreshStarted = capitan.NewSignal(
		"latch.refresh.started",
		"Refresh loop started",
	)

	// RefreshStopped is emitted when a Refresher loop exits.
	RefreshStopped = capitan.NewSignal(
		"latch.refresh.stopped",
		"Refresh loop stopped",
	)

	// RefreshSampleFailed is emitted when the sampler returns an error.
	RefreshSampleFailed = capitan.NewSignal(
		"latch.refresh.sample.failed",
		"Sampler failed",
	)
)

// ObserverPanicked is emitted when an observer panics during delivery.
var ObserverPanicked = capitan.NewSignal(
	"latch.observer.panicked",
	"Observer panicked during delivery",
)
