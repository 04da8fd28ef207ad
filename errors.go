package latch

import "errors"

var (
	// ErrAlreadyStarted is returned when Start is called on a running Refresher.
	ErrAlreadyStarted = errors.New("refresher already started")

	// ErrInvalidRange is returned when a sampler range is empty.
	ErrInvalidRange = errors.New("invalid sample range")

	// ErrNoSample is returned by a WatchSampler before its source has
	// produced a usable value.
	ErrNoSample = errors.New("no sample available")

	// ErrInvalidInput is returned by ParseInput for text that is not an integer.
	ErrInvalidInput = errors.New("invalid input")
)
