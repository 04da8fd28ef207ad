package latch

import "context"

// Watcher observes an external source and emits its raw contents on a
// channel each time it changes. WatchSampler parses each payload as an
// integer sample.
type Watcher interface {
	// Watch begins observing the source. Implementations should emit the
	// current contents immediately so a sampler has a value before the
	// first change. The channel is closed when ctx is canceled or the
	// source fails unrecoverably.
	Watch(ctx context.Context) (<-chan []byte, error)
}
