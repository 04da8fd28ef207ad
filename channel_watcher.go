package latch

import "context"

// ChannelWatcher exposes an existing byte channel as a Watcher.
// Useful for tests and for sources that already push payloads.
type ChannelWatcher struct {
	source <-chan []byte
	direct bool
}

// NewChannelWatcher creates a ChannelWatcher that relays payloads through
// its own goroutine and stops relaying when the Watch context ends.
func NewChannelWatcher(ch <-chan []byte) *ChannelWatcher {
	return &ChannelWatcher{source: ch}
}

// NewSyncChannelWatcher creates a ChannelWatcher that hands back the source
// channel unchanged, with no relay goroutine.
func NewSyncChannelWatcher(ch <-chan []byte) *ChannelWatcher {
	return &ChannelWatcher{source: ch, direct: true}
}

// Watch returns a channel carrying the source payloads.
func (w *ChannelWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	if w.direct {
		return w.source, nil
	}
	out := make(chan []byte)
	go relay(ctx, w.source, out)
	return out, nil
}

// relay copies payloads from in to out until either side is done, then
// closes out.
func relay(ctx context.Context, in <-chan []byte, out chan<- []byte) {
	defer close(out)
	for {
		var payload []byte
		select {
		case <-ctx.Done():
			return
		case v, ok := <-in:
			if !ok {
				return
			}
			payload = v
		}

		select {
		case out <- payload:
		case <-ctx.Done():
			return
		}
	}
}
