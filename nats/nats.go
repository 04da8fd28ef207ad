// Package nats provides a latch.Watcher that streams samples from a NATS
// JetStream key-value entry.
package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Source streams the value of one key in a JetStream KV bucket.
type Source struct {
	kv      jetstream.KeyValue
	key     string
	history bool
}

// Option configures a Source.
type Option func(*Source)

// IncludeHistory replays every retained revision of the key before live
// updates instead of only the latest one.
func IncludeHistory() Option {
	return func(s *Source) {
		s.history = true
	}
}

// New creates a Source for key in kv.
func New(kv jetstream.KeyValue, key string, opts ...Option) *Source {
	s := &Source{
		kv:  kv,
		key: key,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch returns a channel that emits the key's current value, if any, and
// every later put. Deletes and purges are skipped. The channel closes when
// ctx ends or the KV watch stops.
func (s *Source) Watch(ctx context.Context) (<-chan []byte, error) {
	var watchOpts []jetstream.WatchOpt
	if s.history {
		watchOpts = append(watchOpts, jetstream.IncludeHistory())
	}

	watcher, err := s.kv.Watch(ctx, s.key, watchOpts...)
	if err != nil {
		return nil, fmt.Errorf("watch key %q: %w", s.key, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer watcher.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				// nil marks the end of the initial replay.
				if entry == nil || !isSample(entry.Operation()) {
					continue
				}
				select {
				case out <- entry.Value():
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func isSample(op jetstream.KeyValueOp) bool {
	return op == jetstream.KeyValuePut
}
