// Package consul provides a latch.Watcher that streams samples from a Consul
// KV key using blocking queries.
package consul

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/consul/api"
)

// Source streams the value of a Consul KV key.
type Source struct {
	client   *api.Client
	key      string
	waitTime time.Duration
}

// Option configures a Source.
type Option func(*Source)

// WaitTime bounds each blocking query. Zero uses the server default.
func WaitTime(d time.Duration) Option {
	return func(s *Source) {
		s.waitTime = d
	}
}

// New creates a Source for key.
func New(client *api.Client, key string, opts ...Option) *Source {
	s := &Source{
		client: client,
		key:    key,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch returns a channel that emits the key's current value, if present,
// and the value after every index change. Query errors other than
// cancellation are retried.
func (s *Source) Watch(ctx context.Context) (<-chan []byte, error) {
	kv := s.client.KV()

	pair, meta, err := kv.Get(s.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", s.key, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)

		index := meta.LastIndex
		if pair != nil {
			select {
			case out <- pair.Value:
			case <-ctx.Done():
				return
			}
		}

		for ctx.Err() == nil {
			opts := (&api.QueryOptions{WaitIndex: index, WaitTime: s.waitTime}).WithContext(ctx)
			pair, meta, err := kv.Get(s.key, opts)
			if err != nil {
				continue
			}

			var changed bool
			index, changed = advance(index, meta.LastIndex)
			if !changed || pair == nil {
				continue
			}
			select {
			case out <- pair.Value:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// advance returns the index to wait on next and whether the key changed.
// A lower index means the server reset; waiting restarts from zero.
func advance(last, next uint64) (uint64, bool) {
	switch {
	case next > last:
		return next, true
	case next < last:
		return 0, false
	default:
		return last, false
	}
}
