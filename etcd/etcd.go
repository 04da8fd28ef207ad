// Package etcd provides a latch.Watcher that streams samples from an etcd key.
package etcd

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Source streams the value of an etcd key.
type Source struct {
	client *clientv3.Client
	key    string
}

// New creates a Source for key.
func New(client *clientv3.Client, key string) *Source {
	return &Source{
		client: client,
		key:    key,
	}
}

// Watch reads the key, then watches from the next revision so no put between
// the read and the watch is lost. The channel emits the current value, if
// any, and every later put; deletes are skipped.
func (s *Source) Watch(ctx context.Context) (<-chan []byte, error) {
	resp, err := s.client.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", s.key, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)

		if len(resp.Kvs) > 0 && !send(ctx, out, resp.Kvs[0].Value) {
			return
		}

		updates := s.client.Watch(ctx, s.key, clientv3.WithRev(resp.Header.Revision+1))
		for {
			select {
			case <-ctx.Done():
				return
			case wr, ok := <-updates:
				if !ok {
					return
				}
				if wr.Err() != nil {
					continue
				}
				for _, value := range puts(wr.Events) {
					if !send(ctx, out, value) {
						return
					}
				}
			}
		}
	}()

	return out, nil
}

// puts returns the values written by PUT events, in order.
func puts(events []*clientv3.Event) [][]byte {
	var values [][]byte
	for _, ev := range events {
		if ev.Type == clientv3.EventTypePut {
			values = append(values, ev.Kv.Value)
		}
	}
	return values
}

func send(ctx context.Context, out chan<- []byte, value []byte) bool {
	select {
	case out <- value:
		return true
	case <-ctx.Done():
		return false
	}
}
