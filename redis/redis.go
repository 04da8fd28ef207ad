// Package redis provides a latch.Watcher that streams samples from a Redis
// string key using keyspace notifications.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Source streams the value of a Redis key. The server must publish keyspace
// events for string commands:
//
//	CONFIG SET notify-keyspace-events K$
type Source struct {
	client *redis.Client
	key    string
	db     int
}

// Option configures a Source.
type Option func(*Source)

// Database sets the logical database whose keyspace channel is subscribed.
// Default: 0.
func Database(n int) Option {
	return func(s *Source) {
		s.db = n
	}
}

// New creates a Source reading key through client.
func New(client *redis.Client, key string, opts ...Option) *Source {
	s := &Source{
		client: client,
		key:    key,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch subscribes to the key's keyspace channel and returns a channel that
// emits the stored value now, if the key exists, and after every write.
// The channel closes when ctx ends or the subscription fails.
func (s *Source) Watch(ctx context.Context) (<-chan []byte, error) {
	pubsub := s.client.Subscribe(ctx, keyspaceChannel(s.db, s.key))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe keyspace: %w", err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer pubsub.Close()

		if !s.emit(ctx, out) {
			return
		}

		notifications := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-notifications:
				if !ok {
					return
				}
				if !isWrite(msg.Payload) {
					continue
				}
				if !s.emit(ctx, out) {
					return
				}
			}
		}
	}()

	return out, nil
}

// emit reads the key and sends its value. A missing key or a failed read
// sends nothing. Returns false once ctx is done.
func (s *Source) emit(ctx context.Context, out chan<- []byte) bool {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		return ctx.Err() == nil
	}
	select {
	case out <- val:
		return true
	case <-ctx.Done():
		return false
	}
}

func keyspaceChannel(db int, key string) string {
	return fmt.Sprintf("__keyspace@%d__:%s", db, key)
}

// isWrite reports whether a keyspace event replaced the key's string value.
func isWrite(op string) bool {
	switch op {
	case "set", "setex", "psetex", "setnx", "setrange", "incrby", "incr", "decr", "decrby", "getset":
		return true
	}
	return false
}
