// Package zookeeper provides a latch.Watcher that streams samples from a
// ZooKeeper node.
package zookeeper

import (
	"context"

	"github.com/go-zookeeper/zk"
)

// Source streams the data of a ZooKeeper node. A missing node is waited for.
type Source struct {
	conn *zk.Conn
	path string
}

// New creates a Source for path.
func New(conn *zk.Conn, path string) *Source {
	return &Source{
		conn: conn,
		path: path,
	}
}

// Watch returns a channel that emits the node's data now and after every
// change. ZooKeeper watches are one-shot, so each emission re-arms the
// watch. The channel closes when ctx ends or the connection fails.
func (s *Source) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)

	go func() {
		defer close(out)

		for {
			data, _, events, err := s.conn.GetW(s.path)
			if err == zk.ErrNoNode {
				if !s.awaitCreate(ctx) {
					return
				}
				continue
			}
			if err != nil {
				return
			}

			select {
			case out <- data:
			case <-ctx.Done():
				return
			}

			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				if ev.Err != nil && !rearm(ev.Type) {
					return
				}
			}
		}
	}()

	return out, nil
}

// awaitCreate blocks until the node exists. Returns false once ctx is done
// or the connection fails.
func (s *Source) awaitCreate(ctx context.Context) bool {
	exists, _, events, err := s.conn.ExistsW(s.path)
	if err != nil {
		return false
	}
	if exists {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-events:
		return true
	}
}

// rearm reports whether an event type leaves the node worth watching again.
func rearm(t zk.EventType) bool {
	switch t {
	case zk.EventNodeDataChanged, zk.EventNodeCreated, zk.EventNodeDeleted:
		return true
	}
	return false
}
