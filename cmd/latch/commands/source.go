package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/go-zookeeper/zk"
	consulapi "github.com/hashicorp/consul/api"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	goredis "github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/zoobzio/latch"
	"github.com/zoobzio/latch/consul"
	"github.com/zoobzio/latch/etcd"
	"github.com/zoobzio/latch/nats"
	"github.com/zoobzio/latch/redis"
	"github.com/zoobzio/latch/zookeeper"
)

const dialTimeout = 5 * time.Second

// openSource connects to the configured remote store and returns a watcher
// for its key. The returned close function releases the connection.
func openSource(ctx context.Context, src latch.SourceConfig) (latch.Watcher, func(), error) {
	switch src.Kind {
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: src.Address, DialTimeout: dialTimeout})
		return redis.New(client, src.Key), func() { _ = client.Close() }, nil

	case "nats":
		nc, err := natsgo.Connect(src.Address, natsgo.Timeout(dialTimeout))
		if err != nil {
			return nil, nil, fmt.Errorf("connect nats: %w", err)
		}
		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("jetstream: %w", err)
		}
		kv, err := js.KeyValue(ctx, src.Bucket)
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("open bucket %q: %w", src.Bucket, err)
		}
		return nats.New(kv, src.Key), nc.Close, nil

	case "etcd":
		client, err := clientv3.New(clientv3.Config{
			Endpoints:   []string{src.Address},
			DialTimeout: dialTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect etcd: %w", err)
		}
		return etcd.New(client, src.Key), func() { _ = client.Close() }, nil

	case "consul":
		client, err := consulapi.NewClient(&consulapi.Config{Address: src.Address})
		if err != nil {
			return nil, nil, fmt.Errorf("connect consul: %w", err)
		}
		return consul.New(client, src.Key), func() {}, nil

	case "zookeeper":
		conn, _, err := zk.Connect([]string{src.Address}, dialTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("connect zookeeper: %w", err)
		}
		return zookeeper.New(conn, src.Key), conn.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown source kind %q", src.Kind)
}
