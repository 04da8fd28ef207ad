package latch

import (
	"context"
	"testing"
	"time"
)

func TestChannelWatcher_ForwardsValues(t *testing.T) {
	source := make(chan []byte, 3)
	source <- []byte("1")
	source <- []byte("2")
	source <- []byte("3")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, err := NewChannelWatcher(source).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	for i, exp := range []string{"1", "2", "3"} {
		select {
		case v := <-out:
			if string(v) != exp {
				t.Errorf("expected %s, got %s", exp, string(v))
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timeout waiting for value %d", i)
		}
	}
}

func TestChannelWatcher_ClosesOnSourceClose(t *testing.T) {
	source := make(chan []byte)
	close(source)

	out, err := NewChannelWatcher(source).Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected channel to be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for close")
	}
}

func TestChannelWatcher_ClosesOnCancel(t *testing.T) {
	source := make(chan []byte)
	ctx, cancel := context.WithCancel(context.Background())

	out, err := NewChannelWatcher(source).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	cancel()

	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected channel to be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for close")
	}
}

func TestSyncChannelWatcher_ReturnsSource(t *testing.T) {
	source := make(chan []byte, 1)
	source <- []byte("direct")

	out, err := NewSyncChannelWatcher(source).Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	select {
	case v := <-out:
		if string(v) != "direct" {
			t.Errorf("expected direct, got %s", v)
		}
	default:
		t.Fatal("expected value available without relay goroutine")
	}
}
