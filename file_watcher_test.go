package latch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan []byte) string {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		return string(v)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for file contents")
		return ""
	}
}

func TestFileWatcher_EmitsInitialAndChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	if err := os.WriteFile(path, []byte("1000"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := NewFileWatcher(path).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if got := receive(t, out); got != "1000" {
		t.Errorf("expected initial 1000, got %q", got)
	}

	if err := os.WriteFile(path, []byte("2000"), 0o600); err != nil {
		t.Fatal(err)
	}

	// A write may surface as several events; wait for the new contents.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if receive(t, out) == "2000" {
			return
		}
	}
	t.Fatal("did not observe updated contents")
}

func TestFileWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	if err := os.WriteFile(path, []byte("1"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := NewFileWatcher(path).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	receive(t, out)

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("9"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case v := <-out:
		t.Errorf("unexpected emission for sibling file: %q", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "sample.txt")

	if _, err := NewFileWatcher(path).Watch(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFileWatcher_ClosesOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.txt")

	ctx, cancel := context.WithCancel(context.Background())
	out, err := NewFileWatcher(path).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}
