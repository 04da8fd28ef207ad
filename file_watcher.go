package latch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher emits the contents of a file whenever it is written.
//
// The parent directory is watched rather than the file itself, so
// replacements by rename (as most editors and atomic writers do) are seen.
type FileWatcher struct {
	path string
}

// NewFileWatcher creates a FileWatcher for path.
func NewFileWatcher(path string) *FileWatcher {
	return &FileWatcher{path: filepath.Clean(path)}
}

// Watch starts watching the file. Its current contents, if readable, are
// emitted first.
func (w *FileWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	out := make(chan []byte)
	go w.run(ctx, watcher, out)
	return out, nil
}

func (w *FileWatcher) run(ctx context.Context, watcher *fsnotify.Watcher, out chan<- []byte) {
	defer close(out)
	defer watcher.Close()

	if !w.emit(ctx, out) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !w.emit(ctx, out) {
				return
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// emit sends the current file contents. Unreadable files are skipped.
// Returns false if ctx ended while sending.
func (w *FileWatcher) emit(ctx context.Context, out chan<- []byte) bool {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return true
	}
	select {
	case out <- data:
		return true
	case <-ctx.Done():
		return false
	}
}

// Ensure FileWatcher implements Watcher.
var _ Watcher = (*FileWatcher)(nil)
