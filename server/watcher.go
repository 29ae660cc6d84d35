package server

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the config file and the sqlite database file (when the
// record source is file-backed) and reloads the record set on change.
type Watcher struct {
	watcher *fsnotify.Watcher
	server  *Server
	targets map[string]bool
	stdout  io.Writer
	stderr  io.Writer

	// Track last change time to debounce rapid changes
	mu         sync.Mutex
	lastChange time.Time
}

// NewWatcher creates a file watcher for record-set hot reload.
func NewWatcher(s *Server, configPath string, stdout, stderr io.Writer) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fsWatcher,
		server:  s,
		targets: make(map[string]bool),
		stdout:  stdout,
		stderr:  stderr,
	}

	if configPath != "" {
		w.addTarget(configPath)
	}
	if s.config.Database.Driver == "sqlite" {
		w.addTarget(s.config.Database.DSN)
	}

	return w, nil
}

func (w *Watcher) addTarget(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	w.targets[abs] = true
}

// Start begins watching. Editors replace files rather than write in place,
// so the parent directories are watched and events filtered by name.
func (w *Watcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for target := range w.targets {
		dirs[filepath.Dir(target)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.targets[abs] {
				continue
			}
			if !w.debounce() {
				continue
			}
			if err := w.server.reload(); err != nil {
				fmt.Fprintf(w.stderr, "reload failed: %v\n", err)
				continue
			}
			fmt.Fprintf(w.stdout, "reloaded records after change to %s\n", filepath.Base(abs))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(w.stderr, "watch error: %v\n", err)
		}
	}
}

// debounce suppresses the bursts of events editors emit for one save.
func (w *Watcher) debounce() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if now.Sub(w.lastChange) < 250*time.Millisecond {
		return false
	}
	w.lastChange = now
	return true
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
