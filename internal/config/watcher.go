package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event carries one configuration reload result.
type Event struct {
	Config *Config
	Error  error
}

// Watcher monitors a single pulse.toml file and reloads it on change.
// Editors replace files rather than rewrite them, so the watch is on the
// containing directory and filtered to the config filename.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	events   chan Event
	debounce time.Duration
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		path:     path,
		watcher:  fsWatcher,
		events:   make(chan Event, 10),
		debounce: 100 * time.Millisecond,
	}, nil
}

// Events returns the channel that receives reload results.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching. It returns after registering the watch; reloads
// are delivered on Events until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	go w.run(ctx)
	return nil
}

// Stop closes the underlying fsnotify watcher. The events channel is owned
// by run, which closes it once the watch terminates; closing it here would
// race with a debounced send still in flight.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.events)

	var pending *time.Time
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				now := time.Now()
				pending = &now
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.deliver(ctx, Event{Error: err})

		case <-ticker.C:
			if pending != nil && time.Since(*pending) >= w.debounce {
				pending = nil
				cfg, err := Load(w.path)
				w.deliver(ctx, Event{Config: cfg, Error: err})
			}
		}
	}
}

// deliver sends one event without blocking teardown on an absent consumer.
func (w *Watcher) deliver(ctx context.Context, evt Event) {
	select {
	case w.events <- evt:
	case <-ctx.Done():
	}
}
