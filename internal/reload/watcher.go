// Package reload applies configuration changes to a running process. Changes
// are detected by polling the file and by SIGHUP.
package reload

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const defaultPollInterval = 5 * time.Second

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// ConfigPath is the path to the configuration file to watch.
	ConfigPath string

	// PollInterval is how often to check for file changes.
	// Defaults to 5 seconds if zero.
	PollInterval time.Duration
}

func (c WatcherConfig) pollIntervalOrDefault() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return defaultPollInterval
}

// EventType describes the type of file change event.
type EventType string

// EventModified indicates the config file was modified.
const EventModified EventType = "modified"

// Event represents a file change notification.
type Event struct {
	Type       EventType
	ConfigPath string
}

// fileState is what the watcher compares between polls. A change in either
// field counts as a modification, so a rewrite within the filesystem's
// timestamp granularity is still seen when the size differs.
type fileState struct {
	modTime time.Time
	size    int64
}

func (s fileState) missing() bool { return s.modTime.IsZero() }

// Watcher polls a configuration file for modifications. Events are
// coalesced: while one is pending, further changes are dropped.
type Watcher struct {
	cfg     WatcherConfig
	events  chan Event
	stop    chan struct{}
	stopped chan struct{}

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWatcher creates a new file watcher.
func NewWatcher(cfg WatcherConfig) *Watcher {
	return &Watcher{
		cfg:     cfg,
		events:  make(chan Event, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins polling. Only the first call starts the goroutine.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.started.Store(true)
		go w.poll(ctx)
	})
}

// Events returns the channel of file change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop stops the watcher and waits for the polling goroutine to exit.
// Safe to call multiple times and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	if w.started.Load() {
		<-w.stopped
	}
}

func (w *Watcher) poll(ctx context.Context) {
	defer close(w.stopped)

	ticker := time.NewTicker(w.cfg.pollIntervalOrDefault())
	defer ticker.Stop()

	last := w.stat()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			current := w.stat()
			if current.missing() || current == last {
				continue
			}
			last = current
			select {
			case w.events <- Event{Type: EventModified, ConfigPath: w.cfg.ConfigPath}:
			default:
			}
		}
	}
}

func (w *Watcher) stat() fileState {
	info, err := os.Stat(w.cfg.ConfigPath)
	if err != nil {
		return fileState{}
	}
	return fileState{modTime: info.ModTime(), size: info.Size()}
}
