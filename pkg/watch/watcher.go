// Package watch calls back when files of interest in a directory change.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/panbanda/gitrends/internal/logging"
	"github.com/sirupsen/logrus"
)

// Watcher monitors a directory and triggers a callback once a burst of
// changes to the watched file names has settled.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	names     map[string]struct{}
	debounce  time.Duration
	logger    *logrus.Logger
	callback  func()
	mu        sync.Mutex
	pending   time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a watcher for the given base names inside dir.
func NewWatcher(dir string, names []string, debounce time.Duration, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		dir:       dir,
		names:     make(map[string]struct{}, len(names)),
		debounce:  debounce,
		logger:    logging.Discard(),
	}
	for _, name := range names {
		w.names[name] = struct{}{}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// SetCallback sets the function to call after changes settle.
func (w *Watcher) SetCallback(cb func()) {
	w.callback = cb
}

// Start watches until ctx is done. Callbacks run one at a time.
func (w *Watcher) Start(ctx context.Context) error {
	// Files are often replaced by rename, so the directory is watched
	// rather than the files themselves.
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return err
	}
	w.logger.WithField("dir", w.dir).Debug("Watching for changes")

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watch error")
		}
	}
}

// handleEvent marks a change as pending when it touches a watched name.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if _, ok := w.names[filepath.Base(event.Name)]; !ok {
		return
	}

	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

// processDebounced fires the callback after the debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	tick := w.debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.ready() && w.callback != nil {
				w.callback()
			}
		}
	}
}

// ready reports and clears a change that has been quiet for the debounce
// period.
func (w *Watcher) ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		return false
	}
	w.pending = time.Time{}
	return true
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}
