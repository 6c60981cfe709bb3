// Package watcher notices writes to the persistent store made by other
// processes, so an open interface can reload instead of showing stale tasks.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tasktrack/internal/utils"
)

// DefaultDebounceDuration batches the burst of events a single save produces.
const DefaultDebounceDuration = 150 * time.Millisecond

// Config holds store watcher configuration.
type Config struct {
	Dir              string                 // Directory to watch
	Match            func(name string) bool // Reports whether a changed file name is relevant; nil matches all
	DebounceDuration time.Duration          // Quiet window after the last event before OnChange fires
	OnChange         func()                 // Called once per burst of relevant events
	Logger           *utils.Logger
}

// Watcher monitors a store directory and reports changes.
type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	mu      sync.Mutex
}

// New creates a watcher for cfg.Dir. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = DefaultDebounceDuration
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.GetLogger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		cfg:    cfg,
		fsw:    fsw,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// StoreFiles matches the value files of the file store: visible *.json
// files, skipping the lock and in-flight temp files.
func StoreFiles(name string) bool {
	base := filepath.Base(name)
	return filepath.Ext(base) == ".json" && base[0] != '.'
}

// DatabaseFiles returns a matcher for an SQLite database and its journal.
func DatabaseFiles(dbPath string) func(string) bool {
	db := filepath.Base(dbPath)
	return func(name string) bool {
		base := filepath.Base(name)
		return base == db || base == db+"-wal" || base == db+"-journal"
	}
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return fmt.Errorf("watcher has been stopped and cannot be restarted")
	}

	if err := w.fsw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.cfg.Dir, err)
	}
	w.cfg.Logger.Debug("watching %s for changes", w.cfg.Dir)

	w.started = true
	go w.eventLoop()
	return nil
}

// Stop stops the watcher and waits for its event loop to exit. Safe to call
// more than once and before Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.stopCh)
	_ = w.fsw.Close()
	started := w.started
	w.mu.Unlock()

	if started {
		<-w.doneCh
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	return w.cfg.Match == nil || w.cfg.Match(event.Name)
}

// eventLoop debounces relevant events into OnChange calls.
func (w *Watcher) eventLoop() {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	// fires when the debounce window expires
	debounceCh := make(chan struct{}, 1)

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.cfg.DebounceDuration, func() {
				select {
				case debounceCh <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.cfg.Logger.Warn("store watcher: %v", err)

		case <-debounceCh:
			w.cfg.Logger.Debug("store changed on disk")
			if w.cfg.OnChange != nil {
				w.cfg.OnChange()
			}
		}
	}
}
