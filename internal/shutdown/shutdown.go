// Package shutdown coordinates releasing the resources a command holds: the
// store, the store watcher and buffered log output. Cleanups run once, in
// reverse registration order, when the command ends or a signal arrives.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"tasktrack/internal/utils"
)

// CleanupFunc releases one resource. The context is cancelled when the
// shutdown deadline passes.
type CleanupFunc func(ctx context.Context) error

type cleanupEntry struct {
	name string
	fn   CleanupFunc
}

// Manager handles graceful shutdown coordination.
type Manager struct {
	mu       sync.Mutex
	cleanups []cleanupEntry
	log      *utils.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
	ran      bool
}

// NewManager creates a shutdown manager that logs cleanup failures to log.
// A nil log uses the global logger.
func NewManager(log *utils.Logger) *Manager {
	if log == nil {
		log = utils.GetLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{log: log, ctx: ctx, cancel: cancel}
}

// RegisterCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first called).
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupEntry{name: name, fn: fn})
}

// Shutdown marks the manager as shutting down and cancels Context. Safe to
// call multiple times and from multiple goroutines.
func (m *Manager) Shutdown() {
	m.once.Do(m.cancel)
}

// IsShutdown returns true if shutdown has been initiated.
func (m *Manager) IsShutdown() bool {
	return m.ctx.Err() != nil
}

// Context returns a context that is cancelled when shutdown is initiated.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// NotifyOn initiates shutdown when one of sigs arrives. The returned func
// stops listening.
func (m *Manager) NotifyOn(sigs ...os.Signal) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			m.log.Debug("received %s, shutting down", sig)
			m.Shutdown()
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}

// Wait initiates shutdown if needed and runs the registered cleanups, once.
// Returns ctx's error when the cleanups do not finish before ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	m.Shutdown()

	m.mu.Lock()
	if m.ran {
		m.mu.Unlock()
		return nil
	}
	m.ran = true
	cleanups := make([]cleanupEntry, len(m.cleanups))
	copy(cleanups, m.cleanups)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i].fn(ctx); err != nil {
				m.log.Warn("cleanup %s: %v", cleanups[i].name, err)
			}
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
