// Package storage adapts a backend.Store into typed, never-failing load and
// save operations. Read failures fall back to a caller-supplied default and
// write failures are logged and dropped.
package storage

import (
	"encoding/json"
	"errors"

	"tasktrack/backend"
	"tasktrack/internal/utils"
)

// Keys the application persists under.
const (
	KeyTasks     = "tasks"
	KeyTheme     = "theme"
	KeyFocusMode = "focusMode"
)

// Adapter wraps a byte store with JSON encoding and error recovery.
type Adapter struct {
	store backend.Store
	log   *utils.Logger
}

// New creates an Adapter over store. A nil logger uses the global logger.
func New(store backend.Store, log *utils.Logger) *Adapter {
	if log == nil {
		log = utils.GetLogger()
	}
	return &Adapter{store: store, log: log}
}

// Store returns the underlying byte store.
func (a *Adapter) Store() backend.Store {
	return a.store
}

// Load decodes the value stored under key. A missing key returns def
// unchanged; a read or decode failure is logged and also returns def.
func Load[T any](a *Adapter, key string, def T) T {
	raw, err := a.store.Get(key)
	if errors.Is(err, backend.ErrNotFound) {
		return def
	}
	if err != nil {
		a.log.With("key", key).Warn("failed to read stored value: %v", err)
		return def
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		a.log.With("key", key).Warn("stored value is corrupt, using default: %v", err)
		return def
	}
	return v
}

// Save encodes v as JSON and writes it under key. Failures are logged and
// swallowed; the return value only reports whether the write landed.
func (a *Adapter) Save(key string, v any) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		a.log.With("key", key).Error("failed to encode value: %v", err)
		return false
	}
	if err := a.store.Set(key, raw); err != nil {
		a.log.With("key", key).Error("failed to save value: %v", err)
		return false
	}
	a.log.Debug("saved %s (%d bytes)", key, len(raw))
	return true
}

// Remove deletes key, logging any failure.
func (a *Adapter) Remove(key string) {
	if err := a.store.Delete(key); err != nil {
		a.log.With("key", key).Error("failed to remove value: %v", err)
	}
}

// ClearAll removes every stored key, logging any failure.
func (a *Adapter) ClearAll() {
	if err := a.store.Clear(); err != nil {
		a.log.Error("failed to clear storage: %v", err)
	}
}
