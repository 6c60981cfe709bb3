// Package file implements a backend.Store that keeps one JSON file per key in
// a directory, serialising access across processes with a lock file.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gofrs/flock"
	"tasktrack/backend"
)

const (
	valueSuffix  = ".json"
	lockFileName = ".lock"
)

// Config holds file backend configuration
type Config struct {
	Dir string // Directory holding one file per key
}

// Backend implements backend.Store for directory-based storage
type Backend struct {
	dir    string // Resolved absolute path
	lock   *flock.Flock
	closed bool
}

// New creates a new file backend, creating the directory if needed
func New(cfg Config) (*Backend, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "tasktrack-data"
	}

	// Resolve relative paths
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = filepath.Join(wd, dir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Backend{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockFileName)),
	}, nil
}

// Dir returns the resolved storage directory
func (b *Backend) Dir() string {
	return b.dir
}

// Close releases the lock file handle
func (b *Backend) Close() error {
	b.closed = true
	return b.lock.Close()
}

// =============================================================================
// Key Operations
// =============================================================================

// Get reads the file stored for key
func (b *Backend) Get(key string) ([]byte, error) {
	if err := backend.ValidateKey(key); err != nil {
		return nil, err
	}
	unlock, err := b.acquire(false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(b.pathFor(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}
	return data, nil
}

// Set writes value for key, replacing the file atomically
func (b *Backend) Set(key string, value []byte) error {
	if err := backend.ValidateKey(key); err != nil {
		return err
	}
	unlock, err := b.acquire(true)
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(b.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, b.pathFor(key)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes the file for key
func (b *Backend) Delete(key string) error {
	if err := backend.ValidateKey(key); err != nil {
		return err
	}
	unlock, err := b.acquire(true)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(b.pathFor(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Keys lists the stored keys
func (b *Backend) Keys() ([]string, error) {
	unlock, err := b.acquire(false)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return b.keysLocked()
}

// Clear removes every stored key
func (b *Backend) Clear() error {
	unlock, err := b.acquire(true)
	if err != nil {
		return err
	}
	defer unlock()

	keys, err := b.keysLocked()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := os.Remove(b.pathFor(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// acquire takes the directory lock (exclusive for writes) and returns its release func
func (b *Backend) acquire(exclusive bool) (func(), error) {
	if b.closed {
		return nil, backend.ErrUnavailable
	}

	var err error
	if exclusive {
		err = b.lock.Lock()
	} else {
		err = b.lock.RLock()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to lock %s: %v", backend.ErrUnavailable, b.dir, err)
	}
	return func() { _ = b.lock.Unlock() }, nil
}

func (b *Backend) keysLocked() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, valueSuffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, valueSuffix))
	}
	slices.Sort(keys)
	return keys, nil
}

func (b *Backend) pathFor(key string) string {
	return filepath.Join(b.dir, key+valueSuffix)
}

// Verify interface compliance at compile time
var _ backend.Store = (*Backend)(nil)
