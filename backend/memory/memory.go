// Package memory implements an in-process backend.Store, optionally capped by
// a byte quota the way a browser's local storage is.
package memory

import (
	"slices"
	"sync"

	"tasktrack/backend"
)

// Option configures a Store.
type Option func(*Store)

// WithQuota caps the total number of stored value bytes. Zero means unlimited.
func WithQuota(bytes int) Option {
	return func(s *Store) {
		s.quota = bytes
	}
}

// Store implements backend.Store in memory.
type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	quota  int
	closed bool
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{data: make(map[string][]byte)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, backend.ErrUnavailable
	}
	v, ok := s.data[key]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return slices.Clone(v), nil
}

// Set stores a copy of value under key.
func (s *Store) Set(key string, value []byte) error {
	if err := backend.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backend.ErrUnavailable
	}
	if s.quota > 0 && s.usedLocked()-len(s.data[key])+len(value) > s.quota {
		return backend.ErrQuotaExceeded
	}
	s.data[key] = slices.Clone(value)
	return nil
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backend.ErrUnavailable
	}
	delete(s.data, key)
	return nil
}

// Keys returns all keys in lexical order.
func (s *Store) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, backend.ErrUnavailable
	}
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Clear removes every key.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backend.ErrUnavailable
	}
	s.data = make(map[string][]byte)
	return nil
}

// Close marks the store unavailable. Subsequent calls fail with ErrUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Used returns the number of value bytes currently stored.
func (s *Store) Used() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usedLocked()
}

func (s *Store) usedLocked() int {
	n := 0
	for _, v := range s.data {
		n += len(v)
	}
	return n
}

// Verify interface compliance at compile time
var _ backend.Store = (*Store)(nil)
