// Package backend defines the durable key-value byte store the application
// persists its state into, and the errors its implementations report.
package backend

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Get when no value is stored under the key.
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned by Set when the store is full.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrUnavailable is returned when the store cannot be reached or has been closed.
	ErrUnavailable = errors.New("storage unavailable")
)

// Store is a synchronous, fallible key-value byte store.
type Store interface {
	// Get returns the raw bytes stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Keys returns all stored keys in lexical order.
	Keys() ([]string, error)
	// Clear removes every key.
	Clear() error

	// Connection management
	Close() error
}

// ValidateKey rejects keys that are empty or could escape a storage namespace.
func ValidateKey(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if strings.ContainsAny(key, "/\\") {
		return fmt.Errorf("invalid key %q: contains path separator", key)
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, ".") {
		return fmt.Errorf("invalid key %q: contains path traversal sequence", key)
	}
	return nil
}
