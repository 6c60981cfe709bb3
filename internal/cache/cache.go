// Package cache provides a single-slot memo for derived values that are
// recomputed only when their input tuple changes.
package cache

import "sync"

// Stats counts memo lookups.
type Stats struct {
	Hits   int
	Misses int
}

// Memo caches the value computed for the most recent key.
type Memo[K comparable, V any] struct {
	mu    sync.Mutex
	key   K
	value V
	valid bool
	stats Stats
}

// Get returns the cached value when key equals the last key, otherwise it
// calls compute, caches the result under key, and returns it.
func (m *Memo[K, V]) Get(key K, compute func() V) V {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && m.key == key {
		m.stats.Hits++
		return m.value
	}
	m.stats.Misses++
	m.key = key
	m.value = compute()
	m.valid = true
	return m.value
}

// Invalidate drops the cached value.
func (m *Memo[K, V]) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero V
	m.value = zero
	m.valid = false
}

// Stats returns the hit and miss counters.
func (m *Memo[K, V]) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
