package cache_test

import (
	"sync"
	"testing"

	"tasktrack/internal/cache"
)

// =============================================================================
// Memo Tests
// =============================================================================

type params struct {
	revision uint64
	query    string
}

// TestMemoHit verifies that an unchanged key reuses the cached value.
func TestMemoHit(t *testing.T) {
	var m cache.Memo[params, int]
	calls := 0
	compute := func() int {
		calls++
		return calls
	}

	first := m.Get(params{1, "milk"}, compute)
	second := m.Get(params{1, "milk"}, compute)

	if first != 1 || second != 1 {
		t.Errorf("Get = %d, %d, want 1, 1", first, second)
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
	if s := m.Stats(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Stats = %+v, want 1 hit 1 miss", s)
	}
}

// TestMemoMissOnChangedKey verifies that any field change recomputes.
func TestMemoMissOnChangedKey(t *testing.T) {
	var m cache.Memo[params, string]

	m.Get(params{1, ""}, func() string { return "a" })
	got := m.Get(params{2, ""}, func() string { return "b" })
	if got != "b" {
		t.Errorf("Get after revision change = %q, want b", got)
	}
	got = m.Get(params{2, "x"}, func() string { return "c" })
	if got != "c" {
		t.Errorf("Get after query change = %q, want c", got)
	}
	if s := m.Stats(); s.Misses != 3 || s.Hits != 0 {
		t.Errorf("Stats = %+v, want 3 misses", s)
	}
}

// TestMemoZeroKeyIsNotAHitBeforeFirstCompute verifies the empty memo never
// reports the zero key as cached.
func TestMemoZeroKeyIsNotAHitBeforeFirstCompute(t *testing.T) {
	var m cache.Memo[params, int]
	called := false
	m.Get(params{}, func() int {
		called = true
		return 0
	})
	if !called {
		t.Error("first Get must compute even for the zero key")
	}
}

// TestMemoInvalidate verifies that Invalidate forces recomputation.
func TestMemoInvalidate(t *testing.T) {
	var m cache.Memo[params, int]
	m.Get(params{1, ""}, func() int { return 1 })
	m.Invalidate()

	got := m.Get(params{1, ""}, func() int { return 2 })
	if got != 2 {
		t.Errorf("Get after Invalidate = %d, want 2", got)
	}
}

// TestMemoConcurrentAccess verifies Get is safe for concurrent callers.
func TestMemoConcurrentAccess(t *testing.T) {
	var m cache.Memo[params, int]
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.Get(params{uint64(n % 2), ""}, func() int { return n })
		}(i)
	}
	wg.Wait()

	if s := m.Stats(); s.Hits+s.Misses != 20 {
		t.Errorf("Stats = %+v, want 20 lookups", s)
	}
}
