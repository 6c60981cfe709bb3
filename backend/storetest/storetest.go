// Package storetest provides a conformance suite every backend.Store
// implementation runs from its own tests.
package storetest

import (
	"errors"
	"testing"

	"tasktrack/backend"
)

// Factory creates a fresh, empty store and registers its cleanup.
type Factory func(t *testing.T) backend.Store

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("get_missing_returns_not_found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get("tasks")
		if !errors.Is(err, backend.ErrNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("set_then_get", func(t *testing.T) {
		s := newStore(t)
		mustSet(t, s, "tasks", `[{"id":"a"}]`)

		got, err := s.Get("tasks")
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if string(got) != `[{"id":"a"}]` {
			t.Errorf("Get = %q, want %q", got, `[{"id":"a"}]`)
		}
	})

	t.Run("set_overwrites", func(t *testing.T) {
		s := newStore(t)
		mustSet(t, s, "theme", `"light"`)
		mustSet(t, s, "theme", `"dark"`)

		got, err := s.Get("theme")
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if string(got) != `"dark"` {
			t.Errorf("Get = %q, want %q", got, `"dark"`)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		mustSet(t, s, "focusMode", "true")
		if err := s.Delete("focusMode"); err != nil {
			t.Fatalf("Delete error: %v", err)
		}
		if _, err := s.Get("focusMode"); !errors.Is(err, backend.ErrNotFound) {
			t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
		}
		if err := s.Delete("focusMode"); err != nil {
			t.Errorf("Delete(missing) error = %v, want nil", err)
		}
	})

	t.Run("keys_sorted", func(t *testing.T) {
		s := newStore(t)
		mustSet(t, s, "theme", `"dark"`)
		mustSet(t, s, "focusMode", "false")
		mustSet(t, s, "tasks", "[]")

		keys, err := s.Keys()
		if err != nil {
			t.Fatalf("Keys error: %v", err)
		}
		want := []string{"focusMode", "tasks", "theme"}
		if len(keys) != len(want) {
			t.Fatalf("Keys = %v, want %v", keys, want)
		}
		for i := range want {
			if keys[i] != want[i] {
				t.Errorf("Keys[%d] = %q, want %q", i, keys[i], want[i])
			}
		}
	})

	t.Run("clear", func(t *testing.T) {
		s := newStore(t)
		mustSet(t, s, "theme", `"dark"`)
		mustSet(t, s, "tasks", "[]")
		if err := s.Clear(); err != nil {
			t.Fatalf("Clear error: %v", err)
		}
		keys, err := s.Keys()
		if err != nil {
			t.Fatalf("Keys error: %v", err)
		}
		if len(keys) != 0 {
			t.Errorf("Keys after Clear = %v, want none", keys)
		}
	})

	t.Run("rejects_traversal_keys", func(t *testing.T) {
		s := newStore(t)
		for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
			if err := s.Set(key, []byte("x")); err == nil {
				t.Errorf("Set(%q) should fail", key)
			}
		}
	})

	t.Run("closed_store_is_unavailable", func(t *testing.T) {
		s := newStore(t)
		if err := s.Close(); err != nil {
			t.Fatalf("Close error: %v", err)
		}
		if err := s.Set("tasks", []byte("[]")); !errors.Is(err, backend.ErrUnavailable) {
			t.Errorf("Set after Close error = %v, want ErrUnavailable", err)
		}
	})
}

func mustSet(t *testing.T, s backend.Store, key, value string) {
	t.Helper()
	if err := s.Set(key, []byte(value)); err != nil {
		t.Fatalf("Set(%q) error: %v", key, err)
	}
}
