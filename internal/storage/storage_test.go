package storage

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"tasktrack/backend"
	"tasktrack/backend/memory"
	"tasktrack/internal/model"
	"tasktrack/internal/utils"
)

// =============================================================================
// Helpers
// =============================================================================

func newAdapter(t *testing.T, opts ...memory.Option) (*Adapter, *memory.Store, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	store := memory.New(opts...)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, utils.NewLogger(&buf)), store, &buf
}

// failingStore reports ErrUnavailable for every operation.
type failingStore struct{}

func (failingStore) Get(string) ([]byte, error) { return nil, backend.ErrUnavailable }
func (failingStore) Set(string, []byte) error   { return backend.ErrUnavailable }
func (failingStore) Delete(string) error        { return backend.ErrUnavailable }
func (failingStore) Keys() ([]string, error)    { return nil, backend.ErrUnavailable }
func (failingStore) Clear() error               { return backend.ErrUnavailable }
func (failingStore) Close() error               { return nil }

// =============================================================================
// Load Tests
// =============================================================================

func TestLoadMissingKeyReturnsDefault(t *testing.T) {
	a, _, buf := newAdapter(t)

	got := Load(a, KeyTheme, model.ThemeDark)
	if got != model.ThemeDark {
		t.Errorf("Load(missing) = %q, want default %q", got, model.ThemeDark)
	}
	if buf.Len() != 0 {
		t.Errorf("missing key should not log, got: %s", buf.String())
	}
}

func TestLoadCorruptValueLogsAndReturnsDefault(t *testing.T) {
	a, store, buf := newAdapter(t)
	if err := store.Set(KeyFocusMode, []byte("{not json")); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	got := Load(a, KeyFocusMode, true)
	if !got {
		t.Error("Load(corrupt) should return the default")
	}
	if !strings.Contains(buf.String(), "WARN") || !strings.Contains(buf.String(), "corrupt") {
		t.Errorf("expected warning about corrupt value, got: %s", buf.String())
	}
}

func TestLoadReadFailureReturnsDefault(t *testing.T) {
	var buf bytes.Buffer
	a := New(failingStore{}, utils.NewLogger(&buf))

	got := Load(a, KeyTasks, []model.Task{})
	if got == nil || len(got) != 0 {
		t.Errorf("Load(unavailable) = %v, want empty default", got)
	}
	if !strings.Contains(buf.String(), "failed to read") {
		t.Errorf("expected read failure to be logged, got: %s", buf.String())
	}
}

func TestSaveThenLoad(t *testing.T) {
	a, _, _ := newAdapter(t)
	tasks := []model.Task{{ID: "a", Text: "Buy milk", Priority: model.PriorityLow, CreatedAt: 100}}

	if !a.Save(KeyTasks, tasks) {
		t.Fatal("Save should succeed")
	}
	got := Load[[]model.Task](a, KeyTasks, nil)
	if len(got) != 1 || got[0].ID != "a" || got[0].Text != "Buy milk" || got[0].CreatedAt != 100 {
		t.Errorf("Load after Save = %+v", got)
	}
}

// =============================================================================
// Save Failure Tests
// =============================================================================

func TestSaveQuotaExceededIsSwallowed(t *testing.T) {
	a, store, buf := newAdapter(t, memory.WithQuota(8))

	if a.Save(KeyTasks, []string{"this value is far too long"}) {
		t.Error("Save over quota should report failure")
	}
	if _, err := store.Get(KeyTasks); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("nothing should be stored, Get error = %v", err)
	}
	if !strings.Contains(buf.String(), "ERROR") || !strings.Contains(buf.String(), "quota") {
		t.Errorf("expected quota error to be logged, got: %s", buf.String())
	}
}

func TestSaveUnencodableValueIsSwallowed(t *testing.T) {
	a, _, buf := newAdapter(t)

	if a.Save(KeyTasks, func() {}) {
		t.Error("Save of a func should report failure")
	}
	if !strings.Contains(buf.String(), "failed to encode") {
		t.Errorf("expected encode failure to be logged, got: %s", buf.String())
	}
}

func TestRemoveAndClearAll(t *testing.T) {
	a, store, _ := newAdapter(t)
	a.Save(KeyTheme, model.ThemeDark)
	a.Save(KeyFocusMode, true)

	a.Remove(KeyTheme)
	if _, err := store.Get(KeyTheme); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("theme should be removed, Get error = %v", err)
	}

	a.ClearAll()
	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys error: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("Keys after ClearAll = %v, want none", keys)
	}
}

func TestFailuresNeverPanic(t *testing.T) {
	var buf bytes.Buffer
	a := New(failingStore{}, utils.NewLogger(&buf))

	a.Save(KeyTheme, model.ThemeLight)
	a.Remove(KeyTheme)
	a.ClearAll()

	if strings.Count(buf.String(), "ERROR") != 3 {
		t.Errorf("expected three logged errors, got:\n%s", buf.String())
	}
}
