package repository

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tasktrack/backend/memory"
	"tasktrack/internal/model"
	"tasktrack/internal/storage"
	"tasktrack/internal/utils"
)

// =============================================================================
// Helpers
// =============================================================================

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)

// countingStore records how many writes reached the byte store.
type countingStore struct {
	*memory.Store
	sets int
}

func (c *countingStore) Set(key string, value []byte) error {
	c.sets++
	return c.Store.Set(key, value)
}

func newRepo(t *testing.T) (*Repository, *countingStore) {
	t.Helper()
	store := &countingStore{Store: memory.New()}
	t.Cleanup(func() { _ = store.Close() })

	n := 0
	r := New(storage.New(store, utils.NewLogger(&bytes.Buffer{})),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	return r, store
}

func mustAdd(t *testing.T, r *Repository, task model.Task) model.Task {
	t.Helper()
	added, err := r.Add(task)
	if err != nil {
		t.Fatalf("Add(%q) error: %v", task.Text, err)
	}
	return added
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

// =============================================================================
// Add Tests
// =============================================================================

func TestAddAppendsAndPersists(t *testing.T) {
	r, store := newRepo(t)

	a := mustAdd(t, r, model.Task{Text: "  Buy milk  "})
	mustAdd(t, r, model.Task{Text: "Ship release", Priority: model.PriorityHigh})

	if a.ID != "id-1" || a.Text != "Buy milk" {
		t.Errorf("added task = %+v, want id-1 / trimmed text", a)
	}
	if a.Priority != model.PriorityMedium {
		t.Errorf("priority = %q, want medium", a.Priority)
	}
	if a.CreatedAt != model.At(fixedNow) {
		t.Errorf("createdAt = %d, want %d", a.CreatedAt, model.At(fixedNow))
	}
	if diff := cmp.Diff([]string{"id-1", "id-2"}, ids(r.Tasks())); diff != "" {
		t.Errorf("collection order mismatch (-want +got):\n%s", diff)
	}
	if store.sets != 2 {
		t.Errorf("store writes = %d, want 2", store.sets)
	}
}

func TestAddBlankTextRejectedWithoutWrite(t *testing.T) {
	r, store := newRepo(t)

	_, err := r.Add(model.Task{Text: "   "})
	if !errors.Is(err, model.ErrEmptyText) {
		t.Errorf("Add(blank) error = %v, want ErrEmptyText", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
	if store.sets != 0 {
		t.Errorf("store writes = %d, want 0", store.sets)
	}
}

func TestAddDuplicateIDRejected(t *testing.T) {
	r, store := newRepo(t)
	mustAdd(t, r, model.Task{ID: "x", Text: "first"})

	_, err := r.Add(model.Task{ID: "x", Text: "second"})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Add(dup) error = %v, want ErrDuplicateID", err)
	}
	if r.Len() != 1 || store.sets != 1 {
		t.Errorf("Len = %d, writes = %d, want 1 and 1", r.Len(), store.sets)
	}
}

// =============================================================================
// Toggle / Delete / Edit Tests
// =============================================================================

func TestAddDoesNotWriteIntoCallerSubtasks(t *testing.T) {
	r, _ := newRepo(t)
	subs := []model.Subtask{{Text: "first"}, {Text: "second"}}

	added := mustAdd(t, r, model.Task{Text: "Parent", Subtasks: subs})

	for i, s := range subs {
		if s.ID != "" {
			t.Errorf("caller subtask %d got id %q", i, s.ID)
		}
	}
	for i, s := range added.Subtasks {
		if s.ID == "" {
			t.Errorf("stored subtask %d has no id", i)
		}
	}
}

func TestToggleCompleteIsIdempotentOverTwoCalls(t *testing.T) {
	r, _ := newRepo(t)
	open := mustAdd(t, r, model.Task{Text: "open"})
	done := mustAdd(t, r, model.Task{
		Text:        "done",
		Completed:   true,
		CompletedAt: model.Ptr(fixedNow),
	})

	before := r.Tasks()
	for _, id := range []string{open.ID, done.ID} {
		if !r.ToggleComplete(id) || !r.ToggleComplete(id) {
			t.Fatalf("ToggleComplete(%s) should find the task", id)
		}
	}
	if diff := cmp.Diff(before, r.Tasks()); diff != "" {
		t.Errorf("double toggle changed tasks (-before +after):\n%s", diff)
	}
}

func TestToggleCompleteSetsAndClearsCompletedAt(t *testing.T) {
	r, _ := newRepo(t)
	task := mustAdd(t, r, model.Task{Text: "task"})

	r.ToggleComplete(task.ID)
	got, _ := r.Get(task.ID)
	if !got.Completed || got.CompletedAt == nil || *got.CompletedAt != model.At(fixedNow) {
		t.Errorf("after first toggle = %+v, want completed with completedAt", got)
	}
	if r.CompletedCount() != 1 {
		t.Errorf("CompletedCount = %d, want 1", r.CompletedCount())
	}

	r.ToggleComplete(task.ID)
	got, _ = r.Get(task.ID)
	if got.Completed || got.CompletedAt != nil {
		t.Errorf("after second toggle = %+v, want open without completedAt", got)
	}
}

func TestLookupMissIsNoOp(t *testing.T) {
	r, store := newRepo(t)
	mustAdd(t, r, model.Task{Text: "task"})
	rev := r.Revision()

	if r.ToggleComplete("missing") {
		t.Error("ToggleComplete(missing) = true")
	}
	if r.Delete("missing") {
		t.Error("Delete(missing) = true")
	}
	if ok, err := r.Edit(model.Task{ID: "missing", Text: "x"}); ok || err != nil {
		t.Errorf("Edit(missing) = %v, %v, want false, nil", ok, err)
	}
	if r.ToggleSubtask("missing", "s") || r.DeleteSubtask("missing", "s") {
		t.Error("subtask ops on missing task should report false")
	}
	if r.Revision() != rev || store.sets != 1 {
		t.Errorf("revision %d -> %d, writes = %d; misses must not mutate", rev, r.Revision(), store.sets)
	}
}

func TestDeleteRemovesTask(t *testing.T) {
	r, _ := newRepo(t)
	a := mustAdd(t, r, model.Task{Text: "a"})
	mustAdd(t, r, model.Task{Text: "b"})

	if !r.Delete(a.ID) {
		t.Fatal("Delete should find the task")
	}
	if diff := cmp.Diff([]string{"id-2"}, ids(r.Tasks())); diff != "" {
		t.Errorf("after delete (-want +got):\n%s", diff)
	}
}

func TestEditReplacesWholeTaskKeepingCreatedAt(t *testing.T) {
	r, _ := newRepo(t)
	orig := mustAdd(t, r, model.Task{Text: "draft", Tags: []string{"x"}, Completed: true, CompletedAt: model.Ptr(fixedNow)})

	edited := orig
	edited.Text = "final"
	edited.Tags = nil
	edited.Category = "work"
	edited.CreatedAt = 1
	ok, err := r.Edit(edited)
	if !ok || err != nil {
		t.Fatalf("Edit = %v, %v", ok, err)
	}

	got, _ := r.Get(orig.ID)
	if got.Text != "final" || got.Category != "work" || got.Tags != nil {
		t.Errorf("edited task = %+v", got)
	}
	if got.CreatedAt != orig.CreatedAt {
		t.Errorf("createdAt changed to %d", got.CreatedAt)
	}
	if got.CompletedAt == nil {
		t.Error("completedAt should be kept as given")
	}
}

func TestEditBlankTextRejected(t *testing.T) {
	r, _ := newRepo(t)
	task := mustAdd(t, r, model.Task{Text: "keep"})

	task.Text = " "
	if _, err := r.Edit(task); !errors.Is(err, model.ErrEmptyText) {
		t.Errorf("Edit(blank) error = %v, want ErrEmptyText", err)
	}
	got, _ := r.Get(task.ID)
	if got.Text != "keep" {
		t.Errorf("text = %q, want unchanged", got.Text)
	}
}

// =============================================================================
// Snapshot Tests
// =============================================================================

func TestSnapshotsAreNotAliased(t *testing.T) {
	r, _ := newRepo(t)
	task := mustAdd(t, r, model.Task{Text: "task", Tags: []string{"a"}})

	snap := r.Tasks()
	snap[0].Tags[0] = "mutated"
	snap[0].Text = "mutated"

	got, _ := r.Get(task.ID)
	if got.Text != "task" || got.Tags[0] != "a" {
		t.Errorf("repository affected by snapshot mutation: %+v", got)
	}
}

func TestOldSnapshotUnchangedByMutation(t *testing.T) {
	r, _ := newRepo(t)
	task := mustAdd(t, r, model.Task{Text: "task"})
	snap := r.Tasks()

	r.ToggleComplete(task.ID)
	if snap[0].Completed {
		t.Error("earlier snapshot should not observe later mutation")
	}
}

// =============================================================================
// Reorder Tests
// =============================================================================

func TestReorderAssignsIndices(t *testing.T) {
	r, _ := newRepo(t)
	a := mustAdd(t, r, model.Task{Text: "a"})
	b := mustAdd(t, r, model.Task{Text: "b"})
	c := mustAdd(t, r, model.Task{Text: "c"})
	c.Order = nil

	if !r.Reorder([]model.Task{c, a, b}) {
		t.Fatal("Reorder should match tasks")
	}
	for id, want := range map[string]int{c.ID: 0, a.ID: 1, b.ID: 2} {
		got, _ := r.Get(id)
		if got.Order == nil || *got.Order != want {
			t.Errorf("task %s order = %v, want %d", id, got.Order, want)
		}
	}
	// canonical insertion order is untouched
	if diff := cmp.Diff([]string{a.ID, b.ID, c.ID}, ids(r.Tasks())); diff != "" {
		t.Errorf("insertion order changed (-want +got):\n%s", diff)
	}
}

func TestReorderPartialListKeepsOtherOrders(t *testing.T) {
	r, _ := newRepo(t)
	seven := 7
	a := mustAdd(t, r, model.Task{Text: "a", Order: &seven})
	b := mustAdd(t, r, model.Task{Text: "b"})

	r.Reorder([]model.Task{b})

	gotA, _ := r.Get(a.ID)
	gotB, _ := r.Get(b.ID)
	if gotA.OrderValue() != 7 {
		t.Errorf("absent task order = %d, want 7", gotA.OrderValue())
	}
	if gotB.Order == nil || *gotB.Order != 0 {
		t.Errorf("reordered task order = %v, want 0", gotB.Order)
	}
}

func TestReorderUnknownIDsOnly(t *testing.T) {
	r, store := newRepo(t)
	mustAdd(t, r, model.Task{Text: "a"})

	if r.Reorder([]model.Task{{ID: "ghost"}}) {
		t.Error("Reorder with only unknown ids should report false")
	}
	if store.sets != 1 {
		t.Errorf("store writes = %d, want 1", store.sets)
	}
}

// =============================================================================
// Subtask Tests
// =============================================================================

func TestSubtaskLifecycle(t *testing.T) {
	r, _ := newRepo(t)
	task := mustAdd(t, r, model.Task{Text: "parent"})

	sub, found, err := r.AddSubtask(task.ID, "  step one ")
	if err != nil || !found {
		t.Fatalf("AddSubtask = %v, %v", found, err)
	}
	if sub.Text != "step one" || sub.ID == "" || sub.CreatedAt != model.At(fixedNow) {
		t.Errorf("subtask = %+v", sub)
	}
	second, _, _ := r.AddSubtask(task.ID, "step two")

	if !r.ToggleSubtask(task.ID, sub.ID) {
		t.Fatal("ToggleSubtask should find the subtask")
	}
	got, _ := r.Get(task.ID)
	if got.CompletedSubtasks() != 1 || len(got.Subtasks) != 2 {
		t.Errorf("subtasks = %+v", got.Subtasks)
	}

	if !r.DeleteSubtask(task.ID, sub.ID) {
		t.Fatal("DeleteSubtask should find the subtask")
	}
	got, _ = r.Get(task.ID)
	if len(got.Subtasks) != 1 || got.Subtasks[0].ID != second.ID {
		t.Errorf("remaining subtasks = %+v", got.Subtasks)
	}

	r.DeleteSubtask(task.ID, second.ID)
	got, _ = r.Get(task.ID)
	if got.Subtasks != nil {
		t.Errorf("subtasks = %+v, want nil after deleting all", got.Subtasks)
	}
}

func TestAddSubtaskValidation(t *testing.T) {
	r, _ := newRepo(t)
	task := mustAdd(t, r, model.Task{Text: "parent"})

	if _, _, err := r.AddSubtask(task.ID, " "); !errors.Is(err, model.ErrEmptyText) {
		t.Errorf("AddSubtask(blank) error = %v, want ErrEmptyText", err)
	}
	if _, found, err := r.AddSubtask("missing", "text"); found || err != nil {
		t.Errorf("AddSubtask(missing parent) = %v, %v, want false, nil", found, err)
	}
	if r.ToggleSubtask(task.ID, "missing") {
		t.Error("ToggleSubtask(missing subtask) = true")
	}
}

// =============================================================================
// Load / Replace Tests
// =============================================================================

func TestLoadNormalizesStoredTasks(t *testing.T) {
	store := memory.New()
	raw := `[{"id":"a","text":" Legacy ","tags":["Work","work",""]},{"id":"a","text":"dup"}]`
	if err := store.Set(storage.KeyTasks, []byte(raw)); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	r := New(storage.New(store, utils.NewLogger(&bytes.Buffer{})), WithClock(func() time.Time { return fixedNow }))
	r.Load()

	tasks := r.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("loaded %d tasks, want 1 (duplicate id dropped)", len(tasks))
	}
	want := model.Task{
		ID:        "a",
		Text:      "Legacy",
		Priority:  model.PriorityMedium,
		CreatedAt: model.At(fixedNow),
		Tags:      []string{"work"},
	}
	if diff := cmp.Diff(want, tasks[0]); diff != "" {
		t.Errorf("loaded task mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCorruptStoreYieldsEmpty(t *testing.T) {
	store := memory.New()
	_ = store.Set(storage.KeyTasks, []byte("not json"))

	r := New(storage.New(store, utils.NewLogger(&bytes.Buffer{})))
	r.Load()
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}

func TestPersistedStateRoundTrips(t *testing.T) {
	r, store := newRepo(t)
	mustAdd(t, r, model.Task{Text: "a", Tags: []string{"x"}})
	b := mustAdd(t, r, model.Task{Text: "b"})
	r.ToggleComplete(b.ID)

	reloaded := New(storage.New(store, utils.NewLogger(&bytes.Buffer{})))
	reloaded.Load()
	if diff := cmp.Diff(r.Tasks(), reloaded.Tasks()); diff != "" {
		t.Errorf("reloaded collection mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceInstallsCollection(t *testing.T) {
	r, _ := newRepo(t)
	mustAdd(t, r, model.Task{Text: "old"})
	rev := r.Revision()

	r.Replace([]model.Task{{ID: "n1", Text: "new"}, {ID: "n2", Text: "newer", Completed: true}})

	if diff := cmp.Diff([]string{"n1", "n2"}, ids(r.Tasks())); diff != "" {
		t.Errorf("after Replace (-want +got):\n%s", diff)
	}
	if r.CompletedCount() != 1 {
		t.Errorf("CompletedCount = %d, want 1", r.CompletedCount())
	}
	if r.Revision() <= rev {
		t.Error("Replace should bump the revision")
	}
}
