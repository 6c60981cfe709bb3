// Package repository owns the canonical, ordered task collection. Every
// mutation installs a fresh collection (the previous snapshot is never
// touched) and writes the result through the storage adapter.
package repository

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"tasktrack/internal/model"
	"tasktrack/internal/storage"
)

// ErrDuplicateID is returned by Add when a task with the same id exists.
var ErrDuplicateID = errors.New("task id already exists")

// Option configures a Repository.
type Option func(*Repository)

// WithClock sets the time source used for createdAt and completedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// WithIDGenerator sets the id source used for new tasks and subtasks.
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) {
		r.newID = gen
	}
}

// Repository holds the canonical task collection.
type Repository struct {
	store    *storage.Adapter
	tasks    []model.Task
	revision uint64
	now      func() time.Time
	newID    func() string
}

// New creates an empty repository persisting through store.
func New(store *storage.Adapter, opts ...Option) *Repository {
	r := &Repository{
		store: store,
		tasks: []model.Task{},
		now:   time.Now,
		newID: model.NewID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces the in-memory collection with the persisted one. Records are
// normalized; a missing or corrupt value yields an empty collection.
func (r *Repository) Load() {
	stored := storage.Load(r.store, storage.KeyTasks, []model.Task{})
	r.tasks = dedupe(model.NormalizeAll(stored, r.now()))
	r.revision++
}

// Tasks returns a snapshot of the canonical collection in insertion order.
func (r *Repository) Tasks() []model.Task {
	out := make([]model.Task, len(r.tasks))
	for i, t := range r.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Get returns a copy of the task with id.
func (r *Repository) Get(id string) (model.Task, bool) {
	i := r.index(id)
	if i < 0 {
		return model.Task{}, false
	}
	return r.tasks[i].Clone(), true
}

// Len returns the number of tasks.
func (r *Repository) Len() int {
	return len(r.tasks)
}

// CompletedCount returns the number of completed tasks.
func (r *Repository) CompletedCount() int {
	n := 0
	for _, t := range r.tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// Revision is bumped by every successful mutation.
func (r *Repository) Revision() uint64 {
	return r.revision
}

// Add normalizes task and appends it to the collection. Tasks with empty text
// or an id already in use are rejected without touching the store.
func (r *Repository) Add(task model.Task) (model.Task, error) {
	if _, err := model.ValidateText(task.Text); err != nil {
		return model.Task{}, err
	}
	if task.ID == "" {
		task.ID = r.newID()
	}
	if r.index(task.ID) >= 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrDuplicateID, task.ID)
	}
	task.Subtasks = slices.Clone(task.Subtasks)
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == "" {
			task.Subtasks[i].ID = r.newID()
		}
	}

	task = model.Normalize(task, r.now())
	next := make([]model.Task, len(r.tasks), len(r.tasks)+1)
	copy(next, r.tasks)
	r.commit(append(next, task))
	return task.Clone(), nil
}

// ToggleComplete flips the completed flag of the task with id, setting or
// clearing completedAt. Reports whether the task was found.
func (r *Repository) ToggleComplete(id string) bool {
	return r.update(id, func(t *model.Task) {
		t.Completed = !t.Completed
		if t.Completed {
			t.CompletedAt = model.Ptr(r.now())
		} else {
			t.CompletedAt = nil
		}
	})
}

// Delete removes the task with id and its subtasks.
func (r *Repository) Delete(id string) bool {
	i := r.index(id)
	if i < 0 {
		return false
	}
	r.commit(slices.Concat(r.tasks[:i], r.tasks[i+1:]))
	return true
}

// Edit replaces the task sharing updated's id wholesale. A miss is a no-op
// reporting false; empty text is rejected.
func (r *Repository) Edit(updated model.Task) (bool, error) {
	if _, err := model.ValidateText(updated.Text); err != nil {
		return false, err
	}
	i := r.index(updated.ID)
	if i < 0 {
		return false, nil
	}
	// createdAt is immutable
	updated.CreatedAt = r.tasks[i].CreatedAt
	if updated.CreatedAt.IsZero() {
		updated.CreatedAt = model.At(r.now())
	}
	r.replaceAt(i, model.Normalize(updated, r.now()))
	return true, nil
}

// Reorder assigns order = index to every task of ordered, matched by id.
// Tasks not present in ordered keep their previous order; unknown ids are
// ignored. Reports whether any task was matched.
func (r *Repository) Reorder(ordered []model.Task) bool {
	pos := make(map[string]int, len(ordered))
	for i, t := range ordered {
		if _, seen := pos[t.ID]; !seen {
			pos[t.ID] = i
		}
	}

	next := slices.Clone(r.tasks)
	matched := false
	for i, t := range next {
		p, ok := pos[t.ID]
		if !ok {
			continue
		}
		t.Order = &p
		next[i] = t
		matched = true
	}
	if !matched {
		return false
	}
	r.commit(next)
	return true
}

// AddSubtask appends a subtask to the task with id. The bool reports whether
// the parent was found.
func (r *Repository) AddSubtask(taskID, text string) (model.Subtask, bool, error) {
	trimmed, err := model.ValidateText(text)
	if err != nil {
		return model.Subtask{}, false, err
	}
	if r.index(taskID) < 0 {
		return model.Subtask{}, false, nil
	}
	sub := model.Subtask{ID: r.newID(), Text: trimmed, CreatedAt: model.At(r.now())}
	r.update(taskID, func(t *model.Task) {
		t.Subtasks = append(slices.Clone(t.Subtasks), sub)
	})
	return sub, true, nil
}

// ToggleSubtask flips the completed flag of one subtask.
func (r *Repository) ToggleSubtask(taskID, subtaskID string) bool {
	return r.updateSubtasks(taskID, subtaskID, func(subs []model.Subtask, i int) []model.Subtask {
		subs[i].Completed = !subs[i].Completed
		return subs
	})
}

// DeleteSubtask removes one subtask from its parent.
func (r *Repository) DeleteSubtask(taskID, subtaskID string) bool {
	return r.updateSubtasks(taskID, subtaskID, func(subs []model.Subtask, i int) []model.Subtask {
		return slices.Delete(subs, i, i+1)
	})
}

// Replace installs tasks as the whole collection, normalizing every record.
// Later duplicates of an id are dropped.
func (r *Repository) Replace(tasks []model.Task) {
	r.commit(dedupe(model.NormalizeAll(tasks, r.now())))
}

// update applies fn to a copy of the task with id and installs the result.
func (r *Repository) update(id string, fn func(t *model.Task)) bool {
	i := r.index(id)
	if i < 0 {
		return false
	}
	t := r.tasks[i].Clone()
	fn(&t)
	r.replaceAt(i, t)
	return true
}

// updateSubtasks applies fn to a private copy of the parent's subtasks.
func (r *Repository) updateSubtasks(taskID, subtaskID string, fn func(subs []model.Subtask, i int) []model.Subtask) bool {
	i := r.index(taskID)
	if i < 0 {
		return false
	}
	j := slices.IndexFunc(r.tasks[i].Subtasks, func(s model.Subtask) bool { return s.ID == subtaskID })
	if j < 0 {
		return false
	}
	t := r.tasks[i].Clone()
	t.Subtasks = fn(t.Subtasks, j)
	if len(t.Subtasks) == 0 {
		t.Subtasks = nil
	}
	r.replaceAt(i, t)
	return true
}

func (r *Repository) replaceAt(i int, t model.Task) {
	next := slices.Clone(r.tasks)
	next[i] = t
	r.commit(next)
}

// commit installs next as the canonical collection and writes it through.
func (r *Repository) commit(next []model.Task) {
	if next == nil {
		next = []model.Task{}
	}
	r.tasks = next
	r.revision++
	r.store.Save(storage.KeyTasks, r.tasks)
}

func (r *Repository) index(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(r.tasks, func(t model.Task) bool { return t.ID == id })
}

// dedupe keeps the first task for each id.
func dedupe(tasks []model.Task) []model.Task {
	seen := make(map[string]bool, len(tasks))
	out := tasks[:0:0]
	for _, t := range tasks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	if out == nil {
		return []model.Task{}
	}
	return out
}
