package model

import (
	"strings"
	"time"
)

// Normalize fills defaults and canonicalizes a task read from any external
// source: creation input, an import file, or the persistent store. It is the
// only place defaults are applied. completedAt is left as given.
func Normalize(t Task, now time.Time) Task {
	t = t.Clone()

	if t.ID == "" {
		t.ID = NewID()
	}
	t.Text = strings.TrimSpace(t.Text)
	t.Category = strings.TrimSpace(t.Category)

	if p, err := ParsePriority(string(t.Priority)); err == nil {
		t.Priority = p
	} else {
		t.Priority = PriorityMedium
	}

	if t.CreatedAt.IsZero() {
		t.CreatedAt = At(now)
	}
	if t.DueDate != nil {
		if t.DueDate.IsZero() {
			t.DueDate = nil
		} else {
			d := t.DueDate.Date()
			t.DueDate = &d
		}
	}
	if t.CompletedAt != nil && t.CompletedAt.IsZero() {
		t.CompletedAt = nil
	}

	t.Tags = NormalizeTags(t.Tags)
	t.Subtasks = normalizeSubtasks(t.Subtasks, now)

	if t.Recurrence != nil {
		if t.Recurrence.Interval < 1 {
			t.Recurrence.Interval = 1
		}
		if len(t.Recurrence.DaysOfWeek) == 0 {
			t.Recurrence.DaysOfWeek = nil
		}
	}
	return t
}

// NormalizeAll normalizes every task in tasks into a fresh slice.
func NormalizeAll(tasks []Task, now time.Time) []Task {
	if len(tasks) == 0 {
		return []Task{}
	}
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Normalize(t, now))
	}
	return out
}

// normalizeSubtasks trims subtask text, drops empty entries, and fills ids
// and creation times.
func normalizeSubtasks(subtasks []Subtask, now time.Time) []Subtask {
	var out []Subtask
	for _, s := range subtasks {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		if s.ID == "" {
			s.ID = NewID()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = At(now)
		}
		out = append(out, s)
	}
	return out
}
