// Package model defines the task data model shared by the repository, the
// view engine, and the export/import codec.
package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyText is returned when a task or subtask has no text after trimming.
var ErrEmptyText = errors.New("task text cannot be empty")

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank orders priorities for sorting: high(0) < medium(1) < low(2).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ParsePriority parses a priority name case-insensitively.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("invalid priority: %q", s)
	}
	return p, nil
}

// Subtask is a checklist item owned by a Task.
type Subtask struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Task is the canonical unit of work. Order is consulted only by the custom
// sort mode.
type Task struct {
	ID                  string      `json:"id"`
	Text                string      `json:"text"`
	Completed           bool        `json:"completed"`
	CompletedAt         *Timestamp  `json:"completedAt,omitempty"`
	Category            string      `json:"category,omitempty"`
	Priority            Priority    `json:"priority"`
	CreatedAt           Timestamp   `json:"createdAt"`
	DueDate             *Timestamp  `json:"dueDate,omitempty"`
	Tags                []string    `json:"tags,omitempty"`
	Subtasks            []Subtask   `json:"subtasks,omitempty"`
	Recurrence          *Recurrence `json:"recurrence,omitempty"`
	Order               *int        `json:"order,omitempty"`
	IsRecurringInstance bool        `json:"isRecurringInstance,omitempty"`
	ParentRecurringID   string      `json:"parentRecurringId,omitempty"`
}

// NewID generates a unique identifier for tasks and subtasks.
func NewID() string {
	return uuid.New().String()
}

// OrderValue returns the custom sort position, treating a missing order as 0.
func (t Task) OrderValue() int {
	if t.Order == nil {
		return 0
	}
	return *t.Order
}

// CompletedSubtasks returns the number of completed subtasks.
func (t Task) CompletedSubtasks() int {
	n := 0
	for _, s := range t.Subtasks {
		if s.Completed {
			n++
		}
	}
	return n
}

// HasTag reports whether the task carries tag (case-insensitive).
func (t Task) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return slices.Contains(t.Tags, tag)
}

// Clone returns a deep copy of t so that mutating the copy never touches the
// original's slices or pointers.
func (t Task) Clone() Task {
	c := t
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.DueDate != nil {
		v := *t.DueDate
		c.DueDate = &v
	}
	if t.Order != nil {
		v := *t.Order
		c.Order = &v
	}
	c.Tags = slices.Clone(t.Tags)
	c.Subtasks = slices.Clone(t.Subtasks)
	if t.Recurrence != nil {
		r := t.Recurrence.Clone()
		c.Recurrence = &r
	}
	return c
}

// ValidateText trims text and rejects it when nothing remains.
func ValidateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyText
	}
	return trimmed, nil
}

// NormalizeTags lower-cases and trims tags, dropping empty entries and
// duplicates while keeping first-insertion order.
func NormalizeTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}
