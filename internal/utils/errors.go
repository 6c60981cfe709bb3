package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ErrTaskNotFound returns an error for when a task is not found.
func ErrTaskNotFound(searchTerm string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("task not found: %s", searchTerm),
		Suggestion: "Check the id or use 'tasktrack list' to see all tasks",
	}
}

// ErrAmbiguousTask returns an error when an id prefix matches several tasks.
func ErrAmbiguousTask(prefix string, matches int) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("id prefix %q matches %d tasks", prefix, matches),
		Suggestion: "Use more characters of the task id",
	}
}

// ErrSubtaskNotFound returns an error for when a subtask is not found.
func ErrSubtaskNotFound(searchTerm string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("subtask not found: %s", searchTerm),
		Suggestion: "Use 'tasktrack list --json' to see subtask ids",
	}
}

// ErrEmptyText returns an error when a task or subtask has no text.
func ErrEmptyText() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("task text cannot be empty"),
		Suggestion: "Provide some text, e.g. tasktrack add \"Buy milk\"",
	}
}

// ErrInvalidImport returns an error when an import file is rejected.
func ErrInvalidImport(path string, err error) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("cannot import %s: %w", path, err),
		Suggestion: "Import a JSON file produced by 'tasktrack export --format json'",
	}
}

// ErrInvalidPriority returns an error for an invalid priority value.
func ErrInvalidPriority(priority string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid priority: %s", priority),
		Suggestion: "Priority must be one of: low, medium, high",
	}
}

// ErrInvalidDate returns an error for an invalid date string.
func ErrInvalidDate(dateStr string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid date: %s", dateStr),
		Suggestion: "Use date format YYYY-MM-DD (e.g., 2026-01-15) or today, tomorrow, +3d, +2w",
	}
}

// ErrInvalidOption returns an error for an invalid enumerated option with valid choices.
func ErrInvalidOption(kind, value string, valid []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid %s: %s", kind, value),
		Suggestion: fmt.Sprintf("Valid options: %s", strings.Join(valid, ", ")),
	}
}

// ErrInvalidPosition returns an error for a reorder position outside the displayed list.
func ErrInvalidPosition(pos, size int) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("position %d out of range", pos),
		Suggestion: fmt.Sprintf("Positions start at 1 and the current list has %d tasks", size),
	}
}
