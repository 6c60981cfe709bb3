package utils

import (
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// Error Tests
// =============================================================================

// TestErrorWithSuggestionImplementsError verifies interface compliance
func TestErrorWithSuggestionImplementsError(t *testing.T) {
	var _ error = &ErrorWithSuggestion{}
}

// TestErrorWithSuggestionError verifies Error() method output
func TestErrorWithSuggestionError(t *testing.T) {
	err := &ErrorWithSuggestion{
		Err:        errors.New("something went wrong"),
		Suggestion: "Try doing X",
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "something went wrong") {
		t.Errorf("Error() should contain error message, got: %s", errStr)
	}
	if !strings.Contains(errStr, "Suggestion: Try doing X") {
		t.Errorf("Error() should contain suggestion text, got: %s", errStr)
	}
}

// TestErrorWithSuggestionUnwrap verifies Unwrap() for error chain
func TestErrorWithSuggestionUnwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := WrapWithSuggestion(underlying, "suggestion")

	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find the underlying error")
	}

	var ews *ErrorWithSuggestion
	if !errors.As(err, &ews) {
		t.Fatal("errors.As should find *ErrorWithSuggestion")
	}
	if ews.GetSuggestion() != "suggestion" {
		t.Errorf("GetSuggestion() = %q, want %q", ews.GetSuggestion(), "suggestion")
	}
}

// TestErrorConstructors verifies each constructor carries its message and a suggestion
func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMessage string
		wantSuggest string
	}{
		{"task not found", ErrTaskNotFound("abc"), "task not found: abc", "tasktrack list"},
		{"ambiguous", ErrAmbiguousTask("a", 3), `"a" matches 3 tasks`, "more characters"},
		{"subtask not found", ErrSubtaskNotFound("s1"), "subtask not found: s1", "--json"},
		{"empty text", ErrEmptyText(), "cannot be empty", "tasktrack add"},
		{"invalid import", ErrInvalidImport("x.json", errors.New("invalid format")), "cannot import x.json: invalid format", "export --format json"},
		{"invalid priority", ErrInvalidPriority("urgent"), "invalid priority: urgent", "low, medium, high"},
		{"invalid date", ErrInvalidDate("2026-13-45"), "invalid date: 2026-13-45", "YYYY-MM-DD"},
		{"invalid option", ErrInvalidOption("sort", "size", []string{"a", "b"}), "invalid sort: size", "Valid options: a, b"},
		{"invalid position", ErrInvalidPosition(9, 3), "position 9 out of range", "has 3 tasks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			if !strings.Contains(msg, tt.wantMessage) {
				t.Errorf("Error() = %q, want to contain %q", msg, tt.wantMessage)
			}
			var ews *ErrorWithSuggestion
			if !errors.As(tt.err, &ews) {
				t.Fatalf("%s should be an ErrorWithSuggestion", tt.name)
			}
			if !strings.Contains(ews.GetSuggestion(), tt.wantSuggest) {
				t.Errorf("GetSuggestion() = %q, want to contain %q", ews.GetSuggestion(), tt.wantSuggest)
			}
		})
	}
}
