package utils

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

// =============================================================================
// Input Tests
// =============================================================================

// TestPromptYesNoYes verifies yes responses
func TestPromptYesNoYes(t *testing.T) {
	yesInputs := []string{"y\n", "Y\n", "yes\n", "Yes\n", "YES\n"}

	for _, input := range yesInputs {
		t.Run(input[:len(input)-1], func(t *testing.T) {
			reader := strings.NewReader(input)
			result := PromptYesNoWithReader("Test?", reader, io.Discard)
			if !result {
				t.Errorf("PromptYesNo with input %q = false, want true", input)
			}
		})
	}
}

// TestPromptYesNoNo verifies no responses
func TestPromptYesNoNo(t *testing.T) {
	noInputs := []string{"n\n", "N\n", "no\n", "No\n", "NO\n"}

	for _, input := range noInputs {
		t.Run(input[:len(input)-1], func(t *testing.T) {
			reader := strings.NewReader(input)
			result := PromptYesNoWithReader("Test?", reader, io.Discard)
			if result {
				t.Errorf("PromptYesNo with input %q = true, want false", input)
			}
		})
	}
}

// TestPromptYesNoRetryOnInvalid verifies loop until valid input
func TestPromptYesNoRetryOnInvalid(t *testing.T) {
	// Invalid input followed by valid
	input := "invalid\nmaybe\ny\n"
	reader := strings.NewReader(input)
	var output bytes.Buffer

	result := PromptYesNoWithReader("Test?", reader, &output)
	if !result {
		t.Error("PromptYesNo should return true after valid 'y' input")
	}

	// Should have prompted multiple times
	outputStr := output.String()
	if strings.Count(outputStr, "Test?") < 2 {
		t.Error("PromptYesNo should re-prompt on invalid input")
	}
}

// TestPromptYesNoTrimInput verifies whitespace trimming
func TestPromptYesNoTrimInput(t *testing.T) {
	inputs := []string{"  y  \n", "\ty\t\n", " yes \n"}

	for _, input := range inputs {
		t.Run("trimmed", func(t *testing.T) {
			reader := strings.NewReader(input)
			result := PromptYesNoWithReader("Test?", reader, io.Discard)
			if !result {
				t.Errorf("PromptYesNo with whitespace input %q = false, want true", input)
			}
		})
	}
}

// TestPromptYesNoEOF verifies end of input is treated as no
func TestPromptYesNoEOF(t *testing.T) {
	if PromptYesNoWithReader("Test?", strings.NewReader(""), io.Discard) {
		t.Error("PromptYesNo on empty input = true, want false")
	}
}
