// Package codec reads and writes backup files: a versioned JSON envelope and
// a flat CSV listing.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"tasktrack/internal/model"
)

// ErrInvalidFormat is returned when an import file is not a valid backup.
var ErrInvalidFormat = errors.New("invalid format")

// Format names an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat parses an export format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown export format %q (must be 'json' or 'csv')", s)
}

// ExportFilename returns the default download name for an export made at now.
func ExportFilename(format Format, now time.Time) string {
	return fmt.Sprintf("tasks-export-%s.%s", now.Format(model.DateFormat), format)
}

// ExportJSON writes the pretty-printed backup envelope.
func ExportJSON(w io.Writer, tasks []model.Task, settings model.AppSettings, now time.Time) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	data := model.ExportData{
		Version:    model.ExportVersion,
		ExportedAt: model.At(now),
		Tasks:      tasks,
		Settings:   settings,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// importEnvelope mirrors model.ExportData with raw fields so the shape can be
// checked before decoding.
type importEnvelope struct {
	Version  *string           `json:"version"`
	Tasks    json.RawMessage   `json:"tasks"`
	Settings *model.AppSettings `json:"settings"`
}

// ImportJSON parses a backup produced by ExportJSON or an older version of
// it. Tasks are migrated through model.Normalize. The returned settings are
// nil when the file carries none. Every failure wraps ErrInvalidFormat.
func ImportJSON(r io.Reader, now time.Time) ([]model.Task, *model.AppSettings, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	var env importEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if env.Version == nil {
		return nil, nil, fmt.Errorf("%w: missing version", ErrInvalidFormat)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(env.Tasks, &entries); err != nil || entries == nil {
		return nil, nil, fmt.Errorf("%w: tasks must be an array", ErrInvalidFormat)
	}

	tasks := make([]model.Task, 0, len(entries))
	for i, entry := range entries {
		var t model.Task
		if !isObject(entry) {
			return nil, nil, fmt.Errorf("%w: task %d is not an object", ErrInvalidFormat, i)
		}
		if err := json.Unmarshal(entry, &t); err != nil {
			return nil, nil, fmt.Errorf("%w: task %d: %v", ErrInvalidFormat, i, err)
		}
		if strings.TrimSpace(t.Text) == "" {
			return nil, nil, fmt.Errorf("%w: task %d has no text", ErrInvalidFormat, i)
		}
		tasks = append(tasks, model.Normalize(t, now))
	}

	if env.Settings != nil {
		s := *env.Settings
		theme, err := model.ParseTheme(string(s.Theme))
		if err != nil {
			theme = model.DefaultSettings().Theme
		}
		s.Theme = theme
		return tasks, &s, nil
	}
	return tasks, nil, nil
}

func isObject(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "{")
}
