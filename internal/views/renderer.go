package views

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"tasktrack/internal/model"
)

// Renderer prints tasks as aligned text rows using a view's columns
type Renderer struct {
	fields []Field
	writer io.Writer
}

// NewRenderer creates a new view renderer
func NewRenderer(view *View, writer io.Writer) *Renderer {
	return &Renderer{fields: view.Columns(), writer: writer}
}

// Render prints one line per task, followed by its subtasks as a tree.
func (r *Renderer) Render(tasks []model.Task) {
	for _, t := range tasks {
		var parts []string
		for _, field := range r.fields {
			parts = append(parts, formatField(t, field))
		}
		_, _ = fmt.Fprintln(r.writer, strings.TrimRight(strings.Join(parts, " "), " "))

		for i, s := range t.Subtasks {
			treeChar := "├─ "
			if i == len(t.Subtasks)-1 {
				treeChar = "└─ "
			}
			_, _ = fmt.Fprintf(r.writer, "    %s%s %s\n", treeChar, checkbox(s.Completed), s.Text)
		}
	}
}

// formatField formats a task field according to field configuration
func formatField(t model.Task, field Field) string {
	var value string

	switch field.Name {
	case "status":
		value = checkbox(t.Completed)
	case "text":
		value = t.Text
	case "priority":
		value = string(t.Priority)
	case "category":
		if t.Category != "" {
			value = "+" + t.Category
		}
	case "due_date":
		if t.DueDate != nil {
			value = "@" + formatTimestamp(*t.DueDate, field.Format)
		}
	case "created":
		value = formatTimestamp(t.CreatedAt, field.Format)
	case "completed":
		if t.CompletedAt != nil {
			value = formatTimestamp(*t.CompletedAt, field.Format)
		}
	case "tags":
		if len(t.Tags) > 0 {
			value = "#" + strings.Join(t.Tags, " #")
		}
	case "subtasks":
		if len(t.Subtasks) > 0 {
			value = fmt.Sprintf("(%d/%d)", t.CompletedSubtasks(), len(t.Subtasks))
		}
	case "id":
		value = t.ID
	}

	if field.Width > 0 {
		if field.Truncate {
			value = runewidth.Truncate(value, field.Width, "")
		}
		pad := max(field.Width-runewidth.StringWidth(value), 0)
		switch field.Align {
		case "right":
			value = strings.Repeat(" ", pad) + value
		case "center":
			leftPad := pad / 2
			value = strings.Repeat(" ", leftPad) + value + strings.Repeat(" ", pad-leftPad)
		default: // left
			value += strings.Repeat(" ", pad)
		}
	}

	return value
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// formatTimestamp formats a timestamp in local time, defaulting to a date
func formatTimestamp(ts model.Timestamp, format string) string {
	if ts.IsZero() {
		return ""
	}
	if format == "" {
		format = model.DateFormat
	}
	return ts.Time().Format(format)
}

// RenderTasksWithView is a convenience function for rendering tasks with a view
func RenderTasksWithView(tasks []model.Task, view *View, writer io.Writer) {
	NewRenderer(view, writer).Render(tasks)
}
