package views

import (
	"strings"

	"tasktrack/internal/utils"
)

// SortKey selects how the displayed sequence is ordered.
type SortKey string

const (
	SortCreatedAt    SortKey = "createdAt"
	SortDueDate      SortKey = "dueDate"
	SortPriority     SortKey = "priority"
	SortAlphabetical SortKey = "alphabetical"
	SortCustom       SortKey = "custom"
)

// SortKeys lists every sort mode in the order the TUI cycles through them.
var SortKeys = []SortKey{SortCreatedAt, SortDueDate, SortPriority, SortAlphabetical, SortCustom}

// ParseSortKey parses a sort mode name case-insensitively.
func ParseSortKey(s string) (SortKey, error) {
	for _, k := range SortKeys {
		if strings.EqualFold(strings.TrimSpace(s), string(k)) {
			return k, nil
		}
	}
	names := make([]string, len(SortKeys))
	for i, k := range SortKeys {
		names[i] = string(k)
	}
	return "", utils.ErrInvalidOption("sort", s, names)
}

// Next returns the sort mode after k, wrapping around.
func (k SortKey) Next() SortKey {
	for i, key := range SortKeys {
		if key == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortKeys[0]
}

// Params are the transient inputs of a derivation besides the tasks
// themselves. Ascending selects the natural direction of the sort mode.
type Params struct {
	FocusMode bool
	Query     string
	SortBy    SortKey
	Ascending bool
}

// DefaultParams returns newest-first with no filtering.
func DefaultParams() Params {
	return Params{SortBy: SortCreatedAt, Ascending: true}
}

// View is a saved preset of view parameters plus the columns the list
// command prints.
type View struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Search      string  `yaml:"search,omitempty"`
	SortBy      SortKey `yaml:"sort_by,omitempty"`
	Ascending   *bool   `yaml:"ascending,omitempty"`
	FocusMode   bool    `yaml:"focus_mode,omitempty"`
	Fields      []Field `yaml:"fields,omitempty"`
}

// Field represents a column in list output
type Field struct {
	Name     string `yaml:"name"`
	Width    int    `yaml:"width,omitempty"`
	Align    string `yaml:"align,omitempty"`  // left, center, right
	Format   string `yaml:"format,omitempty"` // format string for dates
	Truncate bool   `yaml:"truncate,omitempty"`
}

// Apply returns base with the preset's parameters laid over it.
func (v *View) Apply(base Params) Params {
	p := base
	p.Query = v.Search
	p.FocusMode = v.FocusMode
	if v.SortBy != "" {
		p.SortBy = v.SortBy
	}
	p.Ascending = true
	if v.Ascending != nil {
		p.Ascending = *v.Ascending
	}
	return p
}

// Columns returns the preset's fields, or the default columns when none are set.
func (v *View) Columns() []Field {
	if len(v.Fields) == 0 {
		return DefaultFields()
	}
	return v.Fields
}

// AvailableFields returns the list of valid field names
var AvailableFields = []string{
	"status",
	"text",
	"priority",
	"category",
	"due_date",
	"created",
	"completed",
	"tags",
	"subtasks",
	"id",
}

// DefaultFields returns the columns printed when a view names none.
func DefaultFields() []Field {
	return []Field{
		{Name: "id", Width: 8, Truncate: true},
		{Name: "status", Width: 6},
		{Name: "priority", Width: 8},
		{Name: "text"},
		{Name: "due_date"},
		{Name: "category"},
		{Name: "tags"},
		{Name: "subtasks"},
	}
}

// DefaultView returns the built-in default view
func DefaultView() *View {
	return &View{
		Name:        "default",
		Description: "All tasks, newest first",
		SortBy:      SortCreatedAt,
	}
}

// DueView returns the built-in view ordered by due date
func DueView() *View {
	return &View{
		Name:        "due",
		Description: "All tasks, earliest due date first",
		SortBy:      SortDueDate,
	}
}

// FocusView returns the built-in view hiding completed tasks
func FocusView() *View {
	return &View{
		Name:        "focus",
		Description: "Open tasks only, highest priority first",
		SortBy:      SortPriority,
		FocusMode:   true,
	}
}

// builtinViews maps built-in names to their constructors.
var builtinViews = map[string]func() *View{
	"default": DefaultView,
	"due":     DueView,
	"focus":   FocusView,
}

// builtinOrder is the listing order of built-in views.
var builtinOrder = []string{"default", "due", "focus"}
