package views

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"tasktrack/internal/model"
)

// Derive computes the displayed sequence from tasks and p: completed tasks are
// dropped in focus mode, the search query is matched case-insensitively
// against text, category and tags, and the survivors are stably sorted. The
// input slice is never modified. A nil collator compares with the root locale.
func Derive(tasks []model.Task, p Params, coll *collate.Collator) []model.Task {
	if coll == nil {
		coll = collate.New(language.Und)
	}

	out := FilterTasks(tasks, p.FocusMode, p.Query)
	SortTasks(out, p.SortBy, p.Ascending, coll)
	return out
}

// FilterTasks returns copies of the tasks that pass the focus and search filters.
func FilterTasks(tasks []model.Task, focusMode bool, query string) []model.Task {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if focusMode && t.Completed {
			continue
		}
		if needle != "" && !matchesQuery(t, needle, fold) {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

// matchesQuery reports whether any of text, category or tags contains needle.
func matchesQuery(t model.Task, needle string, fold cases.Caser) bool {
	if strings.Contains(fold.String(t.Text), needle) {
		return true
	}
	if t.Category != "" && strings.Contains(fold.String(t.Category), needle) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(fold.String(tag), needle) {
			return true
		}
	}
	return false
}

// SortTasks stably sorts tasks in place by key. ascending selects the key's
// natural direction; false reverses it. Under SortDueDate tasks without a due
// date are placed last in both directions.
func SortTasks(tasks []model.Task, key SortKey, ascending bool, coll *collate.Collator) {
	natural := comparator(key, coll)
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		if key == SortDueDate {
			if c, decided := compareUndated(a, b); decided {
				return c
			}
		}
		c := natural(a, b)
		if !ascending {
			c = -c
		}
		return c
	})
}

// compareUndated orders dated tasks before undated ones. decided is false when
// both tasks have a due date.
func compareUndated(a, b model.Task) (c int, decided bool) {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0, true
	case a.DueDate == nil:
		return 1, true
	case b.DueDate == nil:
		return -1, true
	}
	return 0, false
}

// comparator returns the natural-direction comparison for key.
func comparator(key SortKey, coll *collate.Collator) func(a, b model.Task) int {
	switch key {
	case SortDueDate:
		return func(a, b model.Task) int {
			return cmp.Compare(*a.DueDate, *b.DueDate)
		}
	case SortPriority:
		return func(a, b model.Task) int {
			return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
		}
	case SortAlphabetical:
		return func(a, b model.Task) int {
			return coll.CompareString(a.Text, b.Text)
		}
	case SortCustom:
		return func(a, b model.Task) int {
			return cmp.Compare(a.OrderValue(), b.OrderValue())
		}
	default:
		// newest first
		return func(a, b model.Task) int {
			return cmp.Compare(b.CreatedAt, a.CreatedAt)
		}
	}
}
