// Package quickadd parses and formats the inline metadata shorthand accepted
// wherever task text is typed: "Task text !high @2026-01-15 #tag +category".
package quickadd

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"tasktrack/internal/model"
	"tasktrack/internal/utils"
)

var (
	priorityPattern = regexp.MustCompile(`(?i)(?:^|\s)!(low|medium|high)\b`)
	dueDatePattern  = regexp.MustCompile(`(?:^|\s)@(\S+)`)
	tagPattern      = regexp.MustCompile(`(?:^|\s)#(\S+)`)
	categoryPattern = regexp.MustCompile(`(?:^|\s)\+([\p{L}\p{N}_-]+)`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// Result holds the pieces extracted from a quick-add line. Zero fields were
// not present in the input.
type Result struct {
	Text     string
	Priority model.Priority
	DueDate  *time.Time
	Tags     []string
	Category string
}

// Parse extracts priority, due date, tags and category tokens from text,
// resolving relative dates against now. Tokens that do not parse are left in
// the text.
func Parse(text string, now time.Time) Result {
	var r Result
	rest := text

	if m := priorityPattern.FindStringSubmatch(rest); m != nil {
		r.Priority = model.Priority(strings.ToLower(m[1]))
		rest = priorityPattern.ReplaceAllString(rest, " ")
	}

	if m := dueDatePattern.FindStringSubmatch(rest); m != nil {
		if due, err := utils.ParseDateFlagAt(m[1], now); err == nil && due != nil {
			r.DueDate = due
			rest = strings.Replace(rest, m[0], " ", 1)
		}
	}

	for _, m := range tagPattern.FindAllStringSubmatch(rest, -1) {
		r.Tags = append(r.Tags, m[1])
	}
	if len(r.Tags) > 0 {
		r.Tags = model.NormalizeTags(r.Tags)
		rest = tagPattern.ReplaceAllString(rest, " ")
	}

	if m := categoryPattern.FindStringSubmatch(rest); m != nil {
		r.Category = m[1]
		rest = strings.Replace(rest, m[0], " ", 1)
	}

	r.Text = strings.TrimSpace(spacePattern.ReplaceAllString(rest, " "))
	return r
}

// Inline reports whether a tag or category can be written as a single
// shorthand token and read back unchanged.
func Inline(s string) bool {
	return !strings.ContainsFunc(s, unicode.IsSpace)
}

// Format renders a task back into quick-add form so it can be edited inline.
// Tags and categories containing whitespace are left out; see Inline.
func Format(t model.Task) string {
	parts := []string{t.Text}

	if t.Priority != "" && t.Priority != model.PriorityMedium {
		parts = append(parts, "!"+string(t.Priority))
	}

	if t.DueDate != nil {
		parts = append(parts, "@"+t.DueDate.Time().Format(model.DateFormat))
	}

	for _, tag := range t.Tags {
		if Inline(tag) {
			parts = append(parts, "#"+tag)
		}
	}

	if t.Category != "" && Inline(t.Category) {
		parts = append(parts, "+"+t.Category)
	}

	return strings.Join(parts, " ")
}
