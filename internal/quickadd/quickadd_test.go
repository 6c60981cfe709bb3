package quickadd

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tasktrack/internal/model"
)

var now = time.Date(2026, 1, 10, 18, 0, 0, 0, time.Local)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	return &t
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Result
	}{
		{
			name: "plain",
			in:   "Buy milk",
			want: Result{Text: "Buy milk"},
		},
		{
			name: "all tokens",
			in:   "Ship release !HIGH @2026-01-15 #Work #launch +job",
			want: Result{
				Text:     "Ship release",
				Priority: model.PriorityHigh,
				DueDate:  day(2026, 1, 15),
				Tags:     []string{"work", "launch"},
				Category: "job",
			},
		},
		{
			name: "relative date in the middle",
			in:   "Call @tomorrow mom",
			want: Result{Text: "Call mom", DueDate: day(2026, 1, 11)},
		},
		{
			name: "invalid date stays in text",
			in:   "Email me@example.com",
			want: Result{Text: "Email me@example.com"},
		},
		{
			name: "unknown priority stays in text",
			in:   "Wow !urgent",
			want: Result{Text: "Wow !urgent"},
		},
		{
			name: "duplicate tags",
			in:   "a #x #X #y",
			want: Result{Text: "a", Tags: []string{"x", "y"}},
		},
		{
			name: "tags with punctuation",
			in:   "Upgrade #v1.2 #C++ #ops/infra",
			want: Result{Text: "Upgrade", Tags: []string{"v1.2", "c++", "ops/infra"}},
		},
		{
			name: "second category stays in text",
			in:   "Groceries +home +errands",
			want: Result{Text: "Groceries +errands", Category: "home"},
		},
		{
			name: "only tokens",
			in:   "#tag",
			want: Result{Text: "", Tags: []string{"tag"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in, now)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	due := model.Ptr(*day(2026, 2, 1))
	task := model.Task{
		Text:     "Plan trip",
		Priority: model.PriorityLow,
		DueDate:  due,
		Tags:     []string{"travel", "summer"},
		Category: "family",
	}

	line := Format(task)
	if line != "Plan trip !low @2026-02-01 #travel #summer +family" {
		t.Errorf("Format = %q", line)
	}

	got := Parse(line, now)
	if got.Text != task.Text || got.Priority != task.Priority || got.Category != task.Category {
		t.Errorf("Parse(Format) = %+v", got)
	}
	if got.DueDate == nil || model.At(*got.DueDate) != *due {
		t.Errorf("due date = %v, want %v", got.DueDate, due.Time())
	}
	if diff := cmp.Diff(task.Tags, got.Tags); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}
}

func TestFormatOmitsDefaults(t *testing.T) {
	got := Format(model.Task{Text: "Simple", Priority: model.PriorityMedium, Category: "two words"})
	if got != "Simple" {
		t.Errorf("Format = %q, want %q", got, "Simple")
	}
}

func TestFormatParseRoundTripTags(t *testing.T) {
	tests := []struct {
		name     string
		tags     []string
		wantLine string
		wantTags []string
	}{
		{"dotted", []string{"v1.2"}, "Ship it #v1.2", []string{"v1.2"}},
		{"symbols", []string{"c++", "#hash"}, "Ship it #c++ ##hash", []string{"c++", "#hash"}},
		{"whitespace omitted", []string{"two words", "ok"}, "Ship it #ok", []string{"ok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := Format(model.Task{Text: "Ship it", Tags: tt.tags})
			if line != tt.wantLine {
				t.Errorf("Format = %q, want %q", line, tt.wantLine)
			}
			got := Parse(line, now)
			if got.Text != "Ship it" {
				t.Errorf("Text = %q, want %q", got.Text, "Ship it")
			}
			if diff := cmp.Diff(tt.wantTags, got.Tags); diff != "" {
				t.Errorf("tags (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInline(t *testing.T) {
	for in, want := range map[string]bool{"work": true, "v1.2": true, "two words": false, "tab\there": false, "": true} {
		if got := Inline(in); got != want {
			t.Errorf("Inline(%q) = %v, want %v", in, got, want)
		}
	}
}
