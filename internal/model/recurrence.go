package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// RecurrencePattern is the base period of a recurring task.
type RecurrencePattern string

const (
	RecurDaily   RecurrencePattern = "daily"
	RecurWeekly  RecurrencePattern = "weekly"
	RecurMonthly RecurrencePattern = "monthly"
	RecurYearly  RecurrencePattern = "yearly"
)

// Recurrence describes how a task repeats. It is carried as data only; no
// instances are generated from it.
type Recurrence struct {
	Pattern    RecurrencePattern `json:"pattern"`
	Interval   int               `json:"interval"`
	EndDate    *Timestamp        `json:"endDate,omitempty"`
	DaysOfWeek []int             `json:"daysOfWeek,omitempty"`
	DayOfMonth *int              `json:"dayOfMonth,omitempty"`
}

// ParseRecurrencePattern parses a pattern name case-insensitively.
func ParseRecurrencePattern(s string) (RecurrencePattern, error) {
	p := RecurrencePattern(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case RecurDaily, RecurWeekly, RecurMonthly, RecurYearly:
		return p, nil
	}
	return "", fmt.Errorf("invalid recurrence pattern: %q", s)
}

// Validate reports the first problem with the rule, if any.
func (r Recurrence) Validate() error {
	if _, err := ParseRecurrencePattern(string(r.Pattern)); err != nil {
		return err
	}
	if r.Interval < 1 {
		return errors.New("recurrence interval must be at least 1")
	}
	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("invalid weekday %d (must be 0-6)", d)
		}
	}
	if r.DayOfMonth != nil && (*r.DayOfMonth < 1 || *r.DayOfMonth > 31) {
		return fmt.Errorf("invalid day of month %d (must be 1-31)", *r.DayOfMonth)
	}
	return nil
}

// Clone returns a deep copy of r.
func (r Recurrence) Clone() Recurrence {
	c := r
	if r.EndDate != nil {
		v := *r.EndDate
		c.EndDate = &v
	}
	if r.DayOfMonth != nil {
		v := *r.DayOfMonth
		c.DayOfMonth = &v
	}
	c.DaysOfWeek = slices.Clone(r.DaysOfWeek)
	return c
}
