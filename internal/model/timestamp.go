package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DateFormat is the calendar date layout used for due dates.
const DateFormat = "2006-01-02"

// Timestamp is an instant stored as milliseconds since the Unix epoch.
// The zero value means "unset".
type Timestamp int64

// At converts a time to a Timestamp, dropping sub-millisecond precision.
func At(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Ptr returns a pointer to a Timestamp for t.
func Ptr(t time.Time) *Timestamp {
	ts := At(t)
	return &ts
}

// Time returns the Timestamp as a local time.Time.
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t))
}

// IsZero reports whether the timestamp is unset.
func (t Timestamp) IsZero() bool {
	return t == 0
}

// Date truncates the timestamp to local midnight of its calendar day.
func (t Timestamp) Date() Timestamp {
	tt := t.Time()
	return At(time.Date(tt.Year(), tt.Month(), tt.Day(), 0, 0, 0, 0, time.Local))
}

// UnmarshalJSON accepts epoch milliseconds as well as RFC 3339 instants and
// YYYY-MM-DD dates written by older exports.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	*t = Timestamp(int64(f))
	return nil
}

// ParseTimestamp parses a timestamp written as epoch milliseconds, an RFC 3339
// instant, or a YYYY-MM-DD date in the local timezone.
func ParseTimestamp(s string) (Timestamp, error) {
	if s == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Timestamp(ms), nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return At(parsed), nil
	}
	if parsed, err := time.ParseInLocation(DateFormat, s, time.Local); err == nil {
		return At(parsed), nil
	}
	return 0, fmt.Errorf("invalid timestamp %q", s)
}
