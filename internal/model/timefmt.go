package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the fixed-width UTC layout used for timestamps stored inside
// document fields. Fixed width keeps lexical and chronological order equal.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// DateLayout is the legacy date-only form of a due date.
const DateLayout = "2006-01-02"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts TimeLayout, RFC 3339 and date-only strings. Date-only
// values resolve to midnight UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimeLayout, time.RFC3339Nano, DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing time %q: unrecognized layout", s)
}
