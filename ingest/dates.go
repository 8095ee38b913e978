package ingest

import (
	"strings"
	"time"
)

// Source files mix Brazilian day-first and ISO layouts, sometimes within the
// same column.
var dateLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2006-01-02",
}

// ParseDateTime parses a cell into an instant. An unparseable or empty value
// yields nil: a missing milestone must stay missing, never default to "now".
func ParseDateTime(raw string) *time.Time {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, clean, time.Local); err == nil {
			return &t
		}
	}
	return nil
}

// HasDate reports whether the cell holds something parseable as a date.
func HasDate(raw string) bool {
	return ParseDateTime(raw) != nil
}
