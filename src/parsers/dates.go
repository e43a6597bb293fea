package parsers

import (
	"strings"
	"time"
)

// dateLayouts are tried in order after RFC3339. Unambiguous ISO forms come
// first; US-style slash dates follow because every supported broker export
// uses month-first ordering.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006 15:04:05",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006/01/02",
	"01/02/2006 15:04:05 EST",
	"1/2/06 15:04",
}

// parseTimestamp parses a broker-reported date string. When every layout
// fails and a non-zero fallback is supplied (the calendar day the user is
// importing into), the fallback is returned instead of dropping the row.
// ok is false only when parsing fails and no fallback exists.
func parseTimestamp(s string, fallback time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, true
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	if !fallback.IsZero() {
		return fallback, true
	}
	return time.Time{}, false
}
