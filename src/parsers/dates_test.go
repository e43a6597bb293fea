package parsers

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	fallback := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    string
		fallback time.Time
		expected time.Time
		ok       bool
	}{
		{
			name:     "rfc3339",
			input:    "2024-01-02T09:31:00Z",
			expected: time.Date(2024, 1, 2, 9, 31, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "iso date and time",
			input:    "2024-01-02 09:31",
			expected: time.Date(2024, 1, 2, 9, 31, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "iso date only",
			input:    "2024-01-02",
			expected: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "us slash date",
			input:    "1/2/2024",
			expected: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "us slash date with time",
			input:    "1/2/2024 09:31:00",
			expected: time.Date(2024, 1, 2, 9, 31, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "unparseable with fallback",
			input:    "not a date",
			fallback: fallback,
			expected: fallback,
			ok:       true,
		},
		{
			name:     "empty with fallback",
			input:    "",
			fallback: fallback,
			expected: fallback,
			ok:       true,
		},
		{
			name:  "unparseable without fallback",
			input: "not a date",
			ok:    false,
		},
		{
			name:  "empty without fallback",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTimestamp(tt.input, tt.fallback)
			if ok != tt.ok {
				t.Fatalf("parseTimestamp(%q) ok = %v, expected %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.expected) {
				t.Errorf("parseTimestamp(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}
