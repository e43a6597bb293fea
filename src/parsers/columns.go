package parsers

import (
	"fmt"
	"strconv"
	"strings"
)

// findColumn returns the index of the first header field containing any of
// the given keywords, or -1 when none match. Header fields are expected to be
// lower-cased already.
func findColumn(header []string, keywords ...string) int {
	for i, field := range header {
		for _, kw := range keywords {
			if strings.Contains(field, kw) {
				return i
			}
		}
	}
	return -1
}

// cell returns the row value at idx, or "" when the row is short or the
// column was not mapped.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseDecimal parses a broker-formatted number: optional currency symbol,
// thousands separators, and accounting-style parentheses for negatives.
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(s, "+")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if negative {
		v = -v
	}
	return v, nil
}
