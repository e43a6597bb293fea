package parsers

import "strings"

// SplitCSVLine splits one raw CSV line into trimmed fields, honoring
// double-quote-enclosed fields that may contain commas. Quotes toggle an
// in-quotes flag and are not included in the output; unbalanced quotes
// consume to the end of the line rather than erroring.
func SplitCSVLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if inQuotes {
				current.WriteRune(r)
			} else {
				fields = append(fields, strings.TrimSpace(current.String()))
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

// splitLines breaks raw CSV text into non-empty lines, tolerating both
// \n and \r\n endings.
func splitLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
