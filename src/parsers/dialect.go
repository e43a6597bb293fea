package parsers

import "strings"

// Dialect identifies a broker-specific CSV column layout.
type Dialect string

const (
	DialectTDAmeritrade Dialect = "tdameritrade"
	DialectIBKR         Dialect = "interactivebrokers"
	DialectRobinhood    Dialect = "robinhood"
	DialectWebull       Dialect = "webull"
	DialectGeneric      Dialect = "generic"
)

// dialectEntry couples a dialect tag with its detection predicate and row
// extractor. Adding a broker means adding one entry to the registry, not
// editing a conditional.
type dialectEntry struct {
	tag     Dialect
	detect  func(joinedHeader string) bool
	extract func(ctx *parseContext) ([]string, error) // appends to ctx.trades; returns warnings and a fatal error
}

// registry order is the detection priority: distinctive column names first,
// then TD Ameritrade's weak description+amount rule, which would otherwise
// shadow Robinhood activity reports (those also carry Description and Amount
// columns). Generic is the fallback and has no detect predicate of its own.
var registry = []dialectEntry{
	{
		tag: DialectIBKR,
		detect: func(h string) bool {
			return strings.Contains(h, "clientaccountid") || strings.Contains(h, "proceeds")
		},
		extract: extractIBKR,
	},
	{
		tag: DialectRobinhood,
		detect: func(h string) bool {
			return strings.Contains(h, "activity date") || strings.Contains(h, "trans code")
		},
		extract: extractRobinhood,
	},
	{
		tag: DialectWebull,
		detect: func(h string) bool {
			return strings.Contains(h, "filled qty") || strings.Contains(h, "order number")
		},
		extract: extractWebull,
	},
	{
		tag: DialectTDAmeritrade,
		detect: func(h string) bool {
			return strings.Contains(h, "exec time") ||
				(strings.Contains(h, "description") && strings.Contains(h, "amount"))
		},
		extract: extractTDAmeritrade,
	},
	{
		tag:     DialectGeneric,
		detect:  func(string) bool { return false },
		extract: extractGeneric,
	},
}

// DetectDialect inspects lower-cased header fields and returns the first
// matching dialect tag. Detection is heuristic; callers may override by
// passing an explicit dialect in Options.
func DetectDialect(header []string) Dialect {
	joined := strings.ToLower(strings.Join(header, ","))
	for _, entry := range registry {
		if entry.detect(joined) {
			return entry.tag
		}
	}
	return DialectGeneric
}

func lookupDialect(tag Dialect) (dialectEntry, bool) {
	for _, entry := range registry {
		if entry.tag == tag {
			return entry, true
		}
	}
	return dialectEntry{}, false
}
