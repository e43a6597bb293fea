package parsers

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/tradefolio/backend/src/models"
)

// Options controls a single ParseCSV invocation.
type Options struct {
	// Broker forces a dialect instead of auto-detecting from the header.
	Broker Dialect
	// DefaultDate is used for rows whose date cannot be parsed, typically the
	// calendar day the user is importing into. Zero means no fallback and
	// such rows are skipped with a warning.
	DefaultDate time.Time
	// IDGen supplies trade IDs. Defaults to uuid.NewString.
	IDGen func() string
}

// parseContext carries the tokenized file through a dialect extractor.
type parseContext struct {
	header []string   // lower-cased, trimmed header fields
	rows   [][]string // tokenized data rows
	opts   Options
	idGen  func() string
	trades []models.Trade
}

// rowResult is the outcome of extracting one data row: a finished trade, a
// fill still needing reconstruction, a warning, or (all zero) a silent skip.
type rowResult struct {
	trade   *models.Trade
	fill    *models.RawFill
	warning string
}

// foldRows aggregates per-row outcomes. Errors-vs-warnings policy lives here
// as a pure fold instead of mutation scattered through recovery blocks.
func foldRows(results []rowResult) (trades []models.Trade, fills []models.RawFill, warnings []string) {
	for _, r := range results {
		if r.warning != "" {
			warnings = append(warnings, r.warning)
			continue
		}
		if r.trade != nil {
			trades = append(trades, *r.trade)
		}
		if r.fill != nil {
			fills = append(fills, *r.fill)
		}
	}
	return trades, fills, warnings
}

// ParseCSV parses raw CSV text into normalized closed trades. It never
// returns an error: fatal conditions land in the result's Errors list with
// Success=false, per-row problems in Warnings.
func ParseCSV(raw string, opts Options) *models.ParseResult {
	result := &models.ParseResult{
		Trades:   []models.Trade{},
		Errors:   []string{},
		Warnings: []string{},
	}

	lines := splitLines(raw)
	if len(lines) == 0 {
		result.Errors = append(result.Errors, "file is empty")
		return result
	}
	if len(lines) < 2 {
		result.Errors = append(result.Errors, "file contains a header but no data rows")
		return result
	}

	header := SplitCSVLine(lines[0])
	for i := range header {
		header[i] = strings.ToLower(header[i])
	}

	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, SplitCSVLine(line))
	}

	tag := opts.Broker
	if tag == "" {
		tag = DetectDialect(header)
	}
	entry, ok := lookupDialect(tag)
	if !ok {
		result.Errors = append(result.Errors, "unknown broker type: "+string(tag))
		return result
	}
	result.DetectedBroker = string(entry.tag)

	idGen := opts.IDGen
	if idGen == nil {
		idGen = uuid.NewString
	}

	ctx := &parseContext{header: header, rows: rows, opts: opts, idGen: idGen}
	warnings, err := entry.extract(ctx)
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Trades = append(result.Trades, ctx.trades...)
	result.TradesImported = len(result.Trades)
	result.Success = len(result.Trades) > 0
	if !result.Success && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "no valid trades found in file")
	}
	return result
}
