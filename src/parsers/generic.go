package parsers

import (
	"fmt"
	"strings"

	"github.com/username/tradefolio/backend/src/models"
)

const genericImportNote = "Imported from CSV"

// extractGeneric is the flexible fallback for journal-style CSVs with no
// recognized broker header. Columns are mapped by keyword; only ticker and
// quantity are strictly required. Rows carrying both entry and exit price
// (and/or an explicit P&L) are already closed round trips and pass through
// directly. When only one price column exists the row is recorded with
// entry == exit as a minimal fallback.
func extractGeneric(ctx *parseContext) ([]string, error) {
	dateIdx := findColumn(ctx.header, "date", "time")
	tickerIdx := findColumn(ctx.header, "ticker", "symbol", "stock", "instrument")
	directionIdx := findColumn(ctx.header, "direction", "side", "type", "position")
	qtyIdx := findColumn(ctx.header, "quantity", "qty", "shares", "size", "contracts")
	entryIdx := findColumn(ctx.header, "entry")
	exitIdx := findColumn(ctx.header, "exit")
	plIdx := findColumn(ctx.header, "p&l", "pnl", "profit", "realized", "gain")
	notesIdx := findColumn(ctx.header, "note", "comment", "setup")

	priceIdx := -1
	if entryIdx < 0 || exitIdx < 0 {
		priceIdx = findColumn(ctx.header, "price")
	}

	missing := missingRoles(map[string]int{
		"ticker":   tickerIdx,
		"quantity": qtyIdx,
	})
	if missing != "" {
		return nil, fmt.Errorf("generic: missing required column: %s", missing)
	}

	results := make([]rowResult, 0, len(ctx.rows))
	for i, row := range ctx.rows {
		ticker := cell(row, tickerIdx)
		if ticker == "" {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: missing ticker", i+2)})
			continue
		}

		quantity, errQ := parseDecimal(cell(row, qtyIdx))
		if errQ != nil || quantity <= 0 {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: invalid quantity %q", i+2, cell(row, qtyIdx))})
			continue
		}

		direction := models.DirectionLong
		if d := strings.ToLower(cell(row, directionIdx)); strings.Contains(d, "short") || strings.Contains(d, "sell") {
			direction = models.DirectionShort
		}

		var entryPrice, exitPrice float64
		if entryIdx >= 0 && exitIdx >= 0 {
			var errE, errX error
			entryPrice, errE = parseDecimal(cell(row, entryIdx))
			exitPrice, errX = parseDecimal(cell(row, exitIdx))
			if errE != nil || errX != nil || entryPrice <= 0 || exitPrice <= 0 {
				results = append(results, rowResult{warning: fmt.Sprintf("row %d: invalid entry or exit price", i+2)})
				continue
			}
		} else {
			price, errP := parseDecimal(cell(row, priceIdx))
			if errP != nil || price <= 0 {
				results = append(results, rowResult{warning: fmt.Sprintf("row %d: invalid price", i+2)})
				continue
			}
			entryPrice, exitPrice = price, price
		}

		var pl float64
		if explicit, err := parseDecimal(cell(row, plIdx)); plIdx >= 0 && err == nil {
			pl = explicit
		} else if direction == models.DirectionLong {
			pl = (exitPrice - entryPrice) * quantity
		} else {
			pl = (entryPrice - exitPrice) * quantity
		}

		ts, ok := parseTimestamp(cell(row, dateIdx), ctx.opts.DefaultDate)
		if !ok {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: unparseable date %q and no default date available", i+2, cell(row, dateIdx))})
			continue
		}

		notes := genericImportNote
		if n := cell(row, notesIdx); n != "" {
			notes = n
		}

		results = append(results, rowResult{trade: &models.Trade{
			ID:         ctx.idGen(),
			Ticker:     strings.ToUpper(ticker),
			Direction:  direction,
			Quantity:   quantity,
			EntryPrice: entryPrice,
			ExitPrice:  exitPrice,
			Timestamp:  ts,
			RealizedPL: pl,
			Notes:      notes,
			Source:     string(DialectGeneric),
		}})
	}

	trades, _, warnings := foldRows(results)
	ctx.trades = append(ctx.trades, trades...)
	return warnings, nil
}
