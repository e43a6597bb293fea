package parsers

import (
	"fmt"
	"strings"

	"github.com/username/tradefolio/backend/src/models"
)

const ibkrImportNote = "Imported from Interactive Brokers"

// extractIBKR handles Interactive Brokers flex-query CSV exports. Each row
// already represents a closed round trip with an explicit realized-P&L
// column, so no reconstruction is needed. IBKR rows carry no direction field;
// direction is inferred from the sign of the realized P&L (non-negative means
// long) and the exit price is back-calculated to stay consistent with it.
func extractIBKR(ctx *parseContext) ([]string, error) {
	dateIdx := findColumn(ctx.header, "datetime", "date/time", "tradedate", "date")
	symbolIdx := findColumn(ctx.header, "symbol", "ticker")
	qtyIdx := findColumn(ctx.header, "quantity", "qty")
	priceIdx := findColumn(ctx.header, "tradeprice", "t. price", "price")
	plIdx := findColumn(ctx.header, "fifopnlrealized", "realized p&l", "realized p/l", "realized")
	commissionIdx := findColumn(ctx.header, "ibcommission", "commission", "comm")

	missing := missingRoles(map[string]int{
		"timestamp":    dateIdx,
		"ticker":       symbolIdx,
		"quantity":     qtyIdx,
		"price":        priceIdx,
		"realized p&l": plIdx,
	})
	if missing != "" {
		return nil, fmt.Errorf("interactivebrokers: missing required column: %s", missing)
	}

	results := make([]rowResult, 0, len(ctx.rows))
	for i, row := range ctx.rows {
		symbol := cell(row, symbolIdx)
		if symbol == "" {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: missing ticker", i+2)})
			continue
		}

		quantity, errQ := parseDecimal(cell(row, qtyIdx))
		if errQ != nil || quantity == 0 {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: invalid quantity %q", i+2, cell(row, qtyIdx))})
			continue
		}
		if quantity < 0 {
			quantity = -quantity
		}

		entryPrice, errP := parseDecimal(cell(row, priceIdx))
		if errP != nil || entryPrice <= 0 {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: invalid price %q", i+2, cell(row, priceIdx))})
			continue
		}

		pl, errPL := parseDecimal(cell(row, plIdx))
		if errPL != nil {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: invalid realized P&L %q", i+2, cell(row, plIdx))})
			continue
		}

		ts, ok := parseTimestamp(cell(row, dateIdx), ctx.opts.DefaultDate)
		if !ok {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: unparseable date %q and no default date available", i+2, cell(row, dateIdx))})
			continue
		}

		// Commission is informational here: IBKR's realized P&L is already
		// net of it, so it is not subtracted a second time.
		_ = commissionIdx

		direction := models.DirectionLong
		exitPrice := entryPrice + pl/quantity
		if pl < 0 {
			direction = models.DirectionShort
			exitPrice = entryPrice - pl/quantity
		}

		results = append(results, rowResult{trade: &models.Trade{
			ID:         ctx.idGen(),
			Ticker:     strings.ToUpper(symbol),
			Direction:  direction,
			Quantity:   quantity,
			EntryPrice: entryPrice,
			ExitPrice:  exitPrice,
			Timestamp:  ts,
			RealizedPL: pl,
			Notes:      ibkrImportNote,
			Source:     string(DialectIBKR),
		}})
	}

	trades, _, warnings := foldRows(results)
	ctx.trades = append(ctx.trades, trades...)
	return warnings, nil
}
