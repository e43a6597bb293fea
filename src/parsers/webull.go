package parsers

import (
	"fmt"
	"strings"

	"github.com/username/tradefolio/backend/src/models"
)

const webullImportNote = "Imported from WeBull"

// extractWebull handles WeBull order export CSVs. Orders are per-fill rows
// with an explicit side column; when a status column is present, only filled
// orders count. Buys and sells are matched into round trips per
// (ticker, quantity) pair, the same pairing scheme Robinhood uses.
func extractWebull(ctx *parseContext) ([]string, error) {
	timeIdx := findColumn(ctx.header, "filled time", "placed time", "time", "date")
	symbolIdx := findColumn(ctx.header, "symbol", "ticker")
	sideIdx := findColumn(ctx.header, "side", "action")
	qtyIdx := findColumn(ctx.header, "filled qty", "filled", "quantity", "qty")
	priceIdx := findColumn(ctx.header, "avg price", "price")
	statusIdx := findColumn(ctx.header, "status")

	missing := missingRoles(map[string]int{
		"timestamp": timeIdx,
		"ticker":    symbolIdx,
		"direction": sideIdx,
		"quantity":  qtyIdx,
		"price":     priceIdx,
	})
	if missing != "" {
		return nil, fmt.Errorf("webull: missing required column: %s", missing)
	}

	results := make([]rowResult, 0, len(ctx.rows))
	for i, row := range ctx.rows {
		if statusIdx >= 0 && !strings.EqualFold(cell(row, statusIdx), "filled") {
			continue
		}

		sideRaw := strings.ToLower(cell(row, sideIdx))
		var side models.Side
		switch {
		case strings.Contains(sideRaw, "buy"):
			side = models.SideBuy
		case strings.Contains(sideRaw, "sell"), strings.Contains(sideRaw, "short"):
			side = models.SideSell
		default:
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: unrecognized side %q", i+2, cell(row, sideIdx))})
			continue
		}

		symbol := cell(row, symbolIdx)
		if symbol == "" {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: missing ticker", i+2)})
			continue
		}

		quantity, errQ := parseDecimal(cell(row, qtyIdx))
		price, errP := parseDecimal(cell(row, priceIdx))
		if errQ != nil || errP != nil || quantity <= 0 || price <= 0 {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: invalid quantity or price", i+2)})
			continue
		}

		ts, ok := parseTimestamp(cell(row, timeIdx), ctx.opts.DefaultDate)
		if !ok {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: unparseable date %q and no default date available", i+2, cell(row, timeIdx))})
			continue
		}

		results = append(results, rowResult{fill: &models.RawFill{
			FillID:    fmt.Sprintf("wb-%d", i+2),
			Symbol:    strings.ToUpper(symbol),
			Side:      side,
			Quantity:  quantity,
			Price:     price,
			Timestamp: ts,
		}})
	}

	trades, fills, warnings := foldRows(results)
	paired := pairFills(fills, ctx.idGen)
	for i := range paired {
		paired[i].Notes = webullImportNote
		paired[i].Source = string(DialectWebull)
	}
	ctx.trades = append(ctx.trades, trades...)
	ctx.trades = append(ctx.trades, paired...)
	return warnings, nil
}
