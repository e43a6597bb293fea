package parsers

import (
	"fmt"
	"strings"

	"github.com/username/tradefolio/backend/src/models"
)

const robinhoodImportNote = "Imported from Robinhood"

// extractRobinhood handles Robinhood activity report CSVs. Each trade row is
// a single fill with an explicit trans code; buys and sells are matched into
// round trips per (ticker, quantity) pair. Non-trade activity rows (CDIV,
// ACH, SPL, ...) are not trade rows and are skipped silently.
func extractRobinhood(ctx *parseContext) ([]string, error) {
	dateIdx := findColumn(ctx.header, "activity date", "date")
	symbolIdx := findColumn(ctx.header, "instrument", "symbol", "ticker")
	codeIdx := findColumn(ctx.header, "trans code", "side", "type")
	qtyIdx := findColumn(ctx.header, "quantity", "qty")
	priceIdx := findColumn(ctx.header, "price")

	missing := missingRoles(map[string]int{
		"timestamp": dateIdx,
		"ticker":    symbolIdx,
		"direction": codeIdx,
		"quantity":  qtyIdx,
		"price":     priceIdx,
	})
	if missing != "" {
		return nil, fmt.Errorf("robinhood: missing required column: %s", missing)
	}

	results := make([]rowResult, 0, len(ctx.rows))
	for i, row := range ctx.rows {
		var side models.Side
		switch strings.ToLower(cell(row, codeIdx)) {
		case "buy", "bto":
			side = models.SideBuy
		case "sell", "stc":
			side = models.SideSell
		default:
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

		ts, ok := parseTimestamp(cell(row, dateIdx), ctx.opts.DefaultDate)
		if !ok {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: unparseable date %q and no default date available", i+2, cell(row, dateIdx))})
			continue
		}

		results = append(results, rowResult{fill: &models.RawFill{
			FillID:    fmt.Sprintf("rh-%d", i+2),
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
		paired[i].Notes = robinhoodImportNote
		paired[i].Source = string(DialectRobinhood)
	}
	ctx.trades = append(ctx.trades, trades...)
	ctx.trades = append(ctx.trades, paired...)
	return warnings, nil
}
