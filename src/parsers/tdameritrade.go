package parsers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/username/tradefolio/backend/src/models"
	"github.com/username/tradefolio/backend/src/processors"
)

const tdImportNote = "Imported from TD Ameritrade"

// tdDescriptionRe matches the trade pattern TD Ameritrade embeds in account
// statement descriptions: "BOT 100 AAPL @150.25". ACTION is one of
// BOT/SLD/BUY/SELL, case-insensitive.
var tdDescriptionRe = regexp.MustCompile(`(?i)\b(BOT|SLD|BUY|SELL)\s+([\d,.]+)\s+([A-Za-z][A-Za-z0-9./-]*)\s*@\s*\$?([\d,.]+)`)

// extractTDAmeritrade handles both TD Ameritrade export shapes: the account
// statement (trade details embedded in a free-text DESCRIPTION column) and
// the execution log (explicit symbol/side/qty/price columns). Extracted fills
// are replayed through the round-trip reconstructor.
func extractTDAmeritrade(ctx *parseContext) ([]string, error) {
	var results []rowResult
	var err error

	if findColumn(ctx.header, "exec time") >= 0 {
		results, err = tdExecutionRows(ctx)
	} else {
		results, err = tdStatementRows(ctx)
	}
	if err != nil {
		return nil, err
	}

	trades, fills, warnings := foldRows(results)
	reconstructed := processors.NewRoundTripProcessor(ctx.idGen).Process(fills)
	for i := range reconstructed {
		reconstructed[i].Notes = tdImportNote
		reconstructed[i].Source = string(DialectTDAmeritrade)
	}
	ctx.trades = append(ctx.trades, trades...)
	ctx.trades = append(ctx.trades, reconstructed...)
	return warnings, nil
}

// tdStatementRows extracts fills from the account-statement variant. Rows
// whose description does not match the trade pattern are dividends, fees and
// other cash activity: they are skipped without a warning because they are
// not trade rows at all.
func tdStatementRows(ctx *parseContext) ([]rowResult, error) {
	descIdx := findColumn(ctx.header, "description")
	if descIdx < 0 {
		return nil, fmt.Errorf("tdameritrade: missing required column: description")
	}
	dateIdx := findColumn(ctx.header, "date")
	commissionIdx := findColumn(ctx.header, "commission", "fees")

	results := make([]rowResult, 0, len(ctx.rows))
	for i, row := range ctx.rows {
		matches := tdDescriptionRe.FindStringSubmatch(cell(row, descIdx))
		if matches == nil {
			continue
		}

		side := models.SideBuy
		switch strings.ToUpper(matches[1]) {
		case "SLD", "SELL":
			side = models.SideSell
		}

		quantity, qerrQ := parseDecimal(matches[2])
		price, qerrP := parseDecimal(matches[4])
		if qerrQ != nil || qerrP != nil || quantity <= 0 || price <= 0 {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: invalid quantity or price in description %q", i+2, cell(row, descIdx))})
			continue
		}

		ts, ok := parseTimestamp(cell(row, dateIdx), ctx.opts.DefaultDate)
		if !ok {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: unparseable date %q and no default date available", i+2, cell(row, dateIdx))})
			continue
		}

		commission := 0.0
		if c, err := parseDecimal(cell(row, commissionIdx)); err == nil && c > 0 {
			commission = c
		}

		results = append(results, rowResult{fill: &models.RawFill{
			FillID:     fmt.Sprintf("td-stmt-%d", i+2),
			Symbol:     strings.ToUpper(matches[3]),
			Side:       side,
			Quantity:   quantity,
			Price:      price,
			Timestamp:  ts,
			Commission: commission,
		}})
	}
	return results, nil
}

// tdExecutionRows extracts fills from the execution-log variant with explicit
// columns. The side/type column decides direction: buy/bot opens or adds long,
// sell/sld opens or adds short.
func tdExecutionRows(ctx *parseContext) ([]rowResult, error) {
	timeIdx := findColumn(ctx.header, "exec time", "time", "date")
	symbolIdx := findColumn(ctx.header, "symbol", "ticker")
	qtyIdx := findColumn(ctx.header, "qty", "quantity")
	priceIdx := findColumn(ctx.header, "price")
	sideIdx := findColumn(ctx.header, "side", "type")

	missing := missingRoles(map[string]int{
		"timestamp": timeIdx,
		"ticker":    symbolIdx,
		"quantity":  qtyIdx,
		"price":     priceIdx,
	})
	if missing != "" {
		return nil, fmt.Errorf("tdameritrade: missing required column: %s", missing)
	}

	results := make([]rowResult, 0, len(ctx.rows))
	for i, row := range ctx.rows {
		symbol := cell(row, symbolIdx)
		if symbol == "" {
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: missing ticker", i+2)})
			continue
		}

		sideRaw := strings.ToLower(cell(row, sideIdx))
		var side models.Side
		switch {
		case strings.Contains(sideRaw, "buy"), strings.Contains(sideRaw, "bot"):
			side = models.SideBuy
		case strings.Contains(sideRaw, "sell"), strings.Contains(sideRaw, "sld"):
			side = models.SideSell
		default:
			results = append(results, rowResult{warning: fmt.Sprintf("row %d: unrecognized side %q", i+2, cell(row, sideIdx))})
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
			FillID:    fmt.Sprintf("td-exec-%d", i+2),
			Symbol:    strings.ToUpper(symbol),
			Side:      side,
			Quantity:  quantity,
			Price:     price,
			Timestamp: ts,
		}})
	}
	return results, nil
}

// missingRoles returns the first unmapped role name, or "".
func missingRoles(roles map[string]int) string {
	// Deterministic order for error messages.
	for _, name := range []string{"timestamp", "ticker", "direction", "quantity", "price", "realized p&l"} {
		if idx, exists := roles[name]; exists && idx < 0 {
			return name
		}
	}
	return ""
}
