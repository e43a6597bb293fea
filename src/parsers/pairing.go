package parsers

import (
	"fmt"
	"sort"

	"github.com/username/tradefolio/backend/src/models"
)

// pairFills matches per-fill rows into round trips the way the Robinhood and
// WeBull importers do: fills are grouped per (ticker, quantity) key and
// consumed as sequential open/close pairs in timestamp order. This is simpler
// than the full position accumulator and is valid only when every open is
// matched by exactly one close of identical quantity, which holds for these
// brokers' per-order exports. Unmatched fills are still-open positions and
// produce nothing.
func pairFills(fills []models.RawFill, idGen func() string) []models.Trade {
	groups := make(map[string][]models.RawFill)
	var keys []string
	for _, fill := range fills {
		key := fmt.Sprintf("%s|%v", fill.Symbol, fill.Quantity)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], fill)
	}
	sort.Strings(keys)

	var trades []models.Trade
	for _, key := range keys {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})

		var pending *models.RawFill
		for i := range group {
			fill := group[i]
			if pending == nil {
				pending = &group[i]
				continue
			}
			if fill.Side == pending.Side {
				// Two same-side fills in a row: the first has no close in
				// this file, drop it and keep waiting from the newer one.
				pending = &group[i]
				continue
			}

			direction := models.DirectionLong
			pl := (fill.Price - pending.Price) * fill.Quantity
			if pending.Side == models.SideSell {
				direction = models.DirectionShort
				pl = (pending.Price - fill.Price) * fill.Quantity
			}
			pl -= pending.Commission + fill.Commission

			trades = append(trades, models.Trade{
				ID:         idGen(),
				Ticker:     pending.Symbol,
				Direction:  direction,
				Quantity:   fill.Quantity,
				EntryPrice: pending.Price,
				ExitPrice:  fill.Price,
				Timestamp:  pending.Timestamp,
				RealizedPL: pl,
			})
			pending = nil
		}
	}
	return trades
}
