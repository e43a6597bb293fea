package processors

import (
	"math"
	"sort"
	"strings"

	"github.com/username/tradefolio/backend/src/models"
)

// RoundTripProcessor replays buy/sell fills through a per-symbol position
// accumulator and emits one normalized trade per position-closing event.
// Open positions left at the end of the fill stream produce nothing.
//
// The processor is pure: no I/O, no shared state across invocations. Fills
// are assumed validated (positive quantity and price).
type RoundTripProcessor struct {
	idGen func() string
}

func NewRoundTripProcessor(idGen func() string) *RoundTripProcessor {
	return &RoundTripProcessor{idGen: idGen}
}

// flatEpsilon bounds float accumulation noise when deciding a position is
// flat. Fractional-share fills (0.1+0.2-0.3) never sum back to exactly zero,
// and a stale sub-epsilon position would emit phantom micro-trades.
const flatEpsilon = 1e-9

// positionState is the transient per-symbol accumulator. averageEntryPrice is
// only meaningful while the position is open; it is recomputed as a weighted
// average when a fill adds to the position and left unchanged when a fill
// reduces it.
type positionState struct {
	netQuantity       float64 // positive = long, negative = short, flat when |q| < flatEpsilon
	averageEntryPrice float64
	openedAt          *models.RawFill // fill that took the position from flat
}

func (ps *positionState) flat() bool {
	return math.Abs(ps.netQuantity) < flatEpsilon
}

// Process reconstructs closed round trips from an unordered list of fills,
// which may span multiple symbols.
func (p *RoundTripProcessor) Process(fills []models.RawFill) []models.Trade {
	bySymbol := groupFillsBySymbol(fills)

	symbols := make([]string, 0, len(bySymbol))
	for symbol := range bySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var trades []models.Trade
	for _, symbol := range symbols {
		trades = append(trades, p.processSymbol(symbol, bySymbol[symbol])...)
	}
	return trades
}

func (p *RoundTripProcessor) processSymbol(symbol string, fills []models.RawFill) []models.Trade {
	// Stable sort keeps input order for equal timestamps.
	sort.SliceStable(fills, func(i, j int) bool {
		return fills[i].Timestamp.Before(fills[j].Timestamp)
	})

	var trades []models.Trade
	var pos positionState

	for _, fill := range fills {
		signedQty := fill.Quantity
		if fill.Side == models.SideSell {
			signedQty = -signedQty
		}
		if signedQty == 0 {
			continue
		}

		if pos.flat() {
			pos.open(fill, signedQty)
			continue
		}

		if sameSign(pos.netQuantity, signedQty) {
			// Adding to the position: volume-weighted average entry.
			oldAbs := math.Abs(pos.netQuantity)
			addAbs := math.Abs(signedQty)
			pos.averageEntryPrice = (oldAbs*pos.averageEntryPrice + addAbs*fill.Price) / (oldAbs + addAbs)
			pos.netQuantity += signedQty
			continue
		}

		// Reducing, fully or partially.
		closingQty := math.Min(math.Abs(pos.netQuantity), math.Abs(signedQty))
		trades = append(trades, p.closeTrade(symbol, &pos, fill, closingQty))

		remainder := math.Abs(signedQty) - closingQty
		pos.netQuantity += signedQty
		if remainder > flatEpsilon {
			// Fill crossed through flat: the excess opens a new position on
			// the opposite side at this fill's price and time.
			openQty := remainder
			if signedQty < 0 {
				openQty = -openQty
			}
			pos.open(fill, openQty)
		} else if pos.flat() {
			pos.netQuantity = 0
			pos.openedAt = nil
		}
	}

	return trades
}

func (p *RoundTripProcessor) closeTrade(symbol string, pos *positionState, fill models.RawFill, closingQty float64) models.Trade {
	direction := models.DirectionLong
	if pos.netQuantity < 0 {
		direction = models.DirectionShort
	}

	var pl float64
	if direction == models.DirectionLong {
		pl = (fill.Price - pos.averageEntryPrice) * closingQty
	} else {
		pl = (pos.averageEntryPrice - fill.Price) * closingQty
	}
	pl -= fill.Commission

	return models.Trade{
		ID:         p.idGen(),
		Ticker:     strings.ToUpper(symbol),
		Direction:  direction,
		Quantity:   closingQty,
		EntryPrice: pos.averageEntryPrice,
		ExitPrice:  fill.Price,
		Timestamp:  pos.openedAt.Timestamp,
		RealizedPL: pl,
	}
}

func (ps *positionState) open(fill models.RawFill, signedQty float64) {
	f := fill
	ps.netQuantity = signedQty
	ps.averageEntryPrice = fill.Price
	ps.openedAt = &f
}

func sameSign(a, b float64) bool {
	return (a > 0) == (b > 0)
}

func groupFillsBySymbol(fills []models.RawFill) map[string][]models.RawFill {
	grouped := make(map[string][]models.RawFill)
	for _, fill := range fills {
		symbol := strings.ToUpper(strings.TrimSpace(fill.Symbol))
		if symbol == "" {
			continue
		}
		grouped[symbol] = append(grouped[symbol], fill)
	}
	return grouped
}
