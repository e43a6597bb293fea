package processors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradefolio/backend/src/models"
)

func testIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("rt-%d", n)
	}
}

func fillAt(minute int, symbol string, side models.Side, qty, price float64) models.RawFill {
	return models.RawFill{
		FillID:    fmt.Sprintf("f-%d", minute),
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		Price:     price,
		Timestamp: time.Date(2024, 3, 4, 9, 30+minute, 0, 0, time.UTC),
	}
}

func TestProcessSimpleLongRoundTrip(t *testing.T) {
	fills := []models.RawFill{
		fillAt(0, "AAPL", models.SideBuy, 100, 150.00),
		fillAt(5, "AAPL", models.SideSell, 100, 152.00),
	}

	trades := NewRoundTripProcessor(testIDs()).Process(fills)

	require.Len(t, trades, 1)
	trade := trades[0]
	assert.Equal(t, "rt-1", trade.ID)
	assert.Equal(t, "AAPL", trade.Ticker)
	assert.Equal(t, models.DirectionLong, trade.Direction)
	assert.Equal(t, 100.0, trade.Quantity)
	assert.Equal(t, 150.0, trade.EntryPrice)
	assert.Equal(t, 152.0, trade.ExitPrice)
	assert.InDelta(t, 200.0, trade.RealizedPL, 1e-9)
	assert.Equal(t, fills[0].Timestamp, trade.Timestamp, "trade carries the opening fill's timestamp")
}

func TestProcessShortRoundTripInvertsPL(t *testing.T) {
	fills := []models.RawFill{
		fillAt(0, "TSLA", models.SideSell, 50, 200.00),
		fillAt(3, "TSLA", models.SideBuy, 50, 195.00),
	}

	trades := NewRoundTripProcessor(testIDs()).Process(fills)

	require.Len(t, trades, 1)
	assert.Equal(t, models.DirectionShort, trades[0].Direction)
	assert.InDelta(t, 250.0, trades[0].RealizedPL, 1e-9)

	// The same price path as a long is a loss.
	fills = []models.RawFill{
		fillAt(0, "TSLA", models.SideBuy, 50, 200.00),
		fillAt(3, "TSLA", models.SideSell, 50, 195.00),
	}
	trades = NewRoundTripProcessor(testIDs()).Process(fills)
	require.Len(t, trades, 1)
	assert.InDelta(t, -250.0, trades[0].RealizedPL, 1e-9)
}

func TestProcessPartialCloses(t *testing.T) {
	fills := []models.RawFill{
		fillAt(0, "MSFT", models.SideBuy, 100, 150.00),
		fillAt(2, "MSFT", models.SideSell, 60, 152.00),
		fillAt(4, "MSFT", models.SideSell, 40, 151.00),
	}

	trades := NewRoundTripProcessor(testIDs()).Process(fills)

	require.Len(t, trades, 2)
	assert.Equal(t, 60.0, trades[0].Quantity)
	assert.InDelta(t, 120.0, trades[0].RealizedPL, 1e-9)
	assert.Equal(t, 40.0, trades[1].Quantity)
	assert.InDelta(t, 40.0, trades[1].RealizedPL, 1e-9)

	// Both partials keep the original entry and opening timestamp.
	for _, trade := range trades {
		assert.Equal(t, 150.0, trade.EntryPrice)
		assert.Equal(t, fills[0].Timestamp, trade.Timestamp)
	}
}

func TestProcessWeightedAverageEntry(t *testing.T) {
	fills := []models.RawFill{
		fillAt(0, "XYZ", models.SideBuy, 100, 10.00),
		fillAt(1, "XYZ", models.SideBuy, 50, 13.00),
		fillAt(2, "XYZ", models.SideSell, 150, 12.00),
	}

	trades := NewRoundTripProcessor(testIDs()).Process(fills)

	require.Len(t, trades, 1)
	assert.InDelta(t, 11.0, trades[0].EntryPrice, 1e-9)
	assert.InDelta(t, 150.0, trades[0].RealizedPL, 1e-9)
}

func TestProcessCrossingThroughFlat(t *testing.T) {
	fills := []models.RawFill{
		fillAt(0, "AMD", models.SideBuy, 100, 100.00),
		// Sells 150: closes the 100 long and opens a 50 short at 105.
		fillAt(2, "AMD", models.SideSell, 150, 105.00),
		fillAt(5, "AMD", models.SideBuy, 50, 103.00),
	}

	trades := NewRoundTripProcessor(testIDs()).Process(fills)

	require.Len(t, trades, 2)

	long := trades[0]
	assert.Equal(t, models.DirectionLong, long.Direction)
	assert.Equal(t, 100.0, long.Quantity)
	assert.InDelta(t, 500.0, long.RealizedPL, 1e-9)

	short := trades[1]
	assert.Equal(t, models.DirectionShort, short.Direction)
	assert.Equal(t, 50.0, short.Quantity)
	assert.Equal(t, 105.0, short.EntryPrice)
	assert.Equal(t, fills[1].Timestamp, short.Timestamp, "new leg opens at the crossing fill's time")
	assert.InDelta(t, 100.0, short.RealizedPL, 1e-9)
}

func TestProcessOpenPositionEmitsNothing(t *testing.T) {
	fills := []models.RawFill{
		fillAt(0, "NVDA", models.SideBuy, 10, 500.00),
		fillAt(1, "NVDA", models.SideBuy, 10, 505.00),
	}

	trades := NewRoundTripProcessor(testIDs()).Process(fills)
	assert.Empty(t, trades)
}

func TestProcessCommissionReducesPL(t *testing.T) {
	closing := fillAt(1, "AAPL", models.SideSell, 100, 152.00)
	closing.Commission = 1.30

	trades := NewRoundTripProcessor(testIDs()).Process([]models.RawFill{
		fillAt(0, "AAPL", models.SideBuy, 100, 150.00),
		closing,
	})

	require.Len(t, trades, 1)
	assert.InDelta(t, 198.70, trades[0].RealizedPL, 1e-9)
}

func TestProcessUnorderedFillsAreSortedByTime(t *testing.T) {
	fills := []models.RawFill{
		fillAt(5, "AAPL", models.SideSell, 100, 152.00),
		fillAt(0, "AAPL", models.SideBuy, 100, 150.00),
	}

	trades := NewRoundTripProcessor(testIDs()).Process(fills)

	require.Len(t, trades, 1)
	assert.Equal(t, models.DirectionLong, trades[0].Direction)
	assert.InDelta(t, 200.0, trades[0].RealizedPL, 1e-9)
}

func TestProcessMultipleSymbolsAreIndependent(t *testing.T) {
	fills := []models.RawFill{
		fillAt(0, "zzz", models.SideBuy, 10, 5.00),
		fillAt(0, "AAA", models.SideBuy, 10, 1.00),
		fillAt(1, "AAA", models.SideSell, 10, 2.00),
		fillAt(1, "ZZZ", models.SideSell, 10, 6.00),
	}

	trades := NewRoundTripProcessor(testIDs()).Process(fills)

	require.Len(t, trades, 2)
	// Symbols are processed in sorted order, case-normalized.
	assert.Equal(t, "AAA", trades[0].Ticker)
	assert.Equal(t, "ZZZ", trades[1].Ticker)
	assert.InDelta(t, 10.0, trades[0].RealizedPL, 1e-9)
	assert.InDelta(t, 10.0, trades[1].RealizedPL, 1e-9)
}

// Closed quantity never exceeds what was opened, whatever the fill mix.
func TestProcessQuantityConservation(t *testing.T) {
	fills := []models.RawFill{
		fillAt(0, "SPY", models.SideBuy, 100, 450.00),
		fillAt(1, "SPY", models.SideBuy, 25, 451.00),
		fillAt(2, "SPY", models.SideSell, 80, 452.00),
		fillAt(3, "SPY", models.SideSell, 70, 453.00), // crosses flat by 25
		fillAt(4, "SPY", models.SideBuy, 25, 452.50),
	}

	trades := NewRoundTripProcessor(testIDs()).Process(fills)

	var closedLong, closedShort float64
	for _, trade := range trades {
		if trade.Direction == models.DirectionLong {
			closedLong += trade.Quantity
		} else {
			closedShort += trade.Quantity
		}
	}
	assert.InDelta(t, 125.0, closedLong, 1e-9)
	assert.InDelta(t, 25.0, closedShort, 1e-9)
}

// Fractional-share quantities accumulate float noise (0.1+0.2-0.3 != 0), so
// a fully closed position must still register as flat instead of leaking a
// sub-epsilon residue into the next round trip.
func TestProcessFractionalSharesCloseFlat(t *testing.T) {
	fills := []models.RawFill{
		fillAt(0, "AAPL", models.SideBuy, 0.1, 150.00),
		fillAt(1, "AAPL", models.SideBuy, 0.2, 151.00),
		fillAt(2, "AAPL", models.SideSell, 0.3, 152.00),
		fillAt(3, "AAPL", models.SideSell, 0.1, 153.00),
		fillAt(4, "AAPL", models.SideBuy, 0.1, 152.00),
	}

	trades := NewRoundTripProcessor(testIDs()).Process(fills)

	require.Len(t, trades, 2)

	long := trades[0]
	assert.Equal(t, models.DirectionLong, long.Direction)
	assert.InDelta(t, 0.3, long.Quantity, 1e-9)
	assert.Equal(t, fills[0].Timestamp, long.Timestamp)

	short := trades[1]
	assert.Equal(t, models.DirectionShort, short.Direction)
	assert.InDelta(t, 0.1, short.Quantity, 1e-9)
	assert.Equal(t, 153.0, short.EntryPrice, "short leg opens at its own fill, not a stale average")
	assert.Equal(t, fills[3].Timestamp, short.Timestamp)
	assert.InDelta(t, 0.1, short.RealizedPL, 1e-9)
}
