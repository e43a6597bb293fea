package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradefolio/backend/src/models"
)

func TestParseCSVWebullFilledOrders(t *testing.T) {
	csv := "Name,Symbol,Side,Status,Filled Qty,Total Qty,Avg Price,Filled Time\n" +
		"Apple,AAPL,Buy,Filled,20,20,150.00,01/22/2024 09:45:12 EST\n" +
		"Apple,AAPL,Sell,Cancelled,20,20,155.00,01/22/2024 10:00:00 EST\n" +
		"Apple,AAPL,Sell,Filled,20,20,152.00,01/22/2024 11:02:33 EST\n"

	result := ParseCSV(csv, Options{IDGen: sequentialIDs()})

	require.True(t, result.Success)
	assert.Equal(t, string(DialectWebull), result.DetectedBroker)
	assert.Empty(t, result.Warnings, "cancelled orders are not fills")
	require.Len(t, result.Trades, 1)

	trade := result.Trades[0]
	assert.Equal(t, "AAPL", trade.Ticker)
	assert.Equal(t, models.DirectionLong, trade.Direction)
	assert.Equal(t, 20.0, trade.Quantity)
	assert.Equal(t, 150.0, trade.EntryPrice)
	assert.Equal(t, 152.0, trade.ExitPrice)
	assert.InDelta(t, 40.0, trade.RealizedPL, 1e-9)
	assert.Equal(t, "Imported from WeBull", trade.Notes)
	assert.Equal(t, string(DialectWebull), trade.Source)
}

func TestParseCSVWebullShortSide(t *testing.T) {
	csv := "Symbol,Side,Status,Filled Qty,Avg Price,Filled Time\n" +
		"GME,Short,Filled,15,40.00,01/22/2024 09:45:12 EST\n" +
		"GME,Buy,Filled,15,38.00,01/22/2024 10:30:00 EST\n"

	result := ParseCSV(csv, Options{IDGen: sequentialIDs()})

	require.True(t, result.Success)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, models.DirectionShort, result.Trades[0].Direction)
	assert.InDelta(t, 30.0, result.Trades[0].RealizedPL, 1e-9)
}

func TestParseCSVWebullUnrecognizedSideWarns(t *testing.T) {
	csv := "Symbol,Side,Status,Filled Qty,Avg Price,Filled Time\n" +
		"AAPL,Hold,Filled,10,150.00,01/22/2024 09:45:12 EST\n"

	result := ParseCSV(csv, Options{})

	require.False(t, result.Success)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "unrecognized side")
}
