package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradefolio/backend/src/models"
)

const ibkrHeader = "ClientAccountID,Symbol,TradeDate,Quantity,TradePrice,IBCommission,FifoPnlRealized\n"

func TestParseCSVIBKRClosedRows(t *testing.T) {
	csv := ibkrHeader +
		"U1234567,AAPL,2024-02-05,100,150.00,-1.00,250.00\n" +
		"U1234567,TSLA,2024-02-05,-50,200.00,-1.00,-125.00\n"

	result := ParseCSV(csv, Options{IDGen: sequentialIDs()})

	require.True(t, result.Success)
	assert.Equal(t, string(DialectIBKR), result.DetectedBroker)
	require.Len(t, result.Trades, 2)

	long := result.Trades[0]
	assert.Equal(t, "AAPL", long.Ticker)
	assert.Equal(t, models.DirectionLong, long.Direction)
	assert.Equal(t, 100.0, long.Quantity)
	assert.InDelta(t, 250.0, long.RealizedPL, 1e-9)
	// Exit is back-calculated from the reported P&L.
	assert.InDelta(t, 152.5, long.ExitPrice, 1e-9)

	short := result.Trades[1]
	assert.Equal(t, models.DirectionShort, short.Direction)
	assert.Equal(t, 50.0, short.Quantity, "negative quantities are normalized")
	assert.InDelta(t, -125.0, short.RealizedPL, 1e-9)
	assert.InDelta(t, 202.5, short.ExitPrice, 1e-9)
}

func TestParseCSVIBKRPLAlreadyNetOfCommission(t *testing.T) {
	csv := ibkrHeader + "U1234567,MSFT,2024-02-05,10,300.00,-0.35,42.00\n"

	result := ParseCSV(csv, Options{})

	require.True(t, result.Success)
	require.Len(t, result.Trades, 1)
	assert.InDelta(t, 42.0, result.Trades[0].RealizedPL, 1e-9, "reported P&L is taken as-is")
}

func TestParseCSVIBKRMissingPLColumn(t *testing.T) {
	csv := "ClientAccountID,Symbol,TradeDate,Quantity,TradePrice\n" +
		"U1234567,AAPL,2024-02-05,100,150.00\n"

	result := ParseCSV(csv, Options{})

	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "realized p&l")
}
