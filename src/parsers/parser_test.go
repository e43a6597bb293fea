package parsers

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradefolio/backend/src/models"
)

// sequentialIDs returns a deterministic ID generator for assertions.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("trade-%d", n)
	}
}

func TestParseCSVGenericClosedTrades(t *testing.T) {
	csv := "Time,Ticker,Direction,Quantity,Entry Price,Exit Price,Realized P&L\n" +
		"2024-01-02 09:31,AAPL,long,100,150.00,152.50,250.00\n"

	result := ParseCSV(csv, Options{IDGen: sequentialIDs()})

	require.True(t, result.Success)
	require.Empty(t, result.Errors)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, 1, result.TradesImported)
	assert.Equal(t, string(DialectGeneric), result.DetectedBroker)

	trade := result.Trades[0]
	assert.Equal(t, "trade-1", trade.ID)
	assert.Equal(t, "AAPL", trade.Ticker)
	assert.Equal(t, models.DirectionLong, trade.Direction)
	assert.Equal(t, 100.0, trade.Quantity)
	assert.Equal(t, 150.0, trade.EntryPrice)
	assert.Equal(t, 152.5, trade.ExitPrice)
	assert.Equal(t, 250.0, trade.RealizedPL)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 31, 0, 0, time.UTC), trade.Timestamp)
}

func TestParseCSVGenericComputesPLWhenColumnAbsent(t *testing.T) {
	csv := "Date,Symbol,Side,Shares,Entry Price,Exit Price\n" +
		"2024-01-02,TSLA,short,50,200.00,195.00\n"

	result := ParseCSV(csv, Options{IDGen: sequentialIDs()})

	require.True(t, result.Success)
	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.Equal(t, models.DirectionShort, trade.Direction)
	// Short: (entry - exit) * qty = (200 - 195) * 50.
	assert.InDelta(t, 250.0, trade.RealizedPL, 1e-9)
}

func TestParseCSVMissingRequiredColumn(t *testing.T) {
	// No ticker-like header at all.
	csv := "Time,Direction,Quantity,Entry Price,Exit Price\n" +
		"2024-01-02 09:31,long,100,150.00,152.50\n"

	result := ParseCSV(csv, Options{IDGen: sequentialIDs()})

	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "ticker")
	assert.Empty(t, result.Trades)
}

func TestParseCSVEmptyInput(t *testing.T) {
	for name, raw := range map[string]string{
		"empty string": "",
		"only blanks":  "\n\n  \n",
		"header only":  "Time,Ticker,Quantity\n",
	} {
		t.Run(name, func(t *testing.T) {
			result := ParseCSV(raw, Options{})
			assert.False(t, result.Success)
			assert.NotEmpty(t, result.Errors)
			assert.Empty(t, result.Trades)
		})
	}
}

func TestParseCSVBadRowsAreWarningsNotErrors(t *testing.T) {
	csv := "Time,Ticker,Direction,Quantity,Entry Price,Exit Price\n" +
		"2024-01-02 09:31,AAPL,long,100,150.00,152.50\n" +
		"2024-01-02 10:00,,long,100,150.00,152.50\n" + // missing ticker
		"2024-01-02 10:30,MSFT,long,abc,300.00,301.00\n" // bad quantity

	result := ParseCSV(csv, Options{IDGen: sequentialIDs()})

	require.True(t, result.Success, "one good row should keep the batch successful")
	assert.Len(t, result.Trades, 1)
	assert.Len(t, result.Warnings, 2)
	assert.Empty(t, result.Errors)
}

func TestParseCSVAllRowsBadSynthesizesError(t *testing.T) {
	csv := "Time,Ticker,Direction,Quantity,Entry Price,Exit Price\n" +
		"2024-01-02,,long,100,1,2\n"

	result := ParseCSV(csv, Options{})

	require.False(t, result.Success)
	assert.Len(t, result.Warnings, 1)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no valid trades found")
}

func TestParseCSVDefaultDateFallback(t *testing.T) {
	defaultDate := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	csv := "Time,Ticker,Quantity,Entry Price,Exit Price\n" +
		"???,AAPL,100,150.00,151.00\n"

	result := ParseCSV(csv, Options{DefaultDate: defaultDate, IDGen: sequentialIDs()})
	require.True(t, result.Success)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, defaultDate, result.Trades[0].Timestamp)

	// Same row without a default date is dropped with a warning.
	result = ParseCSV(csv, Options{IDGen: sequentialIDs()})
	assert.False(t, result.Success)
	assert.Len(t, result.Warnings, 1)
}

func TestParseCSVBrokerOverride(t *testing.T) {
	// Header would detect as generic; the caller insists on webull and the
	// extractor then fails on its required columns.
	csv := "Time,Ticker,Quantity,Price\n2024-01-02,AAPL,100,150.00\n"

	result := ParseCSV(csv, Options{Broker: DialectWebull})

	assert.Equal(t, string(DialectWebull), result.DetectedBroker)
	require.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.True(t, strings.HasPrefix(result.Errors[0], "webull:"))
}

func TestParseCSVUnknownBroker(t *testing.T) {
	result := ParseCSV("a,b\n1,2\n", Options{Broker: "etrade"})
	require.False(t, result.Success)
	assert.Contains(t, result.Errors[0], "unknown broker type")
}
