package models

import "time"

// Side of a single execution as reported by the broker.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Direction of a closed round trip.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// RawFill is one broker-reported execution, produced by a CSV parser or a
// broker API client and consumed by the round-trip reconstructor. It is never
// persisted on its own.
type RawFill struct {
	FillID     string    `json:"fill_id"` // unique per source record
	Symbol     string    `json:"symbol"`  // uppercase ticker
	Side       Side      `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	Timestamp  time.Time `json:"timestamp"`
	Commission float64   `json:"commission"`
}

// Trade is one closed round trip, the import pipeline's output contract.
// Timestamp is the entry (opening) time of the position being closed, not the
// exit time. RealizedPL is the direction-adjusted price delta times quantity,
// minus commission.
type Trade struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"-"`
	Ticker     string    `json:"ticker"`
	Direction  Direction `json:"direction"`
	Quantity   float64   `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Timestamp  time.Time `json:"timestamp"`
	RealizedPL float64   `json:"realized_pl"`
	Notes      string    `json:"notes,omitempty"`
	Source     string    `json:"source,omitempty"`  // which dialect or broker produced it
	HashID     string    `json:"hash_id,omitempty"` // dedupe key across repeated imports
}

// ParseResult is the envelope returned by every CSV import. Errors are fatal
// for the whole file; warnings are per-row and non-fatal.
type ParseResult struct {
	Success        bool     `json:"success"`
	Trades         []Trade  `json:"trades"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
	DetectedBroker string   `json:"detected_broker"`
	TradesImported int      `json:"trades_imported"`
}

// DailySummary aggregates one calendar day of trading for the calendar view.
type DailySummary struct {
	Date       string  `json:"date"` // yyyy-mm-dd
	TradeCount int     `json:"trade_count"`
	TotalPL    float64 `json:"total_pl"`
	WinCount   int     `json:"win_count"`
	LossCount  int     `json:"loss_count"`
}

// HourlyBucket aggregates trades by entry hour for the time-of-day view.
type HourlyBucket struct {
	Hour       int     `json:"hour"` // 0-23, entry time
	TradeCount int     `json:"trade_count"`
	TotalPL    float64 `json:"total_pl"`
	AvgPL      float64 `json:"avg_pl"`
	WinRate    float64 `json:"win_rate"`
}

// DashboardStats is the headline summary shown on the dashboard.
type DashboardStats struct {
	TotalTrades  int     `json:"total_trades"`
	TotalPL      float64 `json:"total_pl"`
	WinCount     int     `json:"win_count"`
	LossCount    int     `json:"loss_count"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	BestDay      string  `json:"best_day"`
	BestDayPL    float64 `json:"best_day_pl"`
	WorstDay     string  `json:"worst_day"`
	WorstDayPL   float64 `json:"worst_day_pl"`
}
