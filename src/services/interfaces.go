package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/username/tradefolio/backend/src/brokers"
	"github.com/username/tradefolio/backend/src/models"
	"github.com/username/tradefolio/backend/src/parsers"
)

var (
	ErrParsingFailed = errors.New("parsing failed")
	ErrStorageFailed = errors.New("storage failed")
)

// ImportService turns uploaded CSV files or broker API fills into stored
// trades. Parse-level problems are reported inside the ParseResult envelope;
// the error return is for I/O and database failures only.
type ImportService interface {
	ProcessUpload(fileReader io.Reader, userID int64, opts parsers.Options) (*models.ParseResult, error)
	SyncBrokerFills(ctx context.Context, userID int64, provider brokers.FillProvider, since time.Time) (*models.ParseResult, error)
}

// AnalyticsService serves the calendar, dashboard and time-of-day views over
// a user's stored trades, with per-user caching.
type AnalyticsService interface {
	GetCalendar(userID int64) ([]models.DailySummary, error)
	GetDashboard(userID int64) (models.DashboardStats, error)
	GetTimeOfDay(userID int64) ([]models.HourlyBucket, error)
	InvalidateUserCache(userID int64)
}
