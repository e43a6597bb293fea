package services

import (
	"fmt"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradefolio/backend/src/database"
	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/models"
	"github.com/username/tradefolio/backend/src/processors"
)

const (
	ckCalendar  = "res_calendar_user_%d"
	ckDashboard = "res_dashboard_user_%d"
	ckTimeOfDay = "res_timeofday_user_%d"
)

type analyticsServiceImpl struct {
	dailyProcessor     *processors.DailySummaryProcessor
	timeOfDayProcessor *processors.TimeOfDayProcessor
	reportCache        *cache.Cache
}

func NewAnalyticsService(reportCache *cache.Cache) AnalyticsService {
	return &analyticsServiceImpl{
		dailyProcessor:     processors.NewDailySummaryProcessor(),
		timeOfDayProcessor: processors.NewTimeOfDayProcessor(),
		reportCache:        reportCache,
	}
}

func (s *analyticsServiceImpl) GetCalendar(userID int64) ([]models.DailySummary, error) {
	cacheKey := fmt.Sprintf(ckCalendar, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]models.DailySummary), nil
	}

	trades, err := FetchUserTrades(userID)
	if err != nil {
		return nil, err
	}
	summaries := s.dailyProcessor.Calculate(trades)
	s.reportCache.Set(cacheKey, summaries, cache.DefaultExpiration)
	return summaries, nil
}

func (s *analyticsServiceImpl) GetDashboard(userID int64) (models.DashboardStats, error) {
	cacheKey := fmt.Sprintf(ckDashboard, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(models.DashboardStats), nil
	}

	trades, err := FetchUserTrades(userID)
	if err != nil {
		return models.DashboardStats{}, err
	}
	stats := s.dailyProcessor.Stats(trades)
	s.reportCache.Set(cacheKey, stats, cache.DefaultExpiration)
	return stats, nil
}

func (s *analyticsServiceImpl) GetTimeOfDay(userID int64) ([]models.HourlyBucket, error) {
	cacheKey := fmt.Sprintf(ckTimeOfDay, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]models.HourlyBucket), nil
	}

	trades, err := FetchUserTrades(userID)
	if err != nil {
		return nil, err
	}
	buckets := s.timeOfDayProcessor.Calculate(trades)
	s.reportCache.Set(cacheKey, buckets, cache.DefaultExpiration)
	return buckets, nil
}

// InvalidateUserCache clears all cached analytics for a user. Called after
// every import so the next request recalculates from the database.
func (s *analyticsServiceImpl) InvalidateUserCache(userID int64) {
	for _, key := range []string{
		fmt.Sprintf(ckCalendar, userID),
		fmt.Sprintf(ckDashboard, userID),
		fmt.Sprintf(ckTimeOfDay, userID),
	} {
		s.reportCache.Delete(key)
	}
	logger.L.Debug("Invalidated analytics caches for user", "userID", userID)
}

// FetchUserTrades loads all stored trades for a user, newest first.
func FetchUserTrades(userID int64) ([]models.Trade, error) {
	rows, err := database.DB.Query(`
		SELECT id, ticker, direction, quantity, entry_price, exit_price, timestamp, realized_pl, notes, source
		FROM trades
		WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying trades for user %d: %w", userID, err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var trade models.Trade
		var direction string
		if err := rows.Scan(&trade.ID, &trade.Ticker, &direction, &trade.Quantity,
			&trade.EntryPrice, &trade.ExitPrice, &trade.Timestamp, &trade.RealizedPL,
			&trade.Notes, &trade.Source); err != nil {
			return nil, fmt.Errorf("scanning trade for user %d: %w", userID, err)
		}
		trade.UserID = userID
		trade.Direction = models.Direction(direction)
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trades, nil
}
