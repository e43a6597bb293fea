package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/tradefolio/backend/src/brokers"
	"github.com/username/tradefolio/backend/src/database"
	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/models"
	"github.com/username/tradefolio/backend/src/parsers"
	"github.com/username/tradefolio/backend/src/processors"
)

type importServiceImpl struct {
	analytics AnalyticsService
}

func NewImportService(analytics AnalyticsService) ImportService {
	return &importServiceImpl{analytics: analytics}
}

func (s *importServiceImpl) ProcessUpload(fileReader io.Reader, userID int64, opts parsers.Options) (*models.ParseResult, error) {
	startTime := time.Now()
	logger.L.Info("ProcessUpload START", "userID", userID, "broker", string(opts.Broker))

	raw, err := io.ReadAll(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading upload: %v", ErrParsingFailed, err)
	}

	result := parsers.ParseCSV(string(raw), opts)
	if !result.Success {
		logger.L.Warn("ProcessUpload produced no trades", "userID", userID, "errors", result.Errors)
		return result, nil
	}

	stored, err := s.storeTrades(userID, result.Trades)
	if err != nil {
		return nil, err
	}
	if skipped := len(result.Trades) - stored; skipped > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d duplicate trade(s) skipped", skipped))
	}
	result.TradesImported = stored

	s.analytics.InvalidateUserCache(userID)
	logger.L.Info("ProcessUpload END", "userID", userID, "imported", stored, "duration", time.Since(startTime))
	return result, nil
}

func (s *importServiceImpl) SyncBrokerFills(ctx context.Context, userID int64, provider brokers.FillProvider, since time.Time) (*models.ParseResult, error) {
	logger.L.Info("SyncBrokerFills START", "userID", userID, "provider", provider.Name())

	fills, err := provider.FetchFills(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetching fills from %s: %w", provider.Name(), err)
	}

	trades := processors.NewRoundTripProcessor(uuid.NewString).Process(fills)
	for i := range trades {
		trades[i].Source = provider.Name()
		trades[i].Notes = "Synced from " + provider.Name()
	}

	result := &models.ParseResult{
		Trades:         trades,
		Errors:         []string{},
		Warnings:       []string{},
		DetectedBroker: provider.Name(),
	}
	if len(trades) == 0 {
		result.Errors = append(result.Errors, "no closed round trips found in broker fills")
		return result, nil
	}

	stored, err := s.storeTrades(userID, trades)
	if err != nil {
		return nil, err
	}
	if skipped := len(trades) - stored; skipped > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d duplicate trade(s) skipped", skipped))
	}
	result.TradesImported = stored
	result.Success = true

	s.analytics.InvalidateUserCache(userID)
	logger.L.Info("SyncBrokerFills END", "userID", userID, "imported", stored)
	return result, nil
}

// storeTrades inserts trades in one transaction, skipping rows already
// present for this user (hash collision on re-import of the same file).
// Returns the number actually inserted.
func (s *importServiceImpl) storeTrades(userID int64, trades []models.Trade) (int, error) {
	dbTx, err := database.DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w: beginning transaction: %v", ErrStorageFailed, err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO trades
		(id, user_id, ticker, direction, quantity, entry_price, exit_price, timestamp, realized_pl, notes, source, hash_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("%w: preparing insert: %v", ErrStorageFailed, err)
	}
	defer stmt.Close()

	inserted := 0
	for _, trade := range trades {
		hashID := tradeHash(trade)
		_, err := stmt.Exec(trade.ID, userID, trade.Ticker, string(trade.Direction),
			trade.Quantity, trade.EntryPrice, trade.ExitPrice, trade.Timestamp.UTC(),
			trade.RealizedPL, trade.Notes, trade.Source, hashID)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				logger.L.Debug("Skipping duplicate trade on import", "userID", userID, "hashID", hashID)
				continue
			}
			return 0, fmt.Errorf("%w: inserting trade %s: %v", ErrStorageFailed, trade.ID, err)
		}
		inserted++
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: committing: %v", ErrStorageFailed, err)
	}
	return inserted, nil
}

// tradeHash builds the dedupe key from the fields that identify a round trip
// independently of the generated trade ID.
func tradeHash(trade models.Trade) string {
	input := fmt.Sprintf("%s|%s|%v|%v|%v|%s|%s",
		trade.Ticker, trade.Direction, trade.Quantity, trade.EntryPrice,
		trade.ExitPrice, trade.Timestamp.UTC().Format(time.RFC3339), trade.Source)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
