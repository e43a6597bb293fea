package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/username/tradefolio/backend/src/database"
	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/models"
	"github.com/username/tradefolio/backend/src/security/validation"
	"github.com/username/tradefolio/backend/src/services"
	"github.com/username/tradefolio/backend/src/utils"
)

type TradeHandler struct {
	analyticsService services.AnalyticsService
}

func NewTradeHandler(analyticsService services.AnalyticsService) *TradeHandler {
	return &TradeHandler{analyticsService: analyticsService}
}

// HandleGetTrades lists all of the user's trades, newest first.
func (h *TradeHandler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	trades, err := services.FetchUserTrades(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error querying trades: %v", err), http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	utils.SendJSON(w, trades, http.StatusOK)
}

type createTradeRequest struct {
	Ticker     string  `json:"ticker"`
	Direction  string  `json:"direction"`
	Quantity   float64 `json:"quantity"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Timestamp  string  `json:"timestamp"`
	Commission float64 `json:"commission"`
	Notes      string  `json:"notes"`
}

// HandleCreateTrade logs one trade manually. RealizedPL is always computed
// server-side from the prices so the stored value honors the P&L invariant.
func (h *TradeHandler) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req createTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	direction := models.Direction(req.Direction)
	if direction != models.DirectionLong && direction != models.DirectionShort {
		utils.SendJSONError(w, "direction must be 'long' or 'short'", http.StatusBadRequest)
		return
	}
	if req.Ticker == "" || req.Quantity <= 0 || req.EntryPrice <= 0 || req.ExitPrice <= 0 {
		utils.SendJSONError(w, "ticker, positive quantity, entry_price and exit_price are required", http.StatusBadRequest)
		return
	}
	if req.Commission < 0 {
		utils.SendJSONError(w, "commission cannot be negative", http.StatusBadRequest)
		return
	}

	ts := time.Now()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			utils.SendJSONError(w, "timestamp must be RFC3339", http.StatusBadRequest)
			return
		}
		ts = parsed
	}

	pl := (req.ExitPrice - req.EntryPrice) * req.Quantity
	if direction == models.DirectionShort {
		pl = (req.EntryPrice - req.ExitPrice) * req.Quantity
	}
	pl = utils.RoundFloat(pl-req.Commission, 2)

	trade := models.Trade{
		ID:         uuid.NewString(),
		UserID:     userID,
		Ticker:     req.Ticker,
		Direction:  direction,
		Quantity:   req.Quantity,
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		Timestamp:  ts,
		RealizedPL: pl,
		Notes:      validation.SanitizeForFormulaInjection(validation.StripUnprintable(req.Notes)),
		Source:     "manual",
	}

	_, err := database.DB.Exec(`INSERT INTO trades
		(id, user_id, ticker, direction, quantity, entry_price, exit_price, timestamp, realized_pl, notes, source, hash_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ID, userID, trade.Ticker, string(trade.Direction), trade.Quantity,
		trade.EntryPrice, trade.ExitPrice, trade.Timestamp.UTC(), trade.RealizedPL,
		trade.Notes, trade.Source, trade.ID)
	if err != nil {
		logger.L.Error("Failed to insert manual trade", "userID", userID, "error", err)
		utils.SendJSONError(w, "failed to save trade", http.StatusInternalServerError)
		return
	}

	h.analyticsService.InvalidateUserCache(userID)
	utils.SendJSON(w, trade, http.StatusCreated)
}

// HandleDeleteTrade removes one trade by ID.
func (h *TradeHandler) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	tradeID := r.PathValue("id")
	res, err := database.DB.Exec(`DELETE FROM trades WHERE id = ? AND user_id = ?`, tradeID, userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error deleting trade: %v", err), http.StatusInternalServerError)
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		utils.SendJSONError(w, "trade not found", http.StatusNotFound)
		return
	}

	h.analyticsService.InvalidateUserCache(userID)
	utils.SendJSON(w, map[string]string{"message": "trade deleted"}, http.StatusOK)
}

// HandleDeleteAllTrades wipes the user's journal.
func (h *TradeHandler) HandleDeleteAllTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	res, err := database.DB.Exec(`DELETE FROM trades WHERE user_id = ?`, userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error deleting trades: %v", err), http.StatusInternalServerError)
		return
	}
	affected, _ := res.RowsAffected()

	h.analyticsService.InvalidateUserCache(userID)
	logger.L.Info("Deleted all trades for user", "userID", userID, "count", affected)
	utils.SendJSON(w, map[string]int64{"deleted": affected}, http.StatusOK)
}
