package handlers

import (
	"fmt"
	"net/http"

	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/services"
	"github.com/username/tradefolio/backend/src/utils"
)

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// sendWithETag writes data as JSON with an ETag header; a matching
// If-None-Match from the client short-circuits to 304 with no body.
func sendWithETag(w http.ResponseWriter, r *http.Request, data interface{}) {
	etag, err := utils.GenerateETag(data)
	if err != nil {
		logger.L.Warn("ETag generation failed, sending response without it", "error", err)
		utils.SendJSON(w, data, http.StatusOK)
		return
	}

	quoted := `"` + etag + `"`
	if r.Header.Get("If-None-Match") == quoted {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", quoted)
	utils.SendJSON(w, data, http.StatusOK)
}

// HandleGetCalendar returns per-day P&L summaries for the calendar view.
func (h *AnalyticsHandler) HandleGetCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	summaries, err := h.analyticsService.GetCalendar(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error computing calendar: %v", err), http.StatusInternalServerError)
		return
	}
	sendWithETag(w, r, summaries)
}

// HandleGetDashboard returns the headline stats.
func (h *AnalyticsHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	stats, err := h.analyticsService.GetDashboard(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error computing dashboard: %v", err), http.StatusInternalServerError)
		return
	}
	sendWithETag(w, r, stats)
}

// HandleGetTimeOfDay returns hourly P&L buckets.
func (h *AnalyticsHandler) HandleGetTimeOfDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	buckets, err := h.analyticsService.GetTimeOfDay(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error computing time-of-day stats: %v", err), http.StatusInternalServerError)
		return
	}
	sendWithETag(w, r, buckets)
}
