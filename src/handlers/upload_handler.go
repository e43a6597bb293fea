package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/username/tradefolio/backend/src/brokers"
	"github.com/username/tradefolio/backend/src/config"
	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/parsers"
	"github.com/username/tradefolio/backend/src/security/validation"
	"github.com/username/tradefolio/backend/src/services"
	"github.com/username/tradefolio/backend/src/utils"
)

type UploadHandler struct {
	importService services.ImportService
	fillProvider  brokers.FillProvider // nil when no broker credentials configured
}

func NewUploadHandler(importService services.ImportService, fillProvider brokers.FillProvider) *UploadHandler {
	return &UploadHandler{importService: importService, fillProvider: fillProvider}
}

// HandleImport accepts a multipart CSV upload. Optional query parameters:
// broker (forces a dialect instead of auto-detect) and date (yyyy-mm-dd,
// fallback for rows with unparseable dates).
func (h *UploadHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		utils.SendJSONError(w, "failed to retrieve file from request; ensure 'file' field is used", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		utils.SendJSONError(w, fmt.Sprintf("file too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	if err := validation.ValidateClientContentType(fileHeader.Header.Get("Content-Type")); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		logger.L.Warn("File content validation failed", "userID", userID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := parsers.Options{Broker: parsers.Dialect(r.URL.Query().Get("broker"))}
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		if d, err := time.Parse("2006-01-02", dateStr); err == nil {
			opts.DefaultDate = d
		} else {
			utils.SendJSONError(w, "invalid date parameter, expected yyyy-mm-dd", http.StatusBadRequest)
			return
		}
	}

	logger.L.Info("Processing import", "userID", userID, "filename", fileHeader.Filename, "broker", string(opts.Broker))
	result, err := h.importService.ProcessUpload(file, userID, opts)
	if err != nil {
		if errors.Is(err, services.ErrParsingFailed) {
			utils.SendJSONError(w, fmt.Sprintf("error parsing CSV file: %v", err), http.StatusBadRequest)
			return
		}
		logger.L.Error("Import failed", "userID", userID, "error", err)
		utils.SendJSONError(w, "internal server error during import", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	utils.SendJSON(w, result, status)
}

// HandleBrokerSync pulls fills from the configured broker API and imports the
// reconstructed round trips. Optional query parameter: since (yyyy-mm-dd).
func (h *UploadHandler) HandleBrokerSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if h.fillProvider == nil {
		utils.SendJSONError(w, "no broker API configured", http.StatusServiceUnavailable)
		return
	}

	since := time.Now().AddDate(0, -1, 0)
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		d, err := time.Parse("2006-01-02", sinceStr)
		if err != nil {
			utils.SendJSONError(w, "invalid since parameter, expected yyyy-mm-dd", http.StatusBadRequest)
			return
		}
		since = d
	}

	logger.L.Info("Starting broker sync", "userID", userID, "provider", h.fillProvider.Name(), "since", since)
	result, err := h.importService.SyncBrokerFills(r.Context(), userID, h.fillProvider, since)
	if err != nil {
		logger.L.Error("Broker sync failed", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("broker sync failed: %v", err), http.StatusBadGateway)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	utils.SendJSON(w, result, status)
}
