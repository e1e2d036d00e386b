package handlers

import (
	"net/http"
	"strconv"

	"github.com/openalpha/lbp-dex/api/types"
)

// HistoryHandler handles price history and candle HTTP requests
type HistoryHandler struct {
	service types.HistoryService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(service types.HistoryService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// HandleHistory handles GET /v1/pools/{id}/history
// Query params: token_in, token_out, from, to
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	poolID := r.Header.Get("X-Pool-ID")
	query := r.URL.Query()

	tokenIn := query.Get("token_in")
	tokenOut := query.Get("token_out")
	if tokenIn == "" || tokenOut == "" {
		writeError(w, http.StatusBadRequest, "missing_tokens", "token_in and token_out are required")
		return
	}

	var from, to int64
	if fromStr := query.Get("from"); fromStr != "" {
		from, _ = strconv.ParseInt(fromStr, 10, 64)
	}
	if toStr := query.Get("to"); toStr != "" {
		to, _ = strconv.ParseInt(toStr, 10, 64)
	}

	resp, err := h.service.GetObservations(r.Context(), poolID, tokenIn, tokenOut, from, to)
	if err != nil {
		writeServiceError(w, err, "history_failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleCandles handles GET /v1/pools/{id}/candles
// Query params: token_in, token_out, interval, from, to, limit
func (h *HistoryHandler) HandleCandles(w http.ResponseWriter, r *http.Request) {
	poolID := r.Header.Get("X-Pool-ID")
	query := r.URL.Query()

	tokenIn := query.Get("token_in")
	tokenOut := query.Get("token_out")
	if tokenIn == "" || tokenOut == "" {
		writeError(w, http.StatusBadRequest, "missing_tokens", "token_in and token_out are required")
		return
	}

	interval := query.Get("interval")
	if interval == "" {
		interval = "1m" // Default to 1 minute
	}

	var from, to int64
	limit := 200 // Default limit
	if fromStr := query.Get("from"); fromStr != "" {
		from, _ = strconv.ParseInt(fromStr, 10, 64)
	}
	if toStr := query.Get("to"); toStr != "" {
		to, _ = strconv.ParseInt(toStr, 10, 64)
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, _ = strconv.Atoi(limitStr)
		if limit > 1000 {
			limit = 1000 // Max limit
		}
	}

	resp, err := h.service.GetCandles(r.Context(), poolID, tokenIn, tokenOut, interval, from, to, limit)
	if err != nil {
		writeServiceError(w, err, "candles_failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
