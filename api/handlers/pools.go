package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/openalpha/lbp-dex/api/types"
)

// PoolHandler handles pool-related HTTP requests
type PoolHandler struct {
	service types.PoolService
}

// NewPoolHandler creates a new pool handler
func NewPoolHandler(service types.PoolService) *PoolHandler {
	return &PoolHandler{service: service}
}

// HandlePools handles /v1/pools endpoint (GET for list, POST for create)
func (h *PoolHandler) HandlePools(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listPools(w, r)
	case http.MethodPost:
		h.createPool(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

// HandlePool handles GET /v1/pools/{id}
func (h *PoolHandler) HandlePool(w http.ResponseWriter, r *http.Request) {
	poolID := r.Header.Get("X-Pool-ID")
	if poolID == "" {
		writeError(w, http.StatusBadRequest, "missing_pool_id", "Pool ID is required")
		return
	}

	pool, err := h.service.GetPool(r.Context(), poolID)
	if err != nil {
		writeError(w, http.StatusNotFound, "pool_not_found", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"pool": pool})
}

// HandleSpotPrice handles GET /v1/pools/{id}/spot
func (h *PoolHandler) HandleSpotPrice(w http.ResponseWriter, r *http.Request) {
	poolID := r.Header.Get("X-Pool-ID")
	query := r.URL.Query()
	tokenIn := query.Get("token_in")
	tokenOut := query.Get("token_out")
	if tokenIn == "" || tokenOut == "" {
		writeError(w, http.StatusBadRequest, "missing_tokens", "token_in and token_out are required")
		return
	}

	price, err := h.service.GetSpotPrice(r.Context(), poolID, tokenIn, tokenOut)
	if err != nil {
		writeServiceError(w, err, "spot_price_failed")
		return
	}

	writeJSON(w, http.StatusOK, price)
}

// HandleWeights handles GET /v1/pools/{id}/weights
func (h *PoolHandler) HandleWeights(w http.ResponseWriter, r *http.Request) {
	poolID := r.Header.Get("X-Pool-ID")

	weights, err := h.service.GetWeights(r.Context(), poolID)
	if err != nil {
		writeError(w, http.StatusNotFound, "pool_not_found", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, weights)
}

// HandleSetFee handles POST /v1/pools/{id}/fee
func (h *PoolHandler) HandleSetFee(w http.ResponseWriter, r *http.Request) {
	poolID := r.Header.Get("X-Pool-ID")

	var req types.SetFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.Owner == "" {
		req.Owner = r.Header.Get("X-Trader-Address")
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, "missing_owner", "owner address is required")
		return
	}
	if req.SwapFee == "" {
		writeError(w, http.StatusBadRequest, "missing_swap_fee", "swap_fee is required")
		return
	}

	resp, err := h.service.SetSwapFee(r.Context(), poolID, &req)
	if err != nil {
		writeServiceError(w, err, "set_fee_failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleSetEnabled handles POST /v1/pools/{id}/enable
func (h *PoolHandler) HandleSetEnabled(w http.ResponseWriter, r *http.Request) {
	poolID := r.Header.Get("X-Pool-ID")

	var req types.SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.Owner == "" {
		req.Owner = r.Header.Get("X-Trader-Address")
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, "missing_owner", "owner address is required")
		return
	}

	resp, err := h.service.SetSwapEnabled(r.Context(), poolID, &req)
	if err != nil {
		writeServiceError(w, err, "set_enabled_failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleScheduleGlide handles POST /v1/pools/{id}/schedule
func (h *PoolHandler) HandleScheduleGlide(w http.ResponseWriter, r *http.Request) {
	poolID := r.Header.Get("X-Pool-ID")

	var req types.ScheduleGlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.Owner == "" {
		req.Owner = r.Header.Get("X-Trader-Address")
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, "missing_owner", "owner address is required")
		return
	}
	if req.StartTime <= 0 || req.EndTime <= req.StartTime {
		writeError(w, http.StatusBadRequest, "invalid_window", "start_time and end_time must form a forward window")
		return
	}
	if len(req.EndWeights) == 0 {
		writeError(w, http.StatusBadRequest, "missing_end_weights", "end_weights are required")
		return
	}

	resp, err := h.service.ScheduleGlide(r.Context(), poolID, &req)
	if err != nil {
		writeServiceError(w, err, "schedule_glide_failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// createPool handles POST /v1/pools
func (h *PoolHandler) createPool(w http.ResponseWriter, r *http.Request) {
	var req types.CreatePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	// Validate required fields
	if req.Profile == "" {
		writeError(w, http.StatusBadRequest, "missing_profile", "profile is required")
		return
	}
	if len(req.Denoms) == 0 {
		writeError(w, http.StatusBadRequest, "missing_denoms", "denoms are required")
		return
	}
	if len(req.Balances) != len(req.Denoms) || len(req.Weights) != len(req.Denoms) {
		writeError(w, http.StatusBadRequest, "misaligned_fields", "denoms, balances and weights must have equal length")
		return
	}
	if req.SwapFee == "" {
		writeError(w, http.StatusBadRequest, "missing_swap_fee", "swap_fee is required")
		return
	}

	// Get owner from header or body
	if req.Owner == "" {
		req.Owner = r.Header.Get("X-Trader-Address")
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, "missing_owner", "owner address is required")
		return
	}

	resp, err := h.service.CreatePool(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "create_pool_failed")
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// listPools handles GET /v1/pools
func (h *PoolHandler) listPools(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var offset, limit uint64
	if offsetStr := query.Get("offset"); offsetStr != "" {
		offset, _ = strconv.ParseUint(offsetStr, 10, 64)
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, _ = strconv.ParseUint(limitStr, 10, 64)
	}

	resp, err := h.service.ListPools(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_pools_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// writeServiceError maps service errors onto HTTP status codes by
// message, matching the keeper's registered error texts
func writeServiceError(w http.ResponseWriter, err error, code string) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found") || strings.Contains(msg, "not initialized"):
		writeError(w, http.StatusNotFound, "pool_not_found", msg)
	case strings.Contains(msg, "unauthorized"):
		writeError(w, http.StatusForbidden, "unauthorized", msg)
	default:
		writeError(w, http.StatusBadRequest, code, msg)
	}
}
