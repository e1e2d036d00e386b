package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/openalpha/lbp-dex/api/types"
	"github.com/openalpha/lbp-dex/metrics"
)

// SwapBroadcaster pushes an executed swap to WebSocket subscribers
type SwapBroadcaster func(swap *types.SwapInfo, trader string)

// SwapHandler handles swap execution and quote HTTP requests
type SwapHandler struct {
	service   types.TradeService
	broadcast SwapBroadcaster
}

// NewSwapHandler creates a new swap handler
func NewSwapHandler(service types.TradeService) *SwapHandler {
	return &SwapHandler{service: service}
}

// SetBroadcaster wires WebSocket fan-out for executed swaps
func (h *SwapHandler) SetBroadcaster(fn SwapBroadcaster) {
	h.broadcast = fn
}

// HandleSwap handles POST /v1/swap
func (h *SwapHandler) HandleSwap(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	// Validate required fields
	if req.PoolID == "" {
		writeError(w, http.StatusBadRequest, "missing_pool_id", "pool_id is required")
		return
	}
	if req.TokenIn == "" || req.TokenOut == "" {
		writeError(w, http.StatusBadRequest, "missing_tokens", "token_in and token_out are required")
		return
	}
	if req.AmountIn == "" {
		writeError(w, http.StatusBadRequest, "missing_amount_in", "amount_in is required")
		return
	}

	// Get trader from header or body
	if req.Trader == "" {
		req.Trader = r.Header.Get("X-Trader-Address")
	}
	if req.Trader == "" {
		writeError(w, http.StatusBadRequest, "missing_trader", "trader address is required")
		return
	}

	timer := metrics.NewTimer()
	resp, err := h.service.Swap(r.Context(), &req)
	collector := metrics.GetCollector()
	collector.RecordSwapLatency(req.PoolID, timer.ElapsedMs())
	if err != nil {
		collector.RecordSwap(req.PoolID, req.TokenIn, req.TokenOut, "rejected", 0, 0)
		writeSwapError(w, err)
		return
	}

	amountIn, _ := strconv.ParseFloat(resp.Swap.AmountIn, 64)
	fee, _ := strconv.ParseFloat(resp.Swap.FeeAmount, 64)
	collector.RecordSwap(req.PoolID, req.TokenIn, req.TokenOut, "executed", amountIn, fee)
	spotAfter, err := strconv.ParseFloat(resp.Swap.SpotPriceAfter, 64)
	if err == nil {
		collector.RecordSpotPrice(req.PoolID, req.TokenIn, req.TokenOut, spotAfter)
	}

	if h.broadcast != nil {
		h.broadcast(resp.Swap, req.Trader)
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleQuote handles POST /v1/swap/quote
func (h *SwapHandler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	if req.PoolID == "" {
		writeError(w, http.StatusBadRequest, "missing_pool_id", "pool_id is required")
		return
	}
	if req.TokenIn == "" || req.TokenOut == "" {
		writeError(w, http.StatusBadRequest, "missing_tokens", "token_in and token_out are required")
		return
	}
	if req.AmountIn == "" {
		writeError(w, http.StatusBadRequest, "missing_amount_in", "amount_in is required")
		return
	}

	timer := metrics.NewTimer()
	resp, err := h.service.QuoteSwap(r.Context(), &req)
	if err != nil {
		metrics.GetCollector().RecordQuote(req.PoolID, "rejected", timer.ElapsedMs())
		writeSwapError(w, err)
		return
	}
	metrics.GetCollector().RecordQuote(req.PoolID, "served", timer.ElapsedMs())

	writeJSON(w, http.StatusOK, resp)
}

// HandleAccount handles GET /v1/account/{address}
func (h *SwapHandler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	prefix := "/v1/account/"
	if !strings.HasPrefix(path, prefix) {
		writeError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return
	}
	address := strings.TrimPrefix(path, prefix)
	if address == "" {
		address = r.Header.Get("X-Trader-Address")
	}
	if address == "" {
		writeError(w, http.StatusBadRequest, "missing_address", "account address is required")
		return
	}

	account, err := h.service.GetAccount(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusNotFound, "account_not_found", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"account": account})
}

// writeSwapError maps swap errors onto HTTP status codes by message
func writeSwapError(w http.ResponseWriter, err error) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found") || strings.Contains(msg, "not initialized"):
		writeError(w, http.StatusNotFound, "pool_not_found", msg)
	case strings.Contains(msg, "below minimum") || strings.Contains(msg, "slippage"):
		writeError(w, http.StatusConflict, "slippage", msg)
	case strings.Contains(msg, "disabled"):
		writeError(w, http.StatusForbidden, "swaps_disabled", msg)
	case strings.Contains(msg, "insufficient"):
		writeError(w, http.StatusPaymentRequired, "insufficient_balance", msg)
	default:
		writeError(w, http.StatusBadRequest, "swap_failed", msg)
	}
}
