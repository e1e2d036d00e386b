package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	clog "cosmossdk.io/log"
	"github.com/openalpha/lbp-dex/api/handlers"
	"github.com/openalpha/lbp-dex/api/middleware"
	"github.com/openalpha/lbp-dex/api/types"
	"github.com/openalpha/lbp-dex/api/websocket"
	"github.com/openalpha/lbp-dex/metrics"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	wsServer   *websocket.Server
	config     *Config
	mockMode   bool

	// Services
	poolService    types.PoolService
	tradeService   types.TradeService
	historyService types.HistoryService

	// Handlers
	poolHandler    *handlers.PoolHandler
	swapHandler    *handlers.SwapHandler
	historyHandler *handlers.HistoryHandler

	// Rate limiter
	rateLimiter *middleware.RateLimiter

	// Set when backed by the in-process keeper; the broadcaster uses it
	// to advance block height so weight glides progress between swaps.
	keeperService *KeeperService
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	MockMode         bool
	DisableRateLimit bool // For testing purposes
}

// DefaultConfig returns default configuration
// NOTE: MockMode defaults to false (real mode) for production safety.
// Use --mock flag explicitly for development/testing with mock data.
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		MockMode:     false, // Default to REAL mode - use --mock for development
	}
}

// NewServer creates a new API server backed by mock services
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	wsConfig := websocket.DefaultServerConfig()
	wsConfig.Port = config.Port

	// Create mock service
	mockService := NewMockService()

	// Create rate limiter
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())

	s := &Server{
		config:         config,
		wsServer:       websocket.NewServer(wsConfig),
		mockMode:       config.MockMode,
		poolService:    mockService,
		tradeService:   mockService,
		historyService: mockService,
		rateLimiter:    rateLimiter,
	}

	// Create handlers
	s.poolHandler = handlers.NewPoolHandler(s.poolService)
	s.swapHandler = handlers.NewSwapHandler(s.tradeService)
	s.historyHandler = handlers.NewHistoryHandler(s.historyService)
	s.swapHandler.SetBroadcaster(s.broadcastSwap)

	return s
}

// NewServerWithServices creates a new API server with custom services
func NewServerWithServices(config *Config, poolSvc types.PoolService, tradeSvc types.TradeService, historySvc types.HistoryService) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	wsConfig := websocket.DefaultServerConfig()
	wsConfig.Port = config.Port

	// Create rate limiter
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())

	s := &Server{
		config:         config,
		wsServer:       websocket.NewServer(wsConfig),
		mockMode:       config.MockMode,
		poolService:    poolSvc,
		tradeService:   tradeSvc,
		historyService: historySvc,
		rateLimiter:    rateLimiter,
	}

	// Let the broadcaster advance blocks when the keeper backs the services
	if ks, ok := poolSvc.(*KeeperService); ok {
		s.keeperService = ks
	}

	// Create handlers
	s.poolHandler = handlers.NewPoolHandler(s.poolService)
	s.swapHandler = handlers.NewSwapHandler(s.tradeService)
	s.historyHandler = handlers.NewHistoryHandler(s.historyService)
	s.swapHandler.SetBroadcaster(s.broadcastSwap)

	return s
}

// NewServerWithKeeperService creates an API server backed by the real lbp keeper
// This uses the actual pricing engine and store for all pool operations
func NewServerWithKeeperService(config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config.MockMode = false

	// Create keeper service with in-memory store
	logger := clog.NewNopLogger()
	keeperService, err := NewKeeperService(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create keeper service: %w", err)
	}

	s := NewServerWithServices(config, keeperService, keeperService, keeperService)
	s.mockMode = false
	return s, nil
}

// Start starts the API server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Health check (support both /health and /v1/health for compatibility)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/health", s.handleHealth)

	// Pool endpoints (GET list, POST create)
	mux.HandleFunc("/v1/pools", s.poolHandler.HandlePools)
	mux.HandleFunc("/v1/pools/", s.handlePoolRoutes)

	// Swap endpoints (stricter per-trader rate limit on submissions)
	swapHandler := http.Handler(http.HandlerFunc(s.swapHandler.HandleSwap))
	if !s.config.DisableRateLimit {
		swapHandler = middleware.SwapRateLimitMiddleware(s.rateLimiter)(swapHandler)
	}
	mux.Handle("/v1/swap", swapHandler)
	mux.HandleFunc("/v1/swap/quote", s.swapHandler.HandleQuote)

	// Account endpoints (read-only balances)
	mux.HandleFunc("/v1/account/", s.swapHandler.HandleAccount)

	// WebSocket
	mux.HandleFunc("/ws", s.wsServer.GetHub().ServeWS)

	// Prometheus metrics
	mux.Handle("/metrics", metrics.Handler())

	// Apply middleware chain: Metrics -> CORS -> RateLimit -> Handler
	var handler http.Handler
	if s.config.DisableRateLimit {
		handler = corsMiddleware(mux)
	} else {
		handler = corsMiddleware(
			middleware.RateLimitMiddleware(s.rateLimiter)(mux),
		)
	}
	handler = metricsMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	// Start WebSocket hub
	go s.wsServer.GetHub().Run()

	// Start real-time price broadcaster
	go s.startPriceBroadcaster()

	log.Printf("API server starting on %s (mock mode: %v)", addr, s.mockMode)
	log.Printf("Endpoints enabled: /v1/pools, /v1/swap, /v1/account")
	if s.config.DisableRateLimit {
		log.Printf("Rate limiting DISABLED (for testing)")
	} else {
		log.Printf("Rate limiting enabled: %d req/s per IP", 100)
	}
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Hub exposes the WebSocket hub for swap event broadcasting
func (s *Server) Hub() *websocket.Hub {
	return s.wsServer.GetHub()
}

// broadcastSwap fans an executed swap out to the pool channel and,
// when the trader is known, to their private channel
func (s *Server) broadcastSwap(swap *types.SwapInfo, trader string) {
	msg := &websocket.SwapMessage{
		PoolID:    swap.PoolID,
		TokenIn:   swap.TokenIn,
		TokenOut:  swap.TokenOut,
		AmountIn:  swap.AmountIn,
		AmountOut: swap.AmountOut,
		FeeAmount: swap.FeeAmount,
		SpotPrice: swap.SpotPriceAfter,
		Timestamp: swap.Timestamp,
	}
	s.wsServer.BroadcastSwap(msg)

	if trader != "" {
		private := *msg
		private.Trader = trader
		s.wsServer.BroadcastTraderSwap(trader, &private)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	mode := "real"
	modeDescription := "Using in-memory lbp keeper (standalone mode)"
	if s.mockMode {
		mode = "mock"
		modeDescription = "Using mock data for development/testing"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"timestamp":        time.Now().Unix(),
		"mode":             mode,
		"mode_description": modeDescription,
		"mock_mode":        s.mockMode, // Deprecated: use "mode" instead
		"warning":          "This API uses in-memory storage. For production, connect to a running Cosmos chain.",
	})
}

// handlePoolRoutes handles /v1/pools/{poolId}/* endpoints
func (s *Server) handlePoolRoutes(w http.ResponseWriter, r *http.Request) {
	// Parse path: /v1/pools/{poolId} or /v1/pools/{poolId}/{endpoint}
	path := r.URL.Path[len("/v1/pools/"):]

	// Extract pool ID and endpoint
	poolID := path
	endpoint := ""
	for i, c := range path {
		if c == '/' {
			poolID = path[:i]
			endpoint = path[i+1:]
			break
		}
	}

	if poolID == "" {
		writeError(w, http.StatusBadRequest, "Pool ID required")
		return
	}

	// Set pool ID in request for handler
	r.Header.Set("X-Pool-ID", poolID)

	switch endpoint {
	case "":
		s.poolHandler.HandlePool(w, r)
	case "spot":
		s.poolHandler.HandleSpotPrice(w, r)
	case "weights":
		s.poolHandler.HandleWeights(w, r)
	case "fee":
		s.poolHandler.HandleSetFee(w, r)
	case "enable":
		s.poolHandler.HandleSetEnabled(w, r)
	case "schedule":
		s.poolHandler.HandleScheduleGlide(w, r)
	case "history":
		s.historyHandler.HandleHistory(w, r)
	case "candles":
		s.historyHandler.HandleCandles(w, r)
	default:
		writeError(w, http.StatusNotFound, "Endpoint not found")
	}
}

// startPriceBroadcaster polls pool state every second and pushes spot
// prices and weight snapshots to WebSocket subscribers. When backed by
// the keeper it also advances the block height so scheduled weight
// glides progress in real time.
func (s *Server) startPriceBroadcaster() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	collector := metrics.GetCollector()
	glideActive := make(map[string]bool)

	for range ticker.C {
		if s.keeperService != nil {
			if err := s.keeperService.AdvanceBlock(); err != nil {
				continue
			}
		}

		resp, err := s.poolService.ListPools(context.Background(), 0, 100)
		if err != nil {
			continue
		}

		for _, pool := range resp.Pools {
			// Spot price for every ordered token pair
			for _, tokenIn := range pool.Tokens {
				for _, tokenOut := range pool.Tokens {
					if tokenIn.Denom == tokenOut.Denom {
						continue
					}
					spot, err := s.poolService.GetSpotPrice(context.Background(), pool.PoolID, tokenIn.Denom, tokenOut.Denom)
					if err != nil {
						continue
					}
					s.wsServer.BroadcastPrice(&websocket.PriceMessage{
						PoolID:    spot.PoolID,
						TokenIn:   spot.TokenIn,
						TokenOut:  spot.TokenOut,
						SpotPrice: spot.SpotPrice,
						Timestamp: spot.Timestamp,
					})
					if price, err := strconv.ParseFloat(spot.SpotPrice, 64); err == nil {
						collector.RecordSpotPrice(pool.PoolID, tokenIn.Denom, tokenOut.Denom, price)
					}
				}
			}

			// Broadcast weights every 2 seconds (they move slowly)
			if time.Now().Second()%2 == 0 {
				weights, err := s.poolService.GetWeights(context.Background(), pool.PoolID)
				if err == nil {
					s.wsServer.BroadcastWeights(&websocket.WeightsMessage{
						PoolID:      weights.PoolID,
						Denoms:      weights.Denoms,
						Weights:     weights.Weights,
						GlideActive: pool.GlideActive,
						Timestamp:   weights.Timestamp,
					})
				}
			}

			// Gauge updates
			for _, token := range pool.Tokens {
				if bal, err := strconv.ParseFloat(token.Balance, 64); err == nil {
					collector.RecordPoolReserve(pool.PoolID, token.Denom, bal)
				}
			}
			if fee, err := strconv.ParseFloat(pool.SwapFee, 64); err == nil {
				collector.RecordSwapFeeRate(pool.PoolID, fee)
			}
			if pool.Schedule != nil && pool.GlideActive {
				collector.RecordGlideStep(pool.PoolID, glideProgress(pool.Schedule))
			}
			if glideActive[pool.PoolID] && !pool.GlideActive {
				collector.RecordGlideCompleted(pool.PoolID)
			}
			glideActive[pool.PoolID] = pool.GlideActive
		}
	}
}

// glideProgress returns the fraction of the glide window elapsed, in [0, 1]
func glideProgress(schedule *types.ScheduleInfo) float64 {
	if schedule.EndTime <= schedule.StartTime {
		return 1
	}
	now := time.Now().Unix()
	if now <= schedule.StartTime {
		return 0
	}
	if now >= schedule.EndTime {
		return 1
	}
	return float64(now-schedule.StartTime) / float64(schedule.EndTime-schedule.StartTime)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Trader-Address")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request latency and status for Prometheus
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.GetCollector().RecordAPIRequest(r.Method, routePattern(r.URL.Path), strconv.Itoa(rec.status), timer.ElapsedMs())
	})
}

// statusRecorder captures the response status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// routePattern collapses path parameters to keep metric cardinality bounded
func routePattern(path string) string {
	const poolsPrefix = "/v1/pools/"
	if len(path) > len(poolsPrefix) && path[:len(poolsPrefix)] == poolsPrefix {
		rest := path[len(poolsPrefix):]
		for i, c := range rest {
			if c == '/' {
				return poolsPrefix + ":id/" + rest[i+1:]
			}
		}
		return poolsPrefix + ":id"
	}
	const accountPrefix = "/v1/account/"
	if len(path) > len(accountPrefix) && path[:len(accountPrefix)] == accountPrefix {
		return accountPrefix + ":address"
	}
	return path
}
