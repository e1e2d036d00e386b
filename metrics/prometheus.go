package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LBP DEX Metrics Collector
// Provides comprehensive metrics for monitoring

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all LBP DEX metrics
type Collector struct {
	// Swap metrics
	SwapsTotal  *prometheus.CounterVec
	SwapVolume  *prometheus.CounterVec
	SwapFees    *prometheus.CounterVec
	SwapLatency *prometheus.HistogramVec

	// Quote metrics
	QuotesTotal  *prometheus.CounterVec
	QuoteLatency *prometheus.HistogramVec

	// Pool metrics
	PoolsActive *prometheus.GaugeVec
	PoolReserve *prometheus.GaugeVec
	SpotPrice   *prometheus.GaugeVec
	SwapFeeRate *prometheus.GaugeVec

	// Weight glide metrics
	GlidesActive    *prometheus.GaugeVec
	GlideProgress   *prometheus.GaugeVec
	GlideStepsTotal *prometheus.CounterVec
	GlidesCompleted *prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive *prometheus.GaugeVec
	WSMessagesTotal     *prometheus.CounterVec
	WSMessageLatency    *prometheus.HistogramVec
	WSSubscriptions     *prometheus.GaugeVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	APIErrorsTotal    *prometheus.CounterVec
	RateLimitHits     *prometheus.CounterVec

	// System metrics
	ActiveTraders prometheus.Gauge
	BlockHeight   prometheus.Gauge
	BlockTime     *prometheus.HistogramVec
	TxPoolSize    prometheus.Gauge
	PeerCount     prometheus.Gauge
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	// Swap metrics
	c.SwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lbpdex",
			Subsystem: "swaps",
			Name:      "total",
			Help:      "Total number of swaps executed",
		},
		[]string{"pool_id", "token_in", "token_out", "status"},
	)

	c.SwapVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lbpdex",
			Subsystem: "swaps",
			Name:      "volume",
			Help:      "Total swap volume (in input token units)",
		},
		[]string{"pool_id", "token_in"},
	)

	c.SwapFees = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lbpdex",
			Subsystem: "swaps",
			Name:      "fees",
			Help:      "Total swap fees retained by pools",
		},
		[]string{"pool_id", "denom"},
	)

	c.SwapLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lbpdex",
			Subsystem: "swaps",
			Name:      "latency_ms",
			Help:      "Swap processing latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"pool_id"},
	)

	// Quote metrics
	c.QuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lbpdex",
			Subsystem: "quotes",
			Name:      "total",
			Help:      "Total number of swap quotes served",
		},
		[]string{"pool_id", "result"},
	)

	c.QuoteLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lbpdex",
			Subsystem: "quotes",
			Name:      "latency_ms",
			Help:      "Quote computation latency in milliseconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50},
		},
		[]string{"pool_id"},
	)

	// Pool metrics
	c.PoolsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lbpdex",
			Subsystem: "pools",
			Name:      "active",
			Help:      "Number of pools with swapping enabled",
		},
		[]string{"profile"},
	)

	c.PoolReserve = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lbpdex",
			Subsystem: "pools",
			Name:      "reserve",
			Help:      "Pool reserve balance per token",
		},
		[]string{"pool_id", "denom"},
	)

	c.SpotPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lbpdex",
			Subsystem: "pools",
			Name:      "spot_price",
			Help:      "Current spot price per token pair",
		},
		[]string{"pool_id", "token_in", "token_out"},
	)

	c.SwapFeeRate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lbpdex",
			Subsystem: "pools",
			Name:      "swap_fee_rate",
			Help:      "Current swap fee rate per pool",
		},
		[]string{"pool_id"},
	)

	// Weight glide metrics
	c.GlidesActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lbpdex",
			Subsystem: "glides",
			Name:      "active",
			Help:      "Number of pools inside an active glide window",
		},
		[]string{},
	)

	c.GlideProgress = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lbpdex",
			Subsystem: "glides",
			Name:      "progress",
			Help:      "Glide window progress per pool (0-1)",
		},
		[]string{"pool_id"},
	)

	c.GlideStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lbpdex",
			Subsystem: "glides",
			Name:      "steps_total",
			Help:      "Total weight interpolation steps applied",
		},
		[]string{"pool_id"},
	)

	c.GlidesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lbpdex",
			Subsystem: "glides",
			Name:      "completed_total",
			Help:      "Total glide windows completed",
		},
		[]string{"pool_id"},
	)

	// WebSocket metrics
	c.WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lbpdex",
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
		[]string{},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lbpdex",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages sent",
		},
		[]string{"channel"},
	)

	c.WSMessageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lbpdex",
			Subsystem: "websocket",
			Name:      "message_latency_ms",
			Help:      "WebSocket message latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100},
		},
		[]string{"channel"},
	)

	c.WSSubscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lbpdex",
			Subsystem: "websocket",
			Name:      "subscriptions",
			Help:      "Number of active subscriptions per channel",
		},
		[]string{"channel"},
	)

	// API metrics
	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lbpdex",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lbpdex",
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.APIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lbpdex",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Total API errors",
		},
		[]string{"method", "path", "error_type"},
	)

	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lbpdex",
			Subsystem: "api",
			Name:      "rate_limit_hits",
			Help:      "Total rate limit hits",
		},
		[]string{"limit_type"},
	)

	// System metrics
	c.ActiveTraders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lbpdex",
			Subsystem: "system",
			Name:      "active_traders",
			Help:      "Number of active traders",
		},
	)

	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lbpdex",
			Subsystem: "system",
			Name:      "block_height",
			Help:      "Current block height",
		},
	)

	c.BlockTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lbpdex",
			Subsystem: "system",
			Name:      "block_time_ms",
			Help:      "Block time in milliseconds",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000},
		},
		[]string{},
	)

	c.TxPoolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lbpdex",
			Subsystem: "system",
			Name:      "tx_pool_size",
			Help:      "Transaction pool size",
		},
	)

	c.PeerCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lbpdex",
			Subsystem: "system",
			Name:      "peer_count",
			Help:      "Number of connected peers",
		},
	)

	// Register all metrics
	c.registerAll()

	return c
}

// registerAll registers all metrics with Prometheus
func (c *Collector) registerAll() {
	// Swap metrics
	prometheus.MustRegister(c.SwapsTotal)
	prometheus.MustRegister(c.SwapVolume)
	prometheus.MustRegister(c.SwapFees)
	prometheus.MustRegister(c.SwapLatency)

	// Quote metrics
	prometheus.MustRegister(c.QuotesTotal)
	prometheus.MustRegister(c.QuoteLatency)

	// Pool metrics
	prometheus.MustRegister(c.PoolsActive)
	prometheus.MustRegister(c.PoolReserve)
	prometheus.MustRegister(c.SpotPrice)
	prometheus.MustRegister(c.SwapFeeRate)

	// Weight glide metrics
	prometheus.MustRegister(c.GlidesActive)
	prometheus.MustRegister(c.GlideProgress)
	prometheus.MustRegister(c.GlideStepsTotal)
	prometheus.MustRegister(c.GlidesCompleted)

	// WebSocket metrics
	prometheus.MustRegister(c.WSConnectionsActive)
	prometheus.MustRegister(c.WSMessagesTotal)
	prometheus.MustRegister(c.WSMessageLatency)
	prometheus.MustRegister(c.WSSubscriptions)

	// API metrics
	prometheus.MustRegister(c.APIRequestsTotal)
	prometheus.MustRegister(c.APIRequestLatency)
	prometheus.MustRegister(c.APIErrorsTotal)
	prometheus.MustRegister(c.RateLimitHits)

	// System metrics
	prometheus.MustRegister(c.ActiveTraders)
	prometheus.MustRegister(c.BlockHeight)
	prometheus.MustRegister(c.BlockTime)
	prometheus.MustRegister(c.TxPoolSize)
	prometheus.MustRegister(c.PeerCount)
}

// ============ Recording Helpers ============

// RecordSwap records an executed swap
func (c *Collector) RecordSwap(poolID, tokenIn, tokenOut, status string, amountIn, fee float64) {
	c.SwapsTotal.WithLabelValues(poolID, tokenIn, tokenOut, status).Inc()
	if amountIn > 0 {
		c.SwapVolume.WithLabelValues(poolID, tokenIn).Add(amountIn)
	}
	if fee > 0 {
		c.SwapFees.WithLabelValues(poolID, tokenIn).Add(fee)
	}
}

// RecordSwapLatency records swap processing latency
func (c *Collector) RecordSwapLatency(poolID string, latencyMs float64) {
	c.SwapLatency.WithLabelValues(poolID).Observe(latencyMs)
}

// RecordQuote records a served quote
func (c *Collector) RecordQuote(poolID, result string, latencyMs float64) {
	c.QuotesTotal.WithLabelValues(poolID, result).Inc()
	c.QuoteLatency.WithLabelValues(poolID).Observe(latencyMs)
}

// RecordSpotPrice records the current spot price for a pair
func (c *Collector) RecordSpotPrice(poolID, tokenIn, tokenOut string, price float64) {
	c.SpotPrice.WithLabelValues(poolID, tokenIn, tokenOut).Set(price)
}

// RecordPoolReserve records a pool's reserve balance for a token
func (c *Collector) RecordPoolReserve(poolID, denom string, balance float64) {
	c.PoolReserve.WithLabelValues(poolID, denom).Set(balance)
}

// RecordSwapFeeRate records a pool's current fee rate
func (c *Collector) RecordSwapFeeRate(poolID string, rate float64) {
	c.SwapFeeRate.WithLabelValues(poolID).Set(rate)
}

// RecordGlideStep records a weight interpolation step
func (c *Collector) RecordGlideStep(poolID string, progress float64) {
	c.GlideStepsTotal.WithLabelValues(poolID).Inc()
	c.GlideProgress.WithLabelValues(poolID).Set(progress)
}

// RecordGlideCompleted records a completed glide window
func (c *Collector) RecordGlideCompleted(poolID string) {
	c.GlidesCompleted.WithLabelValues(poolID).Inc()
	c.GlideProgress.WithLabelValues(poolID).Set(1.0)
}

// RecordRateLimitHit records a rejected request
func (c *Collector) RecordRateLimitHit(limitType string) {
	c.RateLimitHits.WithLabelValues(limitType).Inc()
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.WithLabelValues().Add(float64(delta))
}

// RecordWSMessage records a WebSocket message
func (c *Collector) RecordWSMessage(channel string, latencyMs float64) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
	c.WSMessageLatency.WithLabelValues(channel).Observe(latencyMs)
}

// UpdateSystemMetrics updates system-level metrics
func (c *Collector) UpdateSystemMetrics(blockHeight int64, txPoolSize int, peerCount int) {
	c.BlockHeight.Set(float64(blockHeight))
	c.TxPoolSize.Set(float64(txPoolSize))
	c.PeerCount.Set(float64(peerCount))
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
