package watcher

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"cosmossdk.io/math"

	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// Config holds watcher configuration
type Config struct {
	// TickInterval is how often the timeline is checked for due boundaries
	TickInterval time.Duration

	// BatchSize is the max alerts per submission batch
	BatchSize int

	// BatchInterval is how often buffered alerts are flushed
	BatchInterval time.Duration

	// DriftTolerance is the max absolute deviation between a reported
	// normalized weight and the schedule before a drift alert fires
	DriftTolerance math.LegacyDec

	// WebSocketURL is the chain event subscription endpoint
	WebSocketURL string

	// ChainRPCURL is the chain RPC endpoint for alert submission
	ChainRPCURL string
}

// DefaultConfig returns the default watcher configuration
func DefaultConfig() *Config {
	return &Config{
		TickInterval:   time.Second,
		BatchSize:      50,
		BatchInterval:  500 * time.Millisecond,
		DriftTolerance: math.LegacyNewDecWithPrec(1, 2), // 0.01
		WebSocketURL:   "ws://localhost:26657/websocket",
		ChainRPCURL:    "http://localhost:26657",
	}
}

// EventType identifies the type of a watcher event
type EventType int

const (
	EventTypePoolUpdate EventType = iota
	EventTypePoolRemove
	EventTypeWeightReport
)

// String returns a human-readable event type
func (e EventType) String() string {
	switch e {
	case EventTypePoolUpdate:
		return "pool_update"
	case EventTypePoolRemove:
		return "pool_remove"
	case EventTypeWeightReport:
		return "weight_report"
	default:
		return "unknown"
	}
}

// Event represents a pool event observed by the watcher
type Event struct {
	Type      EventType
	Pool      *types.Pool
	PoolID    string
	Weights   []math.LegacyDec
	Timestamp time.Time
}

// Alert kinds emitted by the watcher
const (
	AlertGlideStarted   = "glide_started"
	AlertGlideCompleted = "glide_completed"
	AlertWeightDrift    = "weight_drift"
)

// GlideAlert is one watcher finding pending submission to the chain
type GlideAlert struct {
	AlertID   string   `json:"alert_id"`
	PoolID    string   `json:"pool_id"`
	Kind      string   `json:"kind"`
	Denoms    []string `json:"denoms"`
	Weights   []string `json:"weights"`
	Detail    string   `json:"detail"`
	Timestamp int64    `json:"timestamp"`
}

// GlideWatcher tracks pool weight schedules off-chain. It keeps the next
// glide boundary of every tracked pool in a skip-list timeline, fires
// alerts when boundaries pass or reported weights drift off schedule, and
// submits alerts to the chain in batches.
type GlideWatcher struct {
	config *Config

	// Caches
	cache  *PoolCache
	denoms *DenomCache
	alerts *AlertBuffer

	// Boundary timeline
	timeline *GlideTimeline

	// Chain submission
	submitter AlertSubmitter

	// Schedule revision per pool; boundaries from older revisions are stale
	generations map[string]uint64
	mu          sync.RWMutex

	// Event processing
	eventCh chan Event
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewGlideWatcher creates a new glide watcher
func NewGlideWatcher(config *Config, submitter AlertSubmitter) *GlideWatcher {
	if config == nil {
		config = DefaultConfig()
	}
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultConfig().TickInterval
	}
	if config.DriftTolerance.IsNil() {
		config.DriftTolerance = DefaultConfig().DriftTolerance
	}
	if submitter == nil {
		submitter = NewMockSubmitter()
	}

	return &GlideWatcher{
		config:      config,
		cache:       NewPoolCache(),
		denoms:      NewDenomCache(),
		alerts:      NewAlertBuffer(config.BatchSize),
		timeline:    NewGlideTimeline(),
		submitter:   submitter,
		generations: make(map[string]uint64),
		eventCh:     make(chan Event, 1000),
		stopCh:      make(chan struct{}),
	}
}

// Start starts the watcher's processing loops
func (w *GlideWatcher) Start(ctx context.Context) error {
	log.Println("Starting glide watcher...")

	// Start event listener
	w.wg.Add(1)
	go w.eventLoop(ctx)

	// Start boundary tick loop
	w.wg.Add(1)
	go w.tickLoop(ctx)

	// Start batch submission loop
	w.wg.Add(1)
	go w.batchLoop(ctx)

	log.Println("Glide watcher started")
	return nil
}

// Stop stops the watcher
func (w *GlideWatcher) Stop() error {
	log.Println("Stopping glide watcher...")
	close(w.stopCh)
	w.wg.Wait()
	log.Println("Glide watcher stopped")
	return nil
}

// eventLoop processes incoming events
func (w *GlideWatcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event := <-w.eventCh:
			if err := w.handleEvent(event); err != nil {
				log.Printf("Error handling event: %v", err)
			}
		}
	}
}

// tickLoop checks the timeline for due boundaries
func (w *GlideWatcher) tickLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.tick(time.Now().Unix())
		}
	}
}

// batchLoop submits buffered alerts periodically
func (w *GlideWatcher) batchLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Submit any remaining alerts before stopping
			w.submitPendingAlerts(ctx)
			return
		case <-w.stopCh:
			w.submitPendingAlerts(ctx)
			return
		case <-ticker.C:
			w.submitPendingAlerts(ctx)
		}
	}
}

// submitPendingAlerts flushes the alert buffer to the submitter
func (w *GlideWatcher) submitPendingAlerts(ctx context.Context) {
	alerts := w.alerts.Flush()
	if len(alerts) == 0 {
		return
	}

	log.Printf("Submitting %d glide alerts to chain...", len(alerts))
	if err := w.submitter.SubmitAlerts(ctx, alerts); err != nil {
		log.Printf("Error submitting alerts: %v", err)
		// Re-add alerts to buffer for retry
		w.alerts.AddBatch(alerts)
	}
}

// handleEvent routes an event to its handler
func (w *GlideWatcher) handleEvent(event Event) error {
	switch event.Type {
	case EventTypePoolUpdate:
		return w.handlePoolUpdate(event.Pool)
	case EventTypePoolRemove:
		return w.handlePoolRemove(event.PoolID)
	case EventTypeWeightReport:
		return w.handleWeightReport(event.PoolID, event.Weights, event.Timestamp)
	default:
		return fmt.Errorf("unknown event type: %v", event.Type)
	}
}

// handlePoolUpdate registers or refreshes a pool snapshot and schedules
// its glide boundaries
func (w *GlideWatcher) handlePoolUpdate(pool *types.Pool) error {
	if pool == nil {
		return fmt.Errorf("pool update event carries no pool")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Store snapshot and bump the schedule revision so boundaries from
	// any previous schedule go stale
	w.cache.Set(pool)
	gen := w.generations[pool.PoolID] + 1
	w.generations[pool.PoolID] = gen

	now := time.Now().Unix()
	s := pool.Schedule
	if s.StartTime >= s.EndTime {
		// Flat schedule, nothing to wake up for
		return nil
	}

	if s.StartTime > now {
		w.timeline.Add(&GlideBoundary{
			PoolID:     pool.PoolID,
			Kind:       BoundaryGlideStart,
			Time:       s.StartTime,
			Generation: gen,
		})
	}
	if s.EndTime > now {
		w.timeline.Add(&GlideBoundary{
			PoolID:     pool.PoolID,
			Kind:       BoundaryGlideEnd,
			Time:       s.EndTime,
			Generation: gen,
		})
	}

	return nil
}

// handlePoolRemove drops a pool from tracking. Its boundaries stay in the
// timeline but fail the generation check when they come due.
func (w *GlideWatcher) handlePoolRemove(poolID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.cache.Get(poolID); !exists {
		return fmt.Errorf("pool not tracked: %s", poolID)
	}

	w.cache.Delete(poolID)
	delete(w.generations, poolID)
	return nil
}

// handleWeightReport compares reported normalized weights against the
// schedule and fires a drift alert when they deviate beyond tolerance
func (w *GlideWatcher) handleWeightReport(poolID string, observed []math.LegacyDec, at time.Time) error {
	pool, exists := w.cache.Get(poolID)
	if !exists {
		return fmt.Errorf("pool not tracked: %s", poolID)
	}

	expected := pool.NormalizedWeights(at.Unix())
	if len(observed) != len(expected) {
		return fmt.Errorf("weight report for %s has %d weights, pool has %d tokens",
			poolID, len(observed), len(expected))
	}

	for i := range observed {
		diff := observed[i].Sub(expected[i]).Abs()
		if diff.LTE(w.config.DriftTolerance) {
			continue
		}

		denom := pool.Tokens[i].Denom
		detail := fmt.Sprintf("weight for %s drifted: observed %s, expected %s",
			w.denoms.SymbolFor(denom), observed[i].String(), expected[i].String())
		w.alerts.Add(&GlideAlert{
			AlertID:   w.generateAlertID(),
			PoolID:    poolID,
			Kind:      AlertWeightDrift,
			Denoms:    pool.Denoms(),
			Weights:   weightStrings(observed),
			Detail:    detail,
			Timestamp: at.Unix(),
		})
		return nil
	}

	return nil
}

// tick fires alerts for every boundary due at or before now
func (w *GlideWatcher) tick(now int64) {
	due := w.timeline.PopDue(now)
	for _, b := range due {
		if !w.boundaryCurrent(b) {
			continue
		}
		pool, exists := w.cache.Get(b.PoolID)
		if !exists {
			continue
		}
		w.alerts.Add(w.buildBoundaryAlert(pool, b, now))
	}
}

// boundaryCurrent reports whether a boundary belongs to the pool's
// latest schedule revision
func (w *GlideWatcher) boundaryCurrent(b *GlideBoundary) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.generations[b.PoolID] == b.Generation
}

// buildBoundaryAlert builds the alert for a fired glide boundary
func (w *GlideWatcher) buildBoundaryAlert(pool *types.Pool, b *GlideBoundary, now int64) *GlideAlert {
	kind := AlertGlideStarted
	if b.Kind == BoundaryGlideEnd {
		kind = AlertGlideCompleted
	}

	// Weights as of the boundary itself, not the tick that observed it
	weights := pool.NormalizedWeights(b.Time)
	denoms := pool.Denoms()

	parts := make([]string, len(denoms))
	for i, denom := range denoms {
		parts[i] = fmt.Sprintf("%s=%s", w.denoms.SymbolFor(denom), weights[i].String())
	}

	return &GlideAlert{
		AlertID:   w.generateAlertID(),
		PoolID:    pool.PoolID,
		Kind:      kind,
		Denoms:    denoms,
		Weights:   weightStrings(weights),
		Detail:    strings.Join(parts, " "),
		Timestamp: now,
	}
}

// generateAlertID generates a unique alert ID
func (w *GlideWatcher) generateAlertID() string {
	return fmt.Sprintf("alert_%d", time.Now().UnixNano())
}

// weightStrings renders a weight vector as decimal strings
func weightStrings(weights []math.LegacyDec) []string {
	out := make([]string, len(weights))
	for i, weight := range weights {
		out[i] = weight.String()
	}
	return out
}

// TrackPool submits a pool snapshot to the watcher (simulated WebSocket)
func (w *GlideWatcher) TrackPool(pool *types.Pool) {
	w.eventCh <- Event{
		Type:      EventTypePoolUpdate,
		Pool:      pool,
		PoolID:    pool.PoolID,
		Timestamp: time.Now(),
	}
}

// ForgetPool removes a pool from the watcher
func (w *GlideWatcher) ForgetPool(poolID string) {
	w.eventCh <- Event{
		Type:      EventTypePoolRemove,
		PoolID:    poolID,
		Timestamp: time.Now(),
	}
}

// ReportWeights submits observed normalized weights for drift checking
func (w *GlideWatcher) ReportWeights(poolID string, weights []math.LegacyDec) {
	w.eventCh <- Event{
		Type:      EventTypeWeightReport,
		PoolID:    poolID,
		Weights:   weights,
		Timestamp: time.Now(),
	}
}

// RegisterDenom stores display metadata used in alert details
func (w *GlideWatcher) RegisterDenom(info *DenomInfo) {
	w.denoms.Set(info)
}

// GetPool returns the cached snapshot for a pool
func (w *GlideWatcher) GetPool(poolID string) (*types.Pool, bool) {
	return w.cache.Get(poolID)
}

// NextBoundary returns the soonest pending glide boundary
func (w *GlideWatcher) NextBoundary() *GlideBoundary {
	return w.timeline.Next()
}

// UpcomingBoundaries returns up to n pending boundaries in time order
func (w *GlideWatcher) UpcomingBoundaries(n int) []*GlideBoundary {
	return w.timeline.Upcoming(n)
}

// Stats returns watcher statistics
type Stats struct {
	TrackedPools      int
	ActiveGlides      int
	PendingBoundaries int
	PendingAlerts     int
}

// GetStats returns current watcher statistics
func (w *GlideWatcher) GetStats() Stats {
	return Stats{
		TrackedPools:      w.cache.Len(),
		ActiveGlides:      len(w.cache.GetActiveGlides(time.Now().Unix())),
		PendingBoundaries: w.timeline.Len(),
		PendingAlerts:     w.alerts.Len(),
	}
}
