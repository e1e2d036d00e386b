package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"
)

// AlertSubmitter defines the interface for submitting watcher findings
// to the chain
type AlertSubmitter interface {
	// SubmitAlerts submits a batch of glide alerts to the chain
	SubmitAlerts(ctx context.Context, alerts []*GlideAlert) error

	// SubmitPoolPause asks the chain to disable swaps on a pool
	SubmitPoolPause(ctx context.Context, poolID, reason string) error

	// GetStatus returns the submitter status
	GetStatus() SubmitterStatus
}

// SubmitterStatus represents the status of a submitter
type SubmitterStatus struct {
	Connected         bool
	PendingTxCount    int
	LastSubmitTime    time.Time
	LastError         string
	TotalSubmissions  int64
	FailedSubmissions int64
}

// PoolPause records a pause request for inspection
type PoolPause struct {
	PoolID string
	Reason string
}

// MockSubmitter is a mock implementation for testing
type MockSubmitter struct {
	mu              sync.Mutex
	alerts          []*GlideAlert
	pauses          []PoolPause
	status          SubmitterStatus
	simulateFailure bool
}

// NewMockSubmitter creates a new mock submitter
func NewMockSubmitter() *MockSubmitter {
	return &MockSubmitter{
		alerts: make([]*GlideAlert, 0),
		pauses: make([]PoolPause, 0),
		status: SubmitterStatus{
			Connected: true,
		},
	}
}

// SubmitAlerts submits alerts (mock implementation)
func (s *MockSubmitter) SubmitAlerts(ctx context.Context, alerts []*GlideAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.simulateFailure {
		s.status.FailedSubmissions++
		s.status.LastError = "simulated failure"
		return fmt.Errorf("simulated failure")
	}

	s.alerts = append(s.alerts, alerts...)
	s.status.TotalSubmissions++
	s.status.LastSubmitTime = time.Now()

	log.Printf("[MockSubmitter] Submitted %d alerts", len(alerts))
	for _, alert := range alerts {
		log.Printf("  Alert: %s, Pool: %s, Kind: %s", alert.AlertID, alert.PoolID, alert.Kind)
	}

	return nil
}

// SubmitPoolPause submits a pool pause (mock implementation)
func (s *MockSubmitter) SubmitPoolPause(ctx context.Context, poolID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.simulateFailure {
		s.status.FailedSubmissions++
		s.status.LastError = "simulated failure"
		return fmt.Errorf("simulated failure")
	}

	s.pauses = append(s.pauses, PoolPause{PoolID: poolID, Reason: reason})
	s.status.TotalSubmissions++
	s.status.LastSubmitTime = time.Now()

	log.Printf("[MockSubmitter] Submitted pool pause: %s (%s)", poolID, reason)

	return nil
}

// GetStatus returns the mock submitter status
func (s *MockSubmitter) GetStatus() SubmitterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// GetSubmittedAlerts returns all submitted alerts (for testing)
func (s *MockSubmitter) GetSubmittedAlerts() []*GlideAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*GlideAlert, len(s.alerts))
	copy(result, s.alerts)
	return result
}

// GetSubmittedPauses returns all submitted pauses (for testing)
func (s *MockSubmitter) GetSubmittedPauses() []PoolPause {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]PoolPause, len(s.pauses))
	copy(result, s.pauses)
	return result
}

// SetSimulateFailure enables or disables failure simulation
func (s *MockSubmitter) SetSimulateFailure(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simulateFailure = fail
}

// Clear clears all submitted data (for testing)
func (s *MockSubmitter) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = make([]*GlideAlert, 0)
	s.pauses = make([]PoolPause, 0)
}

// BatchSubmitter submits alerts in batches to the chain
type BatchSubmitter struct {
	rpcURL        string
	batchSize     int
	retryAttempts int
	retryDelay    time.Duration

	mu     sync.Mutex
	status SubmitterStatus
}

// BatchSubmitterConfig holds configuration for BatchSubmitter
type BatchSubmitterConfig struct {
	RPCURL        string
	BatchSize     int
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultBatchSubmitterConfig returns default configuration
func DefaultBatchSubmitterConfig() *BatchSubmitterConfig {
	return &BatchSubmitterConfig{
		RPCURL:        "http://localhost:26657",
		BatchSize:     50,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// NewBatchSubmitter creates a new batch submitter
func NewBatchSubmitter(config *BatchSubmitterConfig) *BatchSubmitter {
	if config == nil {
		config = DefaultBatchSubmitterConfig()
	}

	return &BatchSubmitter{
		rpcURL:        config.RPCURL,
		batchSize:     config.BatchSize,
		retryAttempts: config.RetryAttempts,
		retryDelay:    config.RetryDelay,
		status: SubmitterStatus{
			Connected: true,
		},
	}
}

// SubmitAlerts submits alerts in batches
func (s *BatchSubmitter) SubmitAlerts(ctx context.Context, alerts []*GlideAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	s.mu.Lock()
	s.status.PendingTxCount = len(alerts)
	s.mu.Unlock()

	// Split into batches
	for i := 0; i < len(alerts); i += s.batchSize {
		end := i + s.batchSize
		if end > len(alerts) {
			end = len(alerts)
		}
		batch := alerts[i:end]

		if err := s.submitBatchWithRetry(ctx, batch); err != nil {
			s.mu.Lock()
			s.status.FailedSubmissions++
			s.status.LastError = err.Error()
			s.mu.Unlock()
			return fmt.Errorf("failed to submit batch: %w", err)
		}
	}

	s.mu.Lock()
	s.status.TotalSubmissions++
	s.status.LastSubmitTime = time.Now()
	s.status.PendingTxCount = 0
	s.mu.Unlock()

	return nil
}

// submitBatchWithRetry submits a batch with retry logic
func (s *BatchSubmitter) submitBatchWithRetry(ctx context.Context, batch []*GlideAlert) error {
	var lastErr error
	for attempt := 0; attempt < s.retryAttempts; attempt++ {
		if err := s.submitBatch(ctx, batch); err != nil {
			lastErr = err
			log.Printf("Batch submission attempt %d failed: %v", attempt+1, err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all retry attempts failed: %w", lastErr)
}

// submitBatch submits a single batch
func (s *BatchSubmitter) submitBatch(ctx context.Context, batch []*GlideAlert) error {
	// Prepare the transaction message
	msg := struct {
		Jsonrpc string        `json:"jsonrpc"`
		ID      int           `json:"id"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params"`
	}{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  "broadcast_tx_async",
		Params:  []interface{}{s.encodeAlerts(batch)},
	}

	// Log the submission (in production, this would be an actual RPC call)
	msgBytes, _ := json.Marshal(msg)
	log.Printf("[BatchSubmitter] Submitting batch of %d alerts to %s", len(batch), s.rpcURL)
	log.Printf("[BatchSubmitter] Message: %s", string(msgBytes))

	// In a real implementation, we would:
	// 1. Create a MsgSubmitGlideAlerts transaction
	// 2. Sign the transaction
	// 3. Broadcast via RPC

	return nil
}

// encodeAlerts encodes alerts for submission
func (s *BatchSubmitter) encodeAlerts(alerts []*GlideAlert) string {
	// In production, this would properly encode the alerts
	// into a Cosmos SDK transaction
	data := make([]map[string]string, len(alerts))
	for i, alert := range alerts {
		data[i] = map[string]string{
			"alert_id":  alert.AlertID,
			"pool_id":   alert.PoolID,
			"kind":      alert.Kind,
			"detail":    alert.Detail,
			"timestamp": strconv.FormatInt(alert.Timestamp, 10),
		}
	}
	encoded, _ := json.Marshal(data)
	return string(encoded)
}

// SubmitPoolPause submits a pool pause request
func (s *BatchSubmitter) SubmitPoolPause(ctx context.Context, poolID, reason string) error {
	log.Printf("[BatchSubmitter] Submitting pool pause: %s (%s)", poolID, reason)

	// In production, this would create and broadcast a transaction
	// disabling swaps on the pool
	s.mu.Lock()
	s.status.TotalSubmissions++
	s.status.LastSubmitTime = time.Now()
	s.mu.Unlock()

	return nil
}

// GetStatus returns the submitter status
func (s *BatchSubmitter) GetStatus() SubmitterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetRPCURL updates the RPC URL
func (s *BatchSubmitter) SetRPCURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rpcURL = url
}

// SubmitterFactory creates submitters based on configuration
type SubmitterFactory struct{}

// NewSubmitterFactory creates a new submitter factory
func NewSubmitterFactory() *SubmitterFactory {
	return &SubmitterFactory{}
}

// Create creates a new submitter based on the type
func (f *SubmitterFactory) Create(submitterType string, config *BatchSubmitterConfig) AlertSubmitter {
	switch submitterType {
	case "mock":
		return NewMockSubmitter()
	case "batch":
		return NewBatchSubmitter(config)
	default:
		return NewMockSubmitter()
	}
}
