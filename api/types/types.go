package types

import (
	"context"
	"time"
)

// TokenInfo represents one pool token in the API response
type TokenInfo struct {
	Denom            string `json:"denom"`
	Balance          string `json:"balance"`
	DenormWeight     string `json:"denorm_weight"`
	NormalizedWeight string `json:"normalized_weight"`
}

// ScheduleInfo represents a pool's weight schedule in the API response
type ScheduleInfo struct {
	StartTime    int64    `json:"start_time"`
	EndTime      int64    `json:"end_time"`
	StartWeights []string `json:"start_weights"`
	EndWeights   []string `json:"end_weights"`
}

// PoolInfo represents a pool in the API response
type PoolInfo struct {
	PoolID      string        `json:"pool_id"`
	Profile     string        `json:"profile"`
	Owner       string        `json:"owner"`
	Tokens      []TokenInfo   `json:"tokens"`
	SwapFee     string        `json:"swap_fee"`
	SwapEnabled bool          `json:"swap_enabled"`
	GlideActive bool          `json:"glide_active"`
	Schedule    *ScheduleInfo `json:"schedule,omitempty"`
	SwapCount   int64         `json:"swap_count"`
	CreatedAt   int64         `json:"created_at"`
	UpdatedAt   int64         `json:"updated_at"`
}

// SpotPriceInfo represents an instantaneous pair price in the API response
type SpotPriceInfo struct {
	PoolID    string `json:"pool_id"`
	TokenIn   string `json:"token_in"`
	TokenOut  string `json:"token_out"`
	SpotPrice string `json:"spot_price"`
	Timestamp int64  `json:"timestamp"`
}

// WeightsInfo represents a pool's current normalized weights
type WeightsInfo struct {
	PoolID    string   `json:"pool_id"`
	Denoms    []string `json:"denoms"`
	Weights   []string `json:"weights"`
	Timestamp int64    `json:"timestamp"`
}

// SwapInfo represents an executed or quoted swap in the API response
type SwapInfo struct {
	PoolID          string `json:"pool_id"`
	TokenIn         string `json:"token_in"`
	TokenOut        string `json:"token_out"`
	AmountIn        string `json:"amount_in"`
	AmountOut       string `json:"amount_out"`
	FeeAmount       string `json:"fee_amount"`
	SpotPriceBefore string `json:"spot_price_before"`
	SpotPriceAfter  string `json:"spot_price_after"`
	Timestamp       int64  `json:"timestamp"`
}

// AccountInfo represents a trader account in the API response
type AccountInfo struct {
	Address   string            `json:"address"`
	Balances  map[string]string `json:"balances"`
	UpdatedAt int64             `json:"updated_at"`
}

// ObservationInfo represents one recorded spot price point
type ObservationInfo struct {
	TokenIn   string `json:"token_in"`
	TokenOut  string `json:"token_out"`
	SpotPrice string `json:"spot_price"`
	Timestamp int64  `json:"timestamp"`
}

// CandleInfo represents one OHLC bucket in the API response
type CandleInfo struct {
	Timestamp int64  `json:"timestamp"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
	SwapCount int64  `json:"swap_count"`
}

// CreatePoolRequest represents the request to create a pool
type CreatePoolRequest struct {
	Owner       string   `json:"owner"`
	PoolID      string   `json:"pool_id,omitempty"`
	Profile     string   `json:"profile"`
	Denoms      []string `json:"denoms"`
	Balances    []string `json:"balances"`
	Weights     []string `json:"weights"`
	SwapFee     string   `json:"swap_fee"`
	SwapEnabled bool     `json:"swap_enabled"`
	StartTime   int64    `json:"start_time,omitempty"`
	EndTime     int64    `json:"end_time,omitempty"`
}

// CreatePoolResponse represents the response after creating a pool
type CreatePoolResponse struct {
	Pool *PoolInfo `json:"pool"`
}

// SetFeeRequest represents the request to change a pool's swap fee
type SetFeeRequest struct {
	Owner   string `json:"owner"`
	SwapFee string `json:"swap_fee"`
}

// SetEnabledRequest represents the request to pause or resume swapping
type SetEnabledRequest struct {
	Owner   string `json:"owner"`
	Enabled bool   `json:"enabled"`
}

// ScheduleGlideRequest represents the request to schedule a weight glide
type ScheduleGlideRequest struct {
	Owner      string   `json:"owner"`
	StartTime  int64    `json:"start_time"`
	EndTime    int64    `json:"end_time"`
	EndWeights []string `json:"end_weights"`
}

// PoolResponse represents the response for pool admin operations
type PoolResponse struct {
	Pool *PoolInfo `json:"pool"`
}

// ListPoolsResponse represents the response for listing pools
type ListPoolsResponse struct {
	Pools []*PoolInfo `json:"pools"`
	Total uint64      `json:"total"`
}

// SwapRequest represents the request to execute a swap
type SwapRequest struct {
	Trader       string `json:"trader"`
	PoolID       string `json:"pool_id"`
	TokenIn      string `json:"token_in"`
	TokenOut     string `json:"token_out"`
	AmountIn     string `json:"amount_in"`
	MinAmountOut string `json:"min_amount_out,omitempty"`
}

// SwapResponse represents the response after executing a swap
type SwapResponse struct {
	Swap *SwapInfo `json:"swap"`
}

// QuoteRequest represents the request to price a swap without executing it
type QuoteRequest struct {
	PoolID   string `json:"pool_id"`
	TokenIn  string `json:"token_in"`
	TokenOut string `json:"token_out"`
	AmountIn string `json:"amount_in"`
}

// QuoteResponse represents the response for a swap quote
type QuoteResponse struct {
	Quote *SwapInfo `json:"quote"`
}

// PriceHistoryResponse represents the response for observation history
type PriceHistoryResponse struct {
	PoolID       string             `json:"pool_id"`
	TokenIn      string             `json:"token_in"`
	TokenOut     string             `json:"token_out"`
	Observations []*ObservationInfo `json:"observations"`
}

// CandlesResponse represents the response for candle history
type CandlesResponse struct {
	PoolID   string        `json:"pool_id"`
	TokenIn  string        `json:"token_in"`
	TokenOut string        `json:"token_out"`
	Interval string        `json:"interval"`
	Candles  []*CandleInfo `json:"candles"`
}

// PoolService defines the interface for pool lifecycle and admin operations
type PoolService interface {
	ListPools(ctx context.Context, offset, limit uint64) (*ListPoolsResponse, error)
	GetPool(ctx context.Context, poolID string) (*PoolInfo, error)
	CreatePool(ctx context.Context, req *CreatePoolRequest) (*CreatePoolResponse, error)
	SetSwapFee(ctx context.Context, poolID string, req *SetFeeRequest) (*PoolResponse, error)
	SetSwapEnabled(ctx context.Context, poolID string, req *SetEnabledRequest) (*PoolResponse, error)
	ScheduleGlide(ctx context.Context, poolID string, req *ScheduleGlideRequest) (*PoolResponse, error)
	GetSpotPrice(ctx context.Context, poolID, tokenIn, tokenOut string) (*SpotPriceInfo, error)
	GetWeights(ctx context.Context, poolID string) (*WeightsInfo, error)
}

// TradeService defines the interface for swap execution and account lookup
type TradeService interface {
	Swap(ctx context.Context, req *SwapRequest) (*SwapResponse, error)
	QuoteSwap(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)
	GetAccount(ctx context.Context, address string) (*AccountInfo, error)
}

// HistoryService defines the interface for price history queries
type HistoryService interface {
	GetObservations(ctx context.Context, poolID, tokenIn, tokenOut string, from, to int64) (*PriceHistoryResponse, error)
	GetCandles(ctx context.Context, poolID, tokenIn, tokenOut, interval string, from, to int64, limit int) (*CandlesResponse, error)
}

// Helper function to get current timestamp in milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
