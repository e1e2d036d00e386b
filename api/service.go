package api

import (
	"github.com/openalpha/lbp-dex/api/types"
)

// Re-export types for convenience
type (
	TokenInfo            = types.TokenInfo
	ScheduleInfo         = types.ScheduleInfo
	PoolInfo             = types.PoolInfo
	SpotPriceInfo        = types.SpotPriceInfo
	WeightsInfo          = types.WeightsInfo
	SwapInfo             = types.SwapInfo
	AccountInfo          = types.AccountInfo
	ObservationInfo      = types.ObservationInfo
	CandleInfo           = types.CandleInfo
	CreatePoolRequest    = types.CreatePoolRequest
	CreatePoolResponse   = types.CreatePoolResponse
	SetFeeRequest        = types.SetFeeRequest
	SetEnabledRequest    = types.SetEnabledRequest
	ScheduleGlideRequest = types.ScheduleGlideRequest
	PoolResponse         = types.PoolResponse
	ListPoolsResponse    = types.ListPoolsResponse
	SwapRequest          = types.SwapRequest
	SwapResponse         = types.SwapResponse
	QuoteRequest         = types.QuoteRequest
	QuoteResponse        = types.QuoteResponse
	PriceHistoryResponse = types.PriceHistoryResponse
	CandlesResponse      = types.CandlesResponse
	PoolService          = types.PoolService
	TradeService         = types.TradeService
	HistoryService       = types.HistoryService
)

// nowMillis returns current timestamp in milliseconds
func nowMillis() int64 {
	return types.NowMillis()
}
