package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// QueryServer defines the lbp QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// Pool returns a pool by ID
func (q *QueryServer) Pool(ctx context.Context, poolID string) (*types.Pool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx, poolID)
	if pool == nil {
		return nil, types.ErrNotInitialized
	}
	return pool, nil
}

// Pools returns all pools with pagination
func (q *QueryServer) Pools(ctx context.Context, offset, limit uint64) ([]*types.Pool, uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	allPools := q.keeper.GetAllPools(sdkCtx)

	total := uint64(len(allPools))

	// Apply pagination
	if offset >= total {
		return []*types.Pool{}, total, nil
	}

	end := offset + limit
	if end > total || limit == 0 {
		end = total
	}

	return allPools[offset:end], total, nil
}

// NormalizedWeights returns the pool's denoms and their normalized
// weights at the current block time
func (q *QueryServer) NormalizedWeights(ctx context.Context, poolID string) ([]string, []math.LegacyDec, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx, poolID)
	if pool == nil {
		return nil, nil, types.ErrNotInitialized
	}
	return pool.Denoms(), pool.NormalizedWeights(sdkCtx.BlockTime().Unix()), nil
}

// PoolTokens returns the per-token balances and weights at the current
// block time
func (q *QueryServer) PoolTokens(ctx context.Context, poolID string) ([]types.TokenState, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.TokenStates(sdkCtx, poolID)
}

// Latest returns the newest recorded price of token in the pool, or nil
// when no observation exists yet
func (q *QueryServer) Latest(ctx context.Context, poolID, token string) (*types.PriceObservation, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx, poolID)
	if pool == nil {
		return nil, types.ErrNotInitialized
	}
	if !pool.HasToken(token) {
		return nil, types.ErrUnknownToken
	}
	return q.keeper.GetLatestObservation(sdkCtx, pool, token), nil
}

// SpotPrice returns the current spot price of tokenOut in units of
// tokenIn, before fees
func (q *QueryServer) SpotPrice(ctx context.Context, poolID, tokenIn, tokenOut string) (math.LegacyDec, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx, poolID)
	if pool == nil {
		return math.LegacyDec{}, types.ErrNotInitialized
	}
	if tokenIn == tokenOut {
		return math.LegacyDec{}, types.ErrSameToken
	}
	idxIn := pool.TokenIndex(tokenIn)
	idxOut := pool.TokenIndex(tokenOut)
	if idxIn < 0 || idxOut < 0 {
		return math.LegacyDec{}, types.ErrUnknownToken
	}

	weights := pool.CurrentDenormWeights(sdkCtx.BlockTime().Unix())
	return types.SpotPrice(
		math.LegacyNewDecFromInt(pool.Tokens[idxIn].Balance),
		weights[idxIn],
		math.LegacyNewDecFromInt(pool.Tokens[idxOut].Balance),
		weights[idxOut],
	)
}

// EstimateSwap prices a swap without executing it
func (q *QueryServer) EstimateSwap(ctx context.Context, poolID, tokenIn, tokenOut string, amountIn math.Int) (*types.SwapResult, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.EstimateSwap(sdkCtx, poolID, tokenIn, tokenOut, amountIn)
}

// PriceHistory returns recorded observations for a pair inside [from, to]
func (q *QueryServer) PriceHistory(ctx context.Context, poolID, tokenIn, tokenOut string, from, to int64) ([]*types.PriceObservation, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx, poolID)
	if pool == nil {
		return nil, types.ErrNotInitialized
	}
	if !pool.HasToken(tokenIn) || !pool.HasToken(tokenOut) {
		return nil, types.ErrUnknownToken
	}
	return q.keeper.GetObservationsRange(sdkCtx, poolID, tokenIn, tokenOut, from, to), nil
}

// Candles returns OHLC candles for a pair and interval inside [from, to]
func (q *QueryServer) Candles(ctx context.Context, poolID, tokenIn, tokenOut, interval string, from, to int64, limit int) ([]*types.Candle, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx, poolID)
	if pool == nil {
		return nil, types.ErrNotInitialized
	}
	if !pool.HasToken(tokenIn) || !pool.HasToken(tokenOut) {
		return nil, types.ErrUnknownToken
	}
	if !ValidCandleInterval(interval) {
		return nil, types.ErrInvalidConfig
	}
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	return q.keeper.GetCandles(sdkCtx, poolID, tokenIn, tokenOut, CandleInterval(interval), from, to, limit), nil
}
