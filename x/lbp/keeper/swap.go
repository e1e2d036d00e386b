package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/lbp-dex/pkg/decmath"
	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// quoteSwap runs the pricing pipeline against a pool snapshot at the
// given time and returns the would-be result without touching state.
func quoteSwap(pool *types.Pool, tokenIn, tokenOut string, amountIn math.Int, now int64) (*types.SwapResult, error) {
	if !pool.SwapEnabled {
		return nil, types.ErrSwapsDisabled
	}
	if tokenIn == tokenOut {
		return nil, types.ErrSameToken
	}
	idxIn := pool.TokenIndex(tokenIn)
	idxOut := pool.TokenIndex(tokenOut)
	if idxIn < 0 || idxOut < 0 {
		return nil, types.ErrUnknownToken
	}
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return nil, types.ErrInvalidAmount
	}

	weights := pool.CurrentDenormWeights(now)
	weightIn := weights[idxIn]
	weightOut := weights[idxOut]
	balanceIn := math.LegacyNewDecFromInt(pool.Tokens[idxIn].Balance)
	balanceOut := math.LegacyNewDecFromInt(pool.Tokens[idxOut].Balance)

	spotBefore, err := types.SpotPrice(balanceIn, weightIn, balanceOut, weightOut)
	if err != nil {
		return nil, err
	}

	amountInDec := math.LegacyNewDecFromInt(amountIn)
	outDec, err := types.OutGivenIn(balanceIn, weightIn, balanceOut, weightOut, amountInDec, pool.SwapFee)
	if err != nil {
		return nil, err
	}
	amountOut := outDec.TruncateInt()
	if !amountOut.IsPositive() {
		return nil, types.ErrInvalidAmount
	}
	if amountOut.GTE(pool.Tokens[idxOut].Balance) {
		return nil, types.ErrArithmetic
	}

	// The full input, fee included, joins the in-side balance; the spot
	// price after settlement must not fall under the same weights
	newBalanceIn := balanceIn.Add(amountInDec)
	newBalanceOut := math.LegacyNewDecFromInt(pool.Tokens[idxOut].Balance.Sub(amountOut))
	spotAfter, err := types.SpotPrice(newBalanceIn, weightIn, newBalanceOut, weightOut)
	if err != nil {
		return nil, err
	}
	if spotAfter.LT(spotBefore) {
		return nil, types.ErrPriceMonotonicityViolation
	}

	adjustedIn := decmath.MulDown(amountInDec, math.LegacyOneDec().Sub(pool.SwapFee))
	return &types.SwapResult{
		PoolID:          pool.PoolID,
		TokenIn:         tokenIn,
		TokenOut:        tokenOut,
		AmountIn:        amountIn,
		AmountOut:       amountOut,
		FeeAmount:       amountInDec.Sub(adjustedIn),
		SpotPriceBefore: spotBefore,
		SpotPriceAfter:  spotAfter,
		Timestamp:       now,
	}, nil
}

// EstimateSwap prices a swap against current state without executing it
func (k *Keeper) EstimateSwap(ctx sdk.Context, poolID, tokenIn, tokenOut string, amountIn math.Int) (*types.SwapResult, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrNotInitialized
	}
	return quoteSwap(pool, tokenIn, tokenOut, amountIn, ctx.BlockTime().Unix())
}

// Swap executes a priced swap: the trader's full input, fee included,
// enters pool custody and the output leaves it. Balance updates, the
// two transfers, the price observation and events commit together or
// not at all.
func (k *Keeper) Swap(ctx sdk.Context, trader, poolID, tokenIn, tokenOut string, amountIn, minAmountOut math.Int) (*types.SwapResult, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrNotInitialized
	}

	traderAddr, err := sdk.AccAddressFromBech32(trader)
	if err != nil {
		return nil, types.ErrUnauthorized
	}

	now := ctx.BlockTime().Unix()
	result, err := quoteSwap(pool, tokenIn, tokenOut, amountIn, now)
	if err != nil {
		return nil, err
	}
	if !minAmountOut.IsNil() && minAmountOut.IsPositive() && result.AmountOut.LT(minAmountOut) {
		return nil, types.ErrSlippage
	}

	cacheCtx, write := ctx.CacheContext()

	if err := k.bankKeeper.SendCoinsFromAccountToModule(cacheCtx, traderAddr, types.ModuleName, sdk.NewCoins(sdk.NewCoin(tokenIn, amountIn))); err != nil {
		return nil, err
	}
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(cacheCtx, types.ModuleName, traderAddr, sdk.NewCoins(sdk.NewCoin(tokenOut, result.AmountOut))); err != nil {
		return nil, err
	}

	idxIn := pool.TokenIndex(tokenIn)
	idxOut := pool.TokenIndex(tokenOut)
	pool.Tokens[idxIn].Balance = pool.Tokens[idxIn].Balance.Add(amountIn)
	pool.Tokens[idxOut].Balance = pool.Tokens[idxOut].Balance.Sub(result.AmountOut)
	pool.SwapCount++
	pool.UpdatedAt = now
	k.SetPool(cacheCtx, pool)

	observation := &types.PriceObservation{
		PoolID:    poolID,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		SpotPrice: result.SpotPriceAfter,
		Timestamp: now,
	}
	k.RecordObservation(cacheCtx, observation, math.LegacyNewDecFromInt(amountIn))

	cacheCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			"swap",
			sdk.NewAttribute("pool_id", poolID),
			sdk.NewAttribute("trader", trader),
			sdk.NewAttribute("token_in", tokenIn),
			sdk.NewAttribute("token_out", tokenOut),
			sdk.NewAttribute("amount_in", amountIn.String()),
			sdk.NewAttribute("amount_out", result.AmountOut.String()),
			sdk.NewAttribute("fee", result.FeeAmount.String()),
			sdk.NewAttribute("spot_price_after", result.SpotPriceAfter.String()),
		),
	)
	write()

	// The observation is committed now, safe to warm the query index
	k.indexObservation(observation)

	k.logger.Info("Swap executed",
		"pool_id", poolID,
		"trader", trader,
		"token_in", tokenIn,
		"token_out", tokenOut,
		"amount_in", amountIn.String(),
		"amount_out", result.AmountOut.String(),
	)

	return result, nil
}
