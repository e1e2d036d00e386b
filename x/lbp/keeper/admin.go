package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// SetSwapFee updates the pool's swap fee. Unlike creation, the running
// setter does not accept zero; the fee must sit inside the band.
func (k *Keeper) SetSwapFee(ctx sdk.Context, owner, poolID string, fee math.LegacyDec) (*types.Pool, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrNotInitialized
	}
	if pool.Owner != owner && k.authority != owner {
		return nil, types.ErrUnauthorized
	}
	if fee.IsNil() || fee.LT(types.MinSwapFee) || fee.GT(types.MaxSwapFee) {
		return nil, types.ErrInvalidFee
	}

	pool.SwapFee = fee
	pool.UpdatedAt = ctx.BlockTime().Unix()
	k.SetPool(ctx, pool)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"swap_fee_updated",
			sdk.NewAttribute("pool_id", poolID),
			sdk.NewAttribute("swap_fee", fee.String()),
		),
	)

	k.logger.Info("Swap fee updated", "pool_id", poolID, "swap_fee", fee.String())

	return pool, nil
}

// SetSwapEnabled toggles swapping on a pool
func (k *Keeper) SetSwapEnabled(ctx sdk.Context, owner, poolID string, enabled bool) (*types.Pool, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrNotInitialized
	}
	if pool.Owner != owner && k.authority != owner {
		return nil, types.ErrUnauthorized
	}

	pool.SwapEnabled = enabled
	pool.UpdatedAt = ctx.BlockTime().Unix()
	k.SetPool(ctx, pool)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"swap_enabled_updated",
			sdk.NewAttribute("pool_id", poolID),
			sdk.NewAttribute("enabled", fmt.Sprintf("%t", enabled)),
		),
	)

	k.logger.Info("Swap enabled updated", "pool_id", poolID, "enabled", enabled)

	return pool, nil
}
