package keeper

import (
	"fmt"
	"strings"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// ScheduleWeightGlide replaces the pool's weight schedule with a linear
// glide from the current weights to endWeights over [startTime, endTime].
// The window must open strictly in the future. The weights the pool
// holds right now become the glide's start weights, so a reschedule
// mid-glide freezes the pool at its interpolated position until the new
// window opens.
func (k *Keeper) ScheduleWeightGlide(ctx sdk.Context, owner, poolID string, startTime, endTime int64, endWeights []math.LegacyDec) (*types.Pool, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrNotInitialized
	}
	if pool.Owner != owner {
		return nil, types.ErrUnauthorized
	}

	now := ctx.BlockTime().Unix()
	if startTime <= now {
		return nil, types.ErrInvalidSchedule
	}
	if endTime <= startTime {
		return nil, types.ErrInvalidSchedule
	}
	if len(endWeights) != len(pool.Tokens) {
		return nil, types.ErrInvalidSchedule
	}

	maxWeight := types.MaxWeightForProfile(pool.Profile)
	total := math.LegacyZeroDec()
	for _, weight := range endWeights {
		if weight.IsNil() || weight.LT(types.MinWeight) || weight.GT(maxWeight) {
			return nil, types.ErrInvalidWeight
		}
		total = total.Add(weight)
	}
	if !total.Equal(types.TotalWeight) {
		return nil, types.ErrInvalidWeight
	}

	startWeights := pool.CurrentDenormWeights(now)
	ends := make([]math.LegacyDec, len(endWeights))
	copy(ends, endWeights)

	pool.Schedule = types.WeightSchedule{
		StartTime:    startTime,
		EndTime:      endTime,
		StartWeights: startWeights,
		EndWeights:   ends,
	}
	// Token base weights track the start of the active segment
	for i := range pool.Tokens {
		pool.Tokens[i].Weight = startWeights[i]
	}
	pool.UpdatedAt = now
	k.SetPool(ctx, pool)

	endStrs := make([]string, len(ends))
	for i, w := range ends {
		endStrs[i] = w.String()
	}
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"weight_glide_scheduled",
			sdk.NewAttribute("pool_id", poolID),
			sdk.NewAttribute("start_time", fmt.Sprintf("%d", startTime)),
			sdk.NewAttribute("end_time", fmt.Sprintf("%d", endTime)),
			sdk.NewAttribute("end_weights", strings.Join(endStrs, ",")),
		),
	)

	k.logger.Info("Weight glide scheduled",
		"pool_id", poolID,
		"start_time", startTime,
		"end_time", endTime,
	)

	return pool, nil
}

// TokenStates returns the per-token read model at the current block time
func (k *Keeper) TokenStates(ctx sdk.Context, poolID string) ([]types.TokenState, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrNotInitialized
	}

	now := ctx.BlockTime().Unix()
	denorm := pool.CurrentDenormWeights(now)
	normalized := pool.NormalizedWeights(now)

	states := make([]types.TokenState, len(pool.Tokens))
	for i, token := range pool.Tokens {
		states[i] = types.TokenState{
			Denom:            token.Denom,
			Balance:          token.Balance,
			DenormWeight:     denorm[i],
			NormalizedWeight: normalized[i],
		}
	}
	return states, nil
}
