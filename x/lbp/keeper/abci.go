package keeper

import (
	"fmt"
	"strings"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// EndBlocker advances weight glides. Pools inside an active window get a
// step event and fresh price observations; pools whose window just
// closed get their base weights finalized at the end weights.
func (k *Keeper) EndBlocker(ctx sdk.Context) error {
	start := time.Now()
	now := ctx.BlockTime().Unix()

	pools := k.GetAllPools(ctx)
	active := 0
	completed := 0

	for _, pool := range pools {
		if pool.GlideActive(now) {
			active++
			k.stepGlide(ctx, pool, now)
			continue
		}
		if glideJustEnded(pool, now) {
			completed++
			k.finalizeGlide(ctx, pool, now)
		}
	}

	k.logger.Debug("LBP EndBlocker completed",
		"block", ctx.BlockHeight(),
		"duration_ms", time.Since(start).Milliseconds(),
		"glides_active", active,
		"glides_completed", completed,
	)

	if active > 0 || completed > 0 {
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				"lbp_endblock",
				sdk.NewAttribute("block_height", math.NewInt(ctx.BlockHeight()).String()),
				sdk.NewAttribute("glides_active", math.NewInt(int64(active)).String()),
				sdk.NewAttribute("glides_completed", math.NewInt(int64(completed)).String()),
			),
		)
	}

	return nil
}

// stepGlide publishes the pool's interpolated position for this block
func (k *Keeper) stepGlide(ctx sdk.Context, pool *types.Pool, now int64) {
	weights := pool.CurrentDenormWeights(now)

	parts := make([]string, len(pool.Tokens))
	for i, token := range pool.Tokens {
		parts[i] = token.Denom + "=" + weights[i].String()
	}
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"weight_glide_step",
			sdk.NewAttribute("pool_id", pool.PoolID),
			sdk.NewAttribute("weights", strings.Join(parts, ",")),
		),
	)

	// Swapless observations keep price charts moving with the glide
	for i := range pool.Tokens {
		for j := range pool.Tokens {
			if i == j {
				continue
			}
			spot, err := types.SpotPrice(
				math.LegacyNewDecFromInt(pool.Tokens[i].Balance),
				weights[i],
				math.LegacyNewDecFromInt(pool.Tokens[j].Balance),
				weights[j],
			)
			if err != nil {
				continue
			}
			observation := &types.PriceObservation{
				PoolID:    pool.PoolID,
				TokenIn:   pool.Tokens[i].Denom,
				TokenOut:  pool.Tokens[j].Denom,
				SpotPrice: spot,
				Timestamp: now,
			}
			k.RecordObservation(ctx, observation, math.LegacyZeroDec())
			k.indexObservation(observation)
		}
	}
}

// glideJustEnded reports whether a glide window has closed without its
// end weights being pinned yet
func glideJustEnded(pool *types.Pool, now int64) bool {
	s := pool.Schedule
	if s.StartTime >= s.EndTime || now < s.EndTime {
		return false
	}
	for i := range pool.Tokens {
		if !pool.Tokens[i].Weight.Equal(s.EndWeights[i]) {
			return true
		}
	}
	return false
}

// finalizeGlide pins the base weights at the end weights once the
// window closes
func (k *Keeper) finalizeGlide(ctx sdk.Context, pool *types.Pool, now int64) {
	for i := range pool.Tokens {
		pool.Tokens[i].Weight = pool.Schedule.EndWeights[i]
	}
	pool.UpdatedAt = now
	k.SetPool(ctx, pool)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"weight_glide_completed",
			sdk.NewAttribute("pool_id", pool.PoolID),
			sdk.NewAttribute("end_time", fmt.Sprintf("%d", pool.Schedule.EndTime)),
		),
	)

	k.logger.Info("Weight glide completed", "pool_id", pool.PoolID)
}
