package keeper

import (
	"fmt"
	"strings"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// PoolConfig defines parameters for initializing a pool
type PoolConfig struct {
	PoolID      string // optional, empty = next sequential ID
	Profile     string
	Denoms      []string
	Balances    []math.Int
	Weights     []math.LegacyDec
	SwapFee     math.LegacyDec
	SwapEnabled bool
	Owner       string
	StartTime   int64 // optional glide window, both zero = none
	EndTime     int64
}

// InitializePool validates the config, pulls the seed balances into the
// module account and stores the pool record. The custody transfer and
// the pool write commit together or not at all.
func (k *Keeper) InitializePool(ctx sdk.Context, config PoolConfig) (*types.Pool, error) {
	if err := k.validatePoolConfig(config); err != nil {
		return nil, err
	}

	owner, err := sdk.AccAddressFromBech32(config.Owner)
	if err != nil {
		return nil, types.ErrUnauthorized
	}

	if config.PoolID != "" && k.HasPool(ctx, config.PoolID) {
		return nil, types.ErrAlreadyInitialized
	}

	cacheCtx, write := ctx.CacheContext()

	poolID := config.PoolID
	if poolID == "" {
		poolID = fmt.Sprintf("pool-%d", k.NextPoolSequence(cacheCtx))
	}

	coinList := make([]sdk.Coin, len(config.Denoms))
	for i := range config.Denoms {
		coinList[i] = sdk.NewCoin(config.Denoms[i], config.Balances[i])
	}
	if err := k.bankKeeper.SendCoinsFromAccountToModule(cacheCtx, owner, types.ModuleName, sdk.NewCoins(coinList...)); err != nil {
		return nil, err
	}

	now := cacheCtx.BlockTime().Unix()
	pool := types.NewPool(
		poolID,
		config.Profile,
		config.Denoms,
		config.Balances,
		config.Weights,
		config.SwapFee,
		config.SwapEnabled,
		config.Owner,
		config.StartTime,
		config.EndTime,
		now,
	)
	k.SetPool(cacheCtx, pool)

	cacheCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			"pool_initialized",
			sdk.NewAttribute("pool_id", poolID),
			sdk.NewAttribute("profile", config.Profile),
			sdk.NewAttribute("owner", config.Owner),
			sdk.NewAttribute("tokens", strings.Join(config.Denoms, ",")),
			sdk.NewAttribute("swap_fee", config.SwapFee.String()),
		),
	)
	write()

	k.logger.Info("Pool initialized",
		"pool_id", poolID,
		"profile", config.Profile,
		"owner", config.Owner,
		"tokens", len(config.Denoms),
	)

	return pool, nil
}

// validatePoolConfig checks profile, token, weight, fee and schedule
// bounds at creation time
func (k *Keeper) validatePoolConfig(config PoolConfig) error {
	if config.Owner == "" {
		return types.ErrUnauthorized
	}
	if config.Profile != types.ProfileGeneral && config.Profile != types.ProfileBootstrap {
		return types.ErrInvalidConfig
	}
	if !types.ValidTokenCount(config.Profile, len(config.Denoms)) {
		return types.ErrInvalidConfig
	}
	if len(config.Balances) != len(config.Denoms) || len(config.Weights) != len(config.Denoms) {
		return types.ErrInvalidConfig
	}

	seen := make(map[string]struct{}, len(config.Denoms))
	for _, denom := range config.Denoms {
		if denom == "" {
			return types.ErrInvalidConfig
		}
		if _, ok := seen[denom]; ok {
			return types.ErrDuplicateToken
		}
		seen[denom] = struct{}{}
	}

	for _, balance := range config.Balances {
		if balance.IsNil() || balance.LT(types.MinInitialBalance) {
			return types.ErrInvalidBalance
		}
	}

	maxWeight := types.MaxWeightForProfile(config.Profile)
	total := math.LegacyZeroDec()
	for _, weight := range config.Weights {
		if weight.IsNil() || weight.LT(types.MinWeight) || weight.GT(maxWeight) {
			return types.ErrInvalidWeight
		}
		total = total.Add(weight)
	}
	if !total.Equal(types.TotalWeight) {
		return types.ErrInvalidWeight
	}

	// Pools may launch fee-free; a nonzero fee must sit inside the band
	if config.SwapFee.IsNil() || config.SwapFee.IsNegative() {
		return types.ErrInvalidFee
	}
	if !config.SwapFee.IsZero() {
		if config.SwapFee.LT(types.MinSwapFee) || config.SwapFee.GT(types.MaxSwapFee) {
			return types.ErrInvalidFee
		}
	}

	if config.StartTime != 0 || config.EndTime != 0 {
		if config.StartTime <= 0 || config.EndTime <= config.StartTime {
			return types.ErrInvalidSchedule
		}
	}

	return nil
}
