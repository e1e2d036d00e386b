package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// InitGenesis restores pools and the ID sequence from genesis state
func (k *Keeper) InitGenesis(ctx sdk.Context, state *types.GenesisState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	for _, pool := range state.Pools {
		if k.HasPool(ctx, pool.PoolID) {
			return types.ErrAlreadyInitialized
		}
		k.SetPool(ctx, pool)
	}
	if state.PoolSequence > 0 {
		k.SetPoolSequence(ctx, state.PoolSequence)
	}
	return nil
}

// ExportGenesis exports all pools and the ID sequence
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	return &types.GenesisState{
		Pools:        k.GetAllPools(ctx),
		PoolSequence: k.GetPoolSequence(ctx),
	}
}
