package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lbp-dex/x/lbp/types"
)

var _ types.MsgServer = (*msgServer)(nil)

type msgServer struct {
	Keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

// InitializePool handles the MsgInitializePool message
func (m *msgServer) InitializePool(ctx context.Context, msg *types.MsgInitializePool) (*types.MsgInitializePoolResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	// Validate message
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	balances := make([]math.Int, len(msg.Balances))
	for i, s := range msg.Balances {
		balance, ok := math.NewIntFromString(s)
		if !ok {
			return nil, fmt.Errorf("invalid balance: %s", s)
		}
		balances[i] = balance
	}

	weights := make([]math.LegacyDec, len(msg.Weights))
	for i, s := range msg.Weights {
		weight, err := math.LegacyNewDecFromStr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid weight: %w", err)
		}
		weights[i] = weight
	}

	fee, err := math.LegacyNewDecFromStr(msg.SwapFee)
	if err != nil {
		return nil, fmt.Errorf("invalid swap fee: %w", err)
	}

	pool, err := m.Keeper.InitializePool(sdkCtx, PoolConfig{
		PoolID:      msg.PoolID,
		Profile:     msg.Profile,
		Denoms:      msg.Denoms,
		Balances:    balances,
		Weights:     weights,
		SwapFee:     fee,
		SwapEnabled: msg.SwapEnabled,
		Owner:       msg.Creator,
		StartTime:   msg.StartTime,
		EndTime:     msg.EndTime,
	})
	if err != nil {
		return nil, err
	}

	return &types.MsgInitializePoolResponse{
		PoolID: pool.PoolID,
	}, nil
}

// SetSwapFee handles the MsgSetSwapFee message
func (m *msgServer) SetSwapFee(ctx context.Context, msg *types.MsgSetSwapFee) (*types.MsgSetSwapFeeResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	// Validate message
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	fee, err := math.LegacyNewDecFromStr(msg.SwapFee)
	if err != nil {
		return nil, fmt.Errorf("invalid swap fee: %w", err)
	}

	if _, err := m.Keeper.SetSwapFee(sdkCtx, msg.Owner, msg.PoolID, fee); err != nil {
		return nil, err
	}

	return &types.MsgSetSwapFeeResponse{}, nil
}

// SetSwapEnabled handles the MsgSetSwapEnabled message
func (m *msgServer) SetSwapEnabled(ctx context.Context, msg *types.MsgSetSwapEnabled) (*types.MsgSetSwapEnabledResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	// Validate message
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	if _, err := m.Keeper.SetSwapEnabled(sdkCtx, msg.Owner, msg.PoolID, msg.Enabled); err != nil {
		return nil, err
	}

	return &types.MsgSetSwapEnabledResponse{}, nil
}

// UpdateWeightsGradually handles the MsgUpdateWeightsGradually message
func (m *msgServer) UpdateWeightsGradually(ctx context.Context, msg *types.MsgUpdateWeightsGradually) (*types.MsgUpdateWeightsGraduallyResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	// Validate message
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	endWeights := make([]math.LegacyDec, len(msg.EndWeights))
	for i, s := range msg.EndWeights {
		weight, err := math.LegacyNewDecFromStr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid weight: %w", err)
		}
		endWeights[i] = weight
	}

	if _, err := m.Keeper.ScheduleWeightGlide(sdkCtx, msg.Owner, msg.PoolID, msg.StartTime, msg.EndTime, endWeights); err != nil {
		return nil, err
	}

	return &types.MsgUpdateWeightsGraduallyResponse{}, nil
}

// Swap handles the MsgSwap message
func (m *msgServer) Swap(ctx context.Context, msg *types.MsgSwap) (*types.MsgSwapResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	// Validate message
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	amountIn, ok := math.NewIntFromString(msg.AmountIn)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", msg.AmountIn)
	}

	minAmountOut := math.ZeroInt()
	if msg.MinAmountOut != "" {
		minAmountOut, ok = math.NewIntFromString(msg.MinAmountOut)
		if !ok {
			return nil, fmt.Errorf("invalid min amount out: %s", msg.MinAmountOut)
		}
	}

	result, err := m.Keeper.Swap(sdkCtx, msg.Trader, msg.PoolID, msg.TokenIn, msg.TokenOut, amountIn, minAmountOut)
	if err != nil {
		return nil, err
	}

	return &types.MsgSwapResponse{
		AmountOut:      result.AmountOut.String(),
		SpotPriceAfter: result.SpotPriceAfter.String(),
	}, nil
}
