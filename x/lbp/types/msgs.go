package types

import (
	"context"

	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgInitializePool{},
		&MsgSetSwapFee{},
		&MsgSetSwapEnabled{},
		&MsgUpdateWeightsGradually{},
		&MsgSwap{},
	)
}

// Message types for lbp module
const (
	TypeMsgInitializePool         = "initialize_pool"
	TypeMsgSetSwapFee             = "set_swap_fee"
	TypeMsgSetSwapEnabled         = "set_swap_enabled"
	TypeMsgUpdateWeightsGradually = "update_weights_gradually"
	TypeMsgSwap                   = "swap"
)

// MsgServer defines the lbp module's gRPC message service
type MsgServer interface {
	InitializePool(context.Context, *MsgInitializePool) (*MsgInitializePoolResponse, error)
	SetSwapFee(context.Context, *MsgSetSwapFee) (*MsgSetSwapFeeResponse, error)
	SetSwapEnabled(context.Context, *MsgSetSwapEnabled) (*MsgSetSwapEnabledResponse, error)
	UpdateWeightsGradually(context.Context, *MsgUpdateWeightsGradually) (*MsgUpdateWeightsGraduallyResponse, error)
	Swap(context.Context, *MsgSwap) (*MsgSwapResponse, error)
}

// RegisterMsgServer registers the MsgServer to the configurator's MsgServer
func RegisterMsgServer(s interface{}, srv MsgServer) {
	// This is a placeholder - in production, this would use gRPC registration
	// For now, the messages are handled through the module's handler
}

// MsgInitializePool creates and seeds a pool. Balances and Weights are
// index-aligned with Denoms. PoolID is optional; empty means the keeper
// assigns the next sequential ID. StartTime and EndTime are optional;
// both zero means no glide window is recorded at creation.
type MsgInitializePool struct {
	Creator     string   `json:"creator"`
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

// MsgSetSwapFee updates the pool's swap fee
type MsgSetSwapFee struct {
	Owner   string `json:"owner"`
	PoolID  string `json:"pool_id"`
	SwapFee string `json:"swap_fee"`
}

// MsgSetSwapEnabled toggles swapping on a pool
type MsgSetSwapEnabled struct {
	Owner   string `json:"owner"`
	PoolID  string `json:"pool_id"`
	Enabled bool   `json:"enabled"`
}

// MsgUpdateWeightsGradually schedules a linear weight glide. EndWeights
// are index-aligned with the pool's token list; the current weights at
// StartTime become the glide's start weights.
type MsgUpdateWeightsGradually struct {
	Owner      string   `json:"owner"`
	PoolID     string   `json:"pool_id"`
	StartTime  int64    `json:"start_time"`
	EndTime    int64    `json:"end_time"`
	EndWeights []string `json:"end_weights"`
}

// MsgSwap trades AmountIn of TokenIn for TokenOut. MinAmountOut is
// optional slippage protection; empty or "0" disables the check.
type MsgSwap struct {
	Trader       string `json:"trader"`
	PoolID       string `json:"pool_id"`
	TokenIn      string `json:"token_in"`
	TokenOut     string `json:"token_out"`
	AmountIn     string `json:"amount_in"`
	MinAmountOut string `json:"min_amount_out,omitempty"`
}

// Proto interface implementations for MsgInitializePool
func (msg *MsgInitializePool) Reset()         { *msg = MsgInitializePool{} }
func (msg *MsgInitializePool) String() string { return msg.Creator }
func (msg *MsgInitializePool) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgInitializePool
func (msg *MsgInitializePool) XXX_MessageName() string {
	return "lbpdex.lbp.v1.MsgInitializePool"
}

// Proto interface implementations for MsgSetSwapFee
func (msg *MsgSetSwapFee) Reset()         { *msg = MsgSetSwapFee{} }
func (msg *MsgSetSwapFee) String() string { return msg.PoolID }
func (msg *MsgSetSwapFee) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgSetSwapFee
func (msg *MsgSetSwapFee) XXX_MessageName() string {
	return "lbpdex.lbp.v1.MsgSetSwapFee"
}

// Proto interface implementations for MsgSetSwapEnabled
func (msg *MsgSetSwapEnabled) Reset()         { *msg = MsgSetSwapEnabled{} }
func (msg *MsgSetSwapEnabled) String() string { return msg.PoolID }
func (msg *MsgSetSwapEnabled) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgSetSwapEnabled
func (msg *MsgSetSwapEnabled) XXX_MessageName() string {
	return "lbpdex.lbp.v1.MsgSetSwapEnabled"
}

// Proto interface implementations for MsgUpdateWeightsGradually
func (msg *MsgUpdateWeightsGradually) Reset()         { *msg = MsgUpdateWeightsGradually{} }
func (msg *MsgUpdateWeightsGradually) String() string { return msg.PoolID }
func (msg *MsgUpdateWeightsGradually) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgUpdateWeightsGradually
func (msg *MsgUpdateWeightsGradually) XXX_MessageName() string {
	return "lbpdex.lbp.v1.MsgUpdateWeightsGradually"
}

// Proto interface implementations for MsgSwap
func (msg *MsgSwap) Reset()         { *msg = MsgSwap{} }
func (msg *MsgSwap) String() string { return msg.PoolID }
func (msg *MsgSwap) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgSwap
func (msg *MsgSwap) XXX_MessageName() string {
	return "lbpdex.lbp.v1.MsgSwap"
}

// ValidateBasic for MsgInitializePool
func (msg *MsgInitializePool) ValidateBasic() error {
	if msg.Creator == "" {
		return ErrUnauthorized
	}
	if msg.Profile != ProfileGeneral && msg.Profile != ProfileBootstrap {
		return ErrInvalidConfig
	}
	if !ValidTokenCount(msg.Profile, len(msg.Denoms)) {
		return ErrInvalidConfig
	}
	if len(msg.Balances) != len(msg.Denoms) || len(msg.Weights) != len(msg.Denoms) {
		return ErrInvalidConfig
	}
	if msg.EndTime < msg.StartTime {
		return ErrInvalidSchedule
	}
	return nil
}

// GetSigners returns the signer addresses for MsgInitializePool
func (msg *MsgInitializePool) GetSigners() []sdk.AccAddress {
	creator, _ := sdk.AccAddressFromBech32(msg.Creator)
	return []sdk.AccAddress{creator}
}

// ValidateBasic for MsgSetSwapFee
func (msg *MsgSetSwapFee) ValidateBasic() error {
	if msg.Owner == "" {
		return ErrUnauthorized
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	if msg.SwapFee == "" {
		return ErrInvalidFee
	}
	return nil
}

// GetSigners returns the signer addresses for MsgSetSwapFee
func (msg *MsgSetSwapFee) GetSigners() []sdk.AccAddress {
	owner, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{owner}
}

// ValidateBasic for MsgSetSwapEnabled
func (msg *MsgSetSwapEnabled) ValidateBasic() error {
	if msg.Owner == "" {
		return ErrUnauthorized
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

// GetSigners returns the signer addresses for MsgSetSwapEnabled
func (msg *MsgSetSwapEnabled) GetSigners() []sdk.AccAddress {
	owner, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{owner}
}

// ValidateBasic for MsgUpdateWeightsGradually
func (msg *MsgUpdateWeightsGradually) ValidateBasic() error {
	if msg.Owner == "" {
		return ErrUnauthorized
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	if msg.EndTime <= msg.StartTime {
		return ErrInvalidSchedule
	}
	if len(msg.EndWeights) == 0 {
		return ErrInvalidSchedule
	}
	return nil
}

// GetSigners returns the signer addresses for MsgUpdateWeightsGradually
func (msg *MsgUpdateWeightsGradually) GetSigners() []sdk.AccAddress {
	owner, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{owner}
}

// ValidateBasic for MsgSwap
func (msg *MsgSwap) ValidateBasic() error {
	if msg.Trader == "" {
		return ErrUnauthorized
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	if msg.TokenIn == "" || msg.TokenOut == "" {
		return ErrUnknownToken
	}
	if msg.TokenIn == msg.TokenOut {
		return ErrSameToken
	}
	if msg.AmountIn == "" {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners returns the signer addresses for MsgSwap
func (msg *MsgSwap) GetSigners() []sdk.AccAddress {
	trader, _ := sdk.AccAddressFromBech32(msg.Trader)
	return []sdk.AccAddress{trader}
}

// MsgInitializePoolResponse is the response for MsgInitializePool
type MsgInitializePoolResponse struct {
	PoolID string `json:"pool_id"`
}

// Proto interface implementations for MsgInitializePoolResponse
func (msg *MsgInitializePoolResponse) Reset()         { *msg = MsgInitializePoolResponse{} }
func (msg *MsgInitializePoolResponse) String() string { return msg.PoolID }
func (msg *MsgInitializePoolResponse) ProtoMessage()  {}

// MsgSetSwapFeeResponse is the response for MsgSetSwapFee
type MsgSetSwapFeeResponse struct{}

// Proto interface implementations for MsgSetSwapFeeResponse
func (msg *MsgSetSwapFeeResponse) Reset()         { *msg = MsgSetSwapFeeResponse{} }
func (msg *MsgSetSwapFeeResponse) String() string { return "" }
func (msg *MsgSetSwapFeeResponse) ProtoMessage()  {}

// MsgSetSwapEnabledResponse is the response for MsgSetSwapEnabled
type MsgSetSwapEnabledResponse struct{}

// Proto interface implementations for MsgSetSwapEnabledResponse
func (msg *MsgSetSwapEnabledResponse) Reset()         { *msg = MsgSetSwapEnabledResponse{} }
func (msg *MsgSetSwapEnabledResponse) String() string { return "" }
func (msg *MsgSetSwapEnabledResponse) ProtoMessage()  {}

// MsgUpdateWeightsGraduallyResponse is the response for MsgUpdateWeightsGradually
type MsgUpdateWeightsGraduallyResponse struct{}

// Proto interface implementations for MsgUpdateWeightsGraduallyResponse
func (msg *MsgUpdateWeightsGraduallyResponse) Reset()         { *msg = MsgUpdateWeightsGraduallyResponse{} }
func (msg *MsgUpdateWeightsGraduallyResponse) String() string { return "" }
func (msg *MsgUpdateWeightsGraduallyResponse) ProtoMessage()  {}

// MsgSwapResponse is the response for MsgSwap
type MsgSwapResponse struct {
	AmountOut      string `json:"amount_out"`
	SpotPriceAfter string `json:"spot_price_after"`
}

// Proto interface implementations for MsgSwapResponse
func (msg *MsgSwapResponse) Reset()         { *msg = MsgSwapResponse{} }
func (msg *MsgSwapResponse) String() string { return msg.AmountOut }
func (msg *MsgSwapResponse) ProtoMessage()  {}
