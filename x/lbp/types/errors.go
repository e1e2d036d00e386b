package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrAlreadyInitialized = errors.Register("lbp", 1, "pool already initialized")
	ErrNotInitialized     = errors.Register("lbp", 2, "pool not initialized")
	ErrPoolNotFound       = errors.Register("lbp", 3, "pool not found")
	ErrUnauthorized       = errors.Register("lbp", 4, "unauthorized")

	// Configuration errors
	ErrInvalidConfig   = errors.Register("lbp", 10, "invalid pool configuration")
	ErrInvalidWeight   = errors.Register("lbp", 11, "weight out of bounds")
	ErrInvalidFee      = errors.Register("lbp", 12, "swap fee out of bounds")
	ErrInvalidBalance  = errors.Register("lbp", 13, "initial balance below minimum")
	ErrDuplicateToken  = errors.Register("lbp", 14, "duplicate token denom")
	ErrInvalidSchedule = errors.Register("lbp", 15, "invalid weight schedule")

	// Swap errors
	ErrSwapsDisabled = errors.Register("lbp", 20, "swaps are disabled")
	ErrSameToken     = errors.Register("lbp", 21, "token in and token out are the same")
	ErrUnknownToken  = errors.Register("lbp", 22, "token not bound to pool")
	ErrInvalidAmount = errors.Register("lbp", 23, "invalid amount")
	ErrSlippage      = errors.Register("lbp", 24, "output below minimum")

	// Arithmetic and invariant errors
	ErrArithmetic                 = errors.Register("lbp", 30, "arithmetic error")
	ErrPriceMonotonicityViolation = errors.Register("lbp", 31, "spot price decreased for buyers of the launch token")
)
