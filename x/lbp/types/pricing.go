package types

import (
	"cosmossdk.io/math"

	"github.com/openalpha/lbp-dex/pkg/decmath"
)

// SpotPrice returns the instantaneous price of the out-token in units of
// the in-token, before fees:
//
//	(balanceIn / weightIn) / (balanceOut / weightOut)
//
// computed as balanceIn*weightOut / (balanceOut*weightIn) with truncation.
func SpotPrice(balanceIn, weightIn, balanceOut, weightOut math.LegacyDec) (math.LegacyDec, error) {
	if !weightIn.IsPositive() || !weightOut.IsPositive() {
		return math.LegacyDec{}, ErrArithmetic
	}
	if !balanceOut.IsPositive() {
		return math.LegacyDec{}, ErrArithmetic
	}
	return decmath.DivDown(decmath.MulDown(balanceIn, weightOut), decmath.MulDown(balanceOut, weightIn))
}

// OutGivenIn prices a swap of amountIn of the in-token for the out-token
// under the weighted constant-product curve:
//
//	amountOut = balanceOut * (1 - (balanceIn / (balanceIn + amountIn*(1-fee)))^(weightIn/weightOut))
//
// The fee is charged on the input and stays in the pool. When the two
// weights are equal the power law collapses to the constant-product form
// balanceOut*adjustedIn/(balanceIn+adjustedIn), which is computed with a
// single final division so the result lands within one integer unit of
// the exact value. The general path carries the power series tolerance
// of decmath.Pow.
func OutGivenIn(balanceIn, weightIn, balanceOut, weightOut, amountIn, swapFee math.LegacyDec) (math.LegacyDec, error) {
	if !amountIn.IsPositive() {
		return math.LegacyDec{}, ErrInvalidAmount
	}
	if !balanceIn.IsPositive() || !balanceOut.IsPositive() {
		return math.LegacyDec{}, ErrArithmetic
	}
	if !weightIn.IsPositive() || !weightOut.IsPositive() {
		return math.LegacyDec{}, ErrArithmetic
	}

	adjustedIn := decmath.MulDown(amountIn, math.LegacyOneDec().Sub(swapFee))
	if !adjustedIn.IsPositive() {
		return math.LegacyDec{}, ErrInvalidAmount
	}
	newBalanceIn := balanceIn.Add(adjustedIn)

	if weightIn.Equal(weightOut) {
		return decmath.DivDown(decmath.MulDown(balanceOut, adjustedIn), newBalanceIn)
	}

	ratio, err := decmath.DivDown(balanceIn, newBalanceIn)
	if err != nil {
		return math.LegacyDec{}, ErrArithmetic
	}
	exponent, err := decmath.DivDown(weightIn, weightOut)
	if err != nil {
		return math.LegacyDec{}, ErrArithmetic
	}
	power, err := decmath.Pow(ratio, exponent)
	if err != nil {
		return math.LegacyDec{}, ErrArithmetic
	}
	return decmath.MulDown(balanceOut, math.LegacyOneDec().Sub(power)), nil
}
