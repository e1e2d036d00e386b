// Package decmath provides fixed-point helpers for pool pricing math.
//
// All values are 18-decimal fixed point (math.LegacyDec). The rounding
// contract is truncation toward zero: results are never rounded up, so a
// caller composing these operations can only under-credit, never
// over-credit. Pow takes a fixed-point exponent and is the only
// approximate operation; its error is bounded by PowPrecision.
package decmath

import (
	"errors"

	"cosmossdk.io/math"
)

var (
	// ErrDivideByZero is returned when a divisor is zero.
	ErrDivideByZero = errors.New("decmath: divide by zero")
	// ErrInvalidPowBase is returned when Pow is called with a base
	// outside (0, 2), where the series expansion does not converge.
	ErrInvalidPowBase = errors.New("decmath: pow base out of range (0, 2)")
	// ErrNegativeExponent is returned for exponents below zero.
	ErrNegativeExponent = errors.New("decmath: negative exponent")
)

// PowPrecision is the termination threshold for the fractional power
// series. Terms smaller than this are dropped.
var PowPrecision = math.LegacyNewDecWithPrec(1, 8) // 1e-8

var (
	one = math.LegacyOneDec()
	two = math.LegacyNewDec(2)
)

// MulDown multiplies two fixed-point values, truncating the result.
func MulDown(a, b math.LegacyDec) math.LegacyDec {
	return a.MulTruncate(b)
}

// DivDown divides a by b, truncating the result toward zero.
func DivDown(a, b math.LegacyDec) (math.LegacyDec, error) {
	if b.IsZero() {
		return math.LegacyDec{}, ErrDivideByZero
	}
	return a.QuoTruncate(b), nil
}

// Pow computes base**exp where exp is itself a fixed-point value.
// The integer part of the exponent is applied by squaring; the
// fractional part by a binomial series terminated at PowPrecision.
// The base must lie in (0, 2) for the series to converge; swap callers
// always pass a balance ratio in (0, 1].
func Pow(base, exp math.LegacyDec) (math.LegacyDec, error) {
	if !base.IsPositive() || base.GTE(two) {
		return math.LegacyDec{}, ErrInvalidPowBase
	}
	if exp.IsNegative() {
		return math.LegacyDec{}, ErrNegativeExponent
	}
	if exp.IsZero() {
		return one, nil
	}

	integer := exp.TruncateDec()
	fractional := exp.Sub(integer)

	result := powInt(base, integer.TruncateInt().Uint64())
	if fractional.IsZero() {
		return result, nil
	}
	return result.MulTruncate(powApprox(base, fractional)), nil
}

// powInt raises base to a non-negative integer power by squaring.
func powInt(base math.LegacyDec, power uint64) math.LegacyDec {
	if power == 0 {
		return one
	}
	tmp := one
	for i := power; i > 1; i /= 2 {
		if i%2 != 0 {
			tmp = tmp.MulTruncate(base)
		}
		base = base.MulTruncate(base)
	}
	return base.MulTruncate(tmp)
}

// powApprox computes base**exp for exp in (0, 1) using the binomial
// series (1+x)^a = sum_k (a choose k) x^k with x = base - 1. The series
// alternates for base < 1, so the truncation error is bounded by the
// first dropped term.
func powApprox(base, exp math.LegacyDec) math.LegacyDec {
	if exp.IsZero() {
		return one
	}

	x, xNeg := absSub(base, one)
	term := one
	sum := one
	negative := false

	// term(k) = term(k-1) * (exp - (k-1)) * x / k
	for i := int64(1); term.GTE(PowPrecision); i++ {
		bigK := math.LegacyNewDec(i)
		c, cNeg := absSub(exp, bigK.Sub(one))

		term = term.MulTruncate(c).MulTruncate(x).QuoTruncate(bigK)
		if term.IsZero() {
			break
		}
		if xNeg {
			negative = !negative
		}
		if cNeg {
			negative = !negative
		}
		if negative {
			sum = sum.Sub(term)
		} else {
			sum = sum.Add(term)
		}
	}
	return sum
}

// absSub returns |a-b| and whether a-b is negative.
func absSub(a, b math.LegacyDec) (math.LegacyDec, bool) {
	if a.GTE(b) {
		return a.Sub(b), false
	}
	return b.Sub(a), true
}
