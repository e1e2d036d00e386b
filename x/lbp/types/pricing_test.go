package types

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
)

// TestSpotPrice tests the weight-adjusted balance ratio
func TestSpotPrice(t *testing.T) {
	testCases := []struct {
		name      string
		balanceIn string
		weightIn  string
		balanceOu string
		weightOut string
		expected  string
	}{
		{
			name:      "balanced pool prices at one",
			balanceIn: "1000", weightIn: "0.2",
			balanceOu: "4000", weightOut: "0.8",
			expected: "1",
		},
		{
			name:      "equal weights price by balance ratio",
			balanceIn: "1000000", weightIn: "0.5",
			balanceOu: "500000", weightOut: "0.5",
			expected: "2",
		},
		{
			name:      "heavier out token is dearer",
			balanceIn: "1000", weightIn: "0.1",
			balanceOu: "1000", weightOut: "0.9",
			expected: "9",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			price, err := SpotPrice(
				math.LegacyMustNewDecFromStr(tc.balanceIn),
				math.LegacyMustNewDecFromStr(tc.weightIn),
				math.LegacyMustNewDecFromStr(tc.balanceOu),
				math.LegacyMustNewDecFromStr(tc.weightOut),
			)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := math.LegacyMustNewDecFromStr(tc.expected)
			if !price.Equal(want) {
				t.Errorf("expected spot price %s, got %s", want, price)
			}
		})
	}
}

// TestSpotPriceRejectsEmptySide tests the zero guards
func TestSpotPriceRejectsEmptySide(t *testing.T) {
	one := math.LegacyOneDec()
	half := math.LegacyMustNewDecFromStr("0.5")

	if _, err := SpotPrice(one, half, math.LegacyZeroDec(), half); !errors.Is(err, ErrArithmetic) {
		t.Errorf("expected arithmetic error for zero out balance, got %v", err)
	}
	if _, err := SpotPrice(one, math.LegacyZeroDec(), one, half); !errors.Is(err, ErrArithmetic) {
		t.Errorf("expected arithmetic error for zero in weight, got %v", err)
	}
}

// TestOutGivenInEqualWeights tests the constant-product path against the
// closed form balanceOut*adjustedIn/(balanceIn+adjustedIn)
func TestOutGivenInEqualWeights(t *testing.T) {
	half := math.LegacyMustNewDecFromStr("0.5")

	// 1,000,000e18 per side, swap 1000e18 in with no fee
	balance := math.LegacyMustNewDecFromStr("1000000000000000000000000")
	amountIn := math.LegacyMustNewDecFromStr("1000000000000000000000")

	out, err := OutGivenIn(balance, half, balance, half, amountIn, math.LegacyZeroDec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 10^24 * 10^21 / (10^24 + 10^21) = 10^21/1.001, truncated
	want := math.LegacyMustNewDecFromStr("999000999000999000999.000999000999000999")
	if !out.Equal(want) {
		t.Errorf("expected %s, got %s", want, out)
	}

	// Settled integer amount lands within one unit of the closed form
	wantInt, ok := math.NewIntFromString("999000999000999000999")
	if !ok {
		t.Fatal("bad expected integer")
	}
	diff := out.TruncateInt().Sub(wantInt).Abs()
	if diff.GT(math.OneInt()) {
		t.Errorf("integer output off by %s units", diff)
	}
}

// TestOutGivenInFeeOnInput tests that the fee shrinks the effective input
func TestOutGivenInFeeOnInput(t *testing.T) {
	half := math.LegacyMustNewDecFromStr("0.5")
	balance := math.LegacyMustNewDecFromStr("1000")
	amountIn := math.LegacyMustNewDecFromStr("100")
	fee := math.LegacyMustNewDecFromStr("0.01")

	out, err := OutGivenIn(balance, half, balance, half, amountIn, fee)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// adjustedIn = 99, out = 1000*99/1099
	want := math.LegacyMustNewDecFromStr("90.081892629663330300")
	if !out.Equal(want) {
		t.Errorf("expected %s, got %s", want, out)
	}

	noFeeOut, err := OutGivenIn(balance, half, balance, half, amountIn, math.LegacyZeroDec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.LT(noFeeOut) {
		t.Errorf("fee-bearing output %s should be below fee-free output %s", out, noFeeOut)
	}
}

// TestOutGivenInUnequalWeights tests the power-law path
func TestOutGivenInUnequalWeights(t *testing.T) {
	// weightIn/weightOut = 0.5, so out = 100*(1 - sqrt(100/121)) = 100/11
	out, err := OutGivenIn(
		math.LegacyMustNewDecFromStr("100"),
		math.LegacyMustNewDecFromStr("0.3"),
		math.LegacyMustNewDecFromStr("100"),
		math.LegacyMustNewDecFromStr("0.6"),
		math.LegacyMustNewDecFromStr("21"),
		math.LegacyZeroDec(),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := math.LegacyMustNewDecFromStr("9.090909090909090909")
	tolerance := math.LegacyMustNewDecFromStr("0.000001")
	if out.Sub(want).Abs().GT(tolerance) {
		t.Errorf("expected %s within %s, got %s", want, tolerance, out)
	}
}

// TestOutGivenInPreservesSpotPriceDirection tests that executing a quoted
// swap never lowers the spot price of the out token
func TestOutGivenInPreservesSpotPriceDirection(t *testing.T) {
	testCases := []struct {
		name      string
		balanceIn string
		weightIn  string
		balanceOu string
		weightOut string
		amountIn  string
		fee       string
	}{
		{
			name:      "equal weights no fee",
			balanceIn: "1000000", weightIn: "0.5",
			balanceOu: "1000000", weightOut: "0.5",
			amountIn: "5000", fee: "0",
		},
		{
			name:      "unequal weights with fee",
			balanceIn: "500000", weightIn: "0.2",
			balanceOu: "2000000", weightOut: "0.8",
			amountIn: "12345", fee: "0.003",
		},
		{
			name:      "bootstrap-style asymmetric weights",
			balanceIn: "100000", weightIn: "0.04",
			balanceOu: "900000", weightOut: "0.96",
			amountIn: "777", fee: "0.01",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			balIn := math.LegacyMustNewDecFromStr(tc.balanceIn)
			wIn := math.LegacyMustNewDecFromStr(tc.weightIn)
			balOut := math.LegacyMustNewDecFromStr(tc.balanceOu)
			wOut := math.LegacyMustNewDecFromStr(tc.weightOut)
			amountIn := math.LegacyMustNewDecFromStr(tc.amountIn)
			fee := math.LegacyMustNewDecFromStr(tc.fee)

			before, err := SpotPrice(balIn, wIn, balOut, wOut)
			if err != nil {
				t.Fatalf("spot price before: %v", err)
			}

			out, err := OutGivenIn(balIn, wIn, balOut, wOut, amountIn, fee)
			if err != nil {
				t.Fatalf("out given in: %v", err)
			}
			if !out.IsPositive() || out.GTE(balOut) {
				t.Fatalf("output %s out of range", out)
			}

			// The full input, fee included, stays in the pool
			after, err := SpotPrice(balIn.Add(amountIn), wIn, balOut.Sub(out), wOut)
			if err != nil {
				t.Fatalf("spot price after: %v", err)
			}
			if after.LT(before) {
				t.Errorf("spot price fell from %s to %s", before, after)
			}
		})
	}
}

// TestOutGivenInRejectsBadInputs tests the input guards
func TestOutGivenInRejectsBadInputs(t *testing.T) {
	one := math.LegacyOneDec()
	half := math.LegacyMustNewDecFromStr("0.5")
	balance := math.LegacyMustNewDecFromStr("1000")

	if _, err := OutGivenIn(balance, half, balance, half, math.LegacyZeroDec(), math.LegacyZeroDec()); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected invalid amount for zero input, got %v", err)
	}
	if _, err := OutGivenIn(balance, half, balance, half, one.Neg(), math.LegacyZeroDec()); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected invalid amount for negative input, got %v", err)
	}
	if _, err := OutGivenIn(math.LegacyZeroDec(), half, balance, half, one, math.LegacyZeroDec()); !errors.Is(err, ErrArithmetic) {
		t.Errorf("expected arithmetic error for empty in side, got %v", err)
	}
	if _, err := OutGivenIn(balance, half, math.LegacyZeroDec(), half, one, math.LegacyZeroDec()); !errors.Is(err, ErrArithmetic) {
		t.Errorf("expected arithmetic error for empty out side, got %v", err)
	}
}
