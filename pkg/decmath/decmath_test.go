package decmath

import (
	"testing"

	"cosmossdk.io/math"
)

// TestMulDownTruncates tests that multiplication never rounds up
func TestMulDownTruncates(t *testing.T) {
	testCases := []struct {
		name     string
		a        string
		b        string
		expected string
	}{
		{
			name:     "exact product",
			a:        "2",
			b:        "3",
			expected: "6",
		},
		{
			name:     "truncated half ulp",
			a:        "1.000000000000000001",
			b:        "0.5",
			expected: "0.5",
		},
		{
			name:     "small times small",
			a:        "0.000000000000000001",
			b:        "0.1",
			expected: "0",
		},
		{
			name:     "fee complement",
			a:        "1000",
			b:        "0.999",
			expected: "999",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := math.LegacyMustNewDecFromStr(tc.a)
			b := math.LegacyMustNewDecFromStr(tc.b)
			expected := math.LegacyMustNewDecFromStr(tc.expected)

			got := MulDown(a, b)
			if !got.Equal(expected) {
				t.Errorf("expected %s, got %s", expected.String(), got.String())
			}
		})
	}
}

// TestDivDownTruncates tests division truncation toward zero
func TestDivDownTruncates(t *testing.T) {
	testCases := []struct {
		name     string
		a        string
		b        string
		expected string
	}{
		{
			name:     "exact quotient",
			a:        "6",
			b:        "3",
			expected: "2",
		},
		{
			name:     "one third truncated",
			a:        "1",
			b:        "3",
			expected: "0.333333333333333333",
		},
		{
			name:     "two thirds truncated",
			a:        "2",
			b:        "3",
			expected: "0.666666666666666666",
		},
		{
			name:     "balance ratio",
			a:        "1000000",
			b:        "1001000",
			expected: "0.999000999000999000",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := math.LegacyMustNewDecFromStr(tc.a)
			b := math.LegacyMustNewDecFromStr(tc.b)
			expected := math.LegacyMustNewDecFromStr(tc.expected)

			got, err := DivDown(a, b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(expected) {
				t.Errorf("expected %s, got %s", expected.String(), got.String())
			}
		})
	}
}

// TestDivDownByZero tests the divide-by-zero guard
func TestDivDownByZero(t *testing.T) {
	_, err := DivDown(math.LegacyOneDec(), math.LegacyZeroDec())
	if err != ErrDivideByZero {
		t.Errorf("expected ErrDivideByZero, got %v", err)
	}
}

// TestPowIntegerExponents tests exponentiation by squaring
func TestPowIntegerExponents(t *testing.T) {
	testCases := []struct {
		name     string
		base     string
		exp      string
		expected string
	}{
		{
			name:     "exponent zero",
			base:     "0.5",
			exp:      "0",
			expected: "1",
		},
		{
			name:     "exponent one is identity",
			base:     "0.999000999000999000",
			exp:      "1",
			expected: "0.999000999000999000",
		},
		{
			name:     "square below one",
			base:     "0.5",
			exp:      "2",
			expected: "0.25",
		},
		{
			name:     "square above one",
			base:     "1.5",
			exp:      "2",
			expected: "2.25",
		},
		{
			name:     "cube",
			base:     "1.1",
			exp:      "3",
			expected: "1.331",
		},
		{
			name:     "large even exponent",
			base:     "0.9",
			exp:      "10",
			expected: "0.348678440100000000",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			base := math.LegacyMustNewDecFromStr(tc.base)
			exp := math.LegacyMustNewDecFromStr(tc.exp)
			expected := math.LegacyMustNewDecFromStr(tc.expected)

			got, err := Pow(base, exp)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			// Integer powers accumulate at most a few ulp of
			// truncation per squaring step.
			diff := got.Sub(expected).Abs()
			tolerance := math.LegacyNewDecWithPrec(1, 15)
			if diff.GT(tolerance) {
				t.Errorf("expected %s, got %s (diff %s)", expected.String(), got.String(), diff.String())
			}
		})
	}
}

// TestPowFractionalExponents tests the series approximation
func TestPowFractionalExponents(t *testing.T) {
	testCases := []struct {
		name     string
		base     string
		exp      string
		expected string
	}{
		{
			name:     "square root of quarter",
			base:     "0.25",
			exp:      "0.5",
			expected: "0.5",
		},
		{
			name:     "square root near one",
			base:     "0.81",
			exp:      "0.9999",
			expected: "0.810017068583370400",
		},
		{
			name:     "mixed integer and fraction",
			base:     "0.5",
			exp:      "1.5",
			expected: "0.353553390593273762",
		},
		{
			name:     "weight ratio above one",
			base:     "0.9",
			exp:      "2.5",
			expected: "0.768433471420916178",
		},
		{
			name:     "small exponent",
			base:     "0.5",
			exp:      "0.01",
			expected: "0.993092495437176457",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			base := math.LegacyMustNewDecFromStr(tc.base)
			exp := math.LegacyMustNewDecFromStr(tc.exp)
			expected := math.LegacyMustNewDecFromStr(tc.expected)

			got, err := Pow(base, exp)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			diff := got.Sub(expected).Abs()
			if diff.GT(PowPrecision) {
				t.Errorf("expected %s within %s, got %s (diff %s)",
					expected.String(), PowPrecision.String(), got.String(), diff.String())
			}
		})
	}
}

// TestPowRejectsBadInputs tests the domain guards
func TestPowRejectsBadInputs(t *testing.T) {
	half := math.LegacyMustNewDecFromStr("0.5")

	if _, err := Pow(math.LegacyZeroDec(), half); err != ErrInvalidPowBase {
		t.Errorf("expected ErrInvalidPowBase for zero base, got %v", err)
	}
	if _, err := Pow(math.LegacyNewDec(2), half); err != ErrInvalidPowBase {
		t.Errorf("expected ErrInvalidPowBase for base 2, got %v", err)
	}
	if _, err := Pow(math.LegacyNewDec(-1), half); err != ErrInvalidPowBase {
		t.Errorf("expected ErrInvalidPowBase for negative base, got %v", err)
	}
	if _, err := Pow(half, math.LegacyNewDec(-1)); err != ErrNegativeExponent {
		t.Errorf("expected ErrNegativeExponent, got %v", err)
	}
}

// TestPowMonotoneInExponent tests that for base < 1, a larger exponent
// gives a smaller result (the property the swap formula leans on)
func TestPowMonotoneInExponent(t *testing.T) {
	base := math.LegacyMustNewDecFromStr("0.95")

	exponents := []string{"0.1", "0.5", "1", "1.5", "2", "5", "10"}
	prev := math.LegacyNewDec(2)

	for _, e := range exponents {
		exp := math.LegacyMustNewDecFromStr(e)
		got, err := Pow(base, exp)
		if err != nil {
			t.Fatalf("pow(%s, %s): %v", base.String(), e, err)
		}

		// Allow the approximation tolerance when comparing neighbors.
		if got.Sub(prev).GT(PowPrecision) {
			t.Errorf("pow not decreasing: pow(%s, %s)=%s exceeds previous %s",
				base.String(), e, got.String(), prev.String())
		}
		prev = got
	}
}
