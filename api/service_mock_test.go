package api

import (
	"context"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/openalpha/lbp-dex/api/types"
)

// TestMockServiceSeedsDemoPool tests that the demo launch is available
func TestMockServiceSeedsDemoPool(t *testing.T) {
	ms := NewMockService()

	pool, err := ms.GetPool(context.Background(), "demo-launch")
	if err != nil {
		t.Fatalf("expected demo-launch pool, got error: %v", err)
	}

	if pool.Profile != "bootstrap" {
		t.Errorf("expected bootstrap profile, got %s", pool.Profile)
	}
	if len(pool.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(pool.Tokens))
	}
	if pool.Tokens[0].Denom != "ualpha" || pool.Tokens[1].Denom != "uusdc" {
		t.Errorf("expected ualpha/uusdc pair, got %s/%s", pool.Tokens[0].Denom, pool.Tokens[1].Denom)
	}
	if !pool.SwapEnabled {
		t.Error("expected swaps enabled on the demo pool")
	}
	if pool.Schedule == nil {
		t.Fatal("expected a glide schedule on the demo pool")
	}
	if !pool.GlideActive {
		t.Error("expected glide to be active at seed time")
	}
}

// TestMockSpotPriceReciprocal tests that reversed pairs price as inverses
func TestMockSpotPriceReciprocal(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	forward, err := ms.GetSpotPrice(ctx, "demo-launch", "ualpha", "uusdc")
	if err != nil {
		t.Fatalf("forward spot price failed: %v", err)
	}
	reverse, err := ms.GetSpotPrice(ctx, "demo-launch", "uusdc", "ualpha")
	if err != nil {
		t.Fatalf("reverse spot price failed: %v", err)
	}

	fwd := math.LegacyMustNewDecFromStr(forward.SpotPrice)
	rev := math.LegacyMustNewDecFromStr(reverse.SpotPrice)
	product := fwd.Mul(rev)

	tolerance := math.LegacyMustNewDecFromStr("0.000000000001")
	if product.Sub(math.LegacyOneDec()).Abs().GT(tolerance) {
		t.Errorf("expected reciprocal prices, got %s * %s = %s", forward.SpotPrice, reverse.SpotPrice, product.String())
	}
}

// TestMockWeightsNormalized tests that reported weights sum to one
func TestMockWeightsNormalized(t *testing.T) {
	ms := NewMockService()

	weights, err := ms.GetWeights(context.Background(), "demo-launch")
	if err != nil {
		t.Fatalf("get weights failed: %v", err)
	}
	if len(weights.Weights) != 2 {
		t.Fatalf("expected 2 weights, got %d", len(weights.Weights))
	}

	total := math.LegacyZeroDec()
	for _, w := range weights.Weights {
		total = total.Add(math.LegacyMustNewDecFromStr(w))
	}
	tolerance := math.LegacyMustNewDecFromStr("0.000000000001")
	if total.Sub(math.LegacyOneDec()).Abs().GT(tolerance) {
		t.Errorf("expected weights to sum to 1, got %s", total.String())
	}
}

// TestMockCreatePool tests pool creation through the mock service
func TestMockCreatePool(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	resp, err := ms.CreatePool(ctx, &types.CreatePoolRequest{
		Owner:       "mock-creator",
		Profile:     "general",
		Denoms:      []string{"uatom", "uosmo"},
		Balances:    []string{"1000000000", "4000000000"},
		Weights:     []string{"0.50", "0.50"},
		SwapFee:     "0.003",
		SwapEnabled: true,
	})
	if err != nil {
		t.Fatalf("create pool failed: %v", err)
	}
	if resp.Pool.PoolID == "" {
		t.Fatal("expected generated pool ID")
	}

	// uatom -> uosmo at equal weights: 1e9 * 0.5 / (4e9 * 0.5) = 0.25
	spot, err := ms.GetSpotPrice(ctx, resp.Pool.PoolID, "uatom", "uosmo")
	if err != nil {
		t.Fatalf("spot price failed: %v", err)
	}
	price := math.LegacyMustNewDecFromStr(spot.SpotPrice)
	if !price.Equal(math.LegacyMustNewDecFromStr("0.25")) {
		t.Errorf("expected spot price 0.25, got %s", spot.SpotPrice)
	}

	// Duplicate explicit IDs are rejected
	_, err = ms.CreatePool(ctx, &types.CreatePoolRequest{
		Owner:    "mock-creator",
		PoolID:   resp.Pool.PoolID,
		Profile:  "general",
		Denoms:   []string{"uatom", "uosmo"},
		Balances: []string{"1", "1"},
		Weights:  []string{"0.5", "0.5"},
		SwapFee:  "0.003",
	})
	if err == nil {
		t.Error("expected duplicate pool ID to be rejected")
	}
}

// TestMockSwapMovesBalances tests the full mock swap flow
func TestMockSwapMovesBalances(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	trader := "mock-trader"
	if err := ms.InitializeTestAccount(trader, "uusdc", "100000000"); err != nil {
		t.Fatalf("failed to fund account: %v", err)
	}

	before, err := ms.GetPool(ctx, "demo-launch")
	if err != nil {
		t.Fatalf("get pool failed: %v", err)
	}

	resp, err := ms.Swap(ctx, &types.SwapRequest{
		Trader:   trader,
		PoolID:   "demo-launch",
		TokenIn:  "uusdc",
		TokenOut: "ualpha",
		AmountIn: "10000000",
	})
	if err != nil {
		t.Fatalf("swap failed: %v", err)
	}

	swap := resp.Swap
	amountOut, ok := math.NewIntFromString(swap.AmountOut)
	if !ok || !amountOut.IsPositive() {
		t.Fatalf("expected positive amount out, got %s", swap.AmountOut)
	}

	// Fee is 1% of the input
	fee := math.LegacyMustNewDecFromStr(swap.FeeAmount)
	expectedFee := math.LegacyNewDec(10000000).Mul(math.LegacyMustNewDecFromStr("0.01"))
	if !fee.Equal(expectedFee) {
		t.Errorf("expected fee %s, got %s", expectedFee.String(), swap.FeeAmount)
	}

	// Pool gained the full input including the fee
	after, err := ms.GetPool(ctx, "demo-launch")
	if err != nil {
		t.Fatalf("get pool failed: %v", err)
	}
	beforeIn, _ := math.NewIntFromString(before.Tokens[1].Balance)
	afterIn, _ := math.NewIntFromString(after.Tokens[1].Balance)
	if !afterIn.Sub(beforeIn).Equal(math.NewInt(10000000)) {
		t.Errorf("expected pool uusdc balance to grow by 10000000, grew by %s", afterIn.Sub(beforeIn).String())
	}
	if after.SwapCount != before.SwapCount+1 {
		t.Errorf("expected swap count %d, got %d", before.SwapCount+1, after.SwapCount)
	}

	// Trader paid uusdc and received ualpha
	account, err := ms.GetAccount(ctx, trader)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.Balances["uusdc"] != "90000000" {
		t.Errorf("expected trader uusdc balance 90000000, got %s", account.Balances["uusdc"])
	}
	if account.Balances["ualpha"] != swap.AmountOut {
		t.Errorf("expected trader ualpha balance %s, got %s", swap.AmountOut, account.Balances["ualpha"])
	}
}

// TestMockSwapMinOut tests min amount out rejection
func TestMockSwapMinOut(t *testing.T) {
	ms := NewMockService()

	_, err := ms.Swap(context.Background(), &types.SwapRequest{
		Trader:       "mock-trader",
		PoolID:       "demo-launch",
		TokenIn:      "uusdc",
		TokenOut:     "ualpha",
		AmountIn:     "1000000",
		MinAmountOut: "999999999999999",
	})
	if err == nil {
		t.Fatal("expected min amount out rejection")
	}
	if !strings.Contains(err.Error(), "slippage") {
		t.Errorf("expected slippage error, got: %v", err)
	}
}

// TestMockSwapDisabled tests that paused pools reject swaps
func TestMockSwapDisabled(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	_, err := ms.SetSwapEnabled(ctx, "demo-launch", &types.SetEnabledRequest{Owner: "mock-owner", Enabled: false})
	if err != nil {
		t.Fatalf("set swap enabled failed: %v", err)
	}

	_, err = ms.Swap(ctx, &types.SwapRequest{
		Trader:   "mock-trader",
		PoolID:   "demo-launch",
		TokenIn:  "uusdc",
		TokenOut: "ualpha",
		AmountIn: "1000000",
	})
	if err == nil {
		t.Fatal("expected swap on paused pool to fail")
	}
	if !strings.Contains(err.Error(), "disabled") {
		t.Errorf("expected disabled error, got: %v", err)
	}

	// Only the owner may resume
	_, err = ms.SetSwapEnabled(ctx, "demo-launch", &types.SetEnabledRequest{Owner: "someone-else", Enabled: true})
	if err == nil {
		t.Fatal("expected non-owner resume to fail")
	}
}

// TestMockQuoteDoesNotMutate tests that quotes leave the pool untouched
func TestMockQuoteDoesNotMutate(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	before, err := ms.GetPool(ctx, "demo-launch")
	if err != nil {
		t.Fatalf("get pool failed: %v", err)
	}

	quote, err := ms.QuoteSwap(ctx, &types.QuoteRequest{
		PoolID:   "demo-launch",
		TokenIn:  "uusdc",
		TokenOut: "ualpha",
		AmountIn: "5000000",
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.Quote.AmountOut == "" || quote.Quote.AmountOut == "0" {
		t.Errorf("expected positive quoted amount, got %s", quote.Quote.AmountOut)
	}

	after, err := ms.GetPool(ctx, "demo-launch")
	if err != nil {
		t.Fatalf("get pool failed: %v", err)
	}
	if after.SwapCount != before.SwapCount {
		t.Error("expected quote to leave swap count unchanged")
	}
	for i := range before.Tokens {
		if after.Tokens[i].Balance != before.Tokens[i].Balance {
			t.Errorf("expected %s balance unchanged, got %s -> %s", before.Tokens[i].Denom, before.Tokens[i].Balance, after.Tokens[i].Balance)
		}
	}
}

// TestMockHistoryAndCandles tests observation recording and bucketing
func TestMockHistoryAndCandles(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := ms.Swap(ctx, &types.SwapRequest{
			Trader:   "mock-trader",
			PoolID:   "demo-launch",
			TokenIn:  "uusdc",
			TokenOut: "ualpha",
			AmountIn: "1000000",
		})
		if err != nil {
			t.Fatalf("swap %d failed: %v", i, err)
		}
	}

	history, err := ms.GetObservations(ctx, "demo-launch", "uusdc", "ualpha", 0, 0)
	if err != nil {
		t.Fatalf("get observations failed: %v", err)
	}
	if len(history.Observations) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(history.Observations))
	}

	// Observations outside the window are filtered
	future := time.Now().Unix() + 3600
	empty, err := ms.GetObservations(ctx, "demo-launch", "uusdc", "ualpha", future, 0)
	if err != nil {
		t.Fatalf("get observations failed: %v", err)
	}
	if len(empty.Observations) != 0 {
		t.Errorf("expected no observations after %d, got %d", future, len(empty.Observations))
	}

	candles, err := ms.GetCandles(ctx, "demo-launch", "uusdc", "ualpha", "1m", 0, 0, 10)
	if err != nil {
		t.Fatalf("get candles failed: %v", err)
	}
	if len(candles.Candles) == 0 {
		t.Fatal("expected at least one candle")
	}
	first := candles.Candles[0]
	if first.SwapCount == 0 {
		t.Error("expected candle to count swaps")
	}
	if first.Open == "" || first.Close == "" {
		t.Error("expected OHLC fields to be set")
	}

	// Unknown intervals are rejected
	if _, err := ms.GetCandles(ctx, "demo-launch", "uusdc", "ualpha", "7m", 0, 0, 10); err == nil {
		t.Error("expected unknown interval to be rejected")
	}
}

// TestMockScheduleGlide tests rescheduling a glide on the mock
func TestMockScheduleGlide(t *testing.T) {
	ms := NewMockService()
	ctx := context.Background()

	now := time.Now().Unix()
	resp, err := ms.ScheduleGlide(ctx, "demo-launch", &types.ScheduleGlideRequest{
		Owner:      "mock-owner",
		StartTime:  now + 3600,
		EndTime:    now + 7200,
		EndWeights: []string{"0.30", "0.70"},
	})
	if err != nil {
		t.Fatalf("schedule glide failed: %v", err)
	}
	if resp.Pool.Schedule.StartTime != now+3600 {
		t.Errorf("expected start time %d, got %d", now+3600, resp.Pool.Schedule.StartTime)
	}
	if resp.Pool.GlideActive {
		t.Error("expected glide inactive before start time")
	}

	// Mismatched end weight count is rejected
	_, err = ms.ScheduleGlide(ctx, "demo-launch", &types.ScheduleGlideRequest{
		Owner:      "mock-owner",
		StartTime:  now + 3600,
		EndTime:    now + 7200,
		EndWeights: []string{"0.30", "0.30", "0.40"},
	})
	if err == nil {
		t.Error("expected mismatched end weights to be rejected")
	}
}
