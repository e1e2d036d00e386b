package e2e

// glide_e2e_test.go - E2E tests for weight glide scheduling and the
// price discovery that follows it

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/lbp-dex/api"
	"github.com/openalpha/lbp-dex/api/types"
)

// newLaunchPool creates a funded 96/4 bootstrap pool owned by a fresh
// address and returns the owner
func newLaunchPool(t *testing.T, service *api.KeeperService, poolID string) string {
	t.Helper()

	ctx := context.Background()
	owner := testAddr("lbp-e2e-glider-" + poolID)
	require.NoError(t, service.InitializeTestAccount(owner, "ulaunch", "96000000000"))
	require.NoError(t, service.InitializeTestAccount(owner, "uusdc", "4000000000"))

	_, err := service.CreatePool(ctx, &types.CreatePoolRequest{
		Owner:       owner,
		PoolID:      poolID,
		Profile:     "bootstrap",
		Denoms:      []string{"ulaunch", "uusdc"},
		Balances:    []string{"96000000000", "4000000000"},
		Weights:     []string{"0.96", "0.04"},
		SwapFee:     "0.01",
		SwapEnabled: true,
	})
	require.NoError(t, err)
	return owner
}

// TestGlideE2E_ScheduleValidation tests the glide scheduling guards
func TestGlideE2E_ScheduleValidation(t *testing.T) {
	service, err := api.NewKeeperService(log.NewNopLogger())
	require.NoError(t, err)

	ctx := context.Background()
	owner := newLaunchPool(t, service, "launch-x")
	now := time.Now().Unix()

	t.Run("BackwardWindow", func(t *testing.T) {
		_, err := service.ScheduleGlide(ctx, "launch-x", &types.ScheduleGlideRequest{
			Owner:      owner,
			StartTime:  now + 100,
			EndTime:    now + 50,
			EndWeights: []string{"0.5", "0.5"},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid weight schedule")
	})

	t.Run("StartInPast", func(t *testing.T) {
		_, err := service.ScheduleGlide(ctx, "launch-x", &types.ScheduleGlideRequest{
			Owner:      owner,
			StartTime:  now - 10,
			EndTime:    now + 100,
			EndWeights: []string{"0.5", "0.5"},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid weight schedule")
	})

	t.Run("WrongEndWeightCount", func(t *testing.T) {
		_, err := service.ScheduleGlide(ctx, "launch-x", &types.ScheduleGlideRequest{
			Owner:      owner,
			StartTime:  now + 100,
			EndTime:    now + 200,
			EndWeights: []string{"0.4", "0.3", "0.3"},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid weight schedule")
	})

	t.Run("EndWeightOverBootstrapCap", func(t *testing.T) {
		_, err := service.ScheduleGlide(ctx, "launch-x", &types.ScheduleGlideRequest{
			Owner:      owner,
			StartTime:  now + 100,
			EndTime:    now + 200,
			EndWeights: []string{"0.995", "0.005"},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "weight out of bounds")
	})

	t.Run("NotOwner", func(t *testing.T) {
		_, err := service.ScheduleGlide(ctx, "launch-x", &types.ScheduleGlideRequest{
			Owner:      testAddr("lbp-e2e-strngr-002"),
			StartTime:  now + 100,
			EndTime:    now + 200,
			EndWeights: []string{"0.5", "0.5"},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "unauthorized")
	})

	t.Run("ValidSchedule", func(t *testing.T) {
		resp, err := service.ScheduleGlide(ctx, "launch-x", &types.ScheduleGlideRequest{
			Owner:      owner,
			StartTime:  now + 60,
			EndTime:    now + 3660,
			EndWeights: []string{"0.5", "0.5"},
		})
		require.NoError(t, err)
		require.NotNil(t, resp.Pool.Schedule)
		require.Equal(t, now+60, resp.Pool.Schedule.StartTime)
		require.Equal(t, now+3660, resp.Pool.Schedule.EndTime)
		require.Equal(t, "0.500000000000000000", resp.Pool.Schedule.EndWeights[0])
		require.False(t, resp.Pool.GlideActive, "glide should not be active before its start")
	})
}

// TestGlideE2E_WeightMovement drives a short glide through its whole
// window with real wall-clock time
func TestGlideE2E_WeightMovement(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping wall-clock glide test in short mode")
	}

	service, err := api.NewKeeperService(log.NewNopLogger())
	require.NoError(t, err)

	ctx := context.Background()
	owner := newLaunchPool(t, service, "launch-y")

	// 4e9*0.96 / (96e9*0.04) prices the launch token at exactly 1 uusdc
	spotBefore, err := service.GetSpotPrice(ctx, "launch-y", "uusdc", "ulaunch")
	require.NoError(t, err)
	require.Equal(t, "1.000000000000000000", spotBefore.SpotPrice)

	weights, err := service.GetWeights(ctx, "launch-y")
	require.NoError(t, err)
	require.Equal(t, "0.960000000000000000", weights.Weights[0])

	// Glide to 50/50 over four seconds
	now := time.Now().Unix()
	_, err = service.ScheduleGlide(ctx, "launch-y", &types.ScheduleGlideRequest{
		Owner:      owner,
		StartTime:  now + 2,
		EndTime:    now + 6,
		EndWeights: []string{"0.5", "0.5"},
	})
	require.NoError(t, err)

	// Mid-window the weight sits strictly between the endpoints
	time.Sleep(3500 * time.Millisecond)
	require.NoError(t, service.AdvanceBlock())

	weights, err = service.GetWeights(ctx, "launch-y")
	require.NoError(t, err)
	mid, err := math.LegacyNewDecFromStr(weights.Weights[0])
	require.NoError(t, err)
	require.True(t, mid.LT(math.LegacyMustNewDecFromStr("0.96")), "weight should have moved down, got %s", mid)
	require.True(t, mid.GT(math.LegacyMustNewDecFromStr("0.5")), "weight should not have finished, got %s", mid)

	pool, err := service.GetPool(ctx, "launch-y")
	require.NoError(t, err)
	require.True(t, pool.GlideActive)

	// Past the window the end weights are pinned exactly
	time.Sleep(3 * time.Second)
	require.NoError(t, service.AdvanceBlock())

	weights, err = service.GetWeights(ctx, "launch-y")
	require.NoError(t, err)
	require.Equal(t, "0.500000000000000000", weights.Weights[0])
	require.Equal(t, "0.500000000000000000", weights.Weights[1])

	pool, err = service.GetPool(ctx, "launch-y")
	require.NoError(t, err)
	require.False(t, pool.GlideActive)

	// With no buyers the launch token got cheaper as its weight fell
	spotAfter, err := service.GetSpotPrice(ctx, "launch-y", "uusdc", "ulaunch")
	require.NoError(t, err)
	before, err := math.LegacyNewDecFromStr(spotBefore.SpotPrice)
	require.NoError(t, err)
	after, err := math.LegacyNewDecFromStr(spotAfter.SpotPrice)
	require.NoError(t, err)
	require.True(t, after.LT(before), "glide without demand must lower the price: before=%s after=%s", before, after)
}

// TestGlideE2E_PriceHistory tests observation recording and candles
func TestGlideE2E_PriceHistory(t *testing.T) {
	service, err := api.NewKeeperService(log.NewNopLogger())
	require.NoError(t, err)

	ctx := context.Background()
	trader := testAddr("lbp-e2e-histry-001")
	require.NoError(t, service.InitializeTestAccount(trader, "uusdc", "10000000"))

	// Spread the buys across distinct seconds, the pair keeps one
	// observation per second
	for i := 0; i < 3; i++ {
		if i > 0 {
			time.Sleep(1100 * time.Millisecond)
		}
		_, err := service.Swap(ctx, &types.SwapRequest{
			Trader:   trader,
			PoolID:   "genesis-launch",
			TokenIn:  "uusdc",
			TokenOut: "ualpha",
			AmountIn: "1000000",
		})
		require.NoError(t, err)
	}

	until := time.Now().Unix() + 10

	t.Run("Observations", func(t *testing.T) {
		history, err := service.GetObservations(ctx, "genesis-launch", "uusdc", "ualpha", 0, until)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(history.Observations), 3)

		// Each buy pushed the launch token price up
		for i := 1; i < len(history.Observations); i++ {
			prev, err := math.LegacyNewDecFromStr(history.Observations[i-1].SpotPrice)
			require.NoError(t, err)
			cur, err := math.LegacyNewDecFromStr(history.Observations[i].SpotPrice)
			require.NoError(t, err)
			require.True(t, cur.GTE(prev), "prices should be non-decreasing across buys")
		}
	})

	t.Run("Candles", func(t *testing.T) {
		candles, err := service.GetCandles(ctx, "genesis-launch", "uusdc", "ualpha", "1m", 0, until, 10)
		require.NoError(t, err)
		require.NotEmpty(t, candles.Candles)

		var swapCount int64
		for _, candle := range candles.Candles {
			swapCount += candle.SwapCount

			high, err := math.LegacyNewDecFromStr(candle.High)
			require.NoError(t, err)
			low, err := math.LegacyNewDecFromStr(candle.Low)
			require.NoError(t, err)
			require.True(t, high.GTE(low))
		}
		require.GreaterOrEqual(t, swapCount, int64(3))
	})

	t.Run("UnknownPair", func(t *testing.T) {
		_, err := service.GetObservations(ctx, "genesis-launch", "uatom", "ualpha", 0, until)
		require.Error(t, err)
		require.Contains(t, err.Error(), "token not bound to pool")
	})

	t.Run("BadInterval", func(t *testing.T) {
		_, err := service.GetCandles(ctx, "genesis-launch", "uusdc", "ualpha", "7m", 0, until, 10)
		require.Error(t, err)
	})
}
