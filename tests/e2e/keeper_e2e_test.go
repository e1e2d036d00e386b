package e2e

// keeper_e2e_test.go - True E2E tests with the real lbp keeper
// NO MOCK DATA - all operations go through the store-backed implementations

import (
	"context"
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/lbp-dex/api"
	"github.com/openalpha/lbp-dex/api/types"
)

// testAddr derives a bech32 address from a fixed seed so tests stay
// deterministic
func testAddr(seed string) string {
	return sdk.AccAddress([]byte(seed)).String()
}

// TestKeeperE2E_SeedPools verifies the standalone service boots with the
// two seed pools
func TestKeeperE2E_SeedPools(t *testing.T) {
	service, err := api.NewKeeperService(log.NewNopLogger())
	require.NoError(t, err, "failed to create keeper service")

	ctx := context.Background()

	resp, err := service.ListPools(ctx, 0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(2), resp.Total)

	var launch, steady *types.PoolInfo
	for _, pool := range resp.Pools {
		switch pool.PoolID {
		case "genesis-launch":
			launch = pool
		case "steady-pair":
			steady = pool
		}
	}
	require.NotNil(t, launch, "genesis-launch pool missing")
	require.NotNil(t, steady, "steady-pair pool missing")

	t.Run("LaunchPool", func(t *testing.T) {
		require.Equal(t, "bootstrap", launch.Profile)
		require.Equal(t, "0.010000000000000000", launch.SwapFee)
		require.True(t, launch.SwapEnabled)
		require.NotNil(t, launch.Schedule)
		require.Greater(t, launch.Schedule.EndTime, launch.Schedule.StartTime)
		require.Equal(t, "0.500000000000000000", launch.Schedule.EndWeights[0])
	})

	t.Run("SteadyPool", func(t *testing.T) {
		require.Equal(t, "general", steady.Profile)
		require.Equal(t, "0.003000000000000000", steady.SwapFee)
		require.True(t, steady.SwapEnabled)
	})

	t.Run("LaunchWeights", func(t *testing.T) {
		weights, err := service.GetWeights(ctx, "genesis-launch")
		require.NoError(t, err)
		require.Equal(t, []string{"ualpha", "uusdc"}, weights.Denoms)

		// The seed glide has not meaningfully moved yet
		w0, err := math.LegacyNewDecFromStr(weights.Weights[0])
		require.NoError(t, err)
		require.True(t, w0.GTE(math.LegacyMustNewDecFromStr("0.95")),
			"launch weight should still sit near its 0.96 start, got %s", w0)
	})

	t.Run("UnknownPool", func(t *testing.T) {
		_, err := service.GetPool(ctx, "no-such-pool")
		require.Error(t, err)
		require.Contains(t, err.Error(), "not found")
	})
}

// TestKeeperE2E_Accounts tests the test-account funding used by the
// standalone server
func TestKeeperE2E_Accounts(t *testing.T) {
	service, err := api.NewKeeperService(log.NewNopLogger())
	require.NoError(t, err)

	ctx := context.Background()
	trader := testAddr("lbp-e2e-trader-0001")

	t.Run("AccountNotFound", func(t *testing.T) {
		_, err := service.GetAccount(ctx, testAddr("lbp-e2e-nobody-0001"))
		require.Error(t, err, "should fail for unknown trader")
	})

	t.Run("InitializeAccount", func(t *testing.T) {
		err := service.InitializeTestAccount(trader, "uusdc", "100000000")
		require.NoError(t, err)

		account, err := service.GetAccount(ctx, trader)
		require.NoError(t, err)
		require.Equal(t, trader, account.Address)
		require.Equal(t, "100000000", account.Balances["uusdc"])
	})

	t.Run("BalanceIsSetNotAdded", func(t *testing.T) {
		err := service.InitializeTestAccount(trader, "uusdc", "5000")
		require.NoError(t, err)

		account, err := service.GetAccount(ctx, trader)
		require.NoError(t, err)
		require.Equal(t, "5000", account.Balances["uusdc"])
	})
}

// TestKeeperE2E_SwapFlow tests a full swap against the launch pool
func TestKeeperE2E_SwapFlow(t *testing.T) {
	service, err := api.NewKeeperService(log.NewNopLogger())
	require.NoError(t, err)

	ctx := context.Background()
	trader := testAddr("lbp-e2e-swappr-001")
	require.NoError(t, service.InitializeTestAccount(trader, "uusdc", "50000000"))

	// Quote first
	quote, err := service.QuoteSwap(ctx, &types.QuoteRequest{
		PoolID:   "genesis-launch",
		TokenIn:  "uusdc",
		TokenOut: "ualpha",
		AmountIn: "1000000",
	})
	require.NoError(t, err)
	require.Equal(t, "10000", quote.Quote.FeeAmount) // 1% of 1000000
	quotedOut, ok := math.NewIntFromString(quote.Quote.AmountOut)
	require.True(t, ok)
	require.True(t, quotedOut.IsPositive())

	// Execute
	swap, err := service.Swap(ctx, &types.SwapRequest{
		Trader:   trader,
		PoolID:   "genesis-launch",
		TokenIn:  "uusdc",
		TokenOut: "ualpha",
		AmountIn: "1000000",
	})
	require.NoError(t, err)
	require.Equal(t, "10000", swap.Swap.FeeAmount)

	// Buying the launch token must raise its price
	before, err := math.LegacyNewDecFromStr(swap.Swap.SpotPriceBefore)
	require.NoError(t, err)
	after, err := math.LegacyNewDecFromStr(swap.Swap.SpotPriceAfter)
	require.NoError(t, err)
	require.True(t, after.GT(before), "spot price should rise: before=%s after=%s", before, after)

	// The full input including the fee left the trader's account
	account, err := service.GetAccount(ctx, trader)
	require.NoError(t, err)
	require.Equal(t, "49000000", account.Balances["uusdc"])
	require.Equal(t, swap.Swap.AmountOut, account.Balances["ualpha"])

	pool, err := service.GetPool(ctx, "genesis-launch")
	require.NoError(t, err)
	require.GreaterOrEqual(t, pool.SwapCount, int64(1))

	t.Run("SlippageRejected", func(t *testing.T) {
		_, err := service.Swap(ctx, &types.SwapRequest{
			Trader:       trader,
			PoolID:       "genesis-launch",
			TokenIn:      "uusdc",
			TokenOut:     "ualpha",
			AmountIn:     "1000000",
			MinAmountOut: "999999999999999999",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "output below minimum")
	})

	t.Run("SameTokenRejected", func(t *testing.T) {
		_, err := service.Swap(ctx, &types.SwapRequest{
			Trader:   trader,
			PoolID:   "genesis-launch",
			TokenIn:  "uusdc",
			TokenOut: "uusdc",
			AmountIn: "1000000",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "token in and token out are the same")
	})

	t.Run("UnknownTokenRejected", func(t *testing.T) {
		_, err := service.Swap(ctx, &types.SwapRequest{
			Trader:   trader,
			PoolID:   "genesis-launch",
			TokenIn:  "uatom",
			TokenOut: "ualpha",
			AmountIn: "1000000",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "token not bound to pool")
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		pauper := testAddr("lbp-e2e-pauper-001")
		_, err := service.Swap(ctx, &types.SwapRequest{
			Trader:   pauper,
			PoolID:   "genesis-launch",
			TokenIn:  "uusdc",
			TokenOut: "ualpha",
			AmountIn: "1000000",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "insufficient")
	})
}

// TestKeeperE2E_QuoteMatchesSwap verifies a quote prices identically to
// the swap that follows it. The steady pool has no glide, so weights
// cannot move between the two calls.
func TestKeeperE2E_QuoteMatchesSwap(t *testing.T) {
	service, err := api.NewKeeperService(log.NewNopLogger())
	require.NoError(t, err)

	ctx := context.Background()
	trader := testAddr("lbp-e2e-quoter-001")
	require.NoError(t, service.InitializeTestAccount(trader, "uatom", "10000000"))

	quote, err := service.QuoteSwap(ctx, &types.QuoteRequest{
		PoolID:   "steady-pair",
		TokenIn:  "uatom",
		TokenOut: "uosmo",
		AmountIn: "1000000",
	})
	require.NoError(t, err)
	require.Equal(t, "3000", quote.Quote.FeeAmount) // 0.3% of 1000000

	// 100e9 uatom / 400e9 uosmo at equal weights prices uosmo at 0.25
	require.Equal(t, "0.250000000000000000", quote.Quote.SpotPriceBefore)

	// Quoting must not touch state
	poolAfterQuote, err := service.GetPool(ctx, "steady-pair")
	require.NoError(t, err)
	require.Equal(t, int64(0), poolAfterQuote.SwapCount)

	account, err := service.GetAccount(ctx, trader)
	require.NoError(t, err)
	require.Equal(t, "10000000", account.Balances["uatom"])

	swap, err := service.Swap(ctx, &types.SwapRequest{
		Trader:   trader,
		PoolID:   "steady-pair",
		TokenIn:  "uatom",
		TokenOut: "uosmo",
		AmountIn: "1000000",
	})
	require.NoError(t, err)
	require.Equal(t, quote.Quote.AmountOut, swap.Swap.AmountOut, "quote must match execution")
	require.Equal(t, quote.Quote.FeeAmount, swap.Swap.FeeAmount)
}

// TestKeeperE2E_PoolAdmin tests owner-gated pool administration
func TestKeeperE2E_PoolAdmin(t *testing.T) {
	service, err := api.NewKeeperService(log.NewNopLogger())
	require.NoError(t, err)

	ctx := context.Background()
	stranger := testAddr("lbp-e2e-strngr-001")

	t.Run("SetFeeUnauthorized", func(t *testing.T) {
		_, err := service.SetSwapFee(ctx, "steady-pair", &types.SetFeeRequest{
			Owner:   stranger,
			SwapFee: "0.005",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "unauthorized")
	})

	t.Run("SetFee", func(t *testing.T) {
		resp, err := service.SetSwapFee(ctx, "steady-pair", &types.SetFeeRequest{
			Owner:   api.SeedOwner,
			SwapFee: "0.005",
		})
		require.NoError(t, err)
		require.Equal(t, "0.005000000000000000", resp.Pool.SwapFee)
	})

	t.Run("FeeOutOfBounds", func(t *testing.T) {
		_, err := service.SetSwapFee(ctx, "steady-pair", &types.SetFeeRequest{
			Owner:   api.SeedOwner,
			SwapFee: "0.5",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "swap fee out of bounds")
	})

	t.Run("DisableBlocksSwaps", func(t *testing.T) {
		trader := testAddr("lbp-e2e-trader-0002")
		require.NoError(t, service.InitializeTestAccount(trader, "uatom", "10000000"))

		resp, err := service.SetSwapEnabled(ctx, "steady-pair", &types.SetEnabledRequest{
			Owner:   api.SeedOwner,
			Enabled: false,
		})
		require.NoError(t, err)
		require.False(t, resp.Pool.SwapEnabled)

		_, err = service.Swap(ctx, &types.SwapRequest{
			Trader:   trader,
			PoolID:   "steady-pair",
			TokenIn:  "uatom",
			TokenOut: "uosmo",
			AmountIn: "1000000",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "swaps are disabled")

		// Resume and swap again
		_, err = service.SetSwapEnabled(ctx, "steady-pair", &types.SetEnabledRequest{
			Owner:   api.SeedOwner,
			Enabled: true,
		})
		require.NoError(t, err)

		_, err = service.Swap(ctx, &types.SwapRequest{
			Trader:   trader,
			PoolID:   "steady-pair",
			TokenIn:  "uatom",
			TokenOut: "uosmo",
			AmountIn: "1000000",
		})
		require.NoError(t, err)
	})
}

// TestKeeperE2E_CreatePool tests pool creation through the service,
// including the seed transfer out of the owner account
func TestKeeperE2E_CreatePool(t *testing.T) {
	service, err := api.NewKeeperService(log.NewNopLogger())
	require.NoError(t, err)

	ctx := context.Background()
	owner := testAddr("lbp-e2e-owner-0001")
	require.NoError(t, service.InitializeTestAccount(owner, "ubase", "10000000000"))
	require.NoError(t, service.InitializeTestAccount(owner, "uquote", "10000000000"))

	resp, err := service.CreatePool(ctx, &types.CreatePoolRequest{
		Owner:       owner,
		PoolID:      "community-pair",
		Profile:     "general",
		Denoms:      []string{"ubase", "uquote"},
		Balances:    []string{"2000000000", "8000000000"},
		Weights:     []string{"0.5", "0.5"},
		SwapFee:     "0.003",
		SwapEnabled: true,
	})
	require.NoError(t, err)
	require.Equal(t, "community-pair", resp.Pool.PoolID)
	require.Equal(t, owner, resp.Pool.Owner)

	// 2e9/8e9 at equal weights prices uquote at 0.25
	spot, err := service.GetSpotPrice(ctx, "community-pair", "ubase", "uquote")
	require.NoError(t, err)
	require.Equal(t, "0.250000000000000000", spot.SpotPrice)

	// Seed balances moved from the owner into the pool
	account, err := service.GetAccount(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, "8000000000", account.Balances["ubase"])
	require.Equal(t, "2000000000", account.Balances["uquote"])

	t.Run("DuplicatePoolID", func(t *testing.T) {
		_, err := service.CreatePool(ctx, &types.CreatePoolRequest{
			Owner:       owner,
			PoolID:      "community-pair",
			Profile:     "general",
			Denoms:      []string{"ubase", "uquote"},
			Balances:    []string{"2000000000", "8000000000"},
			Weights:     []string{"0.5", "0.5"},
			SwapFee:     "0.003",
			SwapEnabled: true,
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "pool already initialized")
	})

	t.Run("BelowMinimumBalance", func(t *testing.T) {
		_, err := service.CreatePool(ctx, &types.CreatePoolRequest{
			Owner:       owner,
			Profile:     "general",
			Denoms:      []string{"ubase", "uquote"},
			Balances:    []string{"100", "8000000000"},
			Weights:     []string{"0.5", "0.5"},
			SwapFee:     "0.003",
			SwapEnabled: true,
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "initial balance below minimum")
	})

	t.Run("WeightOverGeneralCap", func(t *testing.T) {
		_, err := service.CreatePool(ctx, &types.CreatePoolRequest{
			Owner:       owner,
			Profile:     "general",
			Denoms:      []string{"ubase", "uquote"},
			Balances:    []string{"2000000000", "8000000000"},
			Weights:     []string{"0.6", "0.4"},
			SwapFee:     "0.003",
			SwapEnabled: true,
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "weight out of bounds")
	})

	t.Run("BootstrapNeedsTwoTokens", func(t *testing.T) {
		_, err := service.CreatePool(ctx, &types.CreatePoolRequest{
			Owner:       owner,
			Profile:     "bootstrap",
			Denoms:      []string{"ubase", "uquote", "uthird"},
			Balances:    []string{"2000000000", "2000000000", "2000000000"},
			Weights:     []string{"0.4", "0.3", "0.3"},
			SwapFee:     "0.003",
			SwapEnabled: true,
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid pool configuration")
	})

	t.Run("UnfundedOwner", func(t *testing.T) {
		poor := testAddr("lbp-e2e-broke-0001")
		_, err := service.CreatePool(ctx, &types.CreatePoolRequest{
			Owner:       poor,
			Profile:     "general",
			Denoms:      []string{"ubase", "uquote"},
			Balances:    []string{"2000000000", "8000000000"},
			Weights:     []string{"0.5", "0.5"},
			SwapFee:     "0.003",
			SwapEnabled: true,
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "insufficient")
	})
}
