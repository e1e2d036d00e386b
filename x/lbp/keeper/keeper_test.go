package keeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lbp-dex/x/lbp/types"

	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
)

// testBlockTime is the block time all tests start from
var testBlockTime = time.Unix(1_700_000_000, 0).UTC()

// mockBankKeeper records custody transfers so tests can assert on them
type mockBankKeeper struct {
	toModule  []sdk.Coins
	toAccount []sdk.Coins
	failSend  bool
}

func (m *mockBankKeeper) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	if m.failSend {
		return errors.New("insufficient funds")
	}
	m.toModule = append(m.toModule, amt)
	return nil
}

func (m *mockBankKeeper) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	if m.failSend {
		return errors.New("insufficient funds")
	}
	m.toAccount = append(m.toAccount, amt)
	return nil
}

// testAddr derives a deterministic bech32 address from a label
func testAddr(name string) string {
	buf := make([]byte, 20)
	copy(buf, name)
	return sdk.AccAddress(buf).String()
}

// setupKeeper creates a test keeper with an in-memory store
func setupKeeper(tb testing.TB) (*Keeper, *mockBankKeeper, sdk.Context) {
	tb.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		tb.Fatalf("failed to load store: %v", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger())
	ctx = ctx.WithBlockTime(testBlockTime).WithBlockHeight(1)

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	bank := &mockBankKeeper{}
	keeper := NewKeeper(cdc, storeKey, bank, testAddr("authority"), log.NewNopLogger())

	return keeper, bank, ctx
}

// generalPoolConfig returns a valid two token general pool config
func generalPoolConfig(owner string) PoolConfig {
	return PoolConfig{
		Profile: types.ProfileGeneral,
		Denoms:  []string{"ulaunch", "ureserve"},
		Balances: []math.Int{
			math.NewInt(1_000_000_000),
			math.NewInt(1_000_000_000),
		},
		Weights: []math.LegacyDec{
			math.LegacyMustNewDecFromStr("0.5"),
			math.LegacyMustNewDecFromStr("0.5"),
		},
		SwapFee:     math.LegacyZeroDec(),
		SwapEnabled: true,
		Owner:       owner,
	}
}

// bootstrapPoolConfig returns a valid bootstrap pool config with the
// asymmetric start weights typical for a token launch
func bootstrapPoolConfig(owner string) PoolConfig {
	return PoolConfig{
		Profile: types.ProfileBootstrap,
		Denoms:  []string{"ulaunch", "ureserve"},
		Balances: []math.Int{
			math.NewInt(1_000_000_000_000),
			math.NewInt(1_000_000_000_000),
		},
		Weights: []math.LegacyDec{
			math.LegacyMustNewDecFromStr("0.96"),
			math.LegacyMustNewDecFromStr("0.04"),
		},
		SwapFee:     math.LegacyZeroDec(),
		SwapEnabled: true,
		Owner:       owner,
	}
}

// hasEvent reports whether an event of the given type was emitted
func hasEvent(ctx sdk.Context, eventType string) bool {
	return countEvents(ctx, eventType) > 0
}

// countEvents counts emitted events of the given type
func countEvents(ctx sdk.Context, eventType string) int {
	n := 0
	for _, event := range ctx.EventManager().Events() {
		if event.Type == eventType {
			n++
		}
	}
	return n
}

// TestInitializePool tests pool creation end to end
func TestInitializePool(t *testing.T) {
	keeper, bank, ctx := setupKeeper(t)
	owner := testAddr("alice")

	pool, err := keeper.InitializePool(ctx, generalPoolConfig(owner))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if pool.PoolID != "pool-1" {
		t.Errorf("expected pool ID pool-1, got %s", pool.PoolID)
	}
	if pool.Profile != types.ProfileGeneral {
		t.Errorf("expected general profile, got %s", pool.Profile)
	}
	if pool.Owner != owner {
		t.Errorf("expected owner %s, got %s", owner, pool.Owner)
	}
	if !pool.SwapEnabled {
		t.Error("expected swaps enabled")
	}
	if pool.CreatedAt != testBlockTime.Unix() {
		t.Errorf("expected created at %d, got %d", testBlockTime.Unix(), pool.CreatedAt)
	}

	// The flat initial schedule holds the weights steady
	if pool.GlideActive(testBlockTime.Unix()) {
		t.Error("expected no active glide on a fresh pool")
	}
	weights := pool.CurrentDenormWeights(testBlockTime.Unix() + 86400)
	if !weights[0].Equal(math.LegacyMustNewDecFromStr("0.5")) {
		t.Errorf("expected weight 0.5, got %s", weights[0].String())
	}

	// Seed balances moved into module custody in one transfer
	if len(bank.toModule) != 1 {
		t.Fatalf("expected 1 custody transfer, got %d", len(bank.toModule))
	}
	coins := bank.toModule[0]
	if !coins.AmountOf("ulaunch").Equal(math.NewInt(1_000_000_000)) {
		t.Errorf("expected 1000000000ulaunch in custody, got %s", coins.String())
	}
	if !coins.AmountOf("ureserve").Equal(math.NewInt(1_000_000_000)) {
		t.Errorf("expected 1000000000ureserve in custody, got %s", coins.String())
	}

	// Stored pool round-trips
	stored := keeper.GetPool(ctx, "pool-1")
	if stored == nil {
		t.Fatal("expected pool in store")
	}
	if stored.PoolID != pool.PoolID || len(stored.Tokens) != 2 {
		t.Errorf("stored pool does not match: %+v", stored)
	}
	if !stored.Tokens[0].Balance.Equal(math.NewInt(1_000_000_000)) {
		t.Errorf("expected stored balance 1000000000, got %s", stored.Tokens[0].Balance.String())
	}

	if !hasEvent(ctx, "pool_initialized") {
		t.Error("expected pool_initialized event")
	}
}

// TestInitializePoolSequentialIDs tests that generated IDs are sequential
func TestInitializePoolSequentialIDs(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	first, err := keeper.InitializePool(ctx, generalPoolConfig(owner))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	cfg := generalPoolConfig(owner)
	cfg.Denoms = []string{"uatom", "uosmo"}
	second, err := keeper.InitializePool(ctx, cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if first.PoolID != "pool-1" || second.PoolID != "pool-2" {
		t.Errorf("expected pool-1 and pool-2, got %s and %s", first.PoolID, second.PoolID)
	}
}

// TestInitializePoolExplicitID tests caller-chosen pool IDs
func TestInitializePoolExplicitID(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	cfg := generalPoolConfig(owner)
	cfg.PoolID = "launch-alpha"
	pool, err := keeper.InitializePool(ctx, cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pool.PoolID != "launch-alpha" {
		t.Errorf("expected launch-alpha, got %s", pool.PoolID)
	}

	// Same ID again is rejected
	if _, err := keeper.InitializePool(ctx, cfg); !errors.Is(err, types.ErrAlreadyInitialized) {
		t.Errorf("expected ErrAlreadyInitialized, got %v", err)
	}
}

// TestInitializePoolValidation tests config validation failures
func TestInitializePoolValidation(t *testing.T) {
	owner := testAddr("alice")

	testCases := []struct {
		name    string
		mutate  func(*PoolConfig)
		wantErr error
	}{
		{
			name:    "missing owner",
			mutate:  func(c *PoolConfig) { c.Owner = "" },
			wantErr: types.ErrUnauthorized,
		},
		{
			name:    "owner not bech32",
			mutate:  func(c *PoolConfig) { c.Owner = "not-an-address" },
			wantErr: types.ErrUnauthorized,
		},
		{
			name:    "unknown profile",
			mutate:  func(c *PoolConfig) { c.Profile = "hybrid" },
			wantErr: types.ErrInvalidConfig,
		},
		{
			name: "too many tokens for general",
			mutate: func(c *PoolConfig) {
				c.Denoms = []string{"a", "b", "c", "d", "e"}
				c.Balances = repeatInt(math.NewInt(1_000_000_000), 5)
				c.Weights = repeatDec(math.LegacyMustNewDecFromStr("0.2"), 5)
			},
			wantErr: types.ErrInvalidConfig,
		},
		{
			name: "bootstrap requires exactly two tokens",
			mutate: func(c *PoolConfig) {
				c.Profile = types.ProfileBootstrap
				c.Denoms = []string{"a", "b", "c"}
				c.Balances = repeatInt(math.NewInt(1_000_000_000), 3)
				c.Weights = repeatDec(math.LegacyMustNewDecFromStr("0.33"), 3)
			},
			wantErr: types.ErrInvalidConfig,
		},
		{
			name: "balance count mismatch",
			mutate: func(c *PoolConfig) {
				c.Balances = []math.Int{math.NewInt(1_000_000_000)}
			},
			wantErr: types.ErrInvalidConfig,
		},
		{
			name: "duplicate denom",
			mutate: func(c *PoolConfig) {
				c.Denoms = []string{"ulaunch", "ulaunch"}
			},
			wantErr: types.ErrDuplicateToken,
		},
		{
			name: "balance below dust floor",
			mutate: func(c *PoolConfig) {
				c.Balances[1] = math.NewInt(999_999)
			},
			wantErr: types.ErrInvalidBalance,
		},
		{
			name: "weight below minimum",
			mutate: func(c *PoolConfig) {
				c.Weights[0] = math.LegacyMustNewDecFromStr("0.005")
				c.Weights[1] = math.LegacyMustNewDecFromStr("0.995")
			},
			wantErr: types.ErrInvalidWeight,
		},
		{
			name: "weight above general cap",
			mutate: func(c *PoolConfig) {
				c.Weights[0] = math.LegacyMustNewDecFromStr("0.6")
				c.Weights[1] = math.LegacyMustNewDecFromStr("0.4")
			},
			wantErr: types.ErrInvalidWeight,
		},
		{
			name: "weights do not sum to one",
			mutate: func(c *PoolConfig) {
				c.Weights[0] = math.LegacyMustNewDecFromStr("0.5")
				c.Weights[1] = math.LegacyMustNewDecFromStr("0.49")
			},
			wantErr: types.ErrInvalidWeight,
		},
		{
			name: "negative fee",
			mutate: func(c *PoolConfig) {
				c.SwapFee = math.LegacyMustNewDecFromStr("-0.01")
			},
			wantErr: types.ErrInvalidFee,
		},
		{
			name: "fee above band",
			mutate: func(c *PoolConfig) {
				c.SwapFee = math.LegacyMustNewDecFromStr("0.2")
			},
			wantErr: types.ErrInvalidFee,
		},
		{
			name: "nonzero fee below band",
			mutate: func(c *PoolConfig) {
				c.SwapFee = math.LegacyMustNewDecFromStr("0.0000001")
			},
			wantErr: types.ErrInvalidFee,
		},
		{
			name: "glide window end before start",
			mutate: func(c *PoolConfig) {
				c.StartTime = 2000
				c.EndTime = 1000
			},
			wantErr: types.ErrInvalidSchedule,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			keeper, _, ctx := setupKeeper(t)
			cfg := generalPoolConfig(owner)
			tc.mutate(&cfg)

			_, err := keeper.InitializePool(ctx, cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

// TestInitializePoolBootstrapProfile tests the wider bootstrap weight cap
func TestInitializePoolBootstrapProfile(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	pool, err := keeper.InitializePool(ctx, bootstrapPoolConfig(owner))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pool.Profile != types.ProfileBootstrap {
		t.Errorf("expected bootstrap profile, got %s", pool.Profile)
	}
	if !pool.Tokens[0].Weight.Equal(math.LegacyMustNewDecFromStr("0.96")) {
		t.Errorf("expected launch weight 0.96, got %s", pool.Tokens[0].Weight.String())
	}

	// 0.96 would exceed the general cap
	cfg := bootstrapPoolConfig(owner)
	cfg.Profile = types.ProfileGeneral
	if _, err := keeper.InitializePool(ctx, cfg); !errors.Is(err, types.ErrInvalidWeight) {
		t.Errorf("expected ErrInvalidWeight for general profile, got %v", err)
	}
}

// TestInitializePoolBankFailure tests that a failed custody transfer
// leaves no partial state behind
func TestInitializePoolBankFailure(t *testing.T) {
	keeper, bank, ctx := setupKeeper(t)
	owner := testAddr("alice")

	bank.failSend = true
	if _, err := keeper.InitializePool(ctx, generalPoolConfig(owner)); err == nil {
		t.Fatal("expected bank error")
	}

	if keeper.GetPool(ctx, "pool-1") != nil {
		t.Error("expected no pool after failed transfer")
	}
	if keeper.GetPoolSequence(ctx) != 0 {
		t.Errorf("expected sequence untouched, got %d", keeper.GetPoolSequence(ctx))
	}

	// A later attempt starts the sequence fresh
	bank.failSend = false
	pool, err := keeper.InitializePool(ctx, generalPoolConfig(owner))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pool.PoolID != "pool-1" {
		t.Errorf("expected pool-1, got %s", pool.PoolID)
	}
}

// TestPoolSequence tests sequence persistence
func TestPoolSequence(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)

	if keeper.GetPoolSequence(ctx) != 0 {
		t.Errorf("expected initial sequence 0, got %d", keeper.GetPoolSequence(ctx))
	}
	for want := uint64(1); want <= 3; want++ {
		if got := keeper.NextPoolSequence(ctx); got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}
	if keeper.GetPoolSequence(ctx) != 3 {
		t.Errorf("expected stored sequence 3, got %d", keeper.GetPoolSequence(ctx))
	}
}

// TestGetAllPools tests listing stored pools
func TestGetAllPools(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	for _, id := range []string{"alpha", "beta", "gamma"} {
		cfg := generalPoolConfig(owner)
		cfg.PoolID = id
		if _, err := keeper.InitializePool(ctx, cfg); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	pools := keeper.GetAllPools(ctx)
	if len(pools) != 3 {
		t.Fatalf("expected 3 pools, got %d", len(pools))
	}
	// Store iteration returns pools in key order
	for i, want := range []string{"alpha", "beta", "gamma"} {
		if pools[i].PoolID != want {
			t.Errorf("expected pool %s at index %d, got %s", want, i, pools[i].PoolID)
		}
	}
}

// TestGenesisRoundTrip tests export and import of module state
func TestGenesisRoundTrip(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	if _, err := keeper.InitializePool(ctx, generalPoolConfig(owner)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := keeper.InitializePool(ctx, bootstrapPoolConfig(testAddr("bob"))); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	exported := keeper.ExportGenesis(ctx)
	if len(exported.Pools) != 2 {
		t.Fatalf("expected 2 exported pools, got %d", len(exported.Pools))
	}
	if exported.PoolSequence != 2 {
		t.Errorf("expected exported sequence 2, got %d", exported.PoolSequence)
	}

	fresh, _, freshCtx := setupKeeper(t)
	if err := fresh.InitGenesis(freshCtx, exported); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	restored := fresh.GetPool(freshCtx, "pool-1")
	if restored == nil {
		t.Fatal("expected restored pool-1")
	}
	if !restored.Tokens[0].Balance.Equal(math.NewInt(1_000_000_000)) {
		t.Errorf("expected restored balance, got %s", restored.Tokens[0].Balance.String())
	}

	// The sequence continues where the export left off
	cfg := generalPoolConfig(owner)
	cfg.Denoms = []string{"uatom", "uosmo"}
	pool, err := fresh.InitializePool(freshCtx, cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pool.PoolID != "pool-3" {
		t.Errorf("expected pool-3 after import, got %s", pool.PoolID)
	}
}

// TestInitGenesisRejectsDuplicates tests duplicate pool detection
func TestInitGenesisRejectsDuplicates(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	pool, err := keeper.InitializePool(ctx, generalPoolConfig(owner))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	state := &types.GenesisState{Pools: []*types.Pool{pool}}
	if err := keeper.InitGenesis(ctx, state); !errors.Is(err, types.ErrAlreadyInitialized) {
		t.Errorf("expected ErrAlreadyInitialized, got %v", err)
	}

	state = &types.GenesisState{Pools: []*types.Pool{pool, pool}}
	if err := state.Validate(); !errors.Is(err, types.ErrAlreadyInitialized) {
		t.Errorf("expected ErrAlreadyInitialized from Validate, got %v", err)
	}
}

func repeatInt(v math.Int, n int) []math.Int {
	out := make([]math.Int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func repeatDec(v math.LegacyDec, n int) []math.LegacyDec {
	out := make([]math.LegacyDec, n)
	for i := range out {
		out[i] = v
	}
	return out
}
