package api

// service_keeper.go - Standalone service backed by the real lbp Keeper.
// No mock data: every pool, swap and price flows through keeper state
// held in an in-memory IAVL store.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/lbp-dex/api/types"
	lbpkeeper "github.com/openalpha/lbp-dex/x/lbp/keeper"
	lbptypes "github.com/openalpha/lbp-dex/x/lbp/types"
)

// SeedOwner is the bech32 address that funds and owns the seed pools.
// Derived from a fixed 20-byte key so it is stable across restarts.
var SeedOwner = sdk.AccAddress([]byte("lbp-seed-owner-00001")).String()

// KeeperService implements all service interfaces with the real lbp
// Keeper. Each state-changing call runs under a fresh block context so
// weight glides and candle buckets advance with wall-clock time.
type KeeperService struct {
	mu sync.RWMutex

	keeper     *lbpkeeper.Keeper
	query      *lbpkeeper.QueryServer
	bankKeeper *MemoryBankKeeper

	cms      storetypes.CommitMultiStore
	storeKey storetypes.StoreKey
	height   int64

	logger log.Logger
}

// NewKeeperService creates a standalone service with real keeper state
func NewKeeperService(logger log.Logger) (*KeeperService, error) {
	// Create in-memory database
	db := dbm.NewMemDB()

	// Create store key
	storeKey := storetypes.NewKVStoreKey(lbptypes.StoreKey)

	// Create multi-store with proper metrics
	cms := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	cms.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	// Create codec
	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	// Create bank keeper (real in-memory implementation)
	bankKeeper := NewMemoryBankKeeper()

	// Create REAL lbp keeper
	keeper := lbpkeeper.NewKeeper(cdc, storeKey, bankKeeper, "", logger)

	service := &KeeperService{
		keeper:     keeper,
		query:      lbpkeeper.NewQueryServerImpl(keeper),
		bankKeeper: bankKeeper,
		cms:        cms,
		storeKey:   storeKey,
		height:     1,
		logger:     logger,
	}

	if err := service.seedPools(); err != nil {
		return nil, fmt.Errorf("failed to seed pools: %w", err)
	}

	return service, nil
}

// nextCtx returns a context for a state-changing call. Each call gets a
// fresh block height and current wall-clock time. Callers must hold mu.
func (s *KeeperService) nextCtx() sdk.Context {
	s.height++
	return sdk.NewContext(s.cms, tmproto.Header{Height: s.height, Time: time.Now()}, false, s.logger)
}

// readCtx returns a context for queries. Wall-clock time still advances
// so reads see current glide weights. Callers must hold mu.
func (s *KeeperService) readCtx() sdk.Context {
	return sdk.NewContext(s.cms, tmproto.Header{Height: s.height, Time: time.Now()}, false, s.logger)
}

// seedPools creates the default launch pools so a fresh service has
// something to trade against
func (s *KeeperService) seedPools() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Fund the seed owner first. Pool creation pulls the seed balances
	// from the owner account into the module reserve.
	s.bankKeeper.InitializeAccount(SeedOwner, "ualpha", math.NewInt(500_000_000_000))
	s.bankKeeper.InitializeAccount(SeedOwner, "uusdc", math.NewInt(25_000_000_000))
	s.bankKeeper.InitializeAccount(SeedOwner, "uatom", math.NewInt(100_000_000_000))
	s.bankKeeper.InitializeAccount(SeedOwner, "uosmo", math.NewInt(400_000_000_000))

	ctx := s.nextCtx()
	_, err := s.keeper.InitializePool(ctx, lbpkeeper.PoolConfig{
		PoolID:   "genesis-launch",
		Profile:  lbptypes.ProfileBootstrap,
		Denoms:   []string{"ualpha", "uusdc"},
		Balances: []math.Int{math.NewInt(500_000_000_000), math.NewInt(25_000_000_000)},
		Weights: []math.LegacyDec{
			math.LegacyMustNewDecFromStr("0.96"),
			math.LegacyMustNewDecFromStr("0.04"),
		},
		SwapFee:     math.LegacyMustNewDecFromStr("0.01"),
		SwapEnabled: true,
		Owner:       SeedOwner,
	})
	if err != nil {
		return fmt.Errorf("genesis-launch: %w", err)
	}

	// Glide the launch pool toward a balanced pair over three days
	now := ctx.BlockTime().Unix()
	_, err = s.keeper.ScheduleWeightGlide(s.nextCtx(), SeedOwner, "genesis-launch",
		now+10, now+72*3600,
		[]math.LegacyDec{
			math.LegacyMustNewDecFromStr("0.50"),
			math.LegacyMustNewDecFromStr("0.50"),
		},
	)
	if err != nil {
		return fmt.Errorf("genesis-launch glide: %w", err)
	}

	_, err = s.keeper.InitializePool(s.nextCtx(), lbpkeeper.PoolConfig{
		PoolID:   "steady-pair",
		Profile:  lbptypes.ProfileGeneral,
		Denoms:   []string{"uatom", "uosmo"},
		Balances: []math.Int{math.NewInt(100_000_000_000), math.NewInt(400_000_000_000)},
		Weights: []math.LegacyDec{
			math.LegacyMustNewDecFromStr("0.50"),
			math.LegacyMustNewDecFromStr("0.50"),
		},
		SwapFee:     math.LegacyMustNewDecFromStr("0.003"),
		SwapEnabled: true,
		Owner:       SeedOwner,
	})
	if err != nil {
		return fmt.Errorf("steady-pair: %w", err)
	}

	return nil
}

// InitializeTestAccount sets an EXACT balance for one denom on an
// account. The balance is SET (not added) for deterministic tests.
func (s *KeeperService) InitializeTestAccount(address, denom, amount string) error {
	amt, ok := math.NewIntFromString(amount)
	if !ok {
		return fmt.Errorf("invalid amount: %s", amount)
	}
	s.bankKeeper.InitializeAccount(address, denom, amt)
	return nil
}

// AdvanceBlock runs one end blocker pass so glide observations record
// while pools sit idle. The broadcaster calls this on its poll tick.
func (s *KeeperService) AdvanceBlock() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keeper.EndBlocker(s.nextCtx())
}

// ============ PoolService Implementation ============

func (s *KeeperService) ListPools(ctx context.Context, offset, limit uint64) (*types.ListPoolsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sdkCtx := s.readCtx()
	pools, total, err := s.query.Pools(sdkCtx, offset, limit)
	if err != nil {
		return nil, err
	}

	now := sdkCtx.BlockTime().Unix()
	infos := make([]*types.PoolInfo, 0, len(pools))
	for _, pool := range pools {
		infos = append(infos, poolToInfo(pool, now))
	}

	return &types.ListPoolsResponse{Pools: infos, Total: total}, nil
}

func (s *KeeperService) GetPool(ctx context.Context, poolID string) (*types.PoolInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sdkCtx := s.readCtx()
	pool, err := s.query.Pool(sdkCtx, poolID)
	if err != nil {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}
	return poolToInfo(pool, sdkCtx.BlockTime().Unix()), nil
}

func (s *KeeperService) CreatePool(ctx context.Context, req *types.CreatePoolRequest) (*types.CreatePoolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balances, err := parseInts(req.Balances)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}
	weights, err := parseDecs(req.Weights)
	if err != nil {
		return nil, fmt.Errorf("invalid weight: %w", err)
	}
	fee, err := math.LegacyNewDecFromStr(req.SwapFee)
	if err != nil {
		return nil, fmt.Errorf("invalid swap fee: %s", req.SwapFee)
	}

	sdkCtx := s.nextCtx()
	pool, err := s.keeper.InitializePool(sdkCtx, lbpkeeper.PoolConfig{
		PoolID:      req.PoolID,
		Profile:     req.Profile,
		Denoms:      req.Denoms,
		Balances:    balances,
		Weights:     weights,
		SwapFee:     fee,
		SwapEnabled: req.SwapEnabled,
		Owner:       req.Owner,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		return nil, err
	}

	return &types.CreatePoolResponse{Pool: poolToInfo(pool, sdkCtx.BlockTime().Unix())}, nil
}

func (s *KeeperService) SetSwapFee(ctx context.Context, poolID string, req *types.SetFeeRequest) (*types.PoolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fee, err := math.LegacyNewDecFromStr(req.SwapFee)
	if err != nil {
		return nil, fmt.Errorf("invalid swap fee: %s", req.SwapFee)
	}

	sdkCtx := s.nextCtx()
	pool, err := s.keeper.SetSwapFee(sdkCtx, req.Owner, poolID, fee)
	if err != nil {
		return nil, err
	}
	return &types.PoolResponse{Pool: poolToInfo(pool, sdkCtx.BlockTime().Unix())}, nil
}

func (s *KeeperService) SetSwapEnabled(ctx context.Context, poolID string, req *types.SetEnabledRequest) (*types.PoolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sdkCtx := s.nextCtx()
	pool, err := s.keeper.SetSwapEnabled(sdkCtx, req.Owner, poolID, req.Enabled)
	if err != nil {
		return nil, err
	}
	return &types.PoolResponse{Pool: poolToInfo(pool, sdkCtx.BlockTime().Unix())}, nil
}

func (s *KeeperService) ScheduleGlide(ctx context.Context, poolID string, req *types.ScheduleGlideRequest) (*types.PoolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	endWeights, err := parseDecs(req.EndWeights)
	if err != nil {
		return nil, fmt.Errorf("invalid end weight: %w", err)
	}

	sdkCtx := s.nextCtx()
	pool, err := s.keeper.ScheduleWeightGlide(sdkCtx, req.Owner, poolID, req.StartTime, req.EndTime, endWeights)
	if err != nil {
		return nil, err
	}
	return &types.PoolResponse{Pool: poolToInfo(pool, sdkCtx.BlockTime().Unix())}, nil
}

func (s *KeeperService) GetSpotPrice(ctx context.Context, poolID, tokenIn, tokenOut string) (*types.SpotPriceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, err := s.query.SpotPrice(s.readCtx(), poolID, tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}

	return &types.SpotPriceInfo{
		PoolID:    poolID,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		SpotPrice: price.String(),
		Timestamp: nowMillis(),
	}, nil
}

func (s *KeeperService) GetWeights(ctx context.Context, poolID string) (*types.WeightsInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	denoms, weights, err := s.query.NormalizedWeights(s.readCtx(), poolID)
	if err != nil {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}

	return &types.WeightsInfo{
		PoolID:    poolID,
		Denoms:    denoms,
		Weights:   decsToStrings(weights),
		Timestamp: nowMillis(),
	}, nil
}

// ============ TradeService Implementation ============

func (s *KeeperService) Swap(ctx context.Context, req *types.SwapRequest) (*types.SwapResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	amountIn, ok := math.NewIntFromString(req.AmountIn)
	if !ok {
		return nil, fmt.Errorf("invalid amount_in: %s", req.AmountIn)
	}

	// An absent min leaves slippage unchecked
	minAmountOut := math.Int{}
	if req.MinAmountOut != "" {
		minAmountOut, ok = math.NewIntFromString(req.MinAmountOut)
		if !ok {
			return nil, fmt.Errorf("invalid min_amount_out: %s", req.MinAmountOut)
		}
	}

	result, err := s.keeper.Swap(s.nextCtx(), req.Trader, req.PoolID, req.TokenIn, req.TokenOut, amountIn, minAmountOut)
	if err != nil {
		return nil, err
	}

	return &types.SwapResponse{Swap: swapToInfo(result)}, nil
}

func (s *KeeperService) QuoteSwap(ctx context.Context, req *types.QuoteRequest) (*types.QuoteResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	amountIn, ok := math.NewIntFromString(req.AmountIn)
	if !ok {
		return nil, fmt.Errorf("invalid amount_in: %s", req.AmountIn)
	}

	result, err := s.keeper.EstimateSwap(s.readCtx(), req.PoolID, req.TokenIn, req.TokenOut, amountIn)
	if err != nil {
		return nil, err
	}

	return &types.QuoteResponse{Quote: swapToInfo(result)}, nil
}

func (s *KeeperService) GetAccount(ctx context.Context, address string) (*types.AccountInfo, error) {
	balances := s.bankKeeper.Balances(address)
	if balances == nil {
		return nil, fmt.Errorf("account %s not found", address)
	}

	return &types.AccountInfo{
		Address:   address,
		Balances:  balances,
		UpdatedAt: nowMillis(),
	}, nil
}

// ============ HistoryService Implementation ============

func (s *KeeperService) GetObservations(ctx context.Context, poolID, tokenIn, tokenOut string, from, to int64) (*types.PriceHistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	observations, err := s.query.PriceHistory(s.readCtx(), poolID, tokenIn, tokenOut, from, to)
	if err != nil {
		return nil, err
	}

	infos := make([]*types.ObservationInfo, 0, len(observations))
	for _, obs := range observations {
		infos = append(infos, &types.ObservationInfo{
			TokenIn:   obs.TokenIn,
			TokenOut:  obs.TokenOut,
			SpotPrice: obs.SpotPrice.String(),
			Timestamp: obs.Timestamp,
		})
	}

	return &types.PriceHistoryResponse{
		PoolID:       poolID,
		TokenIn:      tokenIn,
		TokenOut:     tokenOut,
		Observations: infos,
	}, nil
}

func (s *KeeperService) GetCandles(ctx context.Context, poolID, tokenIn, tokenOut, interval string, from, to int64, limit int) (*types.CandlesResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candles, err := s.query.Candles(s.readCtx(), poolID, tokenIn, tokenOut, interval, from, to, limit)
	if err != nil {
		return nil, err
	}

	infos := make([]*types.CandleInfo, 0, len(candles))
	for _, candle := range candles {
		infos = append(infos, &types.CandleInfo{
			Timestamp: candle.Timestamp,
			Open:      candle.Open.String(),
			High:      candle.High.String(),
			Low:       candle.Low.String(),
			Close:     candle.Close.String(),
			Volume:    candle.Volume.String(),
			SwapCount: candle.SwapCount,
		})
	}

	return &types.CandlesResponse{
		PoolID:   poolID,
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Interval: interval,
		Candles:  infos,
	}, nil
}

// ============ Conversion Helpers ============

func poolToInfo(pool *lbptypes.Pool, now int64) *types.PoolInfo {
	denorm := pool.CurrentDenormWeights(now)
	normalized := pool.NormalizedWeights(now)

	tokens := make([]types.TokenInfo, len(pool.Tokens))
	for i, token := range pool.Tokens {
		tokens[i] = types.TokenInfo{
			Denom:            token.Denom,
			Balance:          token.Balance.String(),
			DenormWeight:     denorm[i].String(),
			NormalizedWeight: normalized[i].String(),
		}
	}

	return &types.PoolInfo{
		PoolID:      pool.PoolID,
		Profile:     pool.Profile,
		Owner:       pool.Owner,
		Tokens:      tokens,
		SwapFee:     pool.SwapFee.String(),
		SwapEnabled: pool.SwapEnabled,
		GlideActive: pool.GlideActive(now),
		Schedule: &types.ScheduleInfo{
			StartTime:    pool.Schedule.StartTime,
			EndTime:      pool.Schedule.EndTime,
			StartWeights: decsToStrings(pool.Schedule.StartWeights),
			EndWeights:   decsToStrings(pool.Schedule.EndWeights),
		},
		SwapCount: pool.SwapCount,
		CreatedAt: pool.CreatedAt,
		UpdatedAt: pool.UpdatedAt,
	}
}

func swapToInfo(result *lbptypes.SwapResult) *types.SwapInfo {
	return &types.SwapInfo{
		PoolID:          result.PoolID,
		TokenIn:         result.TokenIn,
		TokenOut:        result.TokenOut,
		AmountIn:        result.AmountIn.String(),
		AmountOut:       result.AmountOut.String(),
		FeeAmount:       result.FeeAmount.String(),
		SpotPriceBefore: result.SpotPriceBefore.String(),
		SpotPriceAfter:  result.SpotPriceAfter.String(),
		Timestamp:       result.Timestamp,
	}
}

func decsToStrings(decs []math.LegacyDec) []string {
	out := make([]string, len(decs))
	for i, dec := range decs {
		out[i] = dec.String()
	}
	return out
}

func parseDecs(values []string) ([]math.LegacyDec, error) {
	out := make([]math.LegacyDec, len(values))
	for i, value := range values {
		dec, err := math.LegacyNewDecFromStr(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", value, err)
		}
		out[i] = dec
	}
	return out, nil
}

func parseInts(values []string) ([]math.Int, error) {
	out := make([]math.Int, len(values))
	for i, value := range values {
		amount, ok := math.NewIntFromString(value)
		if !ok {
			return nil, fmt.Errorf("not an integer: %s", value)
		}
		out[i] = amount
	}
	return out, nil
}

// MemoryBankKeeper implements a real in-memory bank keeper for
// standalone mode. Tracks actual balances and enforces real transfers.
type MemoryBankKeeper struct {
	balances map[string]map[string]math.Int // address -> denom -> amount
	modules  map[string]map[string]math.Int // module -> denom -> amount
	mu       sync.RWMutex
}

func NewMemoryBankKeeper() *MemoryBankKeeper {
	return &MemoryBankKeeper{
		balances: make(map[string]map[string]math.Int),
		modules:  make(map[string]map[string]math.Int),
	}
}

// InitializeAccount sets the balance of one denom for an account
func (b *MemoryBankKeeper) InitializeAccount(addr string, denom string, amount math.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balances[addr] == nil {
		b.balances[addr] = make(map[string]math.Int)
	}
	b.balances[addr][denom] = amount
}

// GetBalance returns the balance for an address and denom
func (b *MemoryBankKeeper) GetBalance(addr string, denom string) math.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.balances[addr] == nil {
		return math.ZeroInt()
	}
	bal, ok := b.balances[addr][denom]
	if !ok {
		return math.ZeroInt()
	}
	return bal
}

// Balances returns a copy of every denom an address holds, or nil when
// the account has never been funded
func (b *MemoryBankKeeper) Balances(addr string) map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	account, ok := b.balances[addr]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(account))
	for denom, amount := range account {
		out[denom] = amount.String()
	}
	return out
}

// ModuleBalance returns the balance a module account holds for a denom
func (b *MemoryBankKeeper) ModuleBalance(module string, denom string) math.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.modules[module] == nil {
		return math.ZeroInt()
	}
	bal, ok := b.modules[module][denom]
	if !ok {
		return math.ZeroInt()
	}
	return bal
}

func (b *MemoryBankKeeper) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sender := senderAddr.String()
	if b.balances[sender] == nil {
		return fmt.Errorf("account %s not found", sender)
	}

	for _, coin := range amt {
		currentBal, ok := b.balances[sender][coin.Denom]
		if !ok {
			currentBal = math.ZeroInt()
		}
		if currentBal.LT(coin.Amount) {
			return fmt.Errorf("insufficient balance: have %s, need %s %s", currentBal.String(), coin.Amount.String(), coin.Denom)
		}
		b.balances[sender][coin.Denom] = currentBal.Sub(coin.Amount)

		// Add to module
		if b.modules[recipientModule] == nil {
			b.modules[recipientModule] = make(map[string]math.Int)
		}
		moduleBal, ok := b.modules[recipientModule][coin.Denom]
		if !ok {
			moduleBal = math.ZeroInt()
		}
		b.modules[recipientModule][coin.Denom] = moduleBal.Add(coin.Amount)
	}
	return nil
}

func (b *MemoryBankKeeper) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	recipient := recipientAddr.String()
	if b.modules[senderModule] == nil {
		return fmt.Errorf("module %s not found", senderModule)
	}

	for _, coin := range amt {
		moduleBal, ok := b.modules[senderModule][coin.Denom]
		if !ok {
			moduleBal = math.ZeroInt()
		}
		if moduleBal.LT(coin.Amount) {
			return fmt.Errorf("insufficient module balance")
		}
		b.modules[senderModule][coin.Denom] = moduleBal.Sub(coin.Amount)

		// Add to account
		if b.balances[recipient] == nil {
			b.balances[recipient] = make(map[string]math.Int)
		}
		accountBal, ok := b.balances[recipient][coin.Denom]
		if !ok {
			accountBal = math.ZeroInt()
		}
		b.balances[recipient][coin.Denom] = accountBal.Add(coin.Amount)
	}
	return nil
}
