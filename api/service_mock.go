package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cosmossdk.io/math"

	"github.com/openalpha/lbp-dex/api/types"
)

// MockService implements all service interfaces with mock data.
// Prices follow the linear spot formula without the swap invariant, so
// numbers look right for UI work but are NOT the real pricing engine.
type MockService struct {
	pools        map[string]*mockPool
	accounts     map[string]map[string]math.Int
	observations map[string][]*types.ObservationInfo // key: poolID:tokenIn:tokenOut
	mu           sync.RWMutex
	poolSeq      int64
}

// mockPool holds parsed pool state so swap math avoids re-parsing strings
type mockPool struct {
	poolID      string
	profile     string
	owner       string
	denoms      []string
	balances    []math.LegacyDec
	weights     []math.LegacyDec
	endWeights  []math.LegacyDec
	startTime   int64
	endTime     int64
	swapFee     math.LegacyDec
	swapEnabled bool
	swapCount   int64
	createdAt   int64
	updatedAt   int64
}

// NewMockService creates a new mock service
func NewMockService() *MockService {
	ms := &MockService{
		pools:        make(map[string]*mockPool),
		accounts:     make(map[string]map[string]math.Int),
		observations: make(map[string][]*types.ObservationInfo),
	}
	ms.initMockData()
	return ms
}

// initMockData seeds one demo launch so the UI has a pool to render.
// Everything else comes from user actions.
func (ms *MockService) initMockData() {
	now := time.Now().Unix()
	ms.pools["demo-launch"] = &mockPool{
		poolID:  "demo-launch",
		profile: "bootstrap",
		owner:   "mock-owner",
		denoms:  []string{"ualpha", "uusdc"},
		balances: []math.LegacyDec{
			math.LegacyNewDec(500_000_000_000),
			math.LegacyNewDec(25_000_000_000),
		},
		weights: []math.LegacyDec{
			math.LegacyMustNewDecFromStr("0.96"),
			math.LegacyMustNewDecFromStr("0.04"),
		},
		endWeights: []math.LegacyDec{
			math.LegacyMustNewDecFromStr("0.50"),
			math.LegacyMustNewDecFromStr("0.50"),
		},
		startTime:   now,
		endTime:     now + 72*3600,
		swapFee:     math.LegacyMustNewDecFromStr("0.01"),
		swapEnabled: true,
		createdAt:   types.NowMillis(),
		updatedAt:   types.NowMillis(),
	}
}

// currentWeights interpolates linearly inside the glide window
func (p *mockPool) currentWeights(now int64) []math.LegacyDec {
	if p.endWeights == nil || now <= p.startTime || p.startTime >= p.endTime {
		return p.weights
	}
	if now >= p.endTime {
		return p.endWeights
	}
	elapsed := math.LegacyNewDec(now - p.startTime)
	duration := math.LegacyNewDec(p.endTime - p.startTime)
	out := make([]math.LegacyDec, len(p.weights))
	for i := range p.weights {
		delta := p.endWeights[i].Sub(p.weights[i])
		out[i] = p.weights[i].Add(delta.Mul(elapsed).Quo(duration))
	}
	return out
}

func (p *mockPool) tokenIndex(denom string) int {
	for i, d := range p.denoms {
		if d == denom {
			return i
		}
	}
	return -1
}

// spotPrice returns tokenOut priced in tokenIn units
func (p *mockPool) spotPrice(idxIn, idxOut int, now int64) math.LegacyDec {
	weights := p.currentWeights(now)
	numerator := p.balances[idxIn].Mul(weights[idxOut])
	denominator := p.balances[idxOut].Mul(weights[idxIn])
	if denominator.IsZero() {
		return math.LegacyZeroDec()
	}
	return numerator.Quo(denominator)
}

func (p *mockPool) toInfo(now int64) *types.PoolInfo {
	weights := p.currentWeights(now)
	total := math.LegacyZeroDec()
	for _, w := range weights {
		total = total.Add(w)
	}

	tokens := make([]types.TokenInfo, len(p.denoms))
	for i, denom := range p.denoms {
		normalized := weights[i]
		if !total.IsZero() {
			normalized = weights[i].Quo(total)
		}
		tokens[i] = types.TokenInfo{
			Denom:            denom,
			Balance:          p.balances[i].TruncateInt().String(),
			DenormWeight:     weights[i].String(),
			NormalizedWeight: normalized.String(),
		}
	}

	endWeights := p.endWeights
	if endWeights == nil {
		endWeights = p.weights
	}

	return &types.PoolInfo{
		PoolID:      p.poolID,
		Profile:     p.profile,
		Owner:       p.owner,
		Tokens:      tokens,
		SwapFee:     p.swapFee.String(),
		SwapEnabled: p.swapEnabled,
		GlideActive: p.endWeights != nil && now >= p.startTime && now < p.endTime,
		Schedule: &types.ScheduleInfo{
			StartTime:    p.startTime,
			EndTime:      p.endTime,
			StartWeights: decsToStrings(p.weights),
			EndWeights:   decsToStrings(endWeights),
		},
		SwapCount: p.swapCount,
		CreatedAt: p.createdAt,
		UpdatedAt: p.updatedAt,
	}
}

// ============ PoolService Implementation ============

func (ms *MockService) ListPools(ctx context.Context, offset, limit uint64) (*types.ListPoolsResponse, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	ids := make([]string, 0, len(ms.pools))
	for id := range ms.pools {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	total := uint64(len(ids))
	if offset >= total {
		return &types.ListPoolsResponse{Pools: []*types.PoolInfo{}, Total: total}, nil
	}
	end := offset + limit
	if end > total || limit == 0 {
		end = total
	}

	now := time.Now().Unix()
	infos := make([]*types.PoolInfo, 0, end-offset)
	for _, id := range ids[offset:end] {
		infos = append(infos, ms.pools[id].toInfo(now))
	}
	return &types.ListPoolsResponse{Pools: infos, Total: total}, nil
}

func (ms *MockService) GetPool(ctx context.Context, poolID string) (*types.PoolInfo, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	pool, ok := ms.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}
	return pool.toInfo(time.Now().Unix()), nil
}

func (ms *MockService) CreatePool(ctx context.Context, req *types.CreatePoolRequest) (*types.CreatePoolResponse, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if len(req.Denoms) < 2 {
		return nil, fmt.Errorf("at least two denoms required")
	}
	if len(req.Balances) != len(req.Denoms) || len(req.Weights) != len(req.Denoms) {
		return nil, fmt.Errorf("denoms, balances and weights must align")
	}

	poolID := req.PoolID
	if poolID == "" {
		ms.poolSeq++
		poolID = fmt.Sprintf("pool-%d", ms.poolSeq)
	}
	if _, exists := ms.pools[poolID]; exists {
		return nil, fmt.Errorf("pool already exists: %s", poolID)
	}

	balances := make([]math.LegacyDec, len(req.Balances))
	for i, value := range req.Balances {
		amount, ok := math.NewIntFromString(value)
		if !ok {
			return nil, fmt.Errorf("invalid balance: %s", value)
		}
		balances[i] = math.LegacyNewDecFromInt(amount)
	}
	weights, err := parseDecs(req.Weights)
	if err != nil {
		return nil, fmt.Errorf("invalid weight: %w", err)
	}
	fee, err := math.LegacyNewDecFromStr(req.SwapFee)
	if err != nil {
		return nil, fmt.Errorf("invalid swap fee: %s", req.SwapFee)
	}

	now := types.NowMillis()
	pool := &mockPool{
		poolID:      poolID,
		profile:     req.Profile,
		owner:       req.Owner,
		denoms:      req.Denoms,
		balances:    balances,
		weights:     weights,
		startTime:   req.StartTime,
		endTime:     req.EndTime,
		swapFee:     fee,
		swapEnabled: req.SwapEnabled,
		createdAt:   now,
		updatedAt:   now,
	}
	ms.pools[poolID] = pool

	return &types.CreatePoolResponse{Pool: pool.toInfo(time.Now().Unix())}, nil
}

func (ms *MockService) SetSwapFee(ctx context.Context, poolID string, req *types.SetFeeRequest) (*types.PoolResponse, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	pool, ok := ms.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}
	if pool.owner != req.Owner {
		return nil, fmt.Errorf("unauthorized: pool belongs to different owner")
	}

	fee, err := math.LegacyNewDecFromStr(req.SwapFee)
	if err != nil {
		return nil, fmt.Errorf("invalid swap fee: %s", req.SwapFee)
	}
	pool.swapFee = fee
	pool.updatedAt = types.NowMillis()

	return &types.PoolResponse{Pool: pool.toInfo(time.Now().Unix())}, nil
}

func (ms *MockService) SetSwapEnabled(ctx context.Context, poolID string, req *types.SetEnabledRequest) (*types.PoolResponse, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	pool, ok := ms.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}
	if pool.owner != req.Owner {
		return nil, fmt.Errorf("unauthorized: pool belongs to different owner")
	}

	pool.swapEnabled = req.Enabled
	pool.updatedAt = types.NowMillis()

	return &types.PoolResponse{Pool: pool.toInfo(time.Now().Unix())}, nil
}

func (ms *MockService) ScheduleGlide(ctx context.Context, poolID string, req *types.ScheduleGlideRequest) (*types.PoolResponse, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	pool, ok := ms.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}
	if pool.owner != req.Owner {
		return nil, fmt.Errorf("unauthorized: pool belongs to different owner")
	}
	if req.EndTime <= req.StartTime {
		return nil, fmt.Errorf("end_time must be after start_time")
	}
	endWeights, err := parseDecs(req.EndWeights)
	if err != nil {
		return nil, fmt.Errorf("invalid end weight: %w", err)
	}
	if len(endWeights) != len(pool.denoms) {
		return nil, fmt.Errorf("end_weights must cover every pool token")
	}

	// Freeze the current weights as the glide start
	pool.weights = pool.currentWeights(time.Now().Unix())
	pool.endWeights = endWeights
	pool.startTime = req.StartTime
	pool.endTime = req.EndTime
	pool.updatedAt = types.NowMillis()

	return &types.PoolResponse{Pool: pool.toInfo(time.Now().Unix())}, nil
}

func (ms *MockService) GetSpotPrice(ctx context.Context, poolID, tokenIn, tokenOut string) (*types.SpotPriceInfo, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	pool, ok := ms.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}
	idxIn := pool.tokenIndex(tokenIn)
	idxOut := pool.tokenIndex(tokenOut)
	if idxIn < 0 || idxOut < 0 {
		return nil, fmt.Errorf("unknown token")
	}
	if idxIn == idxOut {
		return nil, fmt.Errorf("token_in and token_out must differ")
	}

	return &types.SpotPriceInfo{
		PoolID:    poolID,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		SpotPrice: pool.spotPrice(idxIn, idxOut, time.Now().Unix()).String(),
		Timestamp: types.NowMillis(),
	}, nil
}

func (ms *MockService) GetWeights(ctx context.Context, poolID string) (*types.WeightsInfo, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	pool, ok := ms.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}

	weights := pool.currentWeights(time.Now().Unix())
	total := math.LegacyZeroDec()
	for _, w := range weights {
		total = total.Add(w)
	}
	normalized := make([]string, len(weights))
	for i, w := range weights {
		if total.IsZero() {
			normalized[i] = w.String()
			continue
		}
		normalized[i] = w.Quo(total).String()
	}

	return &types.WeightsInfo{
		PoolID:    poolID,
		Denoms:    pool.denoms,
		Weights:   normalized,
		Timestamp: types.NowMillis(),
	}, nil
}

// ============ TradeService Implementation ============

func (ms *MockService) Swap(ctx context.Context, req *types.SwapRequest) (*types.SwapResponse, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	pool, ok := ms.pools[req.PoolID]
	if !ok {
		return nil, fmt.Errorf("pool not found: %s", req.PoolID)
	}
	if !pool.swapEnabled {
		return nil, fmt.Errorf("swaps disabled for pool: %s", req.PoolID)
	}
	idxIn := pool.tokenIndex(req.TokenIn)
	idxOut := pool.tokenIndex(req.TokenOut)
	if idxIn < 0 || idxOut < 0 {
		return nil, fmt.Errorf("unknown token")
	}
	if idxIn == idxOut {
		return nil, fmt.Errorf("token_in and token_out must differ")
	}

	amountIn, ok := math.NewIntFromString(req.AmountIn)
	if !ok || !amountIn.IsPositive() {
		return nil, fmt.Errorf("invalid amount_in: %s", req.AmountIn)
	}

	now := time.Now().Unix()
	spotBefore := pool.spotPrice(idxIn, idxOut, now)
	if spotBefore.IsZero() {
		return nil, fmt.Errorf("pool has no liquidity for pair")
	}

	// Linear fill at spot after fee. NOTE: no swap invariant, so large
	// trades do not see slippage the way the real keeper prices them.
	amountInDec := math.LegacyNewDecFromInt(amountIn)
	feeAmount := amountInDec.Mul(pool.swapFee)
	effectiveIn := amountInDec.Sub(feeAmount)
	amountOut := effectiveIn.Quo(spotBefore).TruncateInt()

	if req.MinAmountOut != "" {
		minOut, ok := math.NewIntFromString(req.MinAmountOut)
		if ok && minOut.IsPositive() && amountOut.LT(minOut) {
			return nil, fmt.Errorf("slippage: amount out %s below minimum %s", amountOut.String(), minOut.String())
		}
	}

	pool.balances[idxIn] = pool.balances[idxIn].Add(amountInDec)
	pool.balances[idxOut] = pool.balances[idxOut].Sub(math.LegacyNewDecFromInt(amountOut))
	pool.swapCount++
	pool.updatedAt = types.NowMillis()

	// Credit the trader account if one exists
	if account, ok := ms.accounts[req.Trader]; ok {
		inBal, ok := account[req.TokenIn]
		if !ok {
			inBal = math.ZeroInt()
		}
		account[req.TokenIn] = inBal.Sub(amountIn)
		outBal, ok := account[req.TokenOut]
		if !ok {
			outBal = math.ZeroInt()
		}
		account[req.TokenOut] = outBal.Add(amountOut)
	}

	spotAfter := pool.spotPrice(idxIn, idxOut, now)

	key := req.PoolID + ":" + req.TokenIn + ":" + req.TokenOut
	ms.observations[key] = append(ms.observations[key], &types.ObservationInfo{
		TokenIn:   req.TokenIn,
		TokenOut:  req.TokenOut,
		SpotPrice: spotAfter.String(),
		Timestamp: now,
	})

	return &types.SwapResponse{Swap: &types.SwapInfo{
		PoolID:          req.PoolID,
		TokenIn:         req.TokenIn,
		TokenOut:        req.TokenOut,
		AmountIn:        amountIn.String(),
		AmountOut:       amountOut.String(),
		FeeAmount:       feeAmount.String(),
		SpotPriceBefore: spotBefore.String(),
		SpotPriceAfter:  spotAfter.String(),
		Timestamp:       now,
	}}, nil
}

func (ms *MockService) QuoteSwap(ctx context.Context, req *types.QuoteRequest) (*types.QuoteResponse, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	pool, ok := ms.pools[req.PoolID]
	if !ok {
		return nil, fmt.Errorf("pool not found: %s", req.PoolID)
	}
	idxIn := pool.tokenIndex(req.TokenIn)
	idxOut := pool.tokenIndex(req.TokenOut)
	if idxIn < 0 || idxOut < 0 {
		return nil, fmt.Errorf("unknown token")
	}
	if idxIn == idxOut {
		return nil, fmt.Errorf("token_in and token_out must differ")
	}

	amountIn, ok := math.NewIntFromString(req.AmountIn)
	if !ok || !amountIn.IsPositive() {
		return nil, fmt.Errorf("invalid amount_in: %s", req.AmountIn)
	}

	now := time.Now().Unix()
	spot := pool.spotPrice(idxIn, idxOut, now)
	if spot.IsZero() {
		return nil, fmt.Errorf("pool has no liquidity for pair")
	}

	amountInDec := math.LegacyNewDecFromInt(amountIn)
	feeAmount := amountInDec.Mul(pool.swapFee)
	amountOut := amountInDec.Sub(feeAmount).Quo(spot).TruncateInt()

	return &types.QuoteResponse{Quote: &types.SwapInfo{
		PoolID:          req.PoolID,
		TokenIn:         req.TokenIn,
		TokenOut:        req.TokenOut,
		AmountIn:        amountIn.String(),
		AmountOut:       amountOut.String(),
		FeeAmount:       feeAmount.String(),
		SpotPriceBefore: spot.String(),
		SpotPriceAfter:  spot.String(),
		Timestamp:       now,
	}}, nil
}

func (ms *MockService) GetAccount(ctx context.Context, address string) (*types.AccountInfo, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	account, ok := ms.accounts[address]
	if !ok {
		// Return an empty account for new traders
		return &types.AccountInfo{
			Address:   address,
			Balances:  map[string]string{},
			UpdatedAt: types.NowMillis(),
		}, nil
	}

	balances := make(map[string]string, len(account))
	for denom, amount := range account {
		balances[denom] = amount.String()
	}
	return &types.AccountInfo{
		Address:   address,
		Balances:  balances,
		UpdatedAt: types.NowMillis(),
	}, nil
}

// InitializeTestAccount sets an exact balance for one denom
func (ms *MockService) InitializeTestAccount(address, denom, amount string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	amt, ok := math.NewIntFromString(amount)
	if !ok {
		return fmt.Errorf("invalid amount: %s", amount)
	}
	if ms.accounts[address] == nil {
		ms.accounts[address] = make(map[string]math.Int)
	}
	ms.accounts[address][denom] = amt
	return nil
}

// ============ HistoryService Implementation ============

func (ms *MockService) GetObservations(ctx context.Context, poolID, tokenIn, tokenOut string, from, to int64) (*types.PriceHistoryResponse, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if _, ok := ms.pools[poolID]; !ok {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}

	key := poolID + ":" + tokenIn + ":" + tokenOut
	infos := make([]*types.ObservationInfo, 0)
	for _, obs := range ms.observations[key] {
		if from > 0 && obs.Timestamp < from {
			continue
		}
		if to > 0 && obs.Timestamp > to {
			continue
		}
		infos = append(infos, obs)
	}

	return &types.PriceHistoryResponse{
		PoolID:       poolID,
		TokenIn:      tokenIn,
		TokenOut:     tokenOut,
		Observations: infos,
	}, nil
}

// mockIntervals maps candle interval names to bucket seconds
var mockIntervals = map[string]int64{
	"1m":  60,
	"5m":  300,
	"15m": 900,
	"1h":  3600,
	"4h":  14400,
	"1d":  86400,
}

func (ms *MockService) GetCandles(ctx context.Context, poolID, tokenIn, tokenOut, interval string, from, to int64, limit int) (*types.CandlesResponse, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if _, ok := ms.pools[poolID]; !ok {
		return nil, fmt.Errorf("pool not found: %s", poolID)
	}
	bucketSize, ok := mockIntervals[interval]
	if !ok {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	// Bucket stored observations into OHLC candles
	key := poolID + ":" + tokenIn + ":" + tokenOut
	var candles []*types.CandleInfo
	var current *types.CandleInfo
	var currentBucket int64 = -1
	for _, obs := range ms.observations[key] {
		if from > 0 && obs.Timestamp < from {
			continue
		}
		if to > 0 && obs.Timestamp > to {
			continue
		}
		bucket := obs.Timestamp - (obs.Timestamp % bucketSize)
		if bucket != currentBucket {
			current = &types.CandleInfo{
				Timestamp: bucket,
				Open:      obs.SpotPrice,
				High:      obs.SpotPrice,
				Low:       obs.SpotPrice,
				Close:     obs.SpotPrice,
				Volume:    "0",
			}
			candles = append(candles, current)
			currentBucket = bucket
		}
		high, _ := math.LegacyNewDecFromStr(current.High)
		low, _ := math.LegacyNewDecFromStr(current.Low)
		price, err := math.LegacyNewDecFromStr(obs.SpotPrice)
		if err == nil {
			if price.GT(high) {
				current.High = obs.SpotPrice
			}
			if price.LT(low) {
				current.Low = obs.SpotPrice
			}
		}
		current.Close = obs.SpotPrice
		current.SwapCount++
	}

	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	return &types.CandlesResponse{
		PoolID:   poolID,
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Interval: interval,
		Candles:  candles,
	}, nil
}
