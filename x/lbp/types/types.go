package types

import (
	"cosmossdk.io/math"
)

// Module name and store key
const (
	ModuleName = "lbp"
	StoreKey   = ModuleName
)

// Weight profiles. A general pool holds 2-4 tokens with per-token weights
// capped at 50%; a bootstrap pool holds exactly two tokens and allows the
// asymmetric starts (up to 99%) a token launch needs.
const (
	ProfileGeneral   = "general"
	ProfileBootstrap = "bootstrap"
)

// Token count limits per profile
const (
	MinPoolTokens        = 2
	MaxPoolTokensGeneral = 4
	BootstrapPoolTokens  = 2
)

// Weight bounds. Weights are 18-decimal fixed point where 1.0 means 100%.
var (
	TotalWeight        = math.LegacyOneDec()
	MinWeight          = math.LegacyMustNewDecFromStr("0.01") // 1%
	MaxWeightGeneral   = math.LegacyMustNewDecFromStr("0.50") // 50%
	MaxWeightBootstrap = math.LegacyMustNewDecFromStr("0.99") // 99%
)

// Swap fee bounds for the admin setter. Initialization additionally
// accepts a zero fee.
var (
	MinSwapFee = math.LegacyMustNewDecFromStr("0.000001") // 0.0001%
	MaxSwapFee = math.LegacyMustNewDecFromStr("0.1")      // 10%
)

// MinInitialBalance is the dust floor enforced on every balance at pool
// creation. Trading may push balances below it afterwards.
var MinInitialBalance = math.NewInt(1_000_000)

// MaxWeightForProfile returns the per-token weight cap for a profile.
func MaxWeightForProfile(profile string) math.LegacyDec {
	if profile == ProfileBootstrap {
		return MaxWeightBootstrap
	}
	return MaxWeightGeneral
}

// ValidTokenCount reports whether a profile admits n pool tokens.
func ValidTokenCount(profile string, n int) bool {
	if profile == ProfileBootstrap {
		return n == BootstrapPoolTokens
	}
	return n >= MinPoolTokens && n <= MaxPoolTokensGeneral
}

// PoolToken is one bound token: its denom, the custodied balance in
// native integer units, and its base weight (the start weight of the
// currently active glide segment).
type PoolToken struct {
	Denom   string         `json:"denom"`
	Balance math.Int       `json:"balance"`
	Weight  math.LegacyDec `json:"weight"`
}

// WeightSchedule is the glide window. It is replaced wholesale on each
// reschedule; start and end weight vectors are index-aligned with the
// pool's token list. A pool with StartTime == EndTime has no active
// glide and holds its end weights.
type WeightSchedule struct {
	StartTime    int64            `json:"start_time"`
	EndTime      int64            `json:"end_time"`
	StartWeights []math.LegacyDec `json:"start_weights"`
	EndWeights   []math.LegacyDec `json:"end_weights"`
}

// Pool is the authoritative record for one liquidity bootstrapping pool.
type Pool struct {
	PoolID      string         `json:"pool_id"`
	Profile     string         `json:"profile"`
	Tokens      []PoolToken    `json:"tokens"`
	SwapFee     math.LegacyDec `json:"swap_fee"`
	SwapEnabled bool           `json:"swap_enabled"`
	Owner       string         `json:"owner"`
	Schedule    WeightSchedule `json:"schedule"`

	// Running totals for stats queries
	SwapCount int64 `json:"swap_count"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// NewPool builds an initialized pool record. Inputs are assumed already
// validated (keeper's ValidatePoolConfig). The initial schedule is flat:
// start and end weights both equal the initial weights, so weights hold
// steady until a glide is scheduled.
func NewPool(poolID, profile string, denoms []string, balances []math.Int, weights []math.LegacyDec, fee math.LegacyDec, enabled bool, owner string, startTime, endTime, now int64) *Pool {
	tokens := make([]PoolToken, len(denoms))
	startWeights := make([]math.LegacyDec, len(weights))
	endWeights := make([]math.LegacyDec, len(weights))
	for i := range denoms {
		tokens[i] = PoolToken{
			Denom:   denoms[i],
			Balance: balances[i],
			Weight:  weights[i],
		}
		startWeights[i] = weights[i]
		endWeights[i] = weights[i]
	}

	return &Pool{
		PoolID:      poolID,
		Profile:     profile,
		Tokens:      tokens,
		SwapFee:     fee,
		SwapEnabled: enabled,
		Owner:       owner,
		Schedule: WeightSchedule{
			StartTime:    startTime,
			EndTime:      endTime,
			StartWeights: startWeights,
			EndWeights:   endWeights,
		},
		SwapCount: 0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TokenIndex returns the index of denom in the token list, or -1.
// Linear scan: pools hold at most four tokens.
func (p *Pool) TokenIndex(denom string) int {
	for i := range p.Tokens {
		if p.Tokens[i].Denom == denom {
			return i
		}
	}
	return -1
}

// HasToken reports whether denom is bound to the pool.
func (p *Pool) HasToken(denom string) bool {
	return p.TokenIndex(denom) >= 0
}

// Denoms returns the pool's token denoms in list order.
func (p *Pool) Denoms() []string {
	denoms := make([]string, len(p.Tokens))
	for i := range p.Tokens {
		denoms[i] = p.Tokens[i].Denom
	}
	return denoms
}

// CurrentDenormWeights evaluates the glide at the given unix time.
// Before the window it returns the start weights, after it the end
// weights, and inside it the per-token linear interpolation
// start + (end-start)*(now-startTime)/(endTime-startTime) with
// multiply-then-divide truncation.
func (p *Pool) CurrentDenormWeights(now int64) []math.LegacyDec {
	s := p.Schedule
	n := len(s.EndWeights)
	weights := make([]math.LegacyDec, n)

	if s.StartTime >= s.EndTime || now >= s.EndTime {
		copy(weights, s.EndWeights)
		return weights
	}
	if now <= s.StartTime {
		copy(weights, s.StartWeights)
		return weights
	}

	elapsed := math.LegacyNewDec(now - s.StartTime)
	window := math.LegacyNewDec(s.EndTime - s.StartTime)
	for i := 0; i < n; i++ {
		delta := s.EndWeights[i].Sub(s.StartWeights[i])
		weights[i] = s.StartWeights[i].Add(delta.Mul(elapsed).QuoTruncate(window))
	}
	return weights
}

// NormalizedWeights divides each current denormalized weight by their
// sum, truncating. The division remainders are not redistributed, so
// the normalized sum can fall short of 1.0 by up to n-1 units of 1e-18.
func (p *Pool) NormalizedWeights(now int64) []math.LegacyDec {
	denorm := p.CurrentDenormWeights(now)

	total := math.LegacyZeroDec()
	for _, w := range denorm {
		total = total.Add(w)
	}
	if total.IsZero() {
		return denorm
	}

	normalized := make([]math.LegacyDec, len(denorm))
	for i, w := range denorm {
		normalized[i] = w.QuoTruncate(total)
	}
	return normalized
}

// GlideActive reports whether a glide segment covers the given time.
func (p *Pool) GlideActive(now int64) bool {
	s := p.Schedule
	return s.StartTime < s.EndTime && now >= s.StartTime && now < s.EndTime
}

// TokenState is the read-model snapshot for a single pool token.
type TokenState struct {
	Denom            string         `json:"denom"`
	Balance          math.Int       `json:"balance"`
	DenormWeight     math.LegacyDec `json:"denorm_weight"`
	NormalizedWeight math.LegacyDec `json:"normalized_weight"`
}

// SwapResult reports a priced or executed swap.
type SwapResult struct {
	PoolID          string         `json:"pool_id"`
	TokenIn         string         `json:"token_in"`
	TokenOut        string         `json:"token_out"`
	AmountIn        math.Int       `json:"amount_in"`
	AmountOut       math.Int       `json:"amount_out"`
	FeeAmount       math.LegacyDec `json:"fee_amount"`
	SpotPriceBefore math.LegacyDec `json:"spot_price_before"`
	SpotPriceAfter  math.LegacyDec `json:"spot_price_after"`
	Timestamp       int64          `json:"timestamp"`
}

// PriceObservation is one recorded spot price, written after each swap
// and by the end blocker while a glide is active.
type PriceObservation struct {
	PoolID    string         `json:"pool_id"`
	TokenIn   string         `json:"token_in"`
	TokenOut  string         `json:"token_out"`
	SpotPrice math.LegacyDec `json:"spot_price"`
	Timestamp int64          `json:"timestamp"`
}

// Candle is an OHLC aggregate of spot-price observations for one
// token pair over one interval bucket.
type Candle struct {
	PoolID    string         `json:"pool_id"`
	TokenIn   string         `json:"token_in"`
	TokenOut  string         `json:"token_out"`
	Interval  string         `json:"interval"`
	Timestamp int64          `json:"timestamp"`
	Open      math.LegacyDec `json:"open"`
	High      math.LegacyDec `json:"high"`
	Low       math.LegacyDec `json:"low"`
	Close     math.LegacyDec `json:"close"`
	Volume    math.LegacyDec `json:"volume"`
	SwapCount int64          `json:"swap_count"`
}

// NewCandle opens a candle at the first observation of its bucket.
func NewCandle(poolID, tokenIn, tokenOut, interval string, timestamp int64, price, volume math.LegacyDec) *Candle {
	return &Candle{
		PoolID:    poolID,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		Interval:  interval,
		Timestamp: timestamp,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    volume,
		SwapCount: 1,
	}
}

// Update folds one more observation into the candle.
func (c *Candle) Update(price, volume math.LegacyDec) {
	if price.GT(c.High) {
		c.High = price
	}
	if price.LT(c.Low) {
		c.Low = price
	}
	c.Close = price
	c.Volume = c.Volume.Add(volume)
	c.SwapCount++
}
