package keeper

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// TestCandleIntervals tests interval validity and bucket lengths
func TestCandleIntervals(t *testing.T) {
	for _, interval := range AllCandleIntervals {
		if !ValidCandleInterval(string(interval)) {
			t.Errorf("expected %s to be valid", interval)
		}
	}
	for _, bad := range []string{"30m", "2h", "1w", ""} {
		if ValidCandleInterval(bad) {
			t.Errorf("expected %s to be invalid", bad)
		}
	}

	if Candle5m.Duration() != 5*time.Minute {
		t.Errorf("expected 5m duration, got %s", Candle5m.Duration())
	}
	if Candle1d.Duration() != 24*time.Hour {
		t.Errorf("expected 24h duration, got %s", Candle1d.Duration())
	}
}

// TestRecordAndLatestObservation tests the newest-price lookup across
// counter tokens
func TestRecordAndLatestObservation(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	cfg := generalPoolConfig(owner)
	cfg.Denoms = []string{"ua", "ub", "uc"}
	cfg.Balances = repeatInt(math.NewInt(1_000_000_000), 3)
	cfg.Weights = []math.LegacyDec{
		math.LegacyMustNewDecFromStr("0.4"),
		math.LegacyMustNewDecFromStr("0.3"),
		math.LegacyMustNewDecFromStr("0.3"),
	}
	pool, err := keeper.InitializePool(ctx, cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	now := testBlockTime.Unix()
	keeper.RecordObservation(ctx, &types.PriceObservation{
		PoolID: pool.PoolID, TokenIn: "ua", TokenOut: "uc",
		SpotPrice: math.LegacyMustNewDecFromStr("1.5"), Timestamp: now,
	}, math.LegacyZeroDec())
	keeper.RecordObservation(ctx, &types.PriceObservation{
		PoolID: pool.PoolID, TokenIn: "ub", TokenOut: "uc",
		SpotPrice: math.LegacyMustNewDecFromStr("1.7"), Timestamp: now + 5,
	}, math.LegacyZeroDec())

	// The newest quote wins regardless of which counter token priced it
	latest := keeper.GetLatestObservation(ctx, pool, "uc")
	if latest == nil {
		t.Fatal("expected observation")
	}
	if latest.Timestamp != now+5 || latest.TokenIn != "ub" {
		t.Errorf("expected newest quote from ub at %d, got %s at %d", now+5, latest.TokenIn, latest.Timestamp)
	}
	if !latest.SpotPrice.Equal(math.LegacyMustNewDecFromStr("1.7")) {
		t.Errorf("expected price 1.7, got %s", latest.SpotPrice.String())
	}

	// A newer quote on the first pair takes over
	keeper.RecordObservation(ctx, &types.PriceObservation{
		PoolID: pool.PoolID, TokenIn: "ua", TokenOut: "uc",
		SpotPrice: math.LegacyMustNewDecFromStr("1.9"), Timestamp: now + 9,
	}, math.LegacyZeroDec())
	latest = keeper.GetLatestObservation(ctx, pool, "uc")
	if latest.Timestamp != now+9 || latest.TokenIn != "ua" {
		t.Errorf("expected newest quote from ua at %d, got %s at %d", now+9, latest.TokenIn, latest.Timestamp)
	}

	// No observations for a token that was never priced
	if keeper.GetLatestObservation(ctx, pool, "ua") != nil {
		t.Error("expected nil for unpriced token")
	}
}

// TestGetObservationsWindow tests windowed pair history
func TestGetObservationsWindow(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	pool, err := keeper.InitializePool(ctx, generalPoolConfig(owner))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	now := testBlockTime.Unix()
	for i := int64(0); i < 5; i++ {
		keeper.RecordObservation(ctx, &types.PriceObservation{
			PoolID: pool.PoolID, TokenIn: "ureserve", TokenOut: "ulaunch",
			SpotPrice: math.LegacyNewDec(i + 1), Timestamp: now + i,
		}, math.LegacyZeroDec())
	}

	observations := keeper.GetObservations(ctx, pool.PoolID, "ureserve", "ulaunch", now+1, now+3, 10)
	if len(observations) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(observations))
	}
	for i, observation := range observations {
		if observation.Timestamp != now+1+int64(i) {
			t.Errorf("expected chronological order, got timestamp %d at index %d", observation.Timestamp, i)
		}
	}

	// A tight limit keeps the newest entries
	observations = keeper.GetObservations(ctx, pool.PoolID, "ureserve", "ulaunch", now, now+4, 2)
	if len(observations) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(observations))
	}
	if observations[0].Timestamp != now+3 || observations[1].Timestamp != now+4 {
		t.Errorf("expected newest two in order, got %d and %d", observations[0].Timestamp, observations[1].Timestamp)
	}

	// The reversed pair key sees nothing
	if got := keeper.GetObservations(ctx, pool.PoolID, "ulaunch", "ureserve", now, now+4, 10); len(got) != 0 {
		t.Errorf("expected no observations for reversed pair, got %d", len(got))
	}
}

// TestObservationRangeIndex tests that the in-memory index and the
// store walk agree
func TestObservationRangeIndex(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	pool, err := keeper.InitializePool(ctx, generalPoolConfig(owner))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	now := testBlockTime.Unix()
	for i := int64(0); i < 50; i++ {
		observation := &types.PriceObservation{
			PoolID: pool.PoolID, TokenIn: "ureserve", TokenOut: "ulaunch",
			SpotPrice: math.LegacyNewDec(i + 1), Timestamp: now + i*10,
		}
		keeper.RecordObservation(ctx, observation, math.LegacyZeroDec())
		if i%2 == 0 {
			// Half arrive through the post-commit warm path
			keeper.indexObservation(observation)
		}
	}

	from, to := now+100, now+300
	indexed := keeper.GetObservationsRange(ctx, pool.PoolID, "ureserve", "ulaunch", from, to)
	scanned := keeper.scanObservationsRange(ctx, pool.PoolID, "ureserve", "ulaunch", from, to)

	if len(indexed) != len(scanned) {
		t.Fatalf("index returned %d, scan returned %d", len(indexed), len(scanned))
	}
	if len(indexed) != 21 {
		t.Fatalf("expected 21 observations in range, got %d", len(indexed))
	}
	for i := range indexed {
		if indexed[i].Timestamp != scanned[i].Timestamp {
			t.Errorf("index and scan disagree at %d: %d vs %d", i, indexed[i].Timestamp, scanned[i].Timestamp)
		}
		if !indexed[i].SpotPrice.Equal(scanned[i].SpotPrice) {
			t.Errorf("index and scan price disagree at %d", i)
		}
	}

	// A second query is served warm and stays consistent
	again := keeper.GetObservationsRange(ctx, pool.PoolID, "ureserve", "ulaunch", from, to)
	if len(again) != len(indexed) {
		t.Errorf("warm query returned %d, expected %d", len(again), len(indexed))
	}

	// An unbounded window returns everything in order
	all := keeper.GetObservationsRange(ctx, pool.PoolID, "ureserve", "ulaunch", 0, now+1000)
	if len(all) != 50 {
		t.Fatalf("expected 50 observations, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Timestamp <= all[i-1].Timestamp {
			t.Fatal("expected strictly ascending timestamps")
		}
	}
}

// TestCandleAggregation tests OHLC folding across buckets and intervals
func TestCandleAggregation(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	pool, err := keeper.InitializePool(ctx, generalPoolConfig(owner))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	type tick struct {
		offset time.Duration
		price  string
		volume int64
	}
	ticks := []tick{
		{0, "1.0", 10},
		{10 * time.Second, "1.5", 5},
		{30 * time.Second, "0.8", 2},
		{50 * time.Second, "2.0", 1}, // crosses into the next minute
	}
	for _, tk := range ticks {
		tickCtx := ctx.WithBlockTime(testBlockTime.Add(tk.offset))
		keeper.UpdateCandles(tickCtx, pool.PoolID, "ureserve", "ulaunch",
			math.LegacyMustNewDecFromStr(tk.price), math.LegacyNewDec(tk.volume))
	}

	firstBucket := candleTimestamp(testBlockTime, Candle1m)
	candle := keeper.GetCandle(ctx, pool.PoolID, "ureserve", "ulaunch", Candle1m, firstBucket)
	if candle == nil {
		t.Fatal("expected first 1m candle")
	}
	if !candle.Open.Equal(math.LegacyMustNewDecFromStr("1.0")) {
		t.Errorf("expected open 1.0, got %s", candle.Open.String())
	}
	if !candle.High.Equal(math.LegacyMustNewDecFromStr("1.5")) {
		t.Errorf("expected high 1.5, got %s", candle.High.String())
	}
	if !candle.Low.Equal(math.LegacyMustNewDecFromStr("0.8")) {
		t.Errorf("expected low 0.8, got %s", candle.Low.String())
	}
	if !candle.Close.Equal(math.LegacyMustNewDecFromStr("0.8")) {
		t.Errorf("expected close 0.8, got %s", candle.Close.String())
	}
	if !candle.Volume.Equal(math.LegacyNewDec(17)) {
		t.Errorf("expected volume 17, got %s", candle.Volume.String())
	}
	if candle.SwapCount != 3 {
		t.Errorf("expected 3 swaps in candle, got %d", candle.SwapCount)
	}

	secondBucket := candleTimestamp(testBlockTime.Add(50*time.Second), Candle1m)
	if secondBucket == firstBucket {
		t.Fatal("expected the last tick to open a new minute bucket")
	}
	next := keeper.GetCandle(ctx, pool.PoolID, "ureserve", "ulaunch", Candle1m, secondBucket)
	if next == nil {
		t.Fatal("expected second 1m candle")
	}
	if !next.Open.Equal(math.LegacyMustNewDecFromStr("2.0")) || next.SwapCount != 1 {
		t.Errorf("expected fresh candle open 2.0 with one swap, got %s with %d", next.Open.String(), next.SwapCount)
	}

	// The hour candle folds all four ticks
	hourBucket := candleTimestamp(testBlockTime, Candle1h)
	hour := keeper.GetCandle(ctx, pool.PoolID, "ureserve", "ulaunch", Candle1h, hourBucket)
	if hour == nil {
		t.Fatal("expected 1h candle")
	}
	if !hour.High.Equal(math.LegacyMustNewDecFromStr("2.0")) || !hour.Low.Equal(math.LegacyMustNewDecFromStr("0.8")) {
		t.Errorf("expected 1h high 2.0 low 0.8, got %s and %s", hour.High.String(), hour.Low.String())
	}
	if !hour.Close.Equal(math.LegacyMustNewDecFromStr("2.0")) {
		t.Errorf("expected 1h close 2.0, got %s", hour.Close.String())
	}
	if !hour.Volume.Equal(math.LegacyNewDec(18)) {
		t.Errorf("expected 1h volume 18, got %s", hour.Volume.String())
	}

	// Chronological listing over both minute buckets
	candles := keeper.GetCandles(ctx, pool.PoolID, "ureserve", "ulaunch", Candle1m, firstBucket, secondBucket, 100)
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].Timestamp != firstBucket || candles[1].Timestamp != secondBucket {
		t.Errorf("expected chronological candles, got %d then %d", candles[0].Timestamp, candles[1].Timestamp)
	}
}
