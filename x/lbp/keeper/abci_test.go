package keeper

import (
	"testing"
	"time"

	"cosmossdk.io/math"
)

// TestEndBlockerFinalizesGlide tests that a closed glide window pins
// the base weights at the end weights exactly once
func TestEndBlockerFinalizesGlide(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	pool, err := keeper.InitializePool(ctx, bootstrapPoolConfig(owner))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	now := testBlockTime.Unix()
	if _, err := keeper.ScheduleWeightGlide(ctx, owner, pool.PoolID, now+100, now+200, halfHalf()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	afterCtx := ctx.WithBlockTime(testBlockTime.Add(300 * time.Second))
	if err := keeper.EndBlocker(afterCtx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	stored := keeper.GetPool(afterCtx, pool.PoolID)
	if !stored.Tokens[0].Weight.Equal(math.LegacyMustNewDecFromStr("0.5")) {
		t.Errorf("expected finalized weight 0.5, got %s", stored.Tokens[0].Weight.String())
	}
	if !stored.Tokens[1].Weight.Equal(math.LegacyMustNewDecFromStr("0.5")) {
		t.Errorf("expected finalized weight 0.5, got %s", stored.Tokens[1].Weight.String())
	}
	if stored.UpdatedAt != now+300 {
		t.Errorf("expected updated at %d, got %d", now+300, stored.UpdatedAt)
	}
	if countEvents(ctx, "weight_glide_completed") != 1 {
		t.Errorf("expected one completion event, got %d", countEvents(ctx, "weight_glide_completed"))
	}

	// A second pass finds nothing left to finalize
	laterCtx := ctx.WithBlockTime(testBlockTime.Add(400 * time.Second))
	if err := keeper.EndBlocker(laterCtx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if countEvents(ctx, "weight_glide_completed") != 1 {
		t.Errorf("expected completion to stay at one event, got %d", countEvents(ctx, "weight_glide_completed"))
	}
}

// TestEndBlockerGlideStep tests step events and swapless observations
// during an active window
func TestEndBlockerGlideStep(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	pool, err := keeper.InitializePool(ctx, bootstrapPoolConfig(owner))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	now := testBlockTime.Unix()
	if _, err := keeper.ScheduleWeightGlide(ctx, owner, pool.PoolID, now+100, now+300, halfHalf()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	midCtx := ctx.WithBlockTime(testBlockTime.Add(200 * time.Second))
	if err := keeper.EndBlocker(midCtx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !hasEvent(ctx, "weight_glide_step") {
		t.Error("expected weight_glide_step event")
	}
	if !hasEvent(ctx, "lbp_endblock") {
		t.Error("expected lbp_endblock event")
	}

	// Both ordered pairs got a swapless observation at the mid weights
	stored := keeper.GetPool(midCtx, pool.PoolID)
	launchObs := keeper.GetLatestObservation(midCtx, stored, "ulaunch")
	if launchObs == nil {
		t.Fatal("expected launch observation")
	}
	// Equal balances, weights 0.73 / 0.27: price of launch in reserve
	wantLaunch := math.LegacyMustNewDecFromStr("0.73").Quo(math.LegacyMustNewDecFromStr("0.27"))
	diff := launchObs.SpotPrice.Sub(wantLaunch).Abs()
	if diff.GT(math.LegacyMustNewDecFromStr("0.000000000000000002")) {
		t.Errorf("expected launch price near %s, got %s", wantLaunch.String(), launchObs.SpotPrice.String())
	}
	if launchObs.Timestamp != now+200 {
		t.Errorf("expected observation at %d, got %d", now+200, launchObs.Timestamp)
	}

	reserveObs := keeper.GetLatestObservation(midCtx, stored, "ureserve")
	if reserveObs == nil {
		t.Fatal("expected reserve observation")
	}

	// Swapless observations never build candles
	bucket := candleTimestamp(midCtx.BlockTime(), Candle1m)
	if keeper.GetCandle(midCtx, pool.PoolID, "ureserve", "ulaunch", Candle1m, bucket) != nil {
		t.Error("expected no candle from a swapless observation")
	}

	// The base weights stay pinned at the glide start while it runs
	if !stored.Tokens[0].Weight.Equal(math.LegacyMustNewDecFromStr("0.96")) {
		t.Errorf("expected base weight still 0.96, got %s", stored.Tokens[0].Weight.String())
	}
}

// TestEndBlockerFlatPool tests that pools without a glide are untouched
func TestEndBlockerFlatPool(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	if _, err := keeper.InitializePool(ctx, generalPoolConfig(owner)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	laterCtx := ctx.WithBlockTime(testBlockTime.Add(time.Hour))
	if err := keeper.EndBlocker(laterCtx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if hasEvent(ctx, "weight_glide_step") || hasEvent(ctx, "weight_glide_completed") || hasEvent(ctx, "lbp_endblock") {
		t.Error("expected no glide events for a flat pool")
	}
}

// TestEndBlockerIgnoresFlatWindow tests that a window whose start and
// end weights already match never emits a completion
func TestEndBlockerIgnoresFlatWindow(t *testing.T) {
	keeper, _, ctx := setupKeeper(t)
	owner := testAddr("alice")

	now := testBlockTime.Unix()
	cfg := generalPoolConfig(owner)
	cfg.StartTime = now + 100
	cfg.EndTime = now + 200
	if _, err := keeper.InitializePool(ctx, cfg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	afterCtx := ctx.WithBlockTime(testBlockTime.Add(300 * time.Second))
	if err := keeper.EndBlocker(afterCtx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hasEvent(ctx, "weight_glide_completed") {
		t.Error("expected no completion for a window with unchanged weights")
	}
}
