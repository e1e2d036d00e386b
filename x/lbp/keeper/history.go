package keeper

import (
	"encoding/json"
	"fmt"
	"time"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/btree"

	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// CandleInterval represents candle time intervals
type CandleInterval string

const (
	Candle1m  CandleInterval = "1m"
	Candle5m  CandleInterval = "5m"
	Candle15m CandleInterval = "15m"
	Candle1h  CandleInterval = "1h"
	Candle4h  CandleInterval = "4h"
	Candle1d  CandleInterval = "1d"
)

// AllCandleIntervals lists the maintained intervals, shortest first
var AllCandleIntervals = []CandleInterval{Candle1m, Candle5m, Candle15m, Candle1h, Candle4h, Candle1d}

// Duration returns the bucket length for each interval
func (i CandleInterval) Duration() time.Duration {
	switch i {
	case Candle1m:
		return time.Minute
	case Candle5m:
		return 5 * time.Minute
	case Candle15m:
		return 15 * time.Minute
	case Candle1h:
		return time.Hour
	case Candle4h:
		return 4 * time.Hour
	case Candle1d:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// ValidCandleInterval reports whether the interval is maintained
func ValidCandleInterval(interval string) bool {
	for _, i := range AllCandleIntervals {
		if string(i) == interval {
			return true
		}
	}
	return false
}

// ============ Observation Storage ============

// observationKey generates a storage key for a price observation. Keys
// order the out token before the in token so all quotes for one priced
// token share a prefix. One observation per pair per second; the last
// write in a block wins.
func observationKey(poolID, tokenIn, tokenOut string, timestamp int64) []byte {
	return append(ObservationKeyPrefix, []byte(fmt.Sprintf("%s:%s:%s:%d", poolID, tokenOut, tokenIn, timestamp))...)
}

// observationPairPrefix covers every observation for one (in, out) pair
func observationPairPrefix(poolID, tokenIn, tokenOut string) []byte {
	return append(ObservationKeyPrefix, []byte(fmt.Sprintf("%s:%s:%s:", poolID, tokenOut, tokenIn))...)
}

// RecordObservation stores a price observation and, when it carries
// swap volume, folds it into the pair's candles
func (k *Keeper) RecordObservation(ctx sdk.Context, observation *types.PriceObservation, volume math.LegacyDec) {
	store := k.GetStore(ctx)
	key := observationKey(observation.PoolID, observation.TokenIn, observation.TokenOut, observation.Timestamp)
	bz, _ := json.Marshal(observation)
	store.Set(key, bz)

	if volume.IsPositive() {
		k.UpdateCandles(ctx, observation.PoolID, observation.TokenIn, observation.TokenOut, observation.SpotPrice, volume)
	}
}

// latestPairObservation returns the newest observation for one pair
func (k *Keeper) latestPairObservation(ctx sdk.Context, poolID, tokenIn, tokenOut string) *types.PriceObservation {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStoreReversePrefixIterator(store, observationPairPrefix(poolID, tokenIn, tokenOut))
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var observation types.PriceObservation
		if err := json.Unmarshal(iterator.Value(), &observation); err != nil {
			continue
		}
		return &observation
	}
	return nil
}

// GetLatestObservation returns the newest recorded price of token,
// whichever counter token it was quoted against
func (k *Keeper) GetLatestObservation(ctx sdk.Context, pool *types.Pool, token string) *types.PriceObservation {
	var best *types.PriceObservation
	for _, t := range pool.Tokens {
		if t.Denom == token {
			continue
		}
		observation := k.latestPairObservation(ctx, pool.PoolID, t.Denom, token)
		if observation == nil {
			continue
		}
		if best == nil || observation.Timestamp > best.Timestamp {
			best = observation
		}
	}
	return best
}

// GetObservations retrieves observations for a pair within a time range,
// newest window first, returned in chronological order
func (k *Keeper) GetObservations(ctx sdk.Context, poolID, tokenIn, tokenOut string, from, to int64, limit int) []*types.PriceObservation {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStoreReversePrefixIterator(store, observationPairPrefix(poolID, tokenIn, tokenOut))
	defer iterator.Close()

	var observations []*types.PriceObservation
	count := 0

	for ; iterator.Valid() && count < limit; iterator.Next() {
		var observation types.PriceObservation
		if err := json.Unmarshal(iterator.Value(), &observation); err != nil {
			continue
		}
		if observation.Timestamp >= from && observation.Timestamp <= to {
			observations = append(observations, &observation)
			count++
		}
	}

	// Reverse to get chronological order
	for i, j := 0, len(observations)-1; i < j; i, j = i+1, j-1 {
		observations[i], observations[j] = observations[j], observations[i]
	}

	return observations
}

// ============ Candle Storage ============

// candleKey generates a storage key for a candle
func candleKey(poolID, tokenIn, tokenOut string, interval CandleInterval, timestamp int64) []byte {
	return append(CandleKeyPrefix, []byte(fmt.Sprintf("%s:%s:%s:%s:%d", poolID, tokenOut, tokenIn, interval, timestamp))...)
}

// SetCandle saves a candle
func (k *Keeper) SetCandle(ctx sdk.Context, candle *types.Candle) {
	store := k.GetStore(ctx)
	key := candleKey(candle.PoolID, candle.TokenIn, candle.TokenOut, CandleInterval(candle.Interval), candle.Timestamp)
	bz, _ := json.Marshal(candle)
	store.Set(key, bz)
}

// GetCandle retrieves a candle
func (k *Keeper) GetCandle(ctx sdk.Context, poolID, tokenIn, tokenOut string, interval CandleInterval, timestamp int64) *types.Candle {
	store := k.GetStore(ctx)
	bz := store.Get(candleKey(poolID, tokenIn, tokenOut, interval, timestamp))
	if bz == nil {
		return nil
	}

	var candle types.Candle
	if err := json.Unmarshal(bz, &candle); err != nil {
		return nil
	}
	return &candle
}

// GetCandles retrieves candles for a pair within a time range, newest
// window first, returned in chronological order
func (k *Keeper) GetCandles(ctx sdk.Context, poolID, tokenIn, tokenOut string, interval CandleInterval, from, to int64, limit int) []*types.Candle {
	store := k.GetStore(ctx)
	prefix := append(CandleKeyPrefix, []byte(fmt.Sprintf("%s:%s:%s:%s:", poolID, tokenOut, tokenIn, interval))...)

	iterator := storetypes.KVStoreReversePrefixIterator(store, prefix)
	defer iterator.Close()

	var candles []*types.Candle
	count := 0

	for ; iterator.Valid() && count < limit; iterator.Next() {
		var candle types.Candle
		if err := json.Unmarshal(iterator.Value(), &candle); err != nil {
			continue
		}
		if candle.Timestamp >= from && candle.Timestamp <= to {
			candles = append(candles, &candle)
			count++
		}
	}

	// Reverse to get chronological order
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}

	return candles
}

// candleTimestamp returns the bucket start for an observation time
func candleTimestamp(t time.Time, interval CandleInterval) int64 {
	return t.Truncate(interval.Duration()).Unix()
}

// UpdateCandles folds one swap into every interval's candle for the pair
func (k *Keeper) UpdateCandles(ctx sdk.Context, poolID, tokenIn, tokenOut string, price, volume math.LegacyDec) {
	swapTime := ctx.BlockTime()

	for _, interval := range AllCandleIntervals {
		timestamp := candleTimestamp(swapTime, interval)
		candle := k.GetCandle(ctx, poolID, tokenIn, tokenOut, interval, timestamp)

		if candle == nil {
			candle = types.NewCandle(poolID, tokenIn, tokenOut, string(interval), timestamp, price, volume)
		} else {
			candle.Update(price, volume)
		}

		k.SetCandle(ctx, candle)
	}
}

// ============ Observation Index ============

// The in-memory index keeps the newest observations per pair in a btree
// ordered by timestamp, so windowed history queries avoid rescanning the
// store. It only ever holds committed entries: swap execution warms it
// after the cache write lands, and lazy fills read from the store.

const (
	obsTreeDegree = 32
	obsIndexCap   = 4096 // newest entries kept per pair
)

// obsItem wraps an observation for use in btree
// Implements btree.Item interface
type obsItem struct {
	timestamp   int64
	observation *types.PriceObservation
}

// Less implements btree.Item interface - ascending order by time
func (a *obsItem) Less(b btree.Item) bool {
	return a.timestamp < b.(*obsItem).timestamp
}

type observationIndex struct {
	tree          *btree.BTree
	lastTimestamp int64
	trimmed       bool
}

func pairKey(poolID, tokenIn, tokenOut string) string {
	return poolID + ":" + tokenOut + ":" + tokenIn
}

// indexObservation inserts one committed observation into the pair index
func (k *Keeper) indexObservation(observation *types.PriceObservation) {
	k.obsIndexMu.Lock()
	defer k.obsIndexMu.Unlock()

	key := pairKey(observation.PoolID, observation.TokenIn, observation.TokenOut)
	index, ok := k.obsIndex[key]
	if !ok {
		index = &observationIndex{tree: btree.New(obsTreeDegree)}
		k.obsIndex[key] = index
	}

	index.tree.ReplaceOrInsert(&obsItem{timestamp: observation.Timestamp, observation: observation})
	if observation.Timestamp > index.lastTimestamp {
		index.lastTimestamp = observation.Timestamp
	}
	for index.tree.Len() > obsIndexCap {
		index.tree.DeleteMin()
		index.trimmed = true
	}
}

// ensureIndexed pulls store entries newer than the index high-water mark
func (k *Keeper) ensureIndexed(ctx sdk.Context, poolID, tokenIn, tokenOut string) *observationIndex {
	k.obsIndexMu.Lock()
	defer k.obsIndexMu.Unlock()

	key := pairKey(poolID, tokenIn, tokenOut)
	index, ok := k.obsIndex[key]
	if !ok {
		index = &observationIndex{tree: btree.New(obsTreeDegree)}
		k.obsIndex[key] = index
	}

	store := k.GetStore(ctx)
	iterator := storetypes.KVStoreReversePrefixIterator(store, observationPairPrefix(poolID, tokenIn, tokenOut))
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var observation types.PriceObservation
		if err := json.Unmarshal(iterator.Value(), &observation); err != nil {
			continue
		}
		if observation.Timestamp <= index.lastTimestamp {
			break
		}
		index.tree.ReplaceOrInsert(&obsItem{timestamp: observation.Timestamp, observation: &observation})
	}

	if max, ok := index.tree.Max().(*obsItem); ok && max != nil {
		index.lastTimestamp = max.timestamp
	}
	for index.tree.Len() > obsIndexCap {
		index.tree.DeleteMin()
		index.trimmed = true
	}
	return index
}

// GetObservationsRange returns all observations for a pair inside
// [from, to] in chronological order, served from the index when the
// window is warm and from the store when it reaches past the cap
func (k *Keeper) GetObservationsRange(ctx sdk.Context, poolID, tokenIn, tokenOut string, from, to int64) []*types.PriceObservation {
	index := k.ensureIndexed(ctx, poolID, tokenIn, tokenOut)

	k.obsIndexMu.RLock()
	covered := true
	if index.trimmed {
		if min, ok := index.tree.Min().(*obsItem); ok && min != nil && from < min.timestamp {
			covered = false
		}
	}
	var observations []*types.PriceObservation
	if covered {
		index.tree.AscendRange(&obsItem{timestamp: from}, &obsItem{timestamp: to + 1}, func(item btree.Item) bool {
			observations = append(observations, item.(*obsItem).observation)
			return true
		})
	}
	k.obsIndexMu.RUnlock()

	if covered {
		return observations
	}
	return k.scanObservationsRange(ctx, poolID, tokenIn, tokenOut, from, to)
}

// scanObservationsRange walks the store for ranges older than the index
func (k *Keeper) scanObservationsRange(ctx sdk.Context, poolID, tokenIn, tokenOut string, from, to int64) []*types.PriceObservation {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, observationPairPrefix(poolID, tokenIn, tokenOut))
	defer iterator.Close()

	var observations []*types.PriceObservation
	for ; iterator.Valid(); iterator.Next() {
		var observation types.PriceObservation
		if err := json.Unmarshal(iterator.Value(), &observation); err != nil {
			continue
		}
		if observation.Timestamp < from {
			continue
		}
		if observation.Timestamp > to {
			break
		}
		observations = append(observations, &observation)
	}
	return observations
}
