package keeper

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// Store key prefixes
var (
	PoolKeyPrefix        = []byte{0x01}
	ObservationKeyPrefix = []byte{0x02}
	CandleKeyPrefix      = []byte{0x03}
	PoolSequenceKey      = []byte{0x04}
)

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// Keeper manages the lbp module state
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	bankKeeper BankKeeper
	logger     log.Logger
	authority  string // governance authority address

	// In-memory observation index serving windowed history queries.
	// Rebuilt lazily from the store, guarded for concurrent readers.
	obsIndex   map[string]*observationIndex
	obsIndexMu sync.RWMutex
}

// NewKeeper creates a new lbp keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		authority:  authority,
		logger:     logger.With("module", "x/lbp"),
		obsIndex:   make(map[string]*observationIndex),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the governance authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ Pool Operations ============

// SetPool saves a pool to the store
func (k *Keeper) SetPool(ctx sdk.Context, pool *types.Pool) {
	store := k.GetStore(ctx)
	key := append(PoolKeyPrefix, []byte(pool.PoolID)...)
	bz, _ := json.Marshal(pool)
	store.Set(key, bz)
}

// GetPool retrieves a pool from the store
func (k *Keeper) GetPool(ctx sdk.Context, poolID string) *types.Pool {
	store := k.GetStore(ctx)
	key := append(PoolKeyPrefix, []byte(poolID)...)
	bz := store.Get(key)
	if bz == nil {
		return nil
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return nil
	}
	return &pool
}

// HasPool reports whether a pool exists
func (k *Keeper) HasPool(ctx sdk.Context, poolID string) bool {
	store := k.GetStore(ctx)
	return store.Has(append(PoolKeyPrefix, []byte(poolID)...))
}

// GetAllPools returns all pools
func (k *Keeper) GetAllPools(ctx sdk.Context) []*types.Pool {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, PoolKeyPrefix)
	defer iterator.Close()

	var pools []*types.Pool
	for ; iterator.Valid(); iterator.Next() {
		var pool types.Pool
		if err := json.Unmarshal(iterator.Value(), &pool); err != nil {
			continue
		}
		pools = append(pools, &pool)
	}
	return pools
}

// NextPoolSequence increments and returns the pool ID sequence
func (k *Keeper) NextPoolSequence(ctx sdk.Context) uint64 {
	seq := k.GetPoolSequence(ctx) + 1
	k.SetPoolSequence(ctx, seq)
	return seq
}

// GetPoolSequence returns the last assigned pool sequence number
func (k *Keeper) GetPoolSequence(ctx sdk.Context) uint64 {
	store := k.GetStore(ctx)
	bz := store.Get(PoolSequenceKey)
	if bz == nil {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}

// SetPoolSequence stores the pool sequence number
func (k *Keeper) SetPoolSequence(ctx sdk.Context, seq uint64) {
	store := k.GetStore(ctx)
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, seq)
	store.Set(PoolSequenceKey, bz)
}
