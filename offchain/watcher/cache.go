package watcher

import (
	"sync"

	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// PoolCache is a thread-safe cache of the latest pool snapshots
type PoolCache struct {
	pools map[string]*types.Pool
	mu    sync.RWMutex
}

// NewPoolCache creates a new pool cache
func NewPoolCache() *PoolCache {
	return &PoolCache{
		pools: make(map[string]*types.Pool),
	}
}

// Get retrieves a pool snapshot from the cache
func (c *PoolCache) Get(poolID string) (*types.Pool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pool, exists := c.pools[poolID]
	return pool, exists
}

// Set stores a pool snapshot in the cache
func (c *PoolCache) Set(pool *types.Pool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools[pool.PoolID] = pool
}

// Delete removes a pool snapshot from the cache
func (c *PoolCache) Delete(poolID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pools, poolID)
}

// Len returns the number of pools in the cache
func (c *PoolCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pools)
}

// Clear removes all pools from the cache
func (c *PoolCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools = make(map[string]*types.Pool)
}

// GetAll returns all pools in the cache
func (c *PoolCache) GetAll() []*types.Pool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pools := make([]*types.Pool, 0, len(c.pools))
	for _, pool := range c.pools {
		pools = append(pools, pool)
	}
	return pools
}

// GetByProfile returns all pools with a specific profile
func (c *PoolCache) GetByProfile(profile string) []*types.Pool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pools := make([]*types.Pool, 0)
	for _, pool := range c.pools {
		if pool.Profile == profile {
			pools = append(pools, pool)
		}
	}
	return pools
}

// GetByOwner returns all pools controlled by a specific owner
func (c *PoolCache) GetByOwner(owner string) []*types.Pool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pools := make([]*types.Pool, 0)
	for _, pool := range c.pools {
		if pool.Owner == owner {
			pools = append(pools, pool)
		}
	}
	return pools
}

// GetActiveGlides returns all pools whose weight glide is running at now
func (c *PoolCache) GetActiveGlides(now int64) []*types.Pool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pools := make([]*types.Pool, 0)
	for _, pool := range c.pools {
		if pool.GlideActive(now) {
			pools = append(pools, pool)
		}
	}
	return pools
}

// AlertBuffer is a thread-safe buffer for alerts pending submission
type AlertBuffer struct {
	alerts  []*GlideAlert
	maxSize int
	mu      sync.Mutex
}

// NewAlertBuffer creates a new alert buffer with the given max size
func NewAlertBuffer(maxSize int) *AlertBuffer {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &AlertBuffer{
		alerts:  make([]*GlideAlert, 0, maxSize),
		maxSize: maxSize,
	}
}

// Add adds an alert to the buffer
func (b *AlertBuffer) Add(alert *GlideAlert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts = append(b.alerts, alert)
}

// AddBatch adds multiple alerts to the buffer
func (b *AlertBuffer) AddBatch(alerts []*GlideAlert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts = append(b.alerts, alerts...)
}

// Flush returns all alerts and clears the buffer
func (b *AlertBuffer) Flush() []*GlideAlert {
	b.mu.Lock()
	defer b.mu.Unlock()
	alerts := b.alerts
	b.alerts = make([]*GlideAlert, 0, b.maxSize)
	return alerts
}

// FlushBatch returns up to maxSize alerts and removes them from the buffer
func (b *AlertBuffer) FlushBatch() []*GlideAlert {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.alerts) == 0 {
		return nil
	}

	count := b.maxSize
	if len(b.alerts) < count {
		count = len(b.alerts)
	}

	batch := b.alerts[:count]
	b.alerts = b.alerts[count:]
	return batch
}

// Len returns the number of alerts in the buffer
func (b *AlertBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.alerts)
}

// IsFull returns true if the buffer is at or above max size
func (b *AlertBuffer) IsFull() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.alerts) >= b.maxSize
}

// Clear removes all alerts from the buffer
func (b *AlertBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts = make([]*GlideAlert, 0, b.maxSize)
}

// Peek returns the alerts without removing them (for inspection)
func (b *AlertBuffer) Peek() []*GlideAlert {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]*GlideAlert, len(b.alerts))
	copy(result, b.alerts)
	return result
}

// DenomCache is a thread-safe cache for token display metadata
type DenomCache struct {
	denoms map[string]*DenomInfo
	mu     sync.RWMutex
}

// DenomInfo holds cached token display metadata
type DenomInfo struct {
	Denom    string
	Symbol   string
	Exponent uint32
}

// NewDenomCache creates a new denom cache
func NewDenomCache() *DenomCache {
	return &DenomCache{
		denoms: make(map[string]*DenomInfo),
	}
}

// Get retrieves denom info from the cache
func (c *DenomCache) Get(denom string) (*DenomInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, exists := c.denoms[denom]
	return info, exists
}

// Set stores denom info in the cache
func (c *DenomCache) Set(info *DenomInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.denoms[info.Denom] = info
}

// Delete removes denom info from the cache
func (c *DenomCache) Delete(denom string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.denoms, denom)
}

// Len returns the number of denoms in the cache
func (c *DenomCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.denoms)
}

// GetAll returns all denom info in the cache
func (c *DenomCache) GetAll() []*DenomInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	infos := make([]*DenomInfo, 0, len(c.denoms))
	for _, info := range c.denoms {
		infos = append(infos, info)
	}
	return infos
}

// SymbolFor returns the display symbol for a denom, falling back to the
// raw denom when no metadata is registered
func (c *DenomCache) SymbolFor(denom string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if info, exists := c.denoms[denom]; exists && info.Symbol != "" {
		return info.Symbol
	}
	return denom
}
