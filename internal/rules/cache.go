package rules

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// ResultCache holds status reports keyed by selection fingerprint. Entries
// expire after a fixed TTL; reads do not extend it. When full, the oldest
// entry is evicted.
type ResultCache struct {
	items    *ttlcache.Cache[string, *Report]
	capacity int
}

func NewResultCache(capacity int, ttl time.Duration) *ResultCache {
	items := ttlcache.New(
		ttlcache.WithTTL[string, *Report](ttl),
		ttlcache.WithCapacity[string, *Report](uint64(capacity)),
		ttlcache.WithDisableTouchOnHit[string, *Report](),
	)
	return &ResultCache{items: items, capacity: capacity}
}

// Get returns a shallow copy of the cached report, or nil on a miss or expiry.
func (c *ResultCache) Get(key string) *Report {
	item := c.items.Get(key)
	if item == nil || item.IsExpired() {
		return nil
	}
	report := *item.Value()
	return &report
}

func (c *ResultCache) Set(key string, value *Report) {
	c.items.Set(key, value, ttlcache.DefaultTTL)
}

// Clear drops every report, used when the catalog snapshot changes.
func (c *ResultCache) Clear() {
	c.items.DeleteAll()
}

// CacheStats is the occupancy exported as the cache gauges.
type CacheStats struct {
	Entries  int
	Capacity int
}

// Stats counts live entries; expired ones awaiting eviction are included.
func (c *ResultCache) Stats() CacheStats {
	return CacheStats{Entries: c.items.Len(), Capacity: c.capacity}
}
