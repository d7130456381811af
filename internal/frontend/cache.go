package frontend

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/stockmesh/stockmesh/pkg/metrics"
)

// StockView is the subset of a catalog lookup the frontend caches.
type StockView struct {
	Name     string
	Price    float64
	Quantity int64
}

// Cache is a bounded, thread-safe LRU of stock lookups keyed by name. It
// wraps hashicorp/golang-lru rather than a hand-rolled list+map: the
// library's own Get already promotes the key to most-recently-used on a
// hit and serializes Add/Get/Remove behind its own lock, so no second lock
// layer is needed to satisfy the cache's invalidate-before-respond and
// bounded-size invariants.
type Cache struct {
	lru *lru.Cache
}

// NewCache builds a cache bounded to size entries.
func NewCache(size int) (*Cache, error) {
	c, err := lru.NewWithEvict(size, func(_ any, _ any) {
		metrics.CacheEvictionsTotal.Inc()
	})
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns the cached view for name, promoting it to most-recently-used
// on a hit.
func (c *Cache) Get(name string) (StockView, bool) {
	v, ok := c.lru.Get(name)
	if !ok {
		metrics.CacheMissesTotal.Inc()
		return StockView{}, false
	}
	metrics.CacheHitsTotal.Inc()
	return v.(StockView), true
}

// Set inserts or overwrites the cached view for name, evicting the least
// recently used entry if the cache is at capacity.
func (c *Cache) Set(view StockView) {
	c.lru.Add(view.Name, view)
	metrics.CacheSize.Set(float64(c.lru.Len()))
}

// Invalidate drops name from the cache, if present. Callers must invoke
// this before acknowledging a mutation of the underlying stock, never
// after, so no reader can observe a stale cached value following a
// successful write.
func (c *Cache) Invalidate(name string) {
	c.lru.Remove(name)
	metrics.CacheInvalidationsTotal.Inc()
	metrics.CacheSize.Set(float64(c.lru.Len()))
}

// Len returns the current number of resident entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
