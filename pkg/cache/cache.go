package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

var (
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{Name: "response_cache_hits_total"})
	cacheMiss = prometheus.NewCounter(prometheus.CounterOpts{Name: "response_cache_miss_total"})
)

func init() {
	prometheus.DefaultRegisterer.MustRegister(cacheHits, cacheMiss)
}

type entry struct {
	value   any
	expires time.Time
}

// ResponseCache is a TTL cache for read-path responses. When the cache grows
// past maxEntries, the oldest-expiring quarter of the entries is evicted.
type ResponseCache struct {
	mu         sync.RWMutex
	items      map[string]entry
	ttl        time.Duration
	maxEntries int
	group      singleflight.Group
}

func New(ttl time.Duration, maxEntries int) *ResponseCache {
	return &ResponseCache{
		items:      make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

func (c *ResponseCache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expires) {
		cacheMiss.Inc()
		return nil, false
	}

	cacheHits.Inc()
	return e.value, true
}

func (c *ResponseCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry{
		value:   value,
		expires: time.Now().Add(c.ttl),
	}

	if c.maxEntries > 0 && len(c.items) > c.maxEntries {
		c.cleanup()
	}
}

func (c *ResponseCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// GetOrLoad returns the cached value for key, or invokes load once per key
// across concurrent callers and caches the result.
func (c *ResponseCache) GetOrLoad(key string, load func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	return v, err
}

// cleanup drops expired entries, then evicts the oldest-expiring 25% if the
// cache is still over capacity. Caller must hold the write lock.
func (c *ResponseCache) cleanup() {
	now := time.Now()
	for k, e := range c.items {
		if now.After(e.expires) {
			delete(c.items, k)
		}
	}

	if len(c.items) <= c.maxEntries {
		return
	}

	type keyed struct {
		key     string
		expires time.Time
	}
	sorted := make([]keyed, 0, len(c.items))
	for k, e := range c.items {
		sorted = append(sorted, keyed{key: k, expires: e.expires})
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].expires.Before(sorted[j].expires)
	})

	toRemove := len(sorted) / 4
	for _, kv := range sorted[:toRemove] {
		delete(c.items, kv.key)
	}
}

// Len reports the current number of entries, expired included.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
