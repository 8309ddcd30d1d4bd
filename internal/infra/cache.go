package infra

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Cache size limits to prevent unbounded memory growth
const (
	DefaultMaxCacheEntries = 500             // Maximum number of cache entries
	DefaultCacheCleanup    = 5 * time.Minute // How often to run cache cleanup
)

// cacheEntry holds cached data with expiration and LRU tracking
type cacheEntry[V any] struct {
	value      V
	expiresAt  time.Time
	accessedAt atomic.Int64 // unix nanos, for LRU eviction
}

// Cache is an LRU cache with per-entry TTL. It is safe for concurrent use.
type Cache[V any] struct {
	entries    sync.Map // key (string) -> *cacheEntry[V]
	count      atomic.Int64
	evictions  atomic.Int64
	maxEntries int64
	mu         sync.Mutex // serializes eviction passes

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCache creates a cache bounded to maxEntries and starts its cleanup loop.
// Call Close to stop the loop.
func NewCache[V any](maxEntries int) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxCacheEntries
	}
	c := &Cache[V]{
		maxEntries: int64(maxEntries),
		stopCh:     make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the cached value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	raw, ok := c.entries.Load(key)
	if !ok {
		return zero, false
	}
	e := raw.(*cacheEntry[V])
	now := time.Now()
	if !now.Before(e.expiresAt) {
		if c.entries.CompareAndDelete(key, raw) {
			c.count.Add(-1)
		}
		return zero, false
	}
	e.accessedAt.Store(now.UnixNano())
	return e.value, true
}

// Set stores value under key for ttl.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	now := time.Now()
	e := &cacheEntry[V]{value: value, expiresAt: now.Add(ttl)}
	e.accessedAt.Store(now.UnixNano())

	if _, loaded := c.entries.Swap(key, e); loaded {
		return
	}
	if n := c.count.Add(1); n > c.maxEntries {
		go c.evictLRU(int(n - c.maxEntries + c.maxEntries/10))
	}
}

// Size returns the current number of entries.
func (c *Cache[V]) Size() int64 {
	return c.count.Load()
}

// Evictions returns the number of entries evicted for size since creation.
func (c *Cache[V]) Evictions() int64 {
	return c.evictions.Load()
}

// Close stops the background cleanup goroutine. Safe to call more than once.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

func (c *Cache[V]) cleanupLoop() {
	ticker := time.NewTicker(DefaultCacheCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup drops expired entries, then trims to size if needed.
func (c *Cache[V]) cleanup() {
	now := time.Now()
	c.entries.Range(func(k, v any) bool {
		if !now.Before(v.(*cacheEntry[V]).expiresAt) {
			if c.entries.CompareAndDelete(k, v) {
				c.count.Add(-1)
			}
		}
		return true
	})

	if n := c.count.Load(); n > c.maxEntries {
		c.evictLRU(int(n - c.maxEntries + c.maxEntries/10)) // 10% headroom
	}
}

// evictLRU removes the count least recently used entries.
func (c *Cache[V]) evictLRU(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	type entryInfo struct {
		key        string
		accessedAt int64
	}
	var entries []entryInfo
	c.entries.Range(func(k, v any) bool {
		entries = append(entries, entryInfo{
			key:        k.(string),
			accessedAt: v.(*cacheEntry[V]).accessedAt.Load(),
		})
		return true
	})

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].accessedAt < entries[j].accessedAt
	})

	evicted := 0
	for _, e := range entries {
		if evicted >= count {
			break
		}
		if _, existed := c.entries.LoadAndDelete(e.key); existed {
			c.count.Add(-1)
			evicted++
		}
	}
	c.evictions.Add(int64(evicted))
}
