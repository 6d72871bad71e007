package gateway

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

type cacheEntry struct {
	text      string
	createdAt time.Time
}

type CacheStats struct {
	Size      int    `json:"size"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// ResponseCache memoizes model output by fingerprint. Eviction follows
// creation order: reads use Peek so they never refresh an entry, which
// leaves the list's tail as the oldest insertion.
type ResponseCache struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, cacheEntry]
	ttl time.Duration
	now func() time.Time

	hits      uint64
	misses    uint64
	evictions uint64
}

func NewResponseCache(capacity int, ttl time.Duration, now func() time.Time) (*ResponseCache, error) {
	if now == nil {
		now = time.Now
	}
	c := &ResponseCache{ttl: ttl, now: now}
	lru, err := simplelru.NewLRU[string, cacheEntry](capacity, func(string, cacheEntry) {
		c.evictions++
	})
	if err != nil {
		return nil, err
	}
	c.lru = lru
	return c, nil
}

// Get returns the cached text while the entry is younger than the TTL. An
// expired entry is dropped on the spot.
func (c *ResponseCache) Get(fp string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Peek(fp)
	if !ok {
		c.misses++
		return "", false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		c.lru.Remove(fp)
		c.misses++
		return "", false
	}
	c.hits++
	return e.text, true
}

// Put stores text, evicting the oldest entry first when at capacity.
func (c *ResponseCache) Put(fp, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(fp, cacheEntry{text: text, createdAt: c.now()})
}

func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Len()
}

func (c *ResponseCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{Size: c.lru.Len(), Hits: c.hits, Misses: c.misses, Evictions: c.evictions}
}
