package dashboard

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// ArtifactCache is a concurrent-safe LRU cache of rendered artifacts with
// TTL expiration. Entries are keyed by run id and format.
type ArtifactCache struct {
	mu         sync.Mutex
	entries    map[artifactKey]*list.Element
	lru        *list.List // front = most recently used
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	hits       atomic.Int64
	misses     atomic.Int64
}

type artifactKey struct {
	runID  string
	format string
}

type artifactEntry struct {
	key       artifactKey
	data      []byte
	createdAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewArtifactCache creates a cache holding at most maxEntries artifacts for
// ttl each. A non-positive ttl disables expiry.
func NewArtifactCache(maxEntries int, ttl time.Duration) *ArtifactCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &ArtifactCache{
		entries:    make(map[artifactKey]*list.Element),
		lru:        list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns a cached artifact, or nil on miss or expiry.
func (c *ArtifactCache) Get(runID, format string) []byte {
	key := artifactKey{runID: runID, format: format}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}
	entry := el.Value.(*artifactEntry)
	if c.ttl > 0 && c.now().Sub(entry.createdAt) > c.ttl {
		c.lru.Remove(el)
		delete(c.entries, key)
		c.misses.Add(1)
		return nil
	}

	c.lru.MoveToFront(el)
	c.hits.Add(1)
	return entry.data
}

// Put stores an artifact, evicting the least recently used entry when full.
func (c *ArtifactCache) Put(runID, format string, data []byte) {
	key := artifactKey{runID: runID, format: format}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*artifactEntry)
		entry.data = data
		entry.createdAt = c.now()
		c.lru.MoveToFront(el)
		return
	}

	for c.lru.Len() >= c.maxEntries {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*artifactEntry).key)
	}

	c.entries[key] = c.lru.PushFront(&artifactEntry{key: key, data: data, createdAt: c.now()})
}

// Invalidate drops every artifact of a run.
func (c *ArtifactCache) Invalidate(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, el := range c.entries {
		if key.runID == runID {
			c.lru.Remove(el)
			delete(c.entries, key)
		}
	}
}

// Stats returns cache performance statistics.
func (c *ArtifactCache) Stats() CacheStats {
	c.mu.Lock()
	entries := c.lru.Len()
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return CacheStats{
		Entries:    entries,
		MaxEntries: c.maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}
