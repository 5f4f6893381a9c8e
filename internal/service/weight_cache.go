package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/streak-oracle/internal/metrics"
	"github.com/yourusername/streak-oracle/internal/models"
	"github.com/yourusername/streak-oracle/internal/tuner"
)

// WeightKey identifies the sequence snapshot a tuning run was computed on
type WeightKey struct {
	Source    string
	LastIndex int64
	Length    int
}

// String returns string representation of cache key
func (k WeightKey) String() string {
	return fmt.Sprintf("%s:%d:%d", k.Source, k.LastIndex, k.Length)
}

// KeyFor builds the cache key of a snapshot
func KeyFor(source string, events []models.Event) WeightKey {
	key := WeightKey{Source: source, Length: len(events)}
	if len(events) > 0 {
		key.LastIndex = events[len(events)-1].Index
	}
	return key
}

// WeightCache keeps tuned weights per snapshot. Entries expire after the TTL; within it a
// cached vector is served without re-tuning.
type WeightCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewWeightCache creates a new weight cache
func NewWeightCache(ttl, cleanupInterval time.Duration) *WeightCache {
	if cleanupInterval <= 0 {
		cleanupInterval = ttl * 2
	}
	return &WeightCache{
		cache: cache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// Get retrieves a cached tuning report
func (wc *WeightCache) Get(key WeightKey) (tuner.Report, bool) {
	if result, found := wc.cache.Get(key.String()); found {
		if report, ok := result.(tuner.Report); ok {
			wc.count(true)
			return report, true
		}
	}
	wc.count(false)
	return tuner.Report{}, false
}

// Set stores a tuning report
func (wc *WeightCache) Set(key WeightKey, report tuner.Report) {
	wc.cache.Set(key.String(), report, wc.ttl)
}

// Invalidate removes all cache entries for a source
func (wc *WeightCache) Invalidate(source string) {
	prefix := source + ":"
	for k := range wc.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			wc.cache.Delete(k)
		}
	}
}

// Clear flushes the entire cache
func (wc *WeightCache) Clear() {
	wc.mu.Lock()
	defer wc.mu.Unlock()

	wc.cache.Flush()
	wc.hitCount = 0
	wc.missCount = 0
}

// Stats returns cache statistics
func (wc *WeightCache) Stats() (hits, misses uint64, ratio float64) {
	wc.mu.Lock()
	defer wc.mu.Unlock()

	hits = wc.hitCount
	misses = wc.missCount
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (wc *WeightCache) ItemCount() int {
	return wc.cache.ItemCount()
}

func (wc *WeightCache) count(hit bool) {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if hit {
		wc.hitCount++
		metrics.RecordWeightCacheHit()
		return
	}
	wc.missCount++
	metrics.RecordWeightCacheMiss()
}
