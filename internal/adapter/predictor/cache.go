package predictor

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"

	"github.com/couchcryptid/retrofit-advisor/internal/domain"
	"github.com/couchcryptid/retrofit-advisor/internal/observability"
)

// CachedAnalyzer wraps an Analyzer with an in-memory LRU cache keyed by the
// full building configuration. Only successful replies are cached.
type CachedAnalyzer struct {
	inner   domain.Analyzer
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedAnalyzer creates a cache decorator around an analyzer.
func NewCachedAnalyzer(inner domain.Analyzer, maxEntries int, metrics *observability.Metrics) *CachedAnalyzer {
	return &CachedAnalyzer{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedAnalyzer) Analyze(ctx context.Context, cfg domain.BuildingConfiguration) (domain.RawAnalysisResult, error) {
	key, err := cacheKey(cfg)
	if err != nil {
		return c.inner.Analyze(ctx, cfg)
	}
	if raw, ok := c.cache.get(key); ok {
		c.metrics.PredictorCache.WithLabelValues("hit").Inc()
		return raw, nil
	}
	c.metrics.PredictorCache.WithLabelValues("miss").Inc()

	raw, err := c.inner.Analyze(ctx, cfg)
	if err != nil {
		return raw, err
	}
	c.cache.put(key, raw)
	return raw, nil
}

// cacheKey is the configuration's wire form, so any attribute the service
// sees distinguishes entries.
func cacheKey(cfg domain.BuildingConfiguration) (string, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// lruCache is a thread-safe LRU of raw analysis results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type cacheEntry struct {
	key   string
	value domain.RawAnalysisResult
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(maxEntries, 1),
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (domain.RawAnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return domain.RawAnalysisResult{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

func (c *lruCache) put(key string, value domain.RawAnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
