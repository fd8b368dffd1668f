package predictor

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/retrofit-advisor/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingAnalyzer struct {
	calls int
	score float64
	err   error
}

func (m *countingAnalyzer) Analyze(_ context.Context, _ domain.BuildingConfiguration) (domain.RawAnalysisResult, error) {
	m.calls++
	if m.err != nil {
		return domain.RawAnalysisResult{}, m.err
	}
	score := m.score
	return domain.RawAnalysisResult{VulnerabilityScore: &score}, nil
}

// --- CachedAnalyzer tests ---

func TestCachedAnalyzer_CacheHit(t *testing.T) {
	inner := &countingAnalyzer{score: 64}
	metrics := testMetrics()
	cached := NewCachedAnalyzer(inner, 10, metrics)
	cfg := domain.DefaultConfiguration()

	r1, err := cached.Analyze(context.Background(), cfg)
	require.NoError(t, err)
	r2, err := cached.Analyze(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 64.0, *r1.VulnerabilityScore)
	assert.Equal(t, 64.0, *r2.VulnerabilityScore)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PredictorCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PredictorCache.WithLabelValues("miss")))
}

func TestCachedAnalyzer_DistinctConfigurations(t *testing.T) {
	inner := &countingAnalyzer{score: 50}
	cached := NewCachedAnalyzer(inner, 10, testMetrics())

	a := domain.DefaultConfiguration()
	b := domain.DefaultConfiguration()
	strength := 4000
	b.ConcreteStrength = &strength

	_, _ = cached.Analyze(context.Background(), a)
	_, _ = cached.Analyze(context.Background(), b)

	assert.Equal(t, 2, inner.calls, "optional attributes are part of the key")
}

func TestCachedAnalyzer_ErrorsNotCached(t *testing.T) {
	inner := &countingAnalyzer{err: errors.New("connection refused")}
	cached := NewCachedAnalyzer(inner, 10, testMetrics())
	cfg := domain.DefaultConfiguration()

	_, err := cached.Analyze(context.Background(), cfg)
	require.Error(t, err)

	inner.err = nil
	inner.score = 30
	raw, err := cached.Analyze(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 30.0, *raw.VulnerabilityScore)
	assert.Equal(t, 2, inner.calls)
}

// --- lruCache tests ---

func score(v float64) domain.RawAnalysisResult {
	return domain.RawAnalysisResult{VulnerabilityScore: &v}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", score(1))
	c.put("b", score(2))

	_, ok := c.get("a") // a is now most recent
	require.True(t, ok)

	c.put("c", score(3))

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.size())
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", score(1))
	c.put("a", score(9))

	got, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, 9.0, *got.VulnerabilityScore)
	assert.Equal(t, 1, c.size())
}

func TestLRUCache_NonPositiveSizeHoldsOne(t *testing.T) {
	c := newLRUCache(0)
	c.put("a", score(1))
	c.put("b", score(2))

	assert.Equal(t, 1, c.size())
	_, ok := c.get("b")
	assert.True(t, ok)
}
