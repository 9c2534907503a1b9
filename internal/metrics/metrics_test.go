package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordRequest_CountsAndLatency(t *testing.T) {
	c := New(128)
	c.RecordRequest(10*time.Millisecond, false)
	c.RecordRequest(20*time.Millisecond, true)

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
	assert.Greater(t, snap.LatencyP50Ms, 0.0)
}

func TestRecordCache_HitRate(t *testing.T) {
	c := New(128)
	c.RecordCache(CacheHit)
	c.RecordCache(CacheHit)
	c.RecordCache(CacheMiss)

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.CacheHits)
	assert.Equal(t, int64(1), snap.CacheMisses)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRate, 1e-9)
}

func TestRecordStrategy_TracksOutcomesAndFallback(t *testing.T) {
	c := New(128)
	c.RecordStrategy("native", 5*time.Millisecond, false, false)
	c.RecordStrategy("enhanced", 15*time.Millisecond, true, true)

	snap := c.Snapshot()
	assert.Equal(t, int64(1), snap.Strategies["native"].Failures)
	assert.Equal(t, int64(1), snap.Strategies["enhanced"].Successes)
	assert.Equal(t, int64(1), snap.Strategies["enhanced"].Fallbacks)
}

func TestReset_ZeroesState(t *testing.T) {
	c := New(128)
	c.RecordRequest(time.Millisecond, false)
	c.RecordCache(CacheHit)
	c.Reset()

	snap := c.Snapshot()
	assert.Equal(t, int64(0), snap.TotalRequests)
	assert.Equal(t, int64(0), snap.CacheHits)
	assert.Equal(t, 0.0, snap.LatencyP50Ms)
}

func TestPercentile_Empty(t *testing.T) {
	assert.Equal(t, 0.0, percentile(nil, 0.5))
}
