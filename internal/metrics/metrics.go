// metrics.go — process-wide counters, gauges, and latency quantiles (C1).
//
// Prometheus counters/histograms are registered against a private registry
// (not prometheus.DefaultRegisterer) so Reset can rebuild clean state for
// tests without leaking collectors across test runs. Latency quantiles are
// computed independently from a bounded ring buffer of recent samples,
// adapted from the generic ring buffer used elsewhere for cursor-based reads.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jmagar/scrapemcp/internal/buffers"
)

// CacheEvent identifies a resource-store cache event kind.
type CacheEvent string

const (
	CacheHit      CacheEvent = "hit"
	CacheMiss     CacheEvent = "miss"
	CacheWrite    CacheEvent = "write"
	CacheEviction CacheEvent = "eviction"
)

// Snapshot is a consistent point-in-time copy of collected metrics.
type Snapshot struct {
	TotalRequests int64
	TotalErrors   int64
	CacheHits     int64
	CacheMisses   int64
	CacheWrites   int64
	CacheEvictions int64
	CacheHitRate  float64
	LatencyP50Ms  float64
	LatencyP95Ms  float64
	LatencyP99Ms  float64
	Strategies    map[string]StrategySnapshot
}

// StrategySnapshot is the per-strategy slice of a Snapshot.
type StrategySnapshot struct {
	Successes      int64
	Failures       int64
	Fallbacks      int64
	CumulativeMs   int64
}

// Collector is the process-wide metrics singleton (C1).
type Collector struct {
	registry *prometheus.Registry

	requestsTotal *prometheus.CounterVec
	requestDur    prometheus.Histogram
	cacheEvents   *prometheus.CounterVec
	strategyOutcomes *prometheus.CounterVec
	strategyDur   *prometheus.CounterVec

	mu         sync.Mutex
	totalReq   int64
	totalErr   int64
	cacheHits  int64
	cacheMiss  int64
	cacheWrite int64
	cacheEvict int64
	strategies map[string]*StrategySnapshot

	latency *buffers.RingBuffer[float64]
}

// New creates a Collector with a ring buffer of the given capacity (spec
// default 1024). A capacity of 0 falls back to 1024.
func New(ringSize int) *Collector {
	if ringSize <= 0 {
		ringSize = 1024
	}
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		requestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "scrapemcp_requests_total",
			Help: "Total tool-call requests, labeled by outcome.",
		}, []string{"outcome"}),
		requestDur: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "scrapemcp_request_duration_seconds",
			Help:    "Tool-call request duration.",
			Buckets: prometheus.DefBuckets,
		}),
		cacheEvents: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "scrapemcp_cache_events_total",
			Help: "Resource store cache events, labeled by kind.",
		}, []string{"event"}),
		strategyOutcomes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "scrapemcp_strategy_outcomes_total",
			Help: "Fetch strategy attempts, labeled by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		strategyDur: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "scrapemcp_strategy_duration_ms_total",
			Help: "Cumulative fetch strategy duration in milliseconds.",
		}, []string{"strategy"}),
		strategies: make(map[string]*StrategySnapshot),
		latency:    buffers.NewRingBuffer[float64](ringSize),
	}
	return c
}

// Registry exposes the private Prometheus registry for /metrics exposition.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRequest records the completion of a tool call.
func (c *Collector) RecordRequest(duration time.Duration, isError bool) {
	durMs := float64(duration.Microseconds()) / 1000.0

	c.mu.Lock()
	c.totalReq++
	if isError {
		c.totalErr++
	}
	c.mu.Unlock()

	c.latency.WriteOne(durMs)

	outcome := "ok"
	if isError {
		outcome = "error"
	}
	c.requestsTotal.WithLabelValues(outcome).Inc()
	c.requestDur.Observe(duration.Seconds())
}

// RecordCache records a resource-store cache event.
func (c *Collector) RecordCache(event CacheEvent) {
	c.mu.Lock()
	switch event {
	case CacheHit:
		c.cacheHits++
	case CacheMiss:
		c.cacheMiss++
	case CacheWrite:
		c.cacheWrite++
	case CacheEviction:
		c.cacheEvict++
	}
	c.mu.Unlock()
	c.cacheEvents.WithLabelValues(string(event)).Inc()
}

// RecordStrategy records one fetch-strategy attempt.
func (c *Collector) RecordStrategy(name string, duration time.Duration, success bool, isFallback bool) {
	durMs := duration.Milliseconds()

	c.mu.Lock()
	s, ok := c.strategies[name]
	if !ok {
		s = &StrategySnapshot{}
		c.strategies[name] = s
	}
	if success {
		s.Successes++
	} else {
		s.Failures++
	}
	if isFallback {
		s.Fallbacks++
	}
	s.CumulativeMs += durMs
	c.mu.Unlock()

	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.strategyOutcomes.WithLabelValues(name, outcome).Inc()
	c.strategyDur.WithLabelValues(name).Add(float64(durMs))
}

// Snapshot returns a consistent copy of collected metrics, including
// latency quantiles computed from the current ring buffer contents.
func (c *Collector) Snapshot() Snapshot {
	samples := c.latency.ReadAll()

	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		TotalRequests:  c.totalReq,
		TotalErrors:    c.totalErr,
		CacheHits:      c.cacheHits,
		CacheMisses:    c.cacheMiss,
		CacheWrites:    c.cacheWrite,
		CacheEvictions: c.cacheEvict,
		Strategies:     make(map[string]StrategySnapshot, len(c.strategies)),
	}
	if total := c.cacheHits + c.cacheMiss; total > 0 {
		snap.CacheHitRate = float64(c.cacheHits) / float64(total)
	}
	for name, s := range c.strategies {
		snap.Strategies[name] = *s
	}

	snap.LatencyP50Ms = percentile(samples, 0.50)
	snap.LatencyP95Ms = percentile(samples, 0.95)
	snap.LatencyP99Ms = percentile(samples, 0.99)
	return snap
}

// Reset zeroes all collected state. Test-only.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.totalReq, c.totalErr = 0, 0
	c.cacheHits, c.cacheMiss, c.cacheWrite, c.cacheEvict = 0, 0, 0, 0
	c.strategies = make(map[string]*StrategySnapshot)
	c.mu.Unlock()
	c.latency.Clear()
}

// percentile computes the p-th percentile (0..1) of samples via nearest-rank
// on a sorted copy. Returns 0 for an empty input.
func percentile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
