package redis

import (
	"sync/atomic"
	"time"
)

// Metrics tracks cache performance statistics
type Metrics struct {
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
	cacheErrors atomic.Uint64

	getOperations atomic.Uint64
	setOperations atomic.Uint64

	// nanoseconds
	totalGetLatency atomic.Uint64
	totalSetLatency atomic.Uint64

	invalidationCount atomic.Uint64
	dependencyCount   atomic.Uint64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordCacheHit() { m.cacheHits.Add(1) }
func (m *Metrics) RecordCacheMiss() { m.cacheMisses.Add(1) }
func (m *Metrics) RecordCacheError() { m.cacheErrors.Add(1) }
func (m *Metrics) RecordInvalidation() { m.invalidationCount.Add(1) }
func (m *Metrics) RecordDependency() { m.dependencyCount.Add(1) }

// RecordGet records a get operation with latency
func (m *Metrics) RecordGet(duration time.Duration) {
	m.getOperations.Add(1)
	m.totalGetLatency.Add(uint64(duration.Nanoseconds()))
}

// RecordSet records a set operation with latency
func (m *Metrics) RecordSet(duration time.Duration) {
	m.setOperations.Add(1)
	m.totalSetLatency.Add(uint64(duration.Nanoseconds()))
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	hits := m.cacheHits.Load()
	misses := m.cacheMisses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	getOps := m.getOperations.Load()
	setOps := m.setOperations.Load()

	var avgGetLatency, avgSetLatency time.Duration
	if getOps > 0 {
		avgGetLatency = time.Duration(m.totalGetLatency.Load() / getOps)
	}
	if setOps > 0 {
		avgSetLatency = time.Duration(m.totalSetLatency.Load() / setOps)
	}

	return MetricsSnapshot{
		CacheHits:         hits,
		CacheMisses:       misses,
		CacheErrors:       m.cacheErrors.Load(),
		CacheHitRate:      hitRate,
		GetOperations:     getOps,
		SetOperations:     setOps,
		AvgGetLatency:     avgGetLatency,
		AvgSetLatency:     avgSetLatency,
		InvalidationCount: m.invalidationCount.Load(),
		DependencyCount:   m.dependencyCount.Load(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	CacheHits    uint64  `json:"cache_hits"`
	CacheMisses  uint64  `json:"cache_misses"`
	CacheErrors  uint64  `json:"cache_errors"`
	CacheHitRate float64 `json:"cache_hit_rate"` // Percentage

	GetOperations uint64 `json:"get_operations"`
	SetOperations uint64 `json:"set_operations"`

	AvgGetLatency time.Duration `json:"avg_get_latency_ns"`
	AvgSetLatency time.Duration `json:"avg_set_latency_ns"`

	InvalidationCount uint64 `json:"invalidation_count"`
	DependencyCount   uint64 `json:"dependency_count"`
}
