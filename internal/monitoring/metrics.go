package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxResponseSamples = 1000

// Metrics holds application metrics
type Metrics struct {
	RequestCount int64
	ErrorCount   int64
	CacheHits    int64
	CacheMisses  int64
	CacheErrors  int64
	StartTime    time.Time

	// engine
	PredictionsComputed int64
	PairsSkipped        int64
	BatchRuns           int64

	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex

	CircuitBreakerOpens  int64
	CircuitBreakerCloses int64

	UpstreamRequests   map[string]int64
	UpstreamErrorCount map[string]int64
	UpstreamMutex      sync.RWMutex

	RateLimitIPBlocks      int64
	RateLimitUpstreamWaits int64
	RateLimitRedisErrors   int64
	RateLimitFallbackCount int64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		ResponseTimes:        make([]time.Duration, 0, maxResponseSamples),
		RequestCountByStatus: make(map[int]int64),
		UpstreamRequests:     make(map[string]int64),
		UpstreamErrorCount:   make(map[string]int64),
	}
}

func (m *Metrics) IncrementRequest()       { atomic.AddInt64(&m.RequestCount, 1) }
func (m *Metrics) IncrementError()         { atomic.AddInt64(&m.ErrorCount, 1) }
func (m *Metrics) IncrementCacheHit()      { atomic.AddInt64(&m.CacheHits, 1) }
func (m *Metrics) IncrementCacheMiss()     { atomic.AddInt64(&m.CacheMisses, 1) }
func (m *Metrics) IncrementCacheError()    { atomic.AddInt64(&m.CacheErrors, 1) }
func (m *Metrics) IncrementPrediction()    { atomic.AddInt64(&m.PredictionsComputed, 1) }
func (m *Metrics) IncrementBatch()         { atomic.AddInt64(&m.BatchRuns, 1) }
func (m *Metrics) AddSkippedPairs(n int)   { atomic.AddInt64(&m.PairsSkipped, int64(n)) }
func (m *Metrics) IncrementRateLimitIP()   { atomic.AddInt64(&m.RateLimitIPBlocks, 1) }
func (m *Metrics) IncrementUpstreamWait()  { atomic.AddInt64(&m.RateLimitUpstreamWaits, 1) }
func (m *Metrics) IncrementRedisError()    { atomic.AddInt64(&m.RateLimitRedisErrors, 1) }
func (m *Metrics) IncrementLimitFallback() { atomic.AddInt64(&m.RateLimitFallbackCount, 1) }

// RecordCircuitBreakerChange counts transitions into and out of the open state
func (m *Metrics) RecordCircuitBreakerChange(opened bool) {
	if opened {
		atomic.AddInt64(&m.CircuitBreakerOpens, 1)
		return
	}
	atomic.AddInt64(&m.CircuitBreakerCloses, 1)
}

// RecordResponseTime keeps the last maxResponseSamples durations for percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = append(m.ResponseTimes, duration)
	if len(m.ResponseTimes) > maxResponseSamples {
		m.ResponseTimes = m.ResponseTimes[1:]
	}
	m.ResponseTimesMutex.Unlock()
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// RecordUpstreamRequest records a call to an injected collaborator
func (m *Metrics) RecordUpstreamRequest(service string, success bool) {
	m.UpstreamMutex.Lock()
	defer m.UpstreamMutex.Unlock()

	m.UpstreamRequests[service]++
	if !success {
		m.UpstreamErrorCount[service]++
	}
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	times := make([]time.Duration, len(m.ResponseTimes))
	copy(times, m.ResponseTimes)
	m.ResponseTimesMutex.RUnlock()

	if len(times) == 0 {
		return 0
	}

	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.StatusMutex.RLock()
	defer m.StatusMutex.RUnlock()

	distribution := make(map[int]int64, len(m.RequestCountByStatus))
	for code, count := range m.RequestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetUpstreamStats returns per-service call statistics
func (m *Metrics) GetUpstreamStats() map[string]interface{} {
	m.UpstreamMutex.RLock()
	defer m.UpstreamMutex.RUnlock()

	stats := make(map[string]interface{}, len(m.UpstreamRequests))
	for service, requests := range m.UpstreamRequests {
		errors := m.UpstreamErrorCount[service]
		errorRate := float64(0)
		if requests > 0 {
			errorRate = float64(errors) / float64(requests) * 100
		}
		stats[service] = map[string]interface{}{
			"requests":   requests,
			"errors":     errors,
			"error_rate": errorRate,
		}
	}
	return stats
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]interface{}{
		"uptime_seconds":         time.Since(m.StartTime).Seconds(),
		"total_requests":         requests,
		"error_count":            errors,
		"error_rate_percent":     errorRate,
		"cache_hits":             cacheHits,
		"cache_misses":           cacheMisses,
		"cache_errors":           atomic.LoadInt64(&m.CacheErrors),
		"cache_hit_rate_percent": cacheHitRate,
		"start_time":             m.StartTime.Format(time.RFC3339),

		"predictions_computed": atomic.LoadInt64(&m.PredictionsComputed),
		"pairs_skipped":        atomic.LoadInt64(&m.PairsSkipped),
		"batch_runs":           atomic.LoadInt64(&m.BatchRuns),

		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99)) / 1e6,
		"status_code_distribution": m.GetStatusCodeDistribution(),
		"upstream_stats":           m.GetUpstreamStats(),

		"circuit_breaker_opens":  atomic.LoadInt64(&m.CircuitBreakerOpens),
		"circuit_breaker_closes": atomic.LoadInt64(&m.CircuitBreakerCloses),

		"rate_limit_ip_blocks":      atomic.LoadInt64(&m.RateLimitIPBlocks),
		"rate_limit_upstream_waits": atomic.LoadInt64(&m.RateLimitUpstreamWaits),
		"rate_limit_redis_errors":   atomic.LoadInt64(&m.RateLimitRedisErrors),
		"rate_limit_fallbacks":      atomic.LoadInt64(&m.RateLimitFallbackCount),

		"go_goroutines":       runtime.NumGoroutine(),
		"go_gc_count":         mem.NumGC,
		"go_heap_alloc_bytes": mem.HeapAlloc,
	}
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	for _, p := range []*int64{
		&m.RequestCount, &m.ErrorCount, &m.CacheHits, &m.CacheMisses, &m.CacheErrors,
		&m.PredictionsComputed, &m.PairsSkipped, &m.BatchRuns,
		&m.CircuitBreakerOpens, &m.CircuitBreakerCloses,
		&m.RateLimitIPBlocks, &m.RateLimitUpstreamWaits, &m.RateLimitRedisErrors, &m.RateLimitFallbackCount,
	} {
		atomic.StoreInt64(p, 0)
	}

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = m.ResponseTimes[:0]
	m.ResponseTimesMutex.Unlock()

	m.StatusMutex.Lock()
	m.RequestCountByStatus = make(map[int]int64)
	m.StatusMutex.Unlock()

	m.UpstreamMutex.Lock()
	m.UpstreamRequests = make(map[string]int64)
	m.UpstreamErrorCount = make(map[string]int64)
	m.UpstreamMutex.Unlock()

	m.StartTime = time.Now()
}
