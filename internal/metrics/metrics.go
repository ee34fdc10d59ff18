// Package metrics keeps process-wide counters for the aggregation engine,
// served as JSON on /metrics.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	RequestsServed      int64
	CacheHits           int64
	CacheStaleServed    int64
	RateLimitedRequests int64
	DuplicatesRemoved   int64
	FeedsFetched        int64
	FeedsFailed         int64
	ArticlesEnriched    int64

	// Per-provider outcomes
	ProviderSuccess map[string]int64
	ProviderFailure map[string]int64

	// Timings
	LastAggregationTime    time.Duration
	TotalAggregationTime   time.Duration
	AverageAggregationTime time.Duration
	AggregationCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = New()

func New() *Metrics {
	return &Metrics{
		ProviderSuccess: make(map[string]int64),
		ProviderFailure: make(map[string]int64),
		IsHealthy:       true,
	}
}

func (m *Metrics) IncrementRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestsServed++
}

func (m *Metrics) IncrementCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *Metrics) IncrementCacheStale() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheStaleServed++
}

func (m *Metrics) IncrementRateLimited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RateLimitedRequests++
}

func (m *Metrics) AddDuplicatesRemoved(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesRemoved += int64(n)
}

func (m *Metrics) IncrementFeedsFetched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedsFetched++
}

func (m *Metrics) IncrementFeedsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedsFailed++
}

func (m *Metrics) IncrementEnriched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesEnriched++
}

func (m *Metrics) RecordProviderSuccess(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProviderSuccess[name]++
}

func (m *Metrics) RecordProviderFailure(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProviderFailure[name]++
}

func (m *Metrics) RecordAggregationTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastAggregationTime = duration
	m.TotalAggregationTime += duration
	m.AggregationCount++

	if m.AggregationCount > 0 {
		m.AverageAggregationTime = m.TotalAggregationTime / time.Duration(m.AggregationCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	providerSuccess := make(map[string]int64, len(m.ProviderSuccess))
	for k, v := range m.ProviderSuccess {
		providerSuccess[k] = v
	}
	providerFailure := make(map[string]int64, len(m.ProviderFailure))
	for k, v := range m.ProviderFailure {
		providerFailure[k] = v
	}

	return map[string]interface{}{
		"requests_served":             m.RequestsServed,
		"cache_hits":                  m.CacheHits,
		"cache_stale_served":          m.CacheStaleServed,
		"rate_limited_requests":       m.RateLimitedRequests,
		"duplicates_removed":          m.DuplicatesRemoved,
		"feeds_fetched":               m.FeedsFetched,
		"feeds_failed":                m.FeedsFailed,
		"articles_enriched":           m.ArticlesEnriched,
		"provider_success":            providerSuccess,
		"provider_failure":            providerFailure,
		"last_aggregation_time_ms":    m.LastAggregationTime.Milliseconds(),
		"average_aggregation_time_ms": m.AverageAggregationTime.Milliseconds(),
		"last_run_time":               m.LastRunTime.Format(time.RFC3339),
		"last_error_time":             m.LastErrorTime.Format(time.RFC3339),
		"last_error":                  m.LastError,
		"is_healthy":                  m.IsHealthy,
	}
}
