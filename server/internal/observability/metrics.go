package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics aggregates HTTP request metrics per endpoint.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64
	wsMessages    atomic.Int64

	endpoints map[string]*EndpointMetrics

	// durations keeps the most recent request durations for percentiles.
	durations    []time.Duration
	maxDurations int
}

// EndpointMetrics represents metrics for one route.
type EndpointMetrics struct {
	requestCount  atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		endpoints:    make(map[string]*EndpointMetrics),
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

// RecordRequest records one finished request.
func (m *Metrics) RecordRequest(endpoint string, duration time.Duration, failed bool) {
	m.requestTotal.Add(1)
	em := m.endpoint(endpoint)
	em.requestCount.Add(1)
	em.totalDuration.Add(duration.Milliseconds())
	if failed {
		m.requestFailed.Add(1)
		em.errorCount.Add(1)
	}

	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()
}

// RecordWSMessage records a turn served over the websocket.
func (m *Metrics) RecordWSMessage() {
	m.wsMessages.Add(1)
}

func (m *Metrics) endpoint(name string) *EndpointMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	em, ok := m.endpoints[name]
	if !ok {
		em = &EndpointMetrics{}
		m.endpoints[name] = em
	}
	return em
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.wsMessages.Store(0)

	m.mu.Lock()
	m.endpoints = make(map[string]*EndpointMetrics)
	m.durations = make([]time.Duration, 0, m.maxDurations)
	m.mu.Unlock()
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	endpoints := make(map[string]*EndpointSnapshot, len(m.endpoints))
	for name, em := range m.endpoints {
		count := em.requestCount.Load()
		snap := &EndpointSnapshot{
			RequestCount:  count,
			ErrorCount:    em.errorCount.Load(),
			TotalDuration: em.totalDuration.Load(),
		}
		if count > 0 {
			snap.AverageDuration = snap.TotalDuration / count
		}
		endpoints[name] = snap
	}

	sorted := append([]time.Duration(nil), m.durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		WSMessages:    m.wsMessages.Load(),
		Endpoints:     endpoints,
		P50:           percentile(sorted, 0.50),
		P95:           percentile(sorted, 0.95),
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal  int64                        `json:"request_total"`
	RequestFailed int64                        `json:"request_failed"`
	WSMessages    int64                        `json:"ws_messages"`
	Endpoints     map[string]*EndpointSnapshot `json:"endpoints"`
	P50           time.Duration                `json:"p50"`
	P95           time.Duration                `json:"p95"`
}

// EndpointSnapshot represents metrics for one route.
type EndpointSnapshot struct {
	RequestCount    int64 `json:"request_count"`
	ErrorCount      int64 `json:"error_count"`
	TotalDuration   int64 `json:"total_duration_ms"`
	AverageDuration int64 `json:"average_duration_ms"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
