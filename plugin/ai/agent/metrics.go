package agent

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects dispatch and agent execution metrics.
// All operations are thread-safe for concurrent access.
type Metrics struct {
	mu sync.RWMutex

	// Turn metrics
	turnDuration       []time.Duration // Recent turn durations
	turnHops           []int           // Recent hop counts
	maxDurationSamples int             // Max samples to keep

	totalTurns      atomic.Int64
	successfulTurns atomic.Int64
	failedTurns     atomic.Int64

	// Fault counters
	hopLimitFaults     atomic.Int64
	unknownAgentFaults atomic.Int64
	agentErrorFaults   atomic.Int64

	// Agent metrics
	agentCalls    map[AgentID]*atomic.Int64
	agentFailures map[AgentID]*atomic.Int64
	agentLatency  map[AgentID][]time.Duration

	// Business metrics
	casesCreated   atomic.Int64
	autofillOffers atomic.Int64

	// Error class metrics
	transientErrors atomic.Int64
	permanentErrors atomic.Int64
	conflictErrors  atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		turnDuration:       make([]time.Duration, 0, 100),
		turnHops:           make([]int, 0, 100),
		maxDurationSamples: 100,
		agentCalls:         make(map[AgentID]*atomic.Int64),
		agentFailures:      make(map[AgentID]*atomic.Int64),
		agentLatency:       make(map[AgentID][]time.Duration),
	}
}

// RecordTurn records a completed turn.
func (m *Metrics) RecordTurn(duration time.Duration, hops int, success bool) {
	m.totalTurns.Add(1)
	if success {
		m.successfulTurns.Add(1)
	} else {
		m.failedTurns.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Keep only the last N samples
	if len(m.turnDuration) >= m.maxDurationSamples {
		m.turnDuration = m.turnDuration[1:]
		m.turnHops = m.turnHops[1:]
	}
	m.turnDuration = append(m.turnDuration, duration)
	m.turnHops = append(m.turnHops, hops)
}

// RecordFault records why a turn was aborted.
func (m *Metrics) RecordFault(err error) {
	switch {
	case errors.Is(err, ErrHopLimitExceeded):
		m.hopLimitFaults.Add(1)
	case errors.Is(err, ErrUnknownAgent):
		m.unknownAgentFaults.Add(1)
	default:
		m.agentErrorFaults.Add(1)
	}
}

// RecordAgentCall records one Handle invocation.
func (m *Metrics) RecordAgentCall(id AgentID, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Initialize counters if needed
	if m.agentCalls[id] == nil {
		m.agentCalls[id] = &atomic.Int64{}
		m.agentFailures[id] = &atomic.Int64{}
		m.agentLatency[id] = make([]time.Duration, 0, 50)
	}

	m.agentCalls[id].Add(1)
	if !success {
		m.agentFailures[id].Add(1)
	}

	// Track latency (keep last 50 samples)
	if len(m.agentLatency[id]) >= 50 {
		m.agentLatency[id] = m.agentLatency[id][1:]
	}
	m.agentLatency[id] = append(m.agentLatency[id], duration)
}

// RecordCaseCreated records a created case.
func (m *Metrics) RecordCaseCreated() {
	m.casesCreated.Add(1)
}

// RecordAutofillOffer records an OCR autofill offer.
func (m *Metrics) RecordAutofillOffer() {
	m.autofillOffers.Add(1)
}

// RecordErrorClass records a collaborator error by its class.
func (m *Metrics) RecordErrorClass(class ErrorClass) {
	switch class {
	case ErrorClassTransient:
		m.transientErrors.Add(1)
	case ErrorClassPermanent:
		m.permanentErrors.Add(1)
	case ErrorClassConflict:
		m.conflictErrors.Add(1)
	}
}

// GetSuccessRate returns the turn success rate as a percentage (0-100).
func (m *Metrics) GetSuccessRate() float64 {
	total := m.totalTurns.Load()
	if total == 0 {
		return 0
	}
	return float64(m.successfulTurns.Load()) / float64(total) * 100
}

func (m *Metrics) averageDuration() time.Duration {
	if len(m.turnDuration) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range m.turnDuration {
		sum += d
	}
	return sum / time.Duration(len(m.turnDuration))
}

func (m *Metrics) averageHops() float64 {
	if len(m.turnHops) == 0 {
		return 0
	}
	var sum int
	for _, h := range m.turnHops {
		sum += h
	}
	return float64(sum) / float64(len(m.turnHops))
}

func (m *Metrics) p95Duration() time.Duration {
	if len(m.turnDuration) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), m.turnDuration...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)) * 0.95)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// GetAgentStats returns statistics for a specific agent.
func (m *Metrics) GetAgentStats(id AgentID) AgentStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.agentStats(id)
}

func (m *Metrics) agentStats(id AgentID) AgentStats {
	stats := AgentStats{Agent: id}
	if counter := m.agentCalls[id]; counter != nil {
		stats.TotalCalls = counter.Load()
	}
	if counter := m.agentFailures[id]; counter != nil {
		stats.Failures = counter.Load()
	}
	if latencies := m.agentLatency[id]; len(latencies) > 0 {
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		stats.AverageLatency = sum / time.Duration(len(latencies))
	}
	return stats
}

// GetAllAgentStats returns statistics for every agent that ran, ordered by id.
func (m *Metrics) GetAllAgentStats() []AgentStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make([]AgentStats, 0, len(m.agentCalls))
	for id := range m.agentCalls {
		stats = append(stats, m.agentStats(id))
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Agent < stats[j].Agent })
	return stats
}

// GetSummary returns a summary of all metrics.
func (m *Metrics) GetSummary() MetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSummary{
		TotalTurns:         m.totalTurns.Load(),
		SuccessfulTurns:    m.successfulTurns.Load(),
		FailedTurns:        m.failedTurns.Load(),
		SuccessRate:        m.GetSuccessRate(),
		AverageDuration:    m.averageDuration(),
		P95Duration:        m.p95Duration(),
		AverageHops:        m.averageHops(),
		HopLimitFaults:     m.hopLimitFaults.Load(),
		UnknownAgentFaults: m.unknownAgentFaults.Load(),
		AgentErrorFaults:   m.agentErrorFaults.Load(),
		CasesCreated:       m.casesCreated.Load(),
		AutofillOffers:     m.autofillOffers.Load(),
		TransientErrors:    m.transientErrors.Load(),
		PermanentErrors:    m.permanentErrors.Load(),
		ConflictErrors:     m.conflictErrors.Load(),
	}
}

// LogSummary logs the current metrics summary.
func (m *Metrics) LogSummary() {
	summary := m.GetSummary()
	slog.Info("dispatch_metrics_summary",
		"total_turns", summary.TotalTurns,
		"success_rate", fmtFloat(summary.SuccessRate),
		"avg_duration_ms", summary.AverageDuration.Milliseconds(),
		"p95_duration_ms", summary.P95Duration.Milliseconds(),
		"avg_hops", fmtFloat(summary.AverageHops),
		"hop_limit_faults", summary.HopLimitFaults,
		"unknown_agent_faults", summary.UnknownAgentFaults,
		"agent_error_faults", summary.AgentErrorFaults,
		"cases_created", summary.CasesCreated,
		"autofill_offers", summary.AutofillOffers,
		"transient_errors", summary.TransientErrors,
		"permanent_errors", summary.PermanentErrors,
		"conflict_errors", summary.ConflictErrors,
	)
}

// AgentStats represents statistics for a single agent.
type AgentStats struct {
	Agent          AgentID       `json:"agent"`
	TotalCalls     int64         `json:"total_calls"`
	Failures       int64         `json:"failures"`
	AverageLatency time.Duration `json:"average_latency"`
}

// MetricsSummary represents a summary of all metrics.
type MetricsSummary struct {
	TotalTurns         int64         `json:"total_turns"`
	SuccessfulTurns    int64         `json:"successful_turns"`
	FailedTurns        int64         `json:"failed_turns"`
	SuccessRate        float64       `json:"success_rate"`
	AverageDuration    time.Duration `json:"average_duration"`
	P95Duration        time.Duration `json:"p95_duration"`
	AverageHops        float64       `json:"average_hops"`
	HopLimitFaults     int64         `json:"hop_limit_faults"`
	UnknownAgentFaults int64         `json:"unknown_agent_faults"`
	AgentErrorFaults   int64         `json:"agent_error_faults"`
	CasesCreated       int64         `json:"cases_created"`
	AutofillOffers     int64         `json:"autofill_offers"`
	TransientErrors    int64         `json:"transient_errors"`
	PermanentErrors    int64         `json:"permanent_errors"`
	ConflictErrors     int64         `json:"conflict_errors"`
}

// fmtFloat formats a float value with 2 decimal places.
func fmtFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// Global metrics instance (shared by the dispatcher and the agents)
var (
	globalMetrics     *Metrics
	globalMetricsOnce sync.Once
)

// GetGlobalMetrics returns the global metrics instance.
func GetGlobalMetrics() *Metrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = NewMetrics()
	})
	return globalMetrics
}
