package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/ghiseu/plugin/ai/agent"
	"github.com/hrygo/ghiseu/server/internal/observability"
)

// MetricsOverviewResponse represents the overview response of system metrics
type MetricsOverviewResponse struct {
	TotalRequests int64   `json:"total_requests"`
	SuccessRate   float64 `json:"success_rate"`
	P50LatencyMs  int64   `json:"p50_latency_ms"`
	P95LatencyMs  int64   `json:"p95_latency_ms"`
	ErrorCount    int64   `json:"error_count"`
	WSMessages    int64   `json:"ws_messages"`

	Endpoints map[string]*observability.EndpointSnapshot `json:"endpoints"`
	Dispatch  agent.MetricsSummary                       `json:"dispatch"`
	Agents    []agent.AgentStats                         `json:"agents"`
}

// GetMetricsOverview returns HTTP and dispatch metrics since start.
// GET /api/v1/system/metrics
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	snap := s.httpMetrics.Snapshot()
	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		TotalRequests: snap.RequestTotal,
		SuccessRate:   snap.SuccessRate(),
		P50LatencyMs:  snap.P50.Milliseconds(),
		P95LatencyMs:  snap.P95.Milliseconds(),
		ErrorCount:    snap.RequestFailed,
		WSMessages:    snap.WSMessages,
		Endpoints:     snap.Endpoints,
		Dispatch:      s.dispatchMetrics.GetSummary(),
		Agents:        s.dispatchMetrics.GetAllAgentStats(),
	})
}
