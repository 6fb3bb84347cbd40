package v1

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/hrygo/ghiseu/internal/profile"
	"github.com/hrygo/ghiseu/plugin/ai/agent"
	"github.com/hrygo/ghiseu/plugin/ai/checklist"
	"github.com/hrygo/ghiseu/plugin/ai/session"
	"github.com/hrygo/ghiseu/server/internal/errors"
	"github.com/hrygo/ghiseu/server/internal/observability"
	"github.com/hrygo/ghiseu/server/middleware"
	"github.com/hrygo/ghiseu/server/router/api/v1/turn"
	ocrrunner "github.com/hrygo/ghiseu/server/runner/ocr"
	"github.com/hrygo/ghiseu/store"
)

// Config wires the API service.
type Config struct {
	Profile    *profile.Profile
	Store      *store.Store
	Sessions   *session.Service
	Checklists *checklist.Set
	Cases      agent.CaseLister
	// OCR may be nil; uploads without text then wait for review.
	OCR *ocrrunner.Runner
	// DispatchMetrics and HTTPMetrics default to fresh collectors.
	DispatchMetrics *agent.Metrics
	HTTPMetrics     *observability.Metrics
	Limiter         *middleware.RateLimiter
}

type APIV1Service struct {
	Profile    *profile.Profile
	Store      *store.Store
	Sessions   *session.Service
	Checklists *checklist.Set
	Cases      agent.CaseLister
	OCR        *ocrrunner.Runner

	dispatchMetrics *agent.Metrics
	httpMetrics     *observability.Metrics
	limiter         *middleware.RateLimiter
	markdown        goldmark.Markdown

	httpTurns turn.Handler
	wsTurns   turn.Handler
}

func NewAPIV1Service(cfg Config) *APIV1Service {
	s := &APIV1Service{
		Profile:         cfg.Profile,
		Store:           cfg.Store,
		Sessions:        cfg.Sessions,
		Checklists:      cfg.Checklists,
		Cases:           cfg.Cases,
		OCR:             cfg.OCR,
		dispatchMetrics: cfg.DispatchMetrics,
		httpMetrics:     cfg.HTTPMetrics,
		limiter:         cfg.Limiter,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
	if s.dispatchMetrics == nil {
		s.dispatchMetrics = agent.NewMetrics()
	}
	if s.httpMetrics == nil {
		s.httpMetrics = observability.NewMetrics(0)
	}
	if s.limiter == nil {
		rps, burst := 0.0, 0
		if cfg.Profile != nil {
			rps, burst = cfg.Profile.RateLimitPerSecond, cfg.Profile.RateLimitBurst
		}
		s.limiter = middleware.NewRateLimiter(rps, burst)
	}
	s.httpTurns = turn.NewDefaultChain(s.Sessions, s.limiter, s.httpMetrics, "http")
	s.wsTurns = turn.NewDefaultChain(s.Sessions, s.limiter, nil, "ws")
	return s
}

// RegisterRoutes mounts the API on e.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", s.Healthz)

	g := e.Group("/api/v1", s.requestMetrics)
	g.POST("/chat", s.Chat)
	g.GET("/ws", s.ServeWS)

	g.GET("/sessions", s.ListSessions)
	g.GET("/sessions/:id", s.GetSession)
	g.GET("/sessions/:id/history", s.GetHistory)
	g.DELETE("/sessions/:id", s.ResetSession)
	g.POST("/sessions/:id/uploads", s.CreateUpload, s.limiter.Echo(middleware.SessionKey))

	g.GET("/cases", s.ListCases)
	g.GET("/checklists", s.ListChecklists)
	g.GET("/system/metrics", s.GetMetricsOverview)
}

// Healthz answers liveness probes.
func (s *APIV1Service) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// requestMetrics records every API request except the turn endpoints,
// which the turn chain records itself.
func (s *APIV1Service) requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Path()
		if path == "/api/v1/chat" || path == "/api/v1/ws" {
			return next(c)
		}
		rc := observability.NewRequestContext(slog.Default(), "http", c.Param("id"))
		c.SetRequest(c.Request().WithContext(observability.WithRequestContext(c.Request().Context(), rc)))
		err := next(c)
		failed := err != nil || c.Response().Status >= http.StatusInternalServerError
		s.httpMetrics.RecordRequest(c.Request().Method+" "+path, rc.Duration(), failed)
		return err
	}
}

// writeError answers with the API error envelope.
func writeError(c echo.Context, err error) error {
	aiErr := errors.FromError(err)
	if aiErr.HTTPStatus() >= http.StatusInternalServerError {
		observability.LoggerFromContext(c.Request().Context()).Error("request failed",
			observability.LogFieldEndpoint, c.Path(),
			"error", err)
	}
	return c.JSON(aiErr.HTTPStatus(), map[string]any{"error": aiErr})
}

// renderMarkdown converts a reply to HTML; failures fall back to "".
func (s *APIV1Service) renderMarkdown(text string) string {
	if text == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &buf); err != nil {
		slog.Warn("failed to render reply", "error", err)
		return ""
	}
	return buf.String()
}
