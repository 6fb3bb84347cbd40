package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/ghiseu/internal/profile"
	"github.com/hrygo/ghiseu/plugin/ai/session"
	"github.com/hrygo/ghiseu/server/internal/observability"
	"github.com/hrygo/ghiseu/server/middleware"
	apiv1 "github.com/hrygo/ghiseu/server/router/api/v1"
	ocrrunner "github.com/hrygo/ghiseu/server/runner/ocr"
	"github.com/hrygo/ghiseu/store"
)

const shutdownTimeout = 10 * time.Second

// Server hosts the HTTP API, the OCR runner and the session cleanup job.
type Server struct {
	Profile   *profile.Profile
	Store     *store.Store
	Assistant *Assistant

	echoServer *echo.Echo
	limiter    *middleware.RateLimiter
	ocr        *ocrrunner.Runner
	cleanup    *session.CleanupJob
}

func NewServer(ctx context.Context, p *profile.Profile, st *store.Store) (*Server, error) {
	assistant, err := NewAssistant(ctx, p, st)
	if err != nil {
		return nil, err
	}
	s := &Server{
		Profile:   p,
		Store:     st,
		Assistant: assistant,
		limiter:   middleware.NewRateLimiter(p.RateLimitPerSecond, p.RateLimitBurst),
		ocr:       ocrrunner.NewRunner(st, p),
		cleanup: session.NewCleanupJob(assistant.SessionStore, session.CleanupConfig{
			TTL: p.SessionTTL,
		}),
	}

	e := echo.New()
	e.Debug = p.IsDev()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			slog.Error("panic recovered", "path", c.Path(), "error", err, "stack", string(stack))
			return err
		},
	}))
	// Base64 JSON uploads are a third larger than the file itself.
	e.Use(echomw.BodyLimit("16M"))
	s.echoServer = e

	api := apiv1.NewAPIV1Service(apiv1.Config{
		Profile:         p,
		Store:           st,
		Sessions:        assistant.Sessions,
		Checklists:      assistant.Checklists,
		Cases:           assistant.Cases,
		OCR:             s.ocr,
		DispatchMetrics: assistant.Metrics,
		HTTPMetrics:     observability.NewMetrics(0),
		Limiter:         s.limiter,
	})
	api.RegisterRoutes(e)
	return s, nil
}

// Run serves until ctx is cancelled or a component fails, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	g.Go(func() error {
		slog.Info("ghiseu listening", "addr", addr, "mode", s.Profile.Mode, "version", s.Profile.Version)
		if err := s.echoServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	})
	g.Go(func() error {
		s.ocr.Run(gctx)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := s.limiter.Forget(30 * time.Minute); n > 0 {
					slog.Debug("rate limiters released", "count", n)
				}
			}
		}
	})
	s.cleanup.Start(gctx)

	g.Go(func() error {
		<-gctx.Done()
		s.Shutdown(context.Background())
		return nil
	})
	return g.Wait()
}

// Shutdown stops accepting requests and releases background workers.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown http server", "error", err)
	}
	s.cleanup.Stop()
	s.Assistant.Close()
	slog.Info("ghiseu stopped")
}
