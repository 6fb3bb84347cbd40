package turn

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hrygo/ghiseu/plugin/ai/session"
	"github.com/hrygo/ghiseu/server/internal/errors"
	"github.com/hrygo/ghiseu/server/internal/observability"
	"github.com/hrygo/ghiseu/server/middleware"
)

// MaxMessageRunes bounds one user message.
const MaxMessageRunes = 4000

// Middleware is a function that wraps a handler.
type Middleware func(Handler) Handler

// Chain chains multiple middlewares together; the first one runs outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// NewValidationMiddleware rejects requests without a session id or with an oversized message.
func NewValidationMiddleware() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *session.TurnRequest) (*session.TurnResult, error) {
			req.SessionID = strings.TrimSpace(req.SessionID)
			if req.SessionID == "" {
				return nil, errors.InvalidArgument("session_id is required")
			}
			if utf8.RuneCountInString(req.Message) > MaxMessageRunes {
				return nil, errors.InvalidArgument("message is too long")
			}
			return next.Handle(ctx, req)
		})
	}
}

// NewRateLimitMiddleware applies the per-session limiter.
func NewRateLimitMiddleware(limiter *middleware.RateLimiter) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *session.TurnRequest) (*session.TurnResult, error) {
			if !limiter.Allow("session:" + req.SessionID) {
				return nil, errors.RateLimitExceeded("rate limit exceeded")
			}
			return next.Handle(ctx, req)
		})
	}
}

// NewLoggingMiddleware attaches a RequestContext to ctx and logs the outcome.
// transport names the surface serving the turn ("http" or "ws").
func NewLoggingMiddleware(logger *slog.Logger, transport string) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *session.TurnRequest) (*session.TurnResult, error) {
			rc := observability.NewRequestContext(logger, transport, req.SessionID)
			ctx = observability.WithRequestContext(ctx, rc)
			rc.Debug("turn started", slog.Int(observability.LogFieldMessageLen, len(req.Message)))

			res, err := next.Handle(ctx, req)
			if err != nil {
				rc.Error("turn failed", err,
					slog.String(observability.LogFieldErrorCode, string(errors.FromError(err).Code)),
					slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
				return res, err
			}
			rc.Info("turn served", slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
			return res, nil
		})
	}
}

// NewMetricsMiddleware records every turn under endpoint.
func NewMetricsMiddleware(m *observability.Metrics, endpoint string) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *session.TurnRequest) (*session.TurnResult, error) {
			start := time.Now()
			res, err := next.Handle(ctx, req)
			m.RecordRequest(endpoint, time.Since(start), err != nil)
			return res, err
		})
	}
}

// NewDefaultChain builds validation, rate limiting, logging and metrics around sessions.
func NewDefaultChain(sessions Turner, limiter *middleware.RateLimiter, metrics *observability.Metrics, transport string) Handler {
	mws := []Middleware{NewValidationMiddleware()}
	if limiter != nil {
		mws = append(mws, NewRateLimitMiddleware(limiter))
	}
	mws = append(mws, NewLoggingMiddleware(slog.Default(), transport))
	if metrics != nil {
		mws = append(mws, NewMetricsMiddleware(metrics, "turn "+transport))
	}
	return Chain(NewSessionHandler(sessions), mws...)
}
