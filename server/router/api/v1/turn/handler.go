// Package turn runs chat turns behind a middleware chain shared by the HTTP
// and websocket transports.
package turn

import (
	"context"

	"github.com/hrygo/ghiseu/plugin/ai/session"
)

// Handler runs one turn.
type Handler interface {
	Handle(ctx context.Context, req *session.TurnRequest) (*session.TurnResult, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *session.TurnRequest) (*session.TurnResult, error)

func (f HandlerFunc) Handle(ctx context.Context, req *session.TurnRequest) (*session.TurnResult, error) {
	return f(ctx, req)
}

// Turner is implemented by *session.Service.
type Turner interface {
	Turn(ctx context.Context, req session.TurnRequest) (*session.TurnResult, error)
}

// SessionHandler hands turns to the session service.
type SessionHandler struct {
	sessions Turner
}

// NewSessionHandler creates the innermost handler of the chain.
func NewSessionHandler(sessions Turner) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Handle(ctx context.Context, req *session.TurnRequest) (*session.TurnResult, error) {
	return h.sessions.Turn(ctx, *req)
}
