package v1

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/ghiseu/plugin/ai/agent"
	"github.com/hrygo/ghiseu/plugin/ai/session"
	"github.com/hrygo/ghiseu/server/internal/errors"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMsgSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsMessage is one inbound websocket frame.
type wsMessage struct {
	Message string            `json:"message"`
	Form    *agent.FormInput  `json:"form,omitempty"`
	Person  map[string]string `json:"person,omitempty"`
}

// ServeWS runs turns for one session over a websocket, one frame per turn.
// GET /api/v1/ws?session_id=
func (s *APIV1Service) ServeWS(c echo.Context) error {
	sessionID := strings.TrimSpace(c.QueryParam("session_id"))
	if sessionID == "" {
		return writeError(c, errors.InvalidArgument("session_id is required"))
	}
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "session_id", sessionID, "error", err)
		return nil
	}
	ws := &wsConn{conn: conn}
	defer ws.close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go ws.pingLoop(ctx)

	conn.SetReadLimit(wsMaxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Info("websocket closed", "session_id", sessionID, "error", err)
			}
			return nil
		}
		s.httpMetrics.RecordWSMessage()

		res, err := s.wsTurns.Handle(ctx, &session.TurnRequest{
			SessionID: sessionID,
			Message:   msg.Message,
			Form:      msg.Form,
			Person:    msg.Person,
		})
		var out any
		switch {
		case err != nil && res != nil:
			out = s.toResponse(res, errors.FromError(err))
		case err != nil:
			out = map[string]any{"error": errors.FromError(err)}
		default:
			out = s.toResponse(res, nil)
		}
		if err := ws.writeJSON(out); err != nil {
			slog.Warn("websocket write failed", "session_id", sessionID, "error", err)
			return nil
		}
	}
}

// wsConn serialises writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			err := w.conn.WriteMessage(websocket.PingMessage, nil)
			w.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (w *wsConn) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	_ = w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = w.conn.Close()
}
