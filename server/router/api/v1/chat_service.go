package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/ghiseu/plugin/ai/agent"
	"github.com/hrygo/ghiseu/plugin/ai/session"
	"github.com/hrygo/ghiseu/server/internal/errors"
)

// TurnResponse is the rendered result of one turn.
type TurnResponse struct {
	SessionID string            `json:"session_id"`
	Lang      string            `json:"lang,omitempty"`
	Reply     string            `json:"reply"`
	ReplyHTML string            `json:"reply_html,omitempty"`
	Steps     []agent.Step      `json:"steps"`
	Trace     []agent.AgentID   `json:"trace,omitempty"`
	App       *agent.AppContext `json:"app,omitempty"`
	Person    agent.Person      `json:"person,omitempty"`
	// Error is set when the turn aborted; Reply then carries the apology.
	Error *errors.AIError `json:"error,omitempty"`
}

func (s *APIV1Service) toResponse(res *session.TurnResult, aiErr *errors.AIError) *TurnResponse {
	return &TurnResponse{
		SessionID: res.SessionID,
		Lang:      res.Lang,
		Reply:     res.Reply,
		ReplyHTML: s.renderMarkdown(res.Reply),
		Steps:     res.Steps,
		Trace:     res.Trace,
		App:       res.App,
		Person:    res.Person,
		Error:     aiErr,
	}
}

// Chat runs one turn.
// POST /api/v1/chat
func (s *APIV1Service) Chat(c echo.Context) error {
	var req session.TurnRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errors.InvalidArgument("invalid request body"))
	}

	res, err := s.httpTurns.Handle(c.Request().Context(), &req)
	if err != nil {
		// A dispatch fault still carries the apology reply for the user.
		if res != nil {
			return c.JSON(http.StatusOK, s.toResponse(res, errors.FromError(err)))
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s.toResponse(res, nil))
}
