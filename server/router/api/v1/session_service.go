package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/ghiseu/plugin/ai/agent"
	"github.com/hrygo/ghiseu/plugin/ai/memory"
	"github.com/hrygo/ghiseu/server/internal/errors"
)

// SessionResponse is the App Context snapshot of a session.
type SessionResponse struct {
	SessionID string            `json:"session_id"`
	Lang      string            `json:"lang,omitempty"`
	App       *agent.AppContext `json:"app"`
	Person    agent.Person      `json:"person"`
	Turns     int               `json:"turns"`
	CreatedTs int64             `json:"created_ts"`
	UpdatedTs int64             `json:"updated_ts"`
}

// ListSessions returns recently active sessions.
// GET /api/v1/sessions?limit=
func (s *APIV1Service) ListSessions(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	list, err := s.Sessions.List(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"sessions": list})
}

// GetSession returns the App Context snapshot.
// GET /api/v1/sessions/:id
func (s *APIV1Service) GetSession(c echo.Context) error {
	sess, err := s.Sessions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	if sess == nil {
		return writeError(c, errors.NotFound("session not found"))
	}
	turns := 0
	if sess.History != nil {
		turns = sess.History.Len()
	}
	return c.JSON(http.StatusOK, &SessionResponse{
		SessionID: sess.ID,
		Lang:      sess.Lang,
		App:       sess.App,
		Person:    sess.Person,
		Turns:     turns,
		CreatedTs: sess.CreatedTs,
		UpdatedTs: sess.UpdatedTs,
	})
}

// GetHistory returns the turn history; filtered=true drops control markers.
// GET /api/v1/sessions/:id/history?filtered=
func (s *APIV1Service) GetHistory(c echo.Context) error {
	filtered, _ := strconv.ParseBool(c.QueryParam("filtered"))
	turns, err := s.Sessions.History(c.Request().Context(), c.Param("id"), filtered)
	if err != nil {
		return writeError(c, err)
	}
	if turns == nil {
		turns = []memory.Turn{}
	}
	return c.JSON(http.StatusOK, map[string]any{"session_id": c.Param("id"), "turns": turns})
}

// ResetSession deletes the session; the next turn starts fresh.
// DELETE /api/v1/sessions/:id
func (s *APIV1Service) ResetSession(c echo.Context) error {
	if err := s.Sessions.Reset(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListCases returns the newest cases for the operator console.
// GET /api/v1/cases?limit=
func (s *APIV1Service) ListCases(c echo.Context) error {
	if s.Cases == nil {
		return writeError(c, errors.ServiceUnavailable("case store is not configured"))
	}
	list, err := s.Cases.ListCases(c.Request().Context(), queryInt(c, "limit", 20))
	if err != nil {
		return writeError(c, err)
	}
	if list == nil {
		list = []agent.CaseSummary{}
	}
	return c.JSON(http.StatusOK, map[string]any{"cases": list})
}

// ChecklistResponse describes one program wizard.
type ChecklistResponse struct {
	Program      string            `json:"program"`
	Intent       string            `json:"intent"`
	Agent        string            `json:"agent"`
	UIPath       string            `json:"ui_path"`
	Title        map[string]string `json:"title"`
	Types        []string          `json:"types"`
	Reasons      []string          `json:"reasons"`
	PersonFields []string          `json:"person_fields"`
}

// ListChecklists returns the loaded program checklists.
// GET /api/v1/checklists
func (s *APIV1Service) ListChecklists(c echo.Context) error {
	out := []ChecklistResponse{}
	for _, cl := range s.Checklists.All() {
		out = append(out, ChecklistResponse{
			Program:      cl.Program,
			Intent:       cl.Intent,
			Agent:        cl.Agent,
			UIPath:       cl.UIPath,
			Title:        cl.Title,
			Types:        cl.Types,
			Reasons:      cl.Reasons,
			PersonFields: cl.PersonFields,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"checklists": out})
}

func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
