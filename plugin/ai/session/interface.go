// Package session persists chat sessions and runs turns against them.
//
// A Session is created lazily on the first turn for an id. Stores hand out
// deep copies, so no caller ever shares memory with another session.
//
// session 包负责会话持久化与单轮执行；同一会话同一时刻只允许一个轮次运行。
package session

import (
	"context"
	"time"

	"github.com/hrygo/ghiseu/plugin/ai/agent"
	"github.com/hrygo/ghiseu/plugin/ai/docs"
	"github.com/hrygo/ghiseu/plugin/ai/memory"
	"github.com/hrygo/ghiseu/plugin/ai/timeout"
)

// Session is the persisted per-session record.
type Session struct {
	ID        string            `json:"id"`
	Lang      string            `json:"lang,omitempty"`
	History   *memory.History   `json:"history"`
	App       *agent.AppContext `json:"app"`
	Person    agent.Person      `json:"person"`
	CreatedTs int64             `json:"created_ts"`
	UpdatedTs int64             `json:"updated_ts"`
}

// New returns an empty session on uiContext.
func New(id, uiContext string) *Session {
	now := time.Now().Unix()
	return &Session{
		ID:        id,
		History:   memory.NewHistory(timeout.MaxHistoryTurns),
		App:       agent.NewAppContext(uiContext),
		Person:    agent.Person{},
		CreatedTs: now,
		UpdatedTs: now,
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.History = s.History.Clone()
	out.App = s.App.Clone()
	out.Person = s.Person.Clone()
	return &out
}

// normalize fills the fields a decoded or hand-built session may lack.
func (s *Session) normalize() {
	if s.History == nil {
		s.History = memory.NewHistory(timeout.MaxHistoryTurns)
	}
	if s.App == nil {
		s.App = agent.NewAppContext("")
	}
	if s.App.Docs == nil {
		s.App.Docs = make(map[docs.Kind]agent.Doc)
	}
	if s.Person == nil {
		s.Person = agent.Person{}
	}
}

// Summary is one row of a session listing.
type Summary struct {
	ID          string `json:"id"`
	UIContext   string `json:"ui_context"`
	Lang        string `json:"lang,omitempty"`
	Turns       int    `json:"turns"`
	LastMessage string `json:"last_message,omitempty"`
	UpdatedTs   int64  `json:"updated_ts"`
}

func summarize(s *Session) Summary {
	sum := Summary{
		ID:        s.ID,
		Lang:      s.Lang,
		UpdatedTs: s.UpdatedTs,
	}
	if s.App != nil {
		sum.UIContext = s.App.UIContext
	}
	if s.History != nil {
		sum.Turns = s.History.Len()
		if turns := s.History.Filtered(); len(turns) > 0 {
			sum.LastMessage = turns[len(turns)-1].Text
		}
	}
	return sum
}

// Store persists sessions. Implementations return copies and must be safe
// for concurrent use across session ids.
type Store interface {
	// Get returns the session, or nil without error when it does not exist.
	Get(ctx context.Context, id string) (*Session, error)
	// Save stores a copy of s and stamps UpdatedTs.
	Save(ctx context.Context, s *Session) error
	// Delete removes the session; deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
	// List returns the most recently updated sessions first.
	List(ctx context.Context, limit int) ([]Summary, error)
	// CleanupExpired removes sessions not updated since before.
	CleanupExpired(ctx context.Context, before time.Time) (int64, error)
}
