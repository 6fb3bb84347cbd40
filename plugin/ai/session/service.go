package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/ghiseu/plugin/ai/agent"
	"github.com/hrygo/ghiseu/plugin/ai/memory"
	"github.com/hrygo/ghiseu/plugin/ai/timeout"
)

// TurnRequest is one inbound message.
type TurnRequest struct {
	SessionID string            `json:"session_id"`
	Message   string            `json:"message"`
	Form      *agent.FormInput  `json:"form,omitempty"`
	Person    map[string]string `json:"person,omitempty"`
}

// TurnResult is what the presentation layer renders.
type TurnResult struct {
	SessionID string            `json:"session_id"`
	Lang      string            `json:"lang,omitempty"`
	Reply     string            `json:"reply"`
	Steps     []agent.Step      `json:"steps"`
	Trace     []agent.AgentID   `json:"trace,omitempty"`
	App       *agent.AppContext `json:"app"`
	Person    agent.Person      `json:"person"`
}

// ServiceConfig wires the turn service.
type ServiceConfig struct {
	Store      Store
	Dispatcher *agent.Dispatcher
	// Locker defaults to one waiting timeout.SessionBusyTimeout.
	Locker      *Locker
	TurnTimeout time.Duration
	// Logger returns the request-scoped logger; defaults to slog.Default.
	Logger func(ctx context.Context) *slog.Logger
}

// Service runs turns against persisted sessions, one turn per session at a time.
//
// Service 负责加载会话、加锁、调度一轮并保存结果；故障轮次不会被持久化。
type Service struct {
	store       Store
	dispatcher  *agent.Dispatcher
	locker      *Locker
	turnTimeout time.Duration
	logger      func(ctx context.Context) *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		store:       cfg.Store,
		dispatcher:  cfg.Dispatcher,
		locker:      cfg.Locker,
		turnTimeout: cfg.TurnTimeout,
		logger:      cfg.Logger,
	}
	if s.locker == nil {
		s.locker = NewLocker(timeout.SessionBusyTimeout)
	}
	if s.turnTimeout <= 0 {
		s.turnTimeout = timeout.TurnTimeout
	}
	if s.logger == nil {
		s.logger = func(context.Context) *slog.Logger { return slog.Default() }
	}
	return s
}

// Turn runs one message. On a dispatch fault the result still carries the
// apology reply, the error is returned, and the session is left unchanged.
func (s *Service) Turn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		return nil, errors.Wrap(agent.ErrInvalidInput, "session id is required")
	}
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.turnTimeout)
	defer cancel()
	log := s.logger(ctx).With("session_id", id)

	sess, err := s.load(ctx, id, req.Form)
	if err != nil {
		return nil, err
	}

	st := agent.NewState(id, req.Message)
	st.Lang = sess.Lang
	st.Person = sess.Person.Clone()
	st.Person.Merge(req.Person)
	st.App = sess.App.Clone()
	st.Form = req.Form
	st.Recent = sess.History.Recent(timeout.ClassifierHistoryTurns)

	start := time.Now()
	out, err := s.dispatcher.RunTurn(ctx, st)
	if err != nil {
		log.Error("turn failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return resultOf(out), err
	}

	sess.Lang = out.Lang
	sess.Person = out.Person.Clone()
	sess.App = out.App.Clone()
	if msg := strings.TrimSpace(req.Message); msg != "" {
		sess.History.Add(memory.RoleUser, msg)
	}
	if out.Reply != "" {
		sess.History.Add(memory.RoleAssistant, out.Reply)
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "save session")
	}

	log.Info("turn completed",
		"trace", out.Trace,
		"intent", out.Intent,
		"phase", out.App.Phase.String(),
		"steps", len(out.Steps),
		"duration_ms", time.Since(start).Milliseconds())
	return resultOf(out), nil
}

func (s *Service) load(ctx context.Context, id string, form *agent.FormInput) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	if sess != nil {
		sess.normalize()
		return sess, nil
	}
	ui := ""
	if form != nil {
		ui = form.UIContext
	}
	return New(id, ui), nil
}

func resultOf(st *agent.State) *TurnResult {
	steps := st.Steps
	if steps == nil {
		steps = []agent.Step{}
	}
	return &TurnResult{
		SessionID: st.SessionID,
		Lang:      st.Lang,
		Reply:     st.Reply,
		Steps:     steps,
		Trace:     st.Trace,
		App:       st.App,
		Person:    st.Person,
	}
}

// Get returns a snapshot of the session, or nil when it does not exist.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// History returns the session's turns; filtered drops control markers.
func (s *Service) History(ctx context.Context, id string, filtered bool) ([]memory.Turn, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil || sess == nil {
		return nil, err
	}
	sess.normalize()
	if filtered {
		return sess.History.Filtered(), nil
	}
	return sess.History.Raw(), nil
}

// List returns recently active sessions.
func (s *Service) List(ctx context.Context, limit int) ([]Summary, error) {
	return s.store.List(ctx, limit)
}

// Reset deletes the session so the next turn starts fresh.
func (s *Service) Reset(ctx context.Context, id string) error {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger(ctx).Info("session reset", "session_id", id)
	return nil
}
