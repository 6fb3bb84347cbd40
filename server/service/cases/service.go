// Package cases registers citizen applications once a wizard has collected
// everything its checklist requires.
//
// The service validates the person snapshot, assigns a public case number
// (CASE-<shortuuid>) and persists the case with status NEW. It implements the
// case creation and listing contracts the dispatch agents depend on.
package cases

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/ghiseu/plugin/ai/agent"
	"github.com/hrygo/ghiseu/plugin/ocr"
	"github.com/hrygo/ghiseu/store"
)

// UIDPrefix prefixes every public case number.
const UIDPrefix = "CASE-"

// ValidationError lists what is wrong with a submitted person.
// It matches agent.ErrInvalidInput, so callers treat it as permanent.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid person: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == agent.ErrInvalidInput
}

// Service creates and lists cases.
type Service struct {
	store Store
	newID func() string
	now   func() time.Time
}

// NewService creates a case service on st.
func NewService(st Store) *Service {
	return &Service{
		store: st,
		newID: shortuuid.New,
		now:   time.Now,
	}
}

// CreateCase validates req and stores a NEW case.
func (s *Service) CreateCase(ctx context.Context, req agent.CaseRequest) (*agent.CaseResult, error) {
	if strings.TrimSpace(req.Program) == "" {
		return nil, errors.Wrap(agent.ErrInvalidInput, "program is required")
	}
	if problems := ocr.Validate(ocr.Fields(req.Person)); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	person, err := json.Marshal(req.Person)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode person")
	}
	now := s.now().Unix()
	created, err := s.store.CreateCase(ctx, &store.Case{
		UID:               UIDPrefix + s.newID(),
		SessionID:         req.SessionID,
		CreatedTs:         now,
		UpdatedTs:         now,
		Program:           req.Program,
		Type:              req.Type,
		EligibilityReason: req.EligibilityReason,
		SlotID:            req.SlotID,
		Person:            string(person),
		Status:            store.CaseStatusNew,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create case")
	}

	slog.Info("case created",
		"case_id", created.UID,
		"session_id", req.SessionID,
		"program", req.Program,
		"type", req.Type)
	return &agent.CaseResult{ID: created.UID, Status: string(created.Status)}, nil
}

// ListCases returns the newest cases first.
func (s *Service) ListCases(ctx context.Context, limit int) ([]agent.CaseSummary, error) {
	find := &store.FindCase{}
	if limit > 0 {
		find.Limit = &limit
	}
	list, err := s.store.ListCases(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cases")
	}
	out := make([]agent.CaseSummary, 0, len(list))
	for _, c := range list {
		out = append(out, agent.CaseSummary{
			ID:        c.UID,
			Program:   c.Program,
			Type:      c.Type,
			Status:    string(c.Status),
			CreatedTs: c.CreatedTs,
		})
	}
	return out, nil
}

// GetCase returns a case by its public number, or nil when unknown.
func (s *Service) GetCase(ctx context.Context, uid string) (*store.Case, error) {
	return s.store.GetCase(ctx, &store.FindCase{UID: &uid})
}

// UpdateStatus moves a case to status.
func (s *Service) UpdateStatus(ctx context.Context, uid string, status store.CaseStatus) error {
	c, err := s.GetCase(ctx, uid)
	if err != nil {
		return err
	}
	if c == nil {
		return errors.Errorf("case %s not found", uid)
	}
	now := s.now().Unix()
	return s.store.UpdateCase(ctx, &store.UpdateCase{ID: c.ID, UpdatedTs: &now, Status: &status})
}

var (
	_ agent.CaseCreator = (*Service)(nil)
	_ agent.CaseLister  = (*Service)(nil)
)
