package agent

import (
	"context"

	"github.com/hrygo/ghiseu/store"
)

// UploadSource reads the uploads recorded for a session.
type UploadSource interface {
	// ListUploads returns the session's uploads ordered by id ascending.
	ListUploads(ctx context.Context, sessionID string) ([]*store.Upload, error)
	// LatestUploadID returns the newest upload id, or 0 when there is none.
	LatestUploadID(ctx context.Context, sessionID string) (int64, error)
}

// CaseRequest is what the case agent submits.
type CaseRequest struct {
	SessionID         string `json:"session_id"`
	Program           string `json:"program"`
	Type              string `json:"type"`
	EligibilityReason string `json:"eligibility_reason"`
	SlotID            string `json:"slot_id"`
	Person            Person `json:"person"`
}

// CaseResult identifies a created case.
type CaseResult struct {
	ID     string `json:"case_id"`
	Status string `json:"status"`
}

// CaseCreator creates cases. Calls are at-most-once; callers never retry.
type CaseCreator interface {
	CreateCase(ctx context.Context, req CaseRequest) (*CaseResult, error)
}

// CaseSummary is one row of the operator's case list.
type CaseSummary struct {
	ID        string `json:"case_id"`
	Program   string `json:"program"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	CreatedTs int64  `json:"created_ts"`
}

// CaseLister lists recent cases for the operator console.
type CaseLister interface {
	ListCases(ctx context.Context, limit int) ([]CaseSummary, error)
}

// StoreUploads reads uploads from the store.
type StoreUploads struct {
	Store *store.Store
}

func (s *StoreUploads) ListUploads(ctx context.Context, sessionID string) ([]*store.Upload, error) {
	return s.Store.ListUploads(ctx, &store.FindUpload{SessionID: &sessionID})
}

func (s *StoreUploads) LatestUploadID(ctx context.Context, sessionID string) (int64, error) {
	return s.Store.LatestUploadID(ctx, sessionID)
}
