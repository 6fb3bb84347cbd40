package store

import (
	"context"
)

// CaseStatus is the lifecycle state of a case.
type CaseStatus string

const (
	CaseStatusNew        CaseStatus = "NEW"
	CaseStatusInProgress CaseStatus = "IN_PROGRESS"
	CaseStatusDone       CaseStatus = "DONE"
	CaseStatusRejected   CaseStatus = "REJECTED"
)

// Case is an application submitted by a citizen.
type Case struct {
	ID int64
	// UID is the public case number, e.g. CASE-3HhNq7x4.
	UID string

	// Standard fields
	SessionID string
	CreatedTs int64
	UpdatedTs int64

	// Domain specific fields
	Program           string
	Type              string
	EligibilityReason string
	SlotID            string
	// Person is the JSON encoded person snapshot.
	Person string
	Status CaseStatus
}

type FindCase struct {
	ID        *int64
	UID       *string
	SessionID *string
	Program   *string
	Status    *CaseStatus
	Limit     *int
}

type UpdateCase struct {
	ID        int64
	UpdatedTs *int64
	Status    *CaseStatus
	SlotID    *string
}

func (s *Store) CreateCase(ctx context.Context, create *Case) (*Case, error) {
	if create.Status == "" {
		create.Status = CaseStatusNew
	}
	if create.Person == "" {
		create.Person = "{}"
	}
	return s.driver.CreateCase(ctx, create)
}

// ListCases returns cases, newest first.
func (s *Store) ListCases(ctx context.Context, find *FindCase) ([]*Case, error) {
	return s.driver.ListCases(ctx, find)
}

func (s *Store) GetCase(ctx context.Context, find *FindCase) (*Case, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.ListCases(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateCase(ctx context.Context, update *UpdateCase) error {
	return s.driver.UpdateCase(ctx, update)
}
