package store

import (
	"context"
)

// SessionRecord is the persisted form of a chat session.
type SessionRecord struct {
	ID string
	// Data is the JSON encoded session.
	Data      []byte
	CreatedTs int64
	UpdatedTs int64
}

type FindSession struct {
	ID            *string
	UpdatedBefore *int64
	Limit         *int
}

type DeleteSession struct {
	ID            *string
	UpdatedBefore *int64
}

// UpsertSession inserts or replaces the session row. CreatedTs is kept on update.
func (s *Store) UpsertSession(ctx context.Context, upsert *SessionRecord) error {
	return s.driver.UpsertSession(ctx, upsert)
}

func (s *Store) ListSessions(ctx context.Context, find *FindSession) ([]*SessionRecord, error) {
	return s.driver.ListSessions(ctx, find)
}

func (s *Store) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	limit := 1
	list, err := s.ListSessions(ctx, &FindSession{ID: &id, Limit: &limit})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// DeleteSessions removes matching sessions and returns how many were removed.
func (s *Store) DeleteSessions(ctx context.Context, delete *DeleteSession) (int64, error) {
	return s.driver.DeleteSessions(ctx, delete)
}
