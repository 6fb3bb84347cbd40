package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store for testing. Err, when set, fails every call.
type MockStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	saves    int
	Err      error
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{sessions: make(map[string]*Session)}
}

func (m *MockStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.sessions[id].Clone(), nil
}

func (m *MockStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	s.UpdatedTs = time.Now().Unix()
	m.sessions[s.ID] = s.Clone()
	m.saves++
	return nil
}

// SetSessionDirectly stores s without touching its timestamps.
func (m *MockStore) SetSessionDirectly(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
}

func (m *MockStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockStore) List(_ context.Context, limit int) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]Summary, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, summarize(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedTs != out[j].UpdatedTs {
			return out[i].UpdatedTs > out[j].UpdatedTs
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockStore) CleanupExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for id, s := range m.sessions {
		if s.UpdatedTs < before.Unix() {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Saves returns how many times Save succeeded.
func (m *MockStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Len returns the number of stored sessions.
func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

var _ Store = (*MockStore)(nil)
