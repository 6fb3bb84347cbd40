package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hrygo/ghiseu/store"
)

// MockUploadSource is an in-memory UploadSource for testing.
type MockUploadSource struct {
	mu      sync.Mutex
	uploads map[string][]*store.Upload
	nextID  int64
	// Err, when set, is returned by every call.
	Err error
}

// NewMockUploadSource creates an empty MockUploadSource.
func NewMockUploadSource() *MockUploadSource {
	return &MockUploadSource{uploads: make(map[string][]*store.Upload)}
}

// Add records an upload for sessionID, assigning the next id when ID is zero.
func (m *MockUploadSource) Add(sessionID string, u store.Upload) *store.Upload {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		m.nextID++
		u.ID = m.nextID
	} else if u.ID > m.nextID {
		m.nextID = u.ID
	}
	u.SessionID = sessionID
	if u.Status == "" {
		u.Status = store.UploadStatusOK
	}
	m.uploads[sessionID] = append(m.uploads[sessionID], &u)
	sort.Slice(m.uploads[sessionID], func(i, j int) bool {
		return m.uploads[sessionID][i].ID < m.uploads[sessionID][j].ID
	})
	return &u
}

func (m *MockUploadSource) ListUploads(_ context.Context, sessionID string) ([]*store.Upload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*store.Upload, 0, len(m.uploads[sessionID]))
	for _, u := range m.uploads[sessionID] {
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MockUploadSource) LatestUploadID(_ context.Context, sessionID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var latest int64
	for _, u := range m.uploads[sessionID] {
		if u.ID > latest {
			latest = u.ID
		}
	}
	return latest, nil
}

// MockCaseCreator records requests and returns sequential case ids.
type MockCaseCreator struct {
	mu       sync.Mutex
	requests []CaseRequest
	// Err, when set, fails every call.
	Err error
}

func NewMockCaseCreator() *MockCaseCreator {
	return &MockCaseCreator{}
}

func (m *MockCaseCreator) CreateCase(_ context.Context, req CaseRequest) (*CaseResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return &CaseResult{ID: fmt.Sprintf("CASE-%04d", len(m.requests)), Status: "NEW"}, nil
}

func (m *MockCaseCreator) ListCases(_ context.Context, limit int) ([]CaseSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []CaseSummary
	for i := len(m.requests) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		r := m.requests[i]
		out = append(out, CaseSummary{ID: fmt.Sprintf("CASE-%04d", i+1), Program: r.Program, Type: r.Type, Status: "NEW"})
	}
	return out, nil
}

// Requests returns the submitted requests.
func (m *MockCaseCreator) Requests() []CaseRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CaseRequest(nil), m.requests...)
}
