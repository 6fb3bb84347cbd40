package router

import (
	"context"
	"sync"

	"github.com/hrygo/ghiseu/plugin/ai/memory"
)

// MockClassifier is a scripted Classifier for testing.
type MockClassifier struct {
	mu sync.Mutex
	// Results maps an exact message to its answer.
	Results map[string]Result
	// Default is returned for messages without an entry.
	Default Result
	calls   []string
}

// NewMockClassifier creates a MockClassifier that reports StatusUnavailable by default.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{
		Results: make(map[string]Result),
		Default: Result{Status: StatusUnavailable, Intent: IntentUnknown},
	}
}

// Classify implements Classifier.
func (m *MockClassifier) Classify(_ context.Context, text string, _ []memory.Turn) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, text)
	if r, ok := m.Results[text]; ok {
		return r
	}
	return m.Default
}

// Calls returns the messages classified so far.
func (m *MockClassifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
