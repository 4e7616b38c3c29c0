package llm

import (
	"context"
	"sync"
)

// MockGateway is a test double for Gateway. Behavior is supplied through
// CompleteFunc; every prompt received is recorded for assertions.
type MockGateway struct {
	mu    sync.Mutex
	calls []string

	CompleteFunc func(ctx context.Context, text string, params GenOptions) (string, error)
	HealthyFunc  func(ctx context.Context) bool
}

// NewMockGateway creates a mock that echoes prompts back until a
// CompleteFunc is supplied.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) Complete(ctx context.Context, text string, params GenOptions) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, text, params)
	}
	return text, nil
}

func (m *MockGateway) Healthy(ctx context.Context) bool {
	if m.HealthyFunc != nil {
		return m.HealthyFunc(ctx)
	}
	return true
}

// Calls returns the prompts received so far.
func (m *MockGateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many completions were requested.
func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
