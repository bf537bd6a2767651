package ai

import (
	"context"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Text string
	Err  error
}

// MockProvider is a deterministic Provider for tests and for running the bot
// without credentials. It returns canned responses in FIFO order and records
// every prompt it receives.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []string

	// Handler, when set, answers every call instead of the queue.
	Handler func(ctx context.Context, prompt string) (string, error)
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	handler := m.Handler
	if handler != nil {
		m.mu.Unlock()
		return handler(ctx, prompt)
	}
	defer m.mu.Unlock()

	if len(m.responses) == 0 {
		return "", &ErrProviderUnavailable{}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]
	if resp.Err != nil {
		return "", resp.Err
	}
	return resp.Text, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// Calls returns a copy of the prompts received so far.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
