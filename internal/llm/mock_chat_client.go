package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockChatClient is a test double for ChatClient.
// CompleteFunc overrides the behaviour entirely. Otherwise Replies are
// returned in order, one per call, and Errors (same index) take precedence
// over the reply at that position.
// Thread-safe for use in concurrent tests.
type MockChatClient struct {
	CompleteFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Replies      []string
	Errors       []error

	mu sync.Mutex

	// Requests records every request for assertions
	Requests []ChatRequest
}

// Ensure MockChatClient implements ChatClient
var _ ChatClient = (*MockChatClient)(nil)

func (m *MockChatClient) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	call := len(m.Requests)
	m.Requests = append(m.Requests, req)
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if call < len(m.Errors) && m.Errors[call] != nil {
		return nil, m.Errors[call]
	}
	if call >= len(m.Replies) {
		return nil, fmt.Errorf("mock chat client: unexpected call %d", call+1)
	}
	return &ChatResponse{Content: m.Replies[call], Model: "mock"}, nil
}

// Calls returns the number of requests received so far.
func (m *MockChatClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
