package llm

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
)

// MockResponse is one scripted reply of a MockClient.
type MockResponse struct {
	Content string
	Err     error
}

// MockClient replays scripted responses per task and records requests.
// Tasks without a script return ErrEmptyResponse.
type MockClient struct {
	mu        sync.Mutex
	responses map[Task][]MockResponse
	requests  []Request
}

// NewMockClient creates an empty scripted client.
func NewMockClient() *MockClient {
	return &MockClient{responses: make(map[Task][]MockResponse)}
}

// On queues a reply for task. The last queued reply repeats once the
// queue is drained.
func (m *MockClient) On(task Task, content string, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses[task] = append(m.responses[task], MockResponse{Content: content, Err: err})

	return m
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	queue := m.responses[req.Task]
	if len(queue) == 0 {
		return "", fmt.Errorf("mock %s: %w", req.Task, apperrors.ErrEmptyResponse)
	}

	resp := queue[0]
	if len(queue) > 1 {
		m.responses[req.Task] = queue[1:]
	}

	return resp.Content, resp.Err
}

// Requests returns the recorded requests for task.
func (m *MockClient) Requests(task Task) []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Request

	for _, r := range m.requests {
		if r.Task == task {
			out = append(out, r)
		}
	}

	return out
}
