package tool

import (
	"context"
	"sync"
)

// MockTool returns a configured sequence of responses, repeating the last
// once exhausted, and records every call for test assertions.
type MockTool struct {
	// ToolName is returned by Name.
	ToolName string

	// Responses is returned in order, one per call.
	Responses []map[string]any

	// Err, if set, is returned instead of a response on every call.
	Err error

	// Calls records every invocation, in order.
	Calls []MockToolCall

	mu        sync.Mutex
	callIndex int
}

// MockToolCall records one Call invocation's input.
type MockToolCall struct {
	Input map[string]any
}

// Name implements Tool.
func (m *MockTool) Name() string { return m.ToolName }

// Call implements Tool.
func (m *MockTool) Call(ctx context.Context, input map[string]any) (map[string]any, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockToolCall{Input: input})

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return map[string]any{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// CallCount returns the number of times Call has been invoked.
func (m *MockTool) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
