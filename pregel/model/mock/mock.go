// Package mock provides a scriptable model.ChatModel for tests and local
// development, so Agent vertex behavior can be exercised without calling a
// real LLM provider.
package mock

import (
	"context"
	"sync"

	"github.com/flowgraph/pregel/model"
)

// ChatModel returns a configured sequence of responses, repeating the last
// one once exhausted, and records every call it receives. Safe for
// concurrent use.
type ChatModel struct {
	// Responses is returned in order, one per call; the final entry repeats
	// once exhausted.
	Responses []model.ChatOut

	// Err, if set, is returned instead of a response on every call.
	Err error

	mu    sync.Mutex
	calls []model.Message
	index int
}

// NewChatModel creates a mock that returns responses in sequence.
func NewChatModel(responses ...model.ChatOut) *ChatModel {
	return &ChatModel{Responses: responses}
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, messages...)

	if m.Err != nil {
		return model.ChatOut{}, m.Err
	}
	if len(m.Responses) == 0 {
		return model.ChatOut{}, nil
	}

	idx := m.index
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.index++
	}
	return m.Responses[idx], nil
}

// Calls returns every message passed to Chat so far, across all calls.
func (m *ChatModel) Calls() []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Message, len(m.calls))
	copy(out, m.calls)
	return out
}
