package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/flowgraph/pregel/model"
)

func TestChatModel_ReturnsResponsesInOrderThenRepeatsLast(t *testing.T) {
	m := NewChatModel(
		model.ChatOut{Text: "first"},
		model.ChatOut{Text: "second"},
	)
	ctx := context.Background()

	out1, _ := m.Chat(ctx, nil, nil)
	out2, _ := m.Chat(ctx, nil, nil)
	out3, _ := m.Chat(ctx, nil, nil)

	if out1.Text != "first" || out2.Text != "second" || out3.Text != "second" {
		t.Errorf("expected first,second,second (repeating last), got %q %q %q", out1.Text, out2.Text, out3.Text)
	}
}

func TestChatModel_RecordsCalls(t *testing.T) {
	m := NewChatModel(model.ChatOut{Text: "ok"})
	messages := []model.Message{{Role: model.RoleUser, Content: "hi"}}
	if _, err := m.Chat(context.Background(), messages, nil); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(m.Calls()) != 1 || m.Calls()[0].Content != "hi" {
		t.Errorf("expected recorded call with Content 'hi', got %v", m.Calls())
	}
}

func TestChatModel_ReturnsConfiguredError(t *testing.T) {
	boom := errors.New("boom")
	m := &ChatModel{Err: boom}
	_, err := m.Chat(context.Background(), nil, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected configured error, got %v", err)
	}
}
