// Package vertex provides the concrete Vertex kinds a graph is built from:
// Agent, Tool, Router, SubAgent, FanOut, FanIn, and Transform. Each is a
// plain value type satisfying pregel.Vertex[S]; there is no inheritance
// hierarchy between them, only interface satisfaction.
package vertex

import (
	"context"
	"fmt"

	"github.com/flowgraph/pregel"
	"github.com/flowgraph/pregel/model"
	"github.com/flowgraph/pregel/tool"
)

// Agent runs an LLM tool-call loop: build a conversation from state, call
// Model, execute any requested tool calls, feed results back, and repeat
// until StopCondition reports done or MaxTurns is reached.
//
// Type parameter S is the workflow state type.
type Agent[S any] struct {
	pregel.Base[S]

	// Model is the LLM capability the agent calls. Required.
	Model model.ChatModel

	// Tools resolves tool calls the model requests. Nil means the agent
	// never offers tools and ToolSpecs/StopCondition's ToolCalls are
	// ignored.
	Tools tool.Runtime

	// ToolSpecs advertises available tools to the model, matching Tools'
	// registered names.
	ToolSpecs []model.ToolSpec

	// SystemPrompt, if non-empty, is prepended as a system message on every
	// turn.
	SystemPrompt string

	// BuildMessages constructs the conversation to send on the first turn
	// from the committed state and this vertex's inbound messages. Required.
	BuildMessages func(state S, inbound []pregel.Message) []model.Message

	// ApplyResponse folds the model's final response into a state update.
	// Required.
	ApplyResponse func(state S, out model.ChatOut) S

	// StopCondition reports whether turn's output ends the loop. Nil means
	// stop as soon as the model returns no tool calls.
	StopCondition func(out model.ChatOut, turn int) bool

	// MaxTurns bounds the tool-call loop. Zero means 1 (no tool-call
	// follow-up).
	MaxTurns int

	// Next lists vertices to activate once the loop ends.
	Next []pregel.VertexId

	// Cost, if set, records each turn's token usage for spend attribution.
	Cost *pregel.CostTracker
}

// Compute implements pregel.Vertex.
func (a Agent[S]) Compute(ctx context.Context, sc *pregel.SuperstepContext[S]) (pregel.Result[S], error) {
	maxTurns := a.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 1
	}

	messages := a.BuildMessages(sc.State, sc.Inbound)
	if a.SystemPrompt != "" {
		messages = append([]model.Message{{Role: model.RoleSystem, Content: a.SystemPrompt}}, messages...)
	}

	specs := a.ToolSpecs
	if a.Tools == nil {
		specs = nil
	}

	var out model.ChatOut
	for turn := 0; turn < maxTurns; turn++ {
		var err error
		out, err = a.Model.Chat(ctx, messages, specs)
		if err != nil {
			return pregel.Result[S]{}, fmt.Errorf("agent %s: %w", a.ID(), err)
		}
		if a.Cost != nil && out.Model != "" {
			if _, costErr := a.Cost.RecordLLMCall(a.ID(), out.Model, out.InputTokens, out.OutputTokens); costErr != nil {
				_ = costErr // unpriced model; spend simply isn't attributed
			}
		}

		done := a.StopCondition != nil && a.StopCondition(out, turn)
		if a.StopCondition == nil {
			done = len(out.ToolCalls) == 0
		}
		if done || len(out.ToolCalls) == 0 || a.Tools == nil {
			break
		}

		messages = append(messages, model.Message{Role: model.RoleAssistant, Content: out.Text})
		for _, call := range out.ToolCalls {
			result, toolErr := a.invokeTool(ctx, call)
			content := formatToolResult(result, toolErr)
			messages = append(messages, model.Message{Role: model.RoleTool, Content: content, ToolCallID: call.ID})
		}
	}

	result := pregel.Result[S]{
		Update: a.ApplyResponse(sc.State, out),
		State:  pregel.Halted,
	}
	for _, n := range a.Next {
		result.Send(n, out)
	}
	return result, nil
}

func (a Agent[S]) invokeTool(ctx context.Context, call model.ToolCall) (map[string]any, error) {
	t, ok := a.Tools.Lookup(call.Name)
	if !ok {
		return nil, fmt.Errorf("agent %s: unknown tool %q", a.ID(), call.Name)
	}
	return t.Call(ctx, call.Input)
}

func formatToolResult(result map[string]any, err error) string {
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return fmt.Sprintf("%v", result)
}
