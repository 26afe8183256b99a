package vertex

import (
	"context"
	"fmt"

	"github.com/flowgraph/pregel"
	"github.com/flowgraph/pregel/tool"
)

// Tool invokes a single named tool once per superstep it runs, with no LLM
// in the loop. Use this for deterministic workflow steps (validation,
// persistence, notification) that don't need a model decision.
type Tool[S any] struct {
	pregel.Base[S]

	// Tools resolves ToolName. Required.
	Tools tool.Runtime

	// ToolName identifies which registered tool to call.
	ToolName string

	// BuildInput constructs the tool call's input from state and inbound
	// messages. Required.
	BuildInput func(state S, inbound []pregel.Message) map[string]any

	// ApplyOutput folds the tool's result into a state update. Required.
	ApplyOutput func(state S, output map[string]any) S

	// Next lists vertices to activate after a successful call.
	Next []pregel.VertexId
}

// Compute implements pregel.Vertex.
func (t Tool[S]) Compute(ctx context.Context, sc *pregel.SuperstepContext[S]) (pregel.Result[S], error) {
	impl, ok := t.Tools.Lookup(t.ToolName)
	if !ok {
		return pregel.Result[S]{}, fmt.Errorf("tool vertex %s: unknown tool %q", t.ID(), t.ToolName)
	}

	input := t.BuildInput(sc.State, sc.Inbound)
	output, err := impl.Call(ctx, input)
	if err != nil {
		return pregel.Result[S]{}, fmt.Errorf("tool vertex %s: %w", t.ID(), err)
	}

	result := pregel.Result[S]{
		Update: t.ApplyOutput(sc.State, output),
		State:  pregel.Completed,
	}
	if len(t.Next) > 0 {
		result.State = pregel.Halted
	}
	for _, n := range t.Next {
		result.Send(n, output)
	}
	return result, nil
}
