package vertex

import (
	"context"

	"github.com/flowgraph/pregel"
)

// Transform is a pure compute vertex: no LLM call, no tool call, no nested
// workflow, just a deterministic function of state and inbound messages.
// Generalizes the teacher's plain NodeFunc for the subset of workflow steps
// that are ordinary data transformations (formatting, validation,
// aggregation) with no external collaborator.
type Transform[S any] struct {
	pregel.Base[S]

	// Fn computes the state update. Required.
	Fn func(state S, inbound []pregel.Message) (S, error)

	// Next lists vertices to activate after Fn succeeds.
	Next []pregel.VertexId
}

// Compute implements pregel.Vertex.
func (t Transform[S]) Compute(ctx context.Context, sc *pregel.SuperstepContext[S]) (pregel.Result[S], error) {
	update, err := t.Fn(sc.State, sc.Inbound)
	if err != nil {
		return pregel.Result[S]{}, err
	}

	result := pregel.Result[S]{Update: update, State: pregel.Completed}
	if len(t.Next) > 0 {
		result.State = pregel.Halted
	}
	for _, n := range t.Next {
		result.Send(n, nil)
	}
	return result, nil
}
