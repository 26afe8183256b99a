package vertex

import (
	"context"
	"fmt"

	"github.com/flowgraph/pregel"
)

type subAgentDepthKey struct{}

func depthFromContext(ctx context.Context) int {
	if d, ok := ctx.Value(subAgentDepthKey{}).(int); ok {
		return d
	}
	return 0
}

func withDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, subAgentDepthKey{}, depth)
}

// SubAgent runs a nested Pregel workflow to completion as a single vertex
// computation. The nested graph has its own state type C, projected from
// and back into the parent's state type S by ToSubState/FromSubState.
//
// Type parameters: S is the parent workflow state, C is the nested
// workflow's state.
type SubAgent[S any, C any] struct {
	pregel.Base[S]

	// Graph is the compiled nested workflow.
	Graph pregel.Graph[C]

	// Reducer merges the nested workflow's updates.
	Reducer pregel.Reducer[C]

	// ToSubState projects the parent state into the nested workflow's
	// initial state. Required.
	ToSubState func(state S) C

	// FromSubState folds the nested workflow's final state back into a
	// parent state update. Required.
	FromSubState func(parent S, sub C) S

	// MaxRecursion bounds nesting depth across repeated SubAgent calls
	// along one call chain. Zero means unlimited.
	MaxRecursion int

	// Next lists vertices to activate once the nested run completes.
	Next []pregel.VertexId
}

// Compute implements pregel.Vertex.
func (sa SubAgent[S, C]) Compute(ctx context.Context, sc *pregel.SuperstepContext[S]) (pregel.Result[S], error) {
	depth := depthFromContext(ctx)
	if sa.MaxRecursion > 0 && depth >= sa.MaxRecursion {
		return pregel.Result[S]{}, fmt.Errorf("%w: sub-agent %s at depth %d", pregel.ErrRecursionLimit, sa.ID(), depth)
	}

	rt := pregel.New[C](sa.Graph, sa.Reducer, nil, nil)
	childCtx := withDepth(ctx, depth+1)
	runID := fmt.Sprintf("%s/%s@%d", sc.RunID, sa.ID(), sc.Step)

	final, err := rt.Run(childCtx, runID, sa.ToSubState(sc.State))
	if err != nil {
		return pregel.Result[S]{}, fmt.Errorf("sub-agent %s: %w", sa.ID(), err)
	}

	result := pregel.Result[S]{
		Update: sa.FromSubState(sc.State, final),
		State:  pregel.Completed,
	}
	if len(sa.Next) > 0 {
		result.State = pregel.Halted
	}
	for _, n := range sa.Next {
		result.Send(n, nil)
	}
	return result, nil
}
