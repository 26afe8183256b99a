package vertex

import (
	"context"

	"github.com/flowgraph/pregel"
)

// MergeStrategy folds this superstep's inbound messages into state,
// reporting whether the barrier is satisfied (complete) or more messages
// are still expected from other sources. FanIn stays Halted, not
// Completed, until complete is true, so it runs again whenever a later
// superstep delivers another source's message.
type MergeStrategy[S any] func(state S, msgs []pregel.Message) (update S, complete bool)

// FanIn re-synchronizes branches a FanOut (or independent vertices) split
// off: it accumulates messages across supersteps until MergeStrategy
// reports every expected source has arrived, then activates Next.
type FanIn[S any] struct {
	pregel.Base[S]

	// Merge folds inbound messages into a state update and reports barrier
	// completion. Required.
	Merge MergeStrategy[S]

	// Next lists vertices to activate once the barrier completes.
	Next []pregel.VertexId
}

// Compute implements pregel.Vertex.
func (f FanIn[S]) Compute(ctx context.Context, sc *pregel.SuperstepContext[S]) (pregel.Result[S], error) {
	update, complete := f.Merge(sc.State, sc.Inbound)

	if !complete {
		return pregel.Result[S]{Update: update, State: pregel.Halted}, nil
	}

	result := pregel.Result[S]{Update: update, State: pregel.Completed}
	for _, n := range f.Next {
		result.Send(n, nil)
	}
	return result, nil
}

// CollectArray accumulates every inbound message's payload into a slice via
// accumulate, completing once total has received expected messages.
// received and total are supplied by the caller's state so progress
// survives checkpoint/resume.
func CollectArray[S any](
	accumulate func(state S, payloads []any) S,
	received func(state S) int,
	expected int,
) MergeStrategy[S] {
	return func(state S, msgs []pregel.Message) (S, bool) {
		payloads := make([]any, len(msgs))
		for i, m := range msgs {
			payloads[i] = m.Payload
		}
		updated := accumulate(state, payloads)
		return updated, received(updated) >= expected
	}
}

// FirstSuccessWins completes as soon as any inbound message's payload
// passes isSuccess, applying only that message via apply; later messages
// for the same barrier are ignored.
func FirstSuccessWins[S any](apply func(state S, payload any) S, isSuccess func(payload any) bool) MergeStrategy[S] {
	return func(state S, msgs []pregel.Message) (S, bool) {
		for _, m := range msgs {
			if isSuccess(m.Payload) {
				return apply(state, m.Payload), true
			}
		}
		return state, false
	}
}
