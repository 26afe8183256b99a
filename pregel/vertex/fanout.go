package vertex

import (
	"context"

	"github.com/flowgraph/pregel"
)

// FanOutStrategy computes the payload to send to each of targets from the
// committed state. A target absent from the returned map still receives an
// Activate message with a nil payload.
type FanOutStrategy[S any] func(state S, targets []pregel.VertexId) map[pregel.VertexId]any

// FanOut broadcasts work to multiple downstream vertices in one superstep,
// activating all of Targets. Pair with a FanIn vertex to re-synchronize.
type FanOut[S any] struct {
	pregel.Base[S]

	// Targets lists the vertices to activate.
	Targets []pregel.VertexId

	// Strategy computes each target's payload. Nil means Broadcast with a
	// nil payload for every target.
	Strategy FanOutStrategy[S]
}

// Compute implements pregel.Vertex.
func (f FanOut[S]) Compute(ctx context.Context, sc *pregel.SuperstepContext[S]) (pregel.Result[S], error) {
	var payloads map[pregel.VertexId]any
	if f.Strategy != nil {
		payloads = f.Strategy(sc.State, f.Targets)
	}

	result := pregel.Result[S]{State: pregel.Completed}
	for _, target := range f.Targets {
		result.Send(target, payloads[target])
	}
	return result, nil
}

// Broadcast sends the same payload, computed once from state, to every
// target.
func Broadcast[S any](payload func(state S) any) FanOutStrategy[S] {
	return func(state S, targets []pregel.VertexId) map[pregel.VertexId]any {
		p := payload(state)
		out := make(map[pregel.VertexId]any, len(targets))
		for _, t := range targets {
			out[t] = p
		}
		return out
	}
}

// SplitArray distributes items's elements across targets one-to-one: target
// i receives the bare i-th element. When items and targets are the same
// length, every target gets exactly one element, matching what a
// one-element-per-worker FanOut is meant to deliver. Only when the counts
// differ does it fall back to round-robin bucketing, each target then
// receiving a []any of its assigned elements.
func SplitArray[S any](items func(state S) []any) FanOutStrategy[S] {
	return func(state S, targets []pregel.VertexId) map[pregel.VertexId]any {
		if len(targets) == 0 {
			return nil
		}
		vals := items(state)
		if len(vals) == len(targets) {
			out := make(map[pregel.VertexId]any, len(targets))
			for i, t := range targets {
				out[t] = vals[i]
			}
			return out
		}

		buckets := make(map[pregel.VertexId][]any, len(targets))
		for i, item := range vals {
			t := targets[i%len(targets)]
			buckets[t] = append(buckets[t], item)
		}
		out := make(map[pregel.VertexId]any, len(buckets))
		for t, b := range buckets {
			out[t] = b
		}
		return out
	}
}
