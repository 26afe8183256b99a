package vertex

import (
	"context"
	"fmt"

	"github.com/flowgraph/pregel"
	"github.com/flowgraph/pregel/model"
)

// RouteFunc decides which vertex to activate next given the committed
// state. It must be deterministic for the state-field and custom
// strategies; the LLM strategy is the one deliberate exception.
type RouteFunc[S any] func(ctx context.Context, state S) (pregel.VertexId, error)

// Router picks exactly one downstream vertex to activate per superstep and
// sends it an Activate message. Routing failures are never retried: a
// router that can't decide has a configuration bug, not a transient fault.
// Router always votes Halted, never Completed, so a later message (e.g. a
// loop back through a branch it previously dispatched to) can reactivate
// it to re-decide.
type Router[S any] struct {
	pregel.Base[S]

	// Route decides the next vertex. Required.
	Route RouteFunc[S]
}

// Compute implements pregel.Vertex.
func (r Router[S]) Compute(ctx context.Context, sc *pregel.SuperstepContext[S]) (pregel.Result[S], error) {
	target, err := r.Route(ctx, sc.State)
	if err != nil {
		return pregel.Result[S]{}, fmt.Errorf("%w: router %s: %v", pregel.ErrRouting, r.ID(), err)
	}

	result := pregel.Result[S]{State: pregel.Halted}
	result.Send(target, nil)
	return result, nil
}

// RetryableError implements pregel.Retryable: routers never retry.
func (r Router[S]) RetryableError(err error) bool { return false }

// StateField builds a RouteFunc that reads a discrete value out of state
// via key, looks it up in branches, and falls back to def if no branch
// matches (or def is End if unset).
func StateField[S any](key func(state S) string, branches map[string]pregel.VertexId, def pregel.VertexId) RouteFunc[S] {
	return func(_ context.Context, state S) (pregel.VertexId, error) {
		k := key(state)
		if id, ok := branches[k]; ok {
			return id, nil
		}
		if def != "" {
			return def, nil
		}
		return "", fmt.Errorf("no branch for key %q and no default", k)
	}
}

// LLMDecision builds a RouteFunc that asks chatModel to choose among
// branches by name, constructing the prompt from state via prompt. The
// model's full response text must equal one of branches' keys (after the
// caller's own normalization inside prompt/parse, if needed).
func LLMDecision[S any](chatModel model.ChatModel, systemPrompt string, prompt func(state S) string, branches map[string]pregel.VertexId) RouteFunc[S] {
	return func(ctx context.Context, state S) (pregel.VertexId, error) {
		messages := []model.Message{
			{Role: model.RoleSystem, Content: systemPrompt},
			{Role: model.RoleUser, Content: prompt(state)},
		}
		out, err := chatModel.Chat(ctx, messages, nil)
		if err != nil {
			return "", err
		}
		id, ok := branches[out.Text]
		if !ok {
			return "", fmt.Errorf("model chose unknown branch %q", out.Text)
		}
		return id, nil
	}
}

// Custom wraps an arbitrary decision function as a RouteFunc, for branch
// logic that doesn't fit StateField or LLMDecision.
func Custom[S any](fn func(state S) (pregel.VertexId, error)) RouteFunc[S] {
	return func(_ context.Context, state S) (pregel.VertexId, error) {
		return fn(state)
	}
}
