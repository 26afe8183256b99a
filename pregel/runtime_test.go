package pregel

import (
	"context"
	"errors"
	"testing"
)

type chainState struct {
	Visited []VertexId
	Count   int
}

func chainReducer(prev, update chainState) chainState {
	prev.Visited = append(append([]VertexId(nil), prev.Visited...), update.Visited...)
	prev.Count += update.Count
	return prev
}

type fixedGraph[S any] struct {
	vertices map[VertexId]Vertex[S]
	entries  []VertexId
}

func (g *fixedGraph[S]) Vertex(id VertexId) (Vertex[S], bool) {
	v, ok := g.vertices[id]
	return v, ok
}

func (g *fixedGraph[S]) EntryPoints() []VertexId { return g.entries }

func step(id VertexId, next VertexId, inc int) VertexFunc[chainState] {
	return VertexFunc[chainState]{
		Base: Base[chainState]{VertexID: id},
		Fn: func(ctx context.Context, sc *SuperstepContext[chainState]) (Result[chainState], error) {
			res := Result[chainState]{
				Update: chainState{Visited: []VertexId{id}, Count: inc},
				State:  Completed,
			}
			if next != "" {
				res.State = Halted
				res.Send(next, nil)
			}
			return res, nil
		},
	}
}

func TestRuntime_LinearChainRunsToCompletion(t *testing.T) {
	graph := &fixedGraph[chainState]{
		vertices: map[VertexId]Vertex[chainState]{
			"a": step("a", "b", 1),
			"b": step("b", "c", 1),
			"c": step("c", "", 1),
		},
		entries: []VertexId{"a"},
	}

	rt := New[chainState](graph, chainReducer, nil, nil, WithMaxSupersteps(10))
	final, err := rt.Run(context.Background(), "run-1", chainState{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if final.Count != 3 {
		t.Errorf("expected Count = 3, got %d", final.Count)
	}
	want := []VertexId{"a", "b", "c"}
	if len(final.Visited) != len(want) {
		t.Fatalf("expected %d visits, got %d: %v", len(want), len(final.Visited), final.Visited)
	}
	for i, v := range want {
		if final.Visited[i] != v {
			t.Errorf("visit order mismatch at %d: expected %s, got %s", i, v, final.Visited[i])
		}
	}
}

func TestRuntime_UnknownRouteTargetFailsTheRun(t *testing.T) {
	graph := &fixedGraph[chainState]{
		vertices: map[VertexId]Vertex[chainState]{
			"a": step("a", "ghost", 1),
		},
		entries: []VertexId{"a"},
	}

	rt := New[chainState](graph, chainReducer, nil, nil)
	_, err := rt.Run(context.Background(), "run-2", chainState{})
	if err == nil {
		t.Fatal("expected an error routing to an unknown vertex, got nil")
	}
	var verr *VertexError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a *VertexError in the chain, got %T: %v", err, err)
	}
}

func TestRuntime_MaxSuperstepsExceeded(t *testing.T) {
	// A vertex that always re-activates itself never halts.
	var self VertexFunc[chainState]
	self = VertexFunc[chainState]{
		Base: Base[chainState]{VertexID: "loop"},
		Fn: func(ctx context.Context, sc *SuperstepContext[chainState]) (Result[chainState], error) {
			res := Result[chainState]{Update: chainState{Count: 1}, State: Active}
			return res, nil
		},
	}
	graph := &fixedGraph[chainState]{
		vertices: map[VertexId]Vertex[chainState]{"loop": self},
		entries:  []VertexId{"loop"},
	}

	rt := New[chainState](graph, chainReducer, nil, nil, WithMaxSupersteps(3))
	_, err := rt.Run(context.Background(), "run-3", chainState{})
	if !errors.Is(err, ErrMaxSuperstepsExceeded) {
		t.Fatalf("expected ErrMaxSuperstepsExceeded, got %v", err)
	}
}

func TestRuntime_IsTerminalStopsEarly(t *testing.T) {
	graph := &fixedGraph[chainState]{
		vertices: map[VertexId]Vertex[chainState]{
			"a": step("a", "b", 1),
			"b": step("b", "c", 1),
			"c": step("c", "", 1),
		},
		entries: []VertexId{"a"},
	}

	isTerminal := func(s chainState) bool { return s.Count >= 2 }
	rt := New[chainState](graph, chainReducer, nil, isTerminal)
	final, err := rt.Run(context.Background(), "run-4", chainState{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if final.Count != 2 {
		t.Errorf("expected early stop at Count = 2, got %d", final.Count)
	}
}

func TestComputeRunnable_HaltedOnlyRunsWithPendingMessage(t *testing.T) {
	halts := haltState{"a": Active, "b": Halted, "c": Completed}
	queues := map[VertexId][]Message{"b": {{To: "b"}}}

	got := computeRunnable(halts, queues)
	want := []VertexId{"a", "b"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mismatch at %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
