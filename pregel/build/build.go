// Package build provides the fluent graph builder and eager validator that
// produce an immutable pregel.Graph. Unlike the teacher engine's lazy,
// inline validation at Add/Connect/Run time, every structural error this
// package can detect — a missing entry point, an edge or vertex referencing
// an unregistered ID, a duplicate vertex ID — is raised here, at build time,
// and never again: once Build succeeds the resulting CompiledGraph cannot
// fail with these errors at runtime.
package build

import (
	"sort"

	"github.com/flowgraph/pregel"
)

// Graph is the fluent builder. Zero value is usable; construct with New.
//
// Type parameter S is the workflow state type.
type Graph[S any] struct {
	vertices map[pregel.VertexId]pregel.Vertex[S]
	order    []pregel.VertexId
	edges    []pregel.Edge[S]
	entries  []pregel.VertexId
}

// New creates an empty builder.
func New[S any]() *Graph[S] {
	return &Graph[S]{vertices: make(map[pregel.VertexId]pregel.Vertex[S])}
}

// AddVertex registers v under its own ID. Returns the builder for chaining.
// A duplicate ID is not rejected here; it surfaces as a DUPLICATE_NODE
// BuildError from Build, so construction order never matters.
func (g *Graph[S]) AddVertex(v pregel.Vertex[S]) *Graph[S] {
	id := v.ID()
	g.order = append(g.order, id)
	g.vertices[id] = v
	return g
}

// Connect adds a metadata edge from -> to, optionally guarded by when. Edges
// are used by the validator for reachability checks and by Router vertices
// to describe their declared branch targets; they never carry messages.
func (g *Graph[S]) Connect(from, to pregel.VertexId, when pregel.Predicate[S]) *Graph[S] {
	g.edges = append(g.edges, pregel.Edge[S]{From: from, To: to, When: when})
	return g
}

// EntryPoint marks id as activated at superstep 0.
func (g *Graph[S]) EntryPoint(id pregel.VertexId) *Graph[S] {
	g.entries = append(g.entries, id)
	return g
}

// Build validates the graph and returns an immutable CompiledGraph. It
// returns a *pregel.BuildError on the first validation failure found, in
// this order: duplicate vertex ID, no entry point, unknown vertex
// referenced by an entry point or edge.
func (g *Graph[S]) Build() (*CompiledGraph[S], error) {
	if err := g.checkDuplicates(); err != nil {
		return nil, err
	}
	if len(g.entries) == 0 {
		return nil, &pregel.BuildError{Code: "NO_ENTRY_POINT", Message: "pregel/build: graph has no entry point; call EntryPoint at least once"}
	}
	for _, id := range g.entries {
		if _, ok := g.vertices[id]; !ok {
			return nil, &pregel.BuildError{Code: "UNKNOWN_NODE", Message: "pregel/build: entry point references unknown vertex " + string(id)}
		}
	}
	for _, e := range g.edges {
		if _, ok := g.vertices[e.From]; !ok {
			return nil, &pregel.BuildError{Code: "UNKNOWN_NODE", Message: "pregel/build: edge references unknown source vertex " + string(e.From)}
		}
		if e.To != pregel.End {
			if _, ok := g.vertices[e.To]; !ok {
				return nil, &pregel.BuildError{Code: "UNKNOWN_NODE", Message: "pregel/build: edge references unknown target vertex " + string(e.To)}
			}
		}
	}

	vertices := make(map[pregel.VertexId]pregel.Vertex[S], len(g.vertices))
	for k, v := range g.vertices {
		vertices[k] = v
	}
	entries := append([]pregel.VertexId(nil), g.entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i] < entries[j] })

	return &CompiledGraph[S]{
		vertices: vertices,
		entries:  entries,
		edges:    append([]pregel.Edge[S](nil), g.edges...),
	}, nil
}

func (g *Graph[S]) checkDuplicates() error {
	seen := make(map[pregel.VertexId]int, len(g.order))
	for _, id := range g.order {
		seen[id]++
		if seen[id] > 1 {
			return &pregel.BuildError{Code: "DUPLICATE_NODE", Message: "pregel/build: duplicate vertex ID " + string(id)}
		}
	}
	return nil
}

// CompiledGraph is the immutable, validated result of Graph.Build. It
// implements pregel.Graph.
type CompiledGraph[S any] struct {
	vertices map[pregel.VertexId]pregel.Vertex[S]
	entries  []pregel.VertexId
	edges    []pregel.Edge[S]
}

// Vertex implements pregel.Graph.
func (c *CompiledGraph[S]) Vertex(id pregel.VertexId) (pregel.Vertex[S], bool) {
	v, ok := c.vertices[id]
	return v, ok
}

// EntryPoints implements pregel.Graph.
func (c *CompiledGraph[S]) EntryPoints() []pregel.VertexId {
	return append([]pregel.VertexId(nil), c.entries...)
}

// Edges returns a copy of the graph's declared edges, for introspection.
func (c *CompiledGraph[S]) Edges() []pregel.Edge[S] {
	return append([]pregel.Edge[S](nil), c.edges...)
}

// EdgesFrom returns the edges declared with From == id, in declaration
// order.
func (c *CompiledGraph[S]) EdgesFrom(id pregel.VertexId) []pregel.Edge[S] {
	var out []pregel.Edge[S]
	for _, e := range c.edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// Unreachable returns vertex IDs that cannot be reached from any entry
// point by following edges. This is a non-fatal diagnostic — Build does
// not fail on it — since Router/FanOut vertices can address targets
// dynamically via messages without a declared edge.
func (c *CompiledGraph[S]) Unreachable() []pregel.VertexId {
	reached := make(map[pregel.VertexId]bool)
	queue := append([]pregel.VertexId(nil), c.entries...)
	for _, id := range queue {
		reached[id] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range c.edges {
			if e.From == id && e.To != pregel.End && !reached[e.To] {
				reached[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}

	var out []pregel.VertexId
	for id := range c.vertices {
		if !reached[id] {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
