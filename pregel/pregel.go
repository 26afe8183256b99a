// Package pregel implements a Pregel-style superstep scheduler for graphs of
// heterogeneous compute vertices (LLM agents, tool calls, routers, fan-out/
// fan-in barriers, and nested sub-workflows) with durable checkpointing.
//
// A workflow is built once via build.Graph, compiled into an immutable
// graph, and driven by a Runtime against caller-supplied state. Execution
// proceeds in supersteps: every runnable vertex computes concurrently
// against the same committed state snapshot, updates are merged
// deterministically, messages are routed to their targets for the next
// superstep, and the step is optionally checkpointed before the next one
// begins.
package pregel

// VertexId identifies a vertex uniquely within one graph.
type VertexId string

// End is the sentinel target that terminates a workflow. It never names an
// actual vertex; edges and messages addressed to End signal "stop here."
const End VertexId = "END"
