// Package emit provides pluggable observability for Pregel runtime
// execution: structured events describing superstep and vertex activity,
// fanned out to logging, in-memory, or OpenTelemetry backends.
package emit

// Event is an observability event emitted during workflow execution.
type Event struct {
	// RunID identifies the workflow execution that produced this event.
	RunID string

	// Superstep is the superstep index (0-indexed). Zero for run-level
	// events such as "run_start".
	Superstep int

	// VertexID identifies the vertex this event concerns. Empty for
	// run-level or superstep-level events.
	VertexID string

	// Msg is a short, stable event name. The runtime emits
	// "superstep_start", "superstep_end", "vertex_error" and
	// "message_dropped_completed".
	Msg string

	// Meta carries event-specific structured fields, e.g. "runnable" on
	// "superstep_start" and "error" on "vertex_error".
	Meta map[string]any
}
