package pregel

import (
	"errors"
	"fmt"
)

// Sentinel errors for the runtime's budget and progress checks. Wrap these
// with errors.Is when inspecting a failed Run.
var (
	// ErrMaxSuperstepsExceeded is returned when the runtime reaches
	// Config.MaxSupersteps without the workflow terminating.
	ErrMaxSuperstepsExceeded = errors.New("pregel: max supersteps exceeded")

	// ErrWorkflowTimeout is returned when total wall-clock execution
	// exceeds Config.WorkflowTimeout.
	ErrWorkflowTimeout = errors.New("pregel: workflow timeout exceeded")

	// ErrVertexTimeout is returned when a single vertex's Compute call
	// exceeds its configured timeout.
	ErrVertexTimeout = errors.New("pregel: vertex exceeded its timeout")

	// ErrRecursionLimit is returned by SubAgent vertices when nested
	// workflow depth exceeds their configured MaxRecursion.
	ErrRecursionLimit = errors.New("pregel: sub-agent recursion limit exceeded")

	// ErrRouting is returned when a router finds no matching branch and no
	// default, or when a message targets an unknown vertex.
	ErrRouting = errors.New("pregel: routing error")

	// ErrCancelled is returned when a caller-supplied context is cancelled
	// mid-run; the last committed checkpoint is left intact.
	ErrCancelled = errors.New("pregel: run cancelled")
)

// VertexError reports a failure from a single vertex's Compute call. It
// does not by itself abort the superstep: other vertices running
// concurrently still commit their updates. Whether a VertexError fails the
// whole workflow is decided by retry policy and the vertex kind's
// retryability (see policy.go).
type VertexError struct {
	// ID is the vertex that failed.
	ID VertexId

	// Superstep is the step index during which the failure occurred.
	Superstep int

	// Attempt is the 0-based retry attempt number at the time of failure.
	Attempt int

	// Cause is the underlying error.
	Cause error
}

func (e *VertexError) Error() string {
	return fmt.Sprintf("pregel: vertex %s failed at superstep %d (attempt %d): %v", e.ID, e.Superstep, e.Attempt, e.Cause)
}

// Unwrap supports errors.Is/As against the underlying cause.
func (e *VertexError) Unwrap() error { return e.Cause }

// CheckpointError wraps a failure from a Checkpointer operation (save,
// load, list, prune).
type CheckpointError struct {
	Op    string // "save", "load", "load_latest", "list", "prune"
	RunID string
	Cause error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("pregel: checkpoint %s failed for run %s: %v", e.Op, e.RunID, e.Cause)
}

func (e *CheckpointError) Unwrap() error { return e.Cause }

// StateError wraps a failure applying or serializing workflow state (for
// example, a reducer panic recovered by the runtime, or a JSON marshal
// error during checkpointing).
type StateError struct {
	Op    string
	Cause error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("pregel: state error during %s: %v", e.Op, e.Cause)
}

func (e *StateError) Unwrap() error { return e.Cause }

// BuildError is returned by the graph builder. These are build-time-only;
// the runtime never raises them.
type BuildError struct {
	Code    string // "NO_ENTRY_POINT", "UNKNOWN_NODE", "DUPLICATE_NODE"
	Message string
}

func (e *BuildError) Error() string { return e.Message }
