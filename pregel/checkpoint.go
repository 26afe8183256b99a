package pregel

import (
	"context"
	"time"
)

// Checkpoint is a durable snapshot of execution state sufficient to resume
// a run: the committed state, the per-vertex halt map, and the pending
// message queues keyed by target vertex.
//
// Type parameter S is the workflow state type.
type Checkpoint[S any] struct {
	// RunID identifies the execution this checkpoint belongs to.
	RunID string `json:"run_id"`

	// Superstep is the index of the next superstep to run when this
	// checkpoint is loaded (i.e. the step after the one that produced it).
	Superstep int `json:"superstep"`

	// State is the committed workflow state as of Superstep.
	State S `json:"state"`

	// HaltMap records each vertex's VertexState as of Superstep.
	HaltMap map[VertexId]VertexState `json:"halt_map"`

	// Queues holds pending inbound messages per target vertex, to be
	// delivered at the start of Superstep.
	Queues map[VertexId][]Message `json:"queues"`

	// Timestamp is when the checkpoint was created.
	Timestamp time.Time `json:"timestamp"`
}

// Checkpointer durably snapshots and restores Checkpoint values. All
// operations are atomic with respect to partial failure: a reader never
// observes a half-written checkpoint. Concrete backends live under
// package checkpoint (file, sqlite, mysql, etcd).
//
// Type parameter S is the workflow state type.
type Checkpointer[S any] interface {
	// Save persists c. The bundled backends write-then-rename (file), use a
	// single upsert statement (sqlite/mysql), or a single Put under a
	// zero-padded, sortable key (etcd).
	Save(ctx context.Context, c Checkpoint[S]) error

	// LoadLatest returns the most recently saved checkpoint for runID.
	// Returns ok=false, not an error, if none exists.
	LoadLatest(ctx context.Context, runID string) (c Checkpoint[S], ok bool, err error)

	// Load returns the checkpoint saved for (runID, superstep). Returns
	// ok=false, not an error, if it was never saved or has been pruned.
	Load(ctx context.Context, runID string, superstep int) (c Checkpoint[S], ok bool, err error)

	// List returns the superstep indices with saved checkpoints for runID,
	// ascending.
	List(ctx context.Context, runID string) ([]int, error)

	// Prune removes all but the most recent keepCount checkpoints for
	// runID.
	Prune(ctx context.Context, runID string, keepCount int) error
}
