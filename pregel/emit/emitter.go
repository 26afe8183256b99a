package emit

import "context"

// Emitter receives observability events from runtime execution.
//
// Implementations must be non-blocking with respect to workflow execution
// and safe for concurrent use: the runtime may call Emit from several
// vertex-dispatch goroutines within the same superstep.
type Emitter interface {
	// Emit sends a single event. Implementations should never block the
	// caller meaningfully and should never panic; internal failures should
	// be swallowed or logged, not propagated.
	Emit(e Event)

	// EmitBatch sends multiple events, e.g. all events produced by one
	// superstep, in one call. Returns error only for catastrophic backend
	// failures, never for per-event delivery problems.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until all buffered events have been delivered or ctx is
	// done. Safe to call multiple times.
	Flush(ctx context.Context) error
}
