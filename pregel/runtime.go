package pregel

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/flowgraph/pregel/emit"
)

// Runtime drives a compiled Graph through the Pregel superstep loop: compute
// the runnable set, dispatch it bounded-concurrently, merge updates
// deterministically, route messages, checkpoint, repeat until every vertex
// has voted to halt (or completed) with no pending messages, IsTerminal
// reports true, or a budget is exceeded.
//
// Type parameter S is the workflow state type.
type Runtime[S any] struct {
	graph        Graph[S]
	reducer      Reducer[S]
	isTerminal   IsTerminal[S]
	checkpointer Checkpointer[S]
	config       Config
	sched        *scheduler[S]
}

// New constructs a Runtime. checkpointer and isTerminal may be nil: a nil
// checkpointer disables persistence, a nil isTerminal means the workflow
// runs purely on vote-to-halt.
func New[S any](graph Graph[S], reducer Reducer[S], checkpointer Checkpointer[S], isTerminal IsTerminal[S], opts ...Option) *Runtime[S] {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runtime[S]{
		graph:        graph,
		reducer:      reducer,
		isTerminal:   isTerminal,
		checkpointer: checkpointer,
		config:       cfg,
		sched:        newScheduler[S](cfg),
	}
}

// haltState tracks each vertex's vote-to-halt status between supersteps.
type haltState map[VertexId]VertexState

// Run executes the workflow from initial state with the given entry
// messages (commonly Activate(from="", to=entryPoint) for each of the
// graph's entry points), returning the final committed state.
func (rt *Runtime[S]) Run(ctx context.Context, runID string, initial S, entryMessages ...Message) (S, error) {
	if runID == "" {
		runID = uuid.NewString()
	}

	halts := make(haltState)
	queues := make(map[VertexId][]Message)
	for _, ep := range rt.graph.EntryPoints() {
		halts[ep] = Active
	}
	for _, m := range entryMessages {
		queues[m.To] = append(queues[m.To], m)
	}

	return rt.run(ctx, runID, 0, initial, halts, queues)
}

// RunWithRecovery resumes a previously checkpointed run, replaying from the
// last committed superstep. It requires a non-nil checkpointer.
func (rt *Runtime[S]) RunWithRecovery(ctx context.Context, runID string) (S, error) {
	var zero S
	if rt.checkpointer == nil {
		return zero, &StateError{Op: "resume", Cause: fmt.Errorf("pregel: no checkpointer configured")}
	}
	cp, ok, err := rt.checkpointer.LoadLatest(ctx, runID)
	if err != nil {
		return zero, &CheckpointError{Op: "load_latest", RunID: runID, Cause: err}
	}
	if !ok {
		return zero, &CheckpointError{Op: "load_latest", RunID: runID, Cause: fmt.Errorf("no checkpoint found")}
	}

	halts := make(haltState, len(cp.HaltMap))
	for k, v := range cp.HaltMap {
		halts[k] = v
	}
	queues := make(map[VertexId][]Message, len(cp.Queues))
	for k, v := range cp.Queues {
		queues[k] = append([]Message(nil), v...)
	}

	return rt.run(ctx, runID, cp.Superstep, cp.State, halts, queues)
}

func (rt *Runtime[S]) run(ctx context.Context, runID string, startStep int, state S, halts haltState, queues map[VertexId][]Message) (S, error) {
	emitter := rt.config.emitter
	if emitter == nil || !rt.config.TracingEnabled {
		emitter = emit.NewNull()
	}

	var deadline time.Time
	if rt.config.WorkflowTimeout > 0 {
		deadline = time.Now().Add(rt.config.WorkflowTimeout)
	}
	rng := rand.New(rand.NewSource(seedFromRunID(runID)))

	for step := startStep; ; step++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return state, ErrWorkflowTimeout
		}
		select {
		case <-ctx.Done():
			return state, ErrCancelled
		default:
		}

		runnable := computeRunnable(halts, queues)
		rt.config.metrics.setRunnableSetSize(len(runnable))
		if len(runnable) == 0 {
			return state, nil
		}
		if rt.config.MaxSupersteps > 0 && step >= rt.config.MaxSupersteps {
			return state, ErrMaxSuperstepsExceeded
		}

		stepStart := time.Now()
		emitter.Emit(emit.Event{RunID: runID, Superstep: step, Msg: "superstep_start", Meta: map[string]any{"runnable": len(runnable)}})

		scFor := func(id VertexId) *SuperstepContext[S] {
			vertex, _ := rt.graph.Vertex(id)
			inbound := queues[id]
			if vertex != nil {
				inbound = vertex.CombineMessages(inbound)
			}
			return &SuperstepContext[S]{Step: step, Self: id, State: state, Inbound: inbound, RunID: runID}
		}

		results := rt.sched.runSuperstep(ctx, rt.graph, runnable, scFor, rng, func(delta int) {
			rt.config.metrics.addInflight(delta)
		})

		updates := make(map[VertexId]S, len(results))
		nextQueues := make(map[VertexId][]Message)
		var merr *multierror.Error

		for _, r := range results {
			if r.err != nil {
				merr = multierror.Append(merr, r.err)
				if rt.config.metrics != nil {
					rt.config.metrics.incRetry(runID, r.vertex)
				}
				emitter.Emit(emit.Event{RunID: runID, Superstep: step, VertexID: string(r.vertex), Msg: "vertex_error", Meta: map[string]any{"error": r.err.Error()}})
				continue
			}
			updates[r.vertex] = r.result.Update
			halts[r.vertex] = r.result.State
			for _, m := range r.result.Outbox {
				if m.To == End {
					continue
				}
				if halts[m.To] == Completed {
					if rt.config.metrics != nil {
						rt.config.metrics.incRoutingError(runID, "completed_target")
					}
					emitter.Emit(emit.Event{RunID: runID, Superstep: step, VertexID: string(m.To), Msg: "message_dropped_completed"})
					continue
				}
				if _, known := rt.graph.Vertex(m.To); !known {
					if rt.config.metrics != nil {
						rt.config.metrics.incRoutingError(runID, "unknown_vertex")
					}
					merr = multierror.Append(merr, &VertexError{ID: m.To, Superstep: step, Cause: ErrRouting})
					continue
				}
				if _, ok := halts[m.To]; !ok {
					halts[m.To] = Active
				}
				nextQueues[m.To] = append(nextQueues[m.To], m)
			}
			delete(queues, r.vertex)
		}

		state = MergeUpdates(rt.reducer, state, updates)
		if merr != nil && merr.Len() > 0 {
			return state, merr.ErrorOrNil()
		}
		queues = nextQueues

		emitter.Emit(emit.Event{RunID: runID, Superstep: step, Msg: "superstep_end"})
		if rt.config.metrics != nil {
			rt.config.metrics.recordSuperstepLatency(runID, time.Since(stepStart))
		}

		if rt.isTerminal != nil && rt.isTerminal(state) {
			rt.maybeCheckpoint(ctx, runID, step+1, state, halts, queues, true)
			return state, nil
		}

		if rt.checkpointer != nil && rt.config.CheckpointInterval > 0 && (step+1)%rt.config.CheckpointInterval == 0 {
			rt.maybeCheckpoint(ctx, runID, step+1, state, halts, queues, false)
		}
	}
}

func (rt *Runtime[S]) maybeCheckpoint(ctx context.Context, runID string, nextStep int, state S, halts haltState, queues map[VertexId][]Message, final bool) {
	if rt.checkpointer == nil {
		return
	}
	cp := Checkpoint[S]{
		RunID:     runID,
		Superstep: nextStep,
		State:     state,
		HaltMap:   copyHaltState(halts),
		Queues:    copyQueues(queues),
		Timestamp: time.Now(),
	}
	outcome := "ok"
	if err := rt.checkpointer.Save(ctx, cp); err != nil {
		outcome = "error"
	}
	if rt.config.metrics != nil {
		rt.config.metrics.incCheckpoint(runID, outcome)
	}
}

// computeRunnable returns the vertices eligible to run this superstep,
// sorted for deterministic dispatch order: Active vertices unconditionally,
// Halted vertices only if a message is queued for them. Completed vertices
// never run again.
func computeRunnable(halts haltState, queues map[VertexId][]Message) []VertexId {
	seen := make(map[VertexId]bool)
	var runnable []VertexId

	for id, state := range halts {
		switch state {
		case Active:
			if !seen[id] {
				runnable = append(runnable, id)
				seen[id] = true
			}
		case Halted:
			if len(queues[id]) > 0 && !seen[id] {
				runnable = append(runnable, id)
				seen[id] = true
			}
		case Completed:
			// never runs again
		}
	}

	sort.Slice(runnable, func(i, j int) bool { return runnable[i] < runnable[j] })
	return runnable
}

func copyHaltState(h haltState) map[VertexId]VertexState {
	out := make(map[VertexId]VertexState, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

func copyQueues(q map[VertexId][]Message) map[VertexId][]Message {
	out := make(map[VertexId][]Message, len(q))
	for k, v := range q {
		out[k] = append([]Message(nil), v...)
	}
	return out
}

func seedFromRunID(runID string) int64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(runID); i++ {
		h ^= uint64(runID[i])
		h *= 1099511628211
	}
	return int64(h &^ (1 << 63))
}
