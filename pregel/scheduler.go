package pregel

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// dispatchResult is one vertex's outcome within a superstep.
type dispatchResult[S any] struct {
	vertex VertexId
	result Result[S]
	err    error
}

// scheduler bounds how many vertex computations may be in flight at once
// within a single superstep, using a counting semaphore in place of the
// teacher's heap-ordered Frontier: a Pregel superstep has no cross-step
// ordering to preserve, since every vertex in the runnable set observes the
// identical committed snapshot and none of their outputs are visible to
// each other until the step commits.
type scheduler[S any] struct {
	sem    *semaphore.Weighted
	config Config
}

func newScheduler[S any](cfg Config) *scheduler[S] {
	n := cfg.Parallelism
	if n <= 0 {
		n = defaultParallelism()
	}
	return &scheduler[S]{
		sem:    semaphore.NewWeighted(int64(n)),
		config: cfg,
	}
}

// runSuperstep computes every vertex in runnable concurrently, bounded by
// the scheduler's semaphore, retrying per the configured RetryPolicy, and
// returns one dispatchResult per runnable vertex, at the same index as the
// vertex in runnable, regardless of completion order.
func (s *scheduler[S]) runSuperstep(
	ctx context.Context,
	graph Graph[S],
	runnable []VertexId,
	sc func(id VertexId) *SuperstepContext[S],
	rng *rand.Rand,
	onInflight func(delta int),
) []dispatchResult[S] {
	results := make([]dispatchResult[S], len(runnable))
	var wg sync.WaitGroup

	for i, id := range runnable {
		i, id := i, id
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := s.sem.Acquire(ctx, 1); err != nil {
				results[i] = dispatchResult[S]{vertex: id, err: err}
				return
			}
			if onInflight != nil {
				onInflight(1)
			}
			defer func() {
				if onInflight != nil {
					onInflight(-1)
				}
				s.sem.Release(1)
			}()

			v, ok := graph.Vertex(id)
			if !ok {
				results[i] = dispatchResult[S]{vertex: id, err: &VertexError{ID: id, Cause: ErrRouting}}
				return
			}

			results[i] = s.computeWithRetry(ctx, v, sc(id), rng)
		}()
	}

	wg.Wait()
	return results
}

// computeWithRetry calls v.Compute, retrying per the scheduler's
// RetryPolicy (and the vertex's own Retryable override, if implemented)
// until it succeeds, exhausts retries, or ctx is done.
func (s *scheduler[S]) computeWithRetry(ctx context.Context, v Vertex[S], vsc *SuperstepContext[S], rng *rand.Rand) dispatchResult[S] {
	policy := s.config.RetryPolicy
	if retryable, ok := v.(Retryable); ok {
		wrapped := policy
		wrapped.Retryable = retryable.RetryableError
		policy = wrapped
	}

	vctx := ctx
	var cancel context.CancelFunc
	if s.config.VertexTimeout > 0 {
		vctx, cancel = context.WithTimeout(ctx, s.config.VertexTimeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		res, err := v.Compute(vctx, vsc)
		if err == nil {
			return dispatchResult[S]{vertex: vsc.Self, result: res}
		}
		if vctx.Err() != nil {
			lastErr = &VertexError{ID: vsc.Self, Superstep: vsc.Step, Attempt: attempt, Cause: ErrVertexTimeout}
			break
		}
		lastErr = &VertexError{ID: vsc.Self, Superstep: vsc.Step, Attempt: attempt, Cause: err}

		if !policy.shouldRetry(attempt, err) {
			break
		}

		delay := policy.backoff(attempt, rng)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-vctx.Done():
			timer.Stop()
			lastErr = &VertexError{ID: vsc.Self, Superstep: vsc.Step, Attempt: attempt, Cause: ErrVertexTimeout}
			return dispatchResult[S]{vertex: vsc.Self, err: lastErr}
		}
	}
	return dispatchResult[S]{vertex: vsc.Self, err: lastErr}
}
