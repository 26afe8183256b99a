package pregel

import (
	"math/rand"
	"time"
)

// RetryPolicy configures automatic retry of a failed vertex within one
// superstep's dispatch wrapper. A vertex whose kind does not permit retry
// (routers never retry routing failures, per spec) ignores this policy
// entirely and fails the workflow on first error.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first.
	// Zero means no retries.
	MaxRetries int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// Multiplier scales the backoff on each subsequent retry.
	Multiplier float64

	// MaxBackoff caps the computed delay.
	MaxBackoff time.Duration

	// Retryable decides whether a given error should be retried. Nil means
	// every error is retryable up to MaxRetries.
	Retryable func(error) bool
}

// DefaultRetryPolicy matches the runtime configuration record's defaults:
// max_retries=3, initial_backoff=1s, multiplier=2.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		Multiplier:     2,
		MaxBackoff:     30 * time.Second,
	}
}

// shouldRetry reports whether attempt (0-based, the attempt that just
// failed) should be retried given err.
func (p RetryPolicy) shouldRetry(attempt int, err error) bool {
	if attempt >= p.MaxRetries {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// backoff computes the delay before retry attempt (0-based, the retry about
// to be made) using exponential backoff with jitter: the delay is
// min(initial * multiplier^attempt, max) plus a random jitter in
// [0, initial) to avoid synchronized retry storms across vertices.
func (p RetryPolicy) backoff(attempt int, rng *rand.Rand) time.Duration {
	base := p.InitialBackoff
	if base <= 0 {
		base = time.Second
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2
	}

	delay := float64(base)
	for i := 0; i < attempt; i++ {
		delay *= mult
	}
	d := time.Duration(delay)
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}

	var jitter time.Duration
	if rng != nil {
		jitter = time.Duration(rng.Int63n(int64(base)))
	}
	return d + jitter
}

// Retryable is implemented by vertex kinds that want to override the
// engine's default retry eligibility (e.g. routers declare routing
// failures fatal). A vertex that doesn't implement this interface, such as
// Agent, is treated as retryable.
type Retryable interface {
	RetryableError(err error) bool
}
