package pregel

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		policy  RetryPolicy
		attempt int
		err     error
		want    bool
	}{
		{"under max, nil Retryable always retries", RetryPolicy{MaxRetries: 3}, 0, errBoom, true},
		{"at max, no more retries", RetryPolicy{MaxRetries: 3}, 3, errBoom, false},
		{"custom Retryable declines", RetryPolicy{MaxRetries: 3, Retryable: func(error) bool { return false }}, 0, errBoom, false},
		{"zero MaxRetries never retries", RetryPolicy{}, 0, errBoom, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.shouldRetry(tt.attempt, tt.err)
			if got != tt.want {
				t.Errorf("shouldRetry(%d, err) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestRetryPolicy_BackoffGrowsAndCaps(t *testing.T) {
	p := RetryPolicy{
		InitialBackoff: 10 * time.Millisecond,
		Multiplier:     2,
		MaxBackoff:     50 * time.Millisecond,
	}
	rng := rand.New(rand.NewSource(1))

	d0 := p.backoff(0, nil)
	d1 := p.backoff(1, nil)
	d3 := p.backoff(3, nil)

	if d0 != 10*time.Millisecond {
		t.Errorf("attempt 0: expected 10ms, got %v", d0)
	}
	if d1 != 20*time.Millisecond {
		t.Errorf("attempt 1: expected 20ms, got %v", d1)
	}
	if d3 > 50*time.Millisecond {
		t.Errorf("attempt 3: expected capped at 50ms, got %v", d3)
	}

	// jitter is additive and bounded by InitialBackoff
	withJitter := p.backoff(0, rng)
	if withJitter < 10*time.Millisecond || withJitter > 20*time.Millisecond {
		t.Errorf("jittered backoff out of expected range: %v", withJitter)
	}
}
