package common

import (
	"context"
	"time"
)

// RetryPolicy is a bounded retry budget with a pluggable backoff function.
// It is independent of any particular concurrency primitive; callers decide
// what to do with the classified error of the final attempt.
type RetryPolicy struct {
	Backoff     func(attempt int) time.Duration
	MaxAttempts int
}

// LinearBackoff returns a backoff function that waits delay * attempt.
func LinearBackoff(delay time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return delay * time.Duration(attempt)
	}
}

// NewRetryPolicy builds a policy with defaults applied: 3 attempts, linear
// backoff starting at 1200ms.
func NewRetryPolicy(maxAttempts int, delay time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if delay <= 0 {
		delay = 1200 * time.Millisecond
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     LinearBackoff(delay),
	}
}

// Wait sleeps for the policy's backoff after the given attempt number,
// returning early if the context is canceled.
func (p RetryPolicy) Wait(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.Backoff(attempt)):
		return nil
	}
}
