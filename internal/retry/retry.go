// Package retry retries transient model-client failures with exponential
// backoff and jitter.
package retry

import (
	"context"
	"time"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
)

// Notify is called before each backoff wait with the failed attempt number
// (1-based), the error, and the delay about to be slept.
type Notify func(attempt int, err error, delay time.Duration)

// effectiveDelay honors a server Retry-After hint when it exceeds the
// configured backoff.
func effectiveDelay(configured time.Duration, err error) time.Duration {
	if server := ai.RetryAfterOf(err); server > configured {
		return server
	}
	return configured
}

// Do executes fn with retry logic.
// It respects context cancellation during backoff waits and returns the
// last error once all attempts fail or a non-transient error occurs.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	return DoNotify(ctx, cfg, nil, fn)
}

// DoNotify is like Do but reports each retry to notify (which may be nil).
func DoNotify[T any](ctx context.Context, cfg Config, notify Notify, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return zero, err
		}

		if attempt < attempts-1 {
			delay := effectiveDelay(cfg.Delay(attempt), err)
			if notify != nil {
				notify(attempt+1, err, delay)
			}
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, lastErr
}
