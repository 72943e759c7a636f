// Package task provides the generic retry wrapper and bounded-concurrency
// batch executor used by the store and available to other callers.
package task

import (
	"context"
	"time"

	"modelman/pkg/logger"
)

// Retry defaults.
const (
	DefaultMaxAttempts = 3
	DefaultRetryBase   = 1 * time.Second
)

// Retry re-invokes op until it succeeds or maxAttempts are exhausted,
// sleeping base*2^(n-1) between attempts. The final failure is returned,
// never swallowed. maxAttempts <= 0 uses the default of 3.
func Retry[T any](ctx context.Context, op func(context.Context) (T, error), maxAttempts int) (T, error) {
	return RetryDelay(ctx, op, maxAttempts, DefaultRetryBase)
}

// RetryDelay is Retry with an explicit base delay.
func RetryDelay[T any](ctx context.Context, op func(context.Context) (T, error), maxAttempts int, base time.Duration) (T, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var zero T
	var lastErr error
	delay := base
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		log := logger.With("task")
		log.Warn().
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(err).
			Msg("Operation failed, retrying")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return zero, lastErr
}
