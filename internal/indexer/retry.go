package indexer

import (
	"context"
	"errors"
	"time"
)

// maxRetryDelay caps the doubling backoff.
const maxRetryDelay = 30 * time.Second

// withRetry runs fn until it succeeds, maxRetries is exhausted or ctx ends.
// Cancellation errors returned by fn are not retried.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if err := sleepContext(ctx, delay); err != nil {
			return err
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}
