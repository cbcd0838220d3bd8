// internal/scraper/retry.go
package scraper

import (
	"context"
	"time"
)

// RetryPolicy is a reusable description of how an operation is retried:
// attempt budget, backoff schedule, and which errors are worth retrying.
// The same policy drives both page fetching and link-resolution probes.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(err error) bool
}

// NewRetryPolicy builds a policy with linearly increasing backoff capped at
// maxDelay. With baseDelay=3s the schedule is 3s, 6s, 9s, ...
func NewRetryPolicy(maxAttempts int, baseDelay, maxDelay time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff: func(attempt int) time.Duration {
			d := baseDelay * time.Duration(attempt)
			if d > maxDelay {
				d = maxDelay
			}
			return d
		},
		Retryable: func(err error) bool { return err != nil },
	}
}

// Do runs op until it succeeds, the attempt budget is exhausted, the error
// is not retryable, or the context is done. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, op func(attempt int) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(attempt)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		if err := sleepContext(ctx, p.Backoff(attempt)); err != nil {
			return err
		}
	}

	return lastErr
}

// sleepContext sleeps for d unless the context finishes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
