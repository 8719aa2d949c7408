package utils

import (
	"fmt"
	"time"
)

// RetryConfig wraps an operation with a fixed-delay retry policy.
// The Retryable predicate decides which failures are worth replaying
// (navigation/timeout class); anything else fails immediately since a
// structural mismatch will not change on replay.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool
	OnRetry     func(operation string, attempt int, err error)
	Logger      *Logger
}

// Do executes fn, replaying retryable failures up to MaxAttempts with a
// fixed wait between attempts. The last failure is returned once the
// attempt budget is exhausted.
func (r *RetryConfig) Do(operation string, fn func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if r.Retryable != nil && !r.Retryable(lastErr) {
			return lastErr
		}

		if attempt < attempts {
			if r.Logger != nil {
				r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v — retrying in %v",
					operation, attempt, attempts, lastErr, r.Delay)
			}
			if r.OnRetry != nil {
				r.OnRetry(operation, attempt, lastErr)
			}
			time.Sleep(r.Delay)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, lastErr)
}
