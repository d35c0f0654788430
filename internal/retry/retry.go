// Package retry provides a small retry helper with incremental backoff for
// transient upstream failures.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialDelay is the wait before the first retry; each subsequent wait
	// grows linearly (delay, 2*delay, ...), matching the upstream client's
	// incremental backoff.
	InitialDelay time.Duration
	// IsRetryable decides whether an error is worth retrying. A nil func
	// retries everything.
	IsRetryable func(error) bool
}

// DefaultConfig returns the retry configuration used for gateway calls.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
	}
}

// Do executes fn with retry. Non-retryable errors are returned immediately;
// retryable ones are returned after MaxAttempts is exhausted.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if cfg.IsRetryable != nil && !cfg.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		wait := time.Duration(attempt) * cfg.InitialDelay
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
