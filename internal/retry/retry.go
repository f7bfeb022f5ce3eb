package retry

import (
	"context"
	"fmt"
	"time"
)

type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // double the delay after each failed attempt
	// RetryIf decides whether an error is worth another attempt.
	// Nil means every error is retryable.
	RetryIf func(error) bool
}

func WithRetry(ctx context.Context, config Config, fn func() error) error {
	delay := config.Delay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		if config.RetryIf != nil && !config.RetryIf(err) {
			return err
		}

		if attempt == config.MaxAttempts {
			return fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if config.Backoff {
			delay *= 2
		}
	}

	return nil
}
