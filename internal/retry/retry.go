// Package retry wraps fallible collaborator calls with bounded exponential
// backoff. Only errors the caller classifies as transient are retried;
// everything else is re-raised immediately.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/logger"
)

// Default retry parameters, tuned for rate-limited HTTP APIs.
const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = time.Second
	DefaultMaxDelay     = 30 * time.Second
)

// Config controls retry behaviour.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration

	// IsTransient classifies an error as worth retrying. Each
	// collaborator binding supplies its own predicate (429 status,
	// rate-limit error code, message substring). A nil predicate
	// retries nothing.
	IsTransient func(error) bool
}

// DefaultConfig returns a Config with default parameters and the given
// transient predicate.
func DefaultConfig(isTransient func(error) bool) Config {
	return Config{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		IsTransient:  isTransient,
	}
}

// Do executes task, retrying transient failures with exponential backoff.
// The name appears in retry logs. Exhausting all retries returns the last
// error; non-transient errors return immediately.
func Do(ctx context.Context, cfg Config, name string, task func(context.Context) error) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		lastErr = task(ctx)
		if lastErr == nil {
			return nil
		}

		if cfg.IsTransient == nil || !cfg.IsTransient(lastErr) {
			return lastErr
		}
		if attempt >= cfg.MaxRetries {
			return fmt.Errorf("%s: retries exhausted after %d attempts: %w",
				name, attempt+1, lastErr)
		}

		delay := backoff(cfg, attempt)
		logger.Warn("%s failed (attempt %d/%d), retrying in %s: %v",
			name, attempt+1, cfg.MaxRetries+1, delay, lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// backoff computes min(initial * 2^attempt, max).
func backoff(cfg Config, attempt int) time.Duration {
	delay := cfg.InitialDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= cfg.MaxDelay {
			return cfg.MaxDelay
		}
	}
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return delay
}
