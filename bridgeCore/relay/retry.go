// Package relay resubmits oracle votes on behalf of relayers. The core
// never retries; this package does, for failures that may clear up.
package relay

import (
	"context"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/pushchain/push-bridge-core/bridgeCore/config"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// RetryConfigFrom converts the relayer section of the node config.
func RetryConfigFrom(c config.RetryConfig) *RetryConfig {
	cfg := DefaultRetryConfig()
	if c.MaxAttempts > 0 {
		cfg.MaxAttempts = c.MaxAttempts
	}
	if c.InitialBackoffMs > 0 {
		cfg.InitialDelay = time.Duration(c.InitialBackoffMs) * time.Millisecond
	}
	if c.MaxBackoffMs > 0 {
		cfg.MaxDelay = time.Duration(c.MaxBackoffMs) * time.Millisecond
	}
	return cfg
}

// RetryFunc is a function that can be retried
type RetryFunc func() error

// Retryable reports whether err may succeed on a later attempt.
func Retryable(err error) bool {
	switch types.Classify(err) {
	case types.OutcomeTransient, types.OutcomeNotReady:
		return true
	default:
		return false
	}
}

// RetryWithConfig calls fn until it succeeds, fails with an error that is
// not Retryable, or runs out of attempts. fn is always called at least
// once. onRetry, if set, is called before each wait.
func RetryWithConfig(ctx context.Context, fn RetryFunc, config *RetryConfig, onRetry func(attempt int, err error)) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	delay := config.InitialDelay
	maxAttempts := max(config.MaxAttempts, 1)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil || !Retryable(err) {
			return err
		}
		lastErr = err

		// Don't retry on last attempt
		if attempt == maxAttempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		// Calculate next delay with exponential backoff
		delay = time.Duration(float64(delay) * config.Multiplier)
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return errorsmod.Wrapf(lastErr, "maximum retry attempts (%d) exceeded", maxAttempts)
}
