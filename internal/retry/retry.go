package retry

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Policy parameterizes the retry executor.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff.
	MaxDelay time.Duration

	// ExponentialBase is the growth factor applied per attempt.
	ExponentialBase float64

	// Retryable decides whether a given error should be retried at all.
	// A nil Retryable treats every error as retryable.
	Retryable func(err error) bool
}

// Default is a general-purpose policy: 3 attempts, 2s base, 2x growth,
// capped at 30s — matches the Generation-CLI Executor's outer retry
// schedule (2s, 4s) described in spec §4.4.
func Default() Policy {
	return Policy{
		MaxAttempts:     3,
		BaseDelay:       2 * time.Second,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2,
	}
}

// RateLimited is the specialization for upstream-provider rate limiting:
// max attempts 5, base delay 60s, cap 300s (spec §4.2).
func RateLimited() Policy {
	return Policy{
		MaxAttempts:     5,
		BaseDelay:       60 * time.Second,
		MaxDelay:        300 * time.Second,
		ExponentialBase: 2,
	}
}

// delay returns min(maxDelay, base*exponentialBase^attempt) for the given
// zero-based attempt index.
func (p Policy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	exp := p.ExponentialBase
	if exp <= 0 {
		exp = 2
	}
	max := p.MaxDelay
	if max <= 0 {
		max = 30 * time.Second
	}

	d := time.Duration(float64(base) * math.Pow(exp, float64(attempt)))
	if d > max {
		d = max
	}
	return d
}

// Do runs f, retrying according to p until it succeeds, the error is
// classified as non-retryable, or attempts are exhausted. On exhaustion
// the last failure propagates unchanged.
func Do(ctx context.Context, logger *slog.Logger, p Policy, f func() error) error {
	if logger == nil {
		logger = slog.Default()
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = f()
		if lastErr == nil {
			if attempt > 0 {
				logger.Info("operation succeeded after retry", "attempt", attempt+1)
			}
			return nil
		}

		logger.Warn("operation attempt failed", "attempt", attempt+1, "error", lastErr)

		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts-1 {
			break
		}

		select {
		case <-time.After(p.delay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}
