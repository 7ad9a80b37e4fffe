package llm

import (
	"context"
	"math/rand"
	"time"

	"taskmind/internal/logging"
)

// =============================================================================
// RETRY WITH BACKOFF
// =============================================================================
// The completion service is rate-limited and occasionally unavailable or
// slow. Every call goes through RetryWithBackoff: each attempt runs under
// its own timeout, failures are classified, and only retryable kinds are
// re-attempted. Attempts are strictly sequential so retries never amplify
// load against an already rate-limited dependency.

// RetryConfig tunes the backoff schedule.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration

	// Multiplier grows the delay between attempts.
	Multiplier float64

	// AttemptTimeout bounds each individual attempt.
	AttemptTimeout time.Duration

	// Jitter is the fraction of the delay randomized in both directions
	// (0.2 means +/-20%). Zero disables jitter, which tests rely on.
	Jitter float64
}

// DefaultRetryConfig returns the standard schedule: 3 extra attempts,
// 1s initial delay doubling up to 10s, 30s per attempt, +/-20% jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialDelay:   time.Second,
		MaxDelay:       10 * time.Second,
		Multiplier:     2,
		AttemptTimeout: 30 * time.Second,
		Jitter:         0.2,
	}
}

// RetryWithBackoff runs op under the retry contract and returns its result
// or the last classified error. Non-retryable errors propagate immediately.
// A timed-out attempt is classified as TIMEOUT (retryable) and leaves no
// partial state behind.
func RetryWithBackoff[T any](ctx context.Context, cfg RetryConfig, label string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	log := logging.Get(logging.CategoryRetry)

	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2
	}

	var lastErr *AIError
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(cfg, attempt-1)
			log.Debugf("%s: retry %d/%d after %s (last: %s)", label, attempt, cfg.MaxRetries, delay, lastErr.Kind)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, NewAIError(KindTimeout, label+": canceled while waiting to retry", ctx.Err())
			}
		}

		result, err := runAttempt(ctx, cfg.AttemptTimeout, op)
		if err == nil {
			return result, nil
		}

		lastErr = ClassifyError(err)
		if !lastErr.Retryable {
			log.Warnf("%s: non-retryable %s: %v", label, lastErr.Kind, err)
			return zero, lastErr
		}
		log.Debugf("%s: attempt %d failed with %s: %v", label, attempt+1, lastErr.Kind, err)
	}

	log.Warnf("%s: all %d attempts exhausted: %v", label, cfg.MaxRetries+1, lastErr)
	return zero, lastErr
}

// runAttempt executes one attempt under its own timeout.
func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx)
}

// backoffDelay computes min(initial * multiplier^attempt, max) with jitter.
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := float64(cfg.InitialDelay)
	for i := 0; i < attempt; i++ {
		delay *= cfg.Multiplier
	}
	if max := float64(cfg.MaxDelay); cfg.MaxDelay > 0 && delay > max {
		delay = max
	}
	if cfg.Jitter > 0 {
		// Uniform in [1-jitter, 1+jitter].
		delay *= 1 + cfg.Jitter*(2*rand.Float64()-1)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
