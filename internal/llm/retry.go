package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second

	// Rate limited attempts wait this many times longer than the standard backoff.
	rateLimitMultiplier = 2
)

// RetryError is returned once every attempt has failed.
type RetryError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s: giving up after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// Retrier runs upstream calls with bounded exponential backoff.
// It holds no per-call state and is safe for concurrent use.
type Retrier struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// AttemptTimeout bounds a single attempt. Zero means no extra bound.
	AttemptTimeout time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a Retrier. A non-positive attempt count or a negative
// delay falls back to the defaults.
func NewRetrier(maxAttempts int, baseDelay time.Duration) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay < 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Retrier{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		sleep:       sleepContext,
	}
}

// WithAttemptTimeout sets a per-attempt timeout.
func (r *Retrier) WithAttemptTimeout(d time.Duration) *Retrier {
	r.AttemptTimeout = d
	return r
}

// Delay returns the wait before the retry that follows the failed attempt
// (0-based).
func (r *Retrier) Delay(attempt int, err error) time.Duration {
	d := r.BaseDelay * time.Duration(1<<attempt)
	if errors.Is(err, ErrRateLimited) {
		d *= rateLimitMultiplier
	}
	return d
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// attempt bound is reached. op names the operation in logs and errors.
func Do[T any](ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	sleep := r.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		result, err := runAttempt(ctx, r.AttemptTimeout, fn)
		if err == nil {
			if attempt > 0 {
				log.Info().Str("context", op).Int("attempt", attempt+1).Msg("llm call succeeded after retry")
			}
			return result, nil
		}
		lastErr = err

		if errors.Is(err, ErrRequestRejected) {
			log.Error().Err(err).Str("context", op).Int("attempt", attempt+1).Msg("llm request rejected, not retrying")
			return zero, fmt.Errorf("%s: %w", op, err)
		}
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: %w", op, ctx.Err())
		}

		if attempt == r.MaxAttempts-1 {
			log.Error().Err(err).Str("context", op).Int("attempt", attempt+1).Int("maxAttempts", r.MaxAttempts).Msg("llm call failed, giving up")
			break
		}

		delay := r.Delay(attempt, err)
		log.Warn().
			Err(err).
			Str("context", op).
			Int("attempt", attempt+1).
			Int("maxAttempts", r.MaxAttempts).
			Dur("delay", delay).
			Msg("llm call failed, retrying")

		if err := sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("%s: %w", op, err)
		}
	}

	return zero, &RetryError{Op: op, Attempts: r.MaxAttempts, Err: lastErr}
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
