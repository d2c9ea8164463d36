package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig shapes the backoff schedule for one retried operation.
type RetryConfig struct {
	// MaxAttempts caps the total number of calls, the first one included.
	MaxAttempts int
	// InitialBackoff is the pause before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff clamps the grown pause.
	MaxBackoff time.Duration
	// BackoffFactor multiplies the pause after each failed attempt.
	BackoffFactor float64
	// Jitter spreads each pause by up to this fraction in either
	// direction, between 0 and 1. Zero keeps the schedule exact.
	Jitter float64
	// RetryIf decides whether a failure is worth another attempt.
	// Nil means DefaultRetryIf.
	RetryIf func(error) bool
	// OnRetry observes each failed attempt just before the pause.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// DefaultRetryConfig returns the schedule used when a field is left zero:
// three attempts, 100ms doubling to a 10s ceiling, 10% jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries everything except context cancellation and
// deadline expiry.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Retry calls fn until it succeeds, RetryIf rejects the failure, the
// attempt budget runs out, or ctx ends. It returns fn's value on success
// and the last failure otherwise, pausing between attempts per the
// config's backoff schedule.
//
// A function rather than a method on RetryConfig because methods cannot
// have type parameters.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !cfg.RetryIf(err) || attempt == cfg.MaxAttempts {
			return zero, err
		}

		pause := cfg.backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, pause)
		}
		if err := sleep(ctx, pause); err != nil {
			return zero, err
		}
	}
}

// RetryFunc is Retry for operations without a result value.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func(context.Context) error) error {
	_, err := Retry(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// RetryWithBackoff retries fn up to maxAttempts times on the default
// schedule, capped at 5s, for callers that only care about the budget.
func RetryWithBackoff[T any](ctx context.Context, maxAttempts int, fn func(context.Context) (T, error)) (T, error) {
	return Retry(ctx, RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
	}, fn)
}

// withDefaults fills unset fields from DefaultRetryConfig. Jitter is
// left alone, zero jitter is a valid choice.
func (c RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = def.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = def.BackoffFactor
	}
	if c.RetryIf == nil {
		c.RetryIf = def.RetryIf
	}
	return c
}

// backoff returns the pause after the given failed attempt, counted
// from 1: InitialBackoff grown by BackoffFactor per earlier attempt,
// jittered, then clamped to MaxBackoff.
func (c RetryConfig) backoff(attempt int) time.Duration {
	pause := float64(c.InitialBackoff) * math.Pow(c.BackoffFactor, float64(attempt-1))
	if c.Jitter > 0 {
		pause += pause * c.Jitter * (2*rand.Float64() - 1)
	}
	if pause > float64(c.MaxBackoff) {
		pause = float64(c.MaxBackoff)
	}
	if pause < 0 {
		pause = float64(c.InitialBackoff)
	}
	return time.Duration(pause)
}

// sleep waits out d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
