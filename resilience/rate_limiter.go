package resilience

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Common rate limiter errors.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)

// RateLimitedError reports a refused acquisition together with the wait time
// until enough tokens would be available. It unwraps to ErrRateLimited.
type RateLimitedError struct {
	Key  string
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (retry in %s)", e.Key, e.Wait)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// IsRateLimited marks the error for failure classification.
func (e *RateLimitedError) IsRateLimited() bool { return true }

// Decision is the outcome of a TryAcquire call.
type Decision struct {
	// Granted is true when the requested tokens were consumed.
	Granted bool
	// Wait is the time until the requested tokens would accumulate.
	// Zero when Granted.
	Wait time.Duration
}

// BucketConfig describes one token bucket.
type BucketConfig struct {
	// Capacity is the maximum number of tokens the bucket holds.
	Capacity float64
	// RefillRate is the number of tokens added per second.
	RefillRate float64
}

// DefaultBucketConfig returns sensible defaults.
func DefaultBucketConfig() BucketConfig {
	return BucketConfig{
		Capacity:   20,
		RefillRate: 10,
	}
}

// RateLimiterConfig configures a keyed rate limiter.
type RateLimiterConfig struct {
	// Defaults is applied to resource keys without an explicit override.
	Defaults BucketConfig
	// Overrides holds per-resource bucket configurations.
	Overrides map[string]BucketConfig
	// OnLimit is called whenever an acquisition is refused.
	OnLimit func(key string, cost float64, wait time.Duration)
}

// RateLimiter is a registry of token buckets keyed by resource name.
// Buckets refill continuously and are created on first use. Each bucket has
// its own lock so unrelated resources never contend.
type RateLimiter struct {
	cfg RateLimiterConfig

	mu      sync.RWMutex
	buckets map[string]*bucket
}

// bucket is a single token bucket. Tokens accumulate at rate tokens/second up
// to capacity and are consumed atomically on grant. A refused acquisition
// consumes nothing.
type bucket struct {
	mu         sync.Mutex
	capacity   float64
	rate       float64
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a keyed rate limiter.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Defaults.Capacity <= 0 {
		cfg.Defaults.Capacity = DefaultBucketConfig().Capacity
	}
	if cfg.Defaults.RefillRate <= 0 {
		cfg.Defaults.RefillRate = DefaultBucketConfig().RefillRate
	}

	return &RateLimiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
	}
}

// TryAcquire attempts to take cost tokens from the bucket for key without
// blocking. When refused, the returned Decision carries the time until cost
// tokens would be available and no tokens are consumed.
func (rl *RateLimiter) TryAcquire(key string, cost float64) Decision {
	if cost <= 0 {
		cost = 1
	}

	b := rl.getBucket(key)
	d := b.tryAcquire(cost)

	if !d.Granted && rl.cfg.OnLimit != nil {
		rl.cfg.OnLimit(key, cost, d.Wait)
	}

	return d
}

// Acquire takes cost tokens for key, waiting for refill when necessary.
// It fails fast with a *RateLimitedError when the required wait exceeds
// maxWait, and with the context error when cancelled while waiting.
func (rl *RateLimiter) Acquire(ctx context.Context, key string, cost float64, maxWait time.Duration) error {
	if cost <= 0 {
		cost = 1
	}
	if cost > rl.capacityOf(key) {
		return &RateLimitedError{Key: key, Wait: maxWait}
	}

	deadline := time.Now().Add(maxWait)
	for {
		d := rl.TryAcquire(key, cost)
		if d.Granted {
			return nil
		}
		if time.Now().Add(d.Wait).After(deadline) {
			return &RateLimitedError{Key: key, Wait: d.Wait}
		}

		timer := time.NewTimer(d.Wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// AdjustCapacity scales the capacity and refill rate of the bucket for key by
// multiplier. Accumulated tokens scale by the same factor, clamped to the new
// capacity, so adjustment never mints or strands tokens inconsistently.
func (rl *RateLimiter) AdjustCapacity(key string, multiplier float64) error {
	if multiplier <= 0 {
		return fmt.Errorf("capacity multiplier must be positive (got %g)", multiplier)
	}
	rl.getBucket(key).adjust(multiplier)
	return nil
}

// AdjustAllCapacity applies AdjustCapacity to every existing bucket. Used to
// throttle globally under resource pressure.
func (rl *RateLimiter) AdjustAllCapacity(multiplier float64) error {
	if multiplier <= 0 {
		return fmt.Errorf("capacity multiplier must be positive (got %g)", multiplier)
	}

	rl.mu.RLock()
	all := make([]*bucket, 0, len(rl.buckets))
	for _, b := range rl.buckets {
		all = append(all, b)
	}
	rl.mu.RUnlock()

	for _, b := range all {
		b.adjust(multiplier)
	}
	return nil
}

// Tokens returns the current token count for key.
func (rl *RateLimiter) Tokens(key string) float64 {
	return rl.getBucket(key).currentTokens()
}

// Capacity returns the current capacity for key.
func (rl *RateLimiter) Capacity(key string) float64 {
	return rl.capacityOf(key)
}

// BucketStat is a point-in-time view of one bucket for introspection.
type BucketStat struct {
	Key        string  `json:"key"`
	Capacity   float64 `json:"capacity"`
	RefillRate float64 `json:"refill_rate"`
	Tokens     float64 `json:"tokens"`
}

// Snapshot returns the current state of all buckets, sorted by key.
func (rl *RateLimiter) Snapshot() []BucketStat {
	rl.mu.RLock()
	keys := make([]string, 0, len(rl.buckets))
	for key := range rl.buckets {
		keys = append(keys, key)
	}
	rl.mu.RUnlock()

	sort.Strings(keys)

	stats := make([]BucketStat, 0, len(keys))
	for _, key := range keys {
		b := rl.getBucket(key)
		b.mu.Lock()
		b.refill(time.Now())
		stats = append(stats, BucketStat{
			Key:        key,
			Capacity:   b.capacity,
			RefillRate: b.rate,
			Tokens:     b.tokens,
		})
		b.mu.Unlock()
	}
	return stats
}

// getBucket returns the bucket for key, creating it on first use.
func (rl *RateLimiter) getBucket(key string) *bucket {
	rl.mu.RLock()
	b, ok := rl.buckets[key]
	rl.mu.RUnlock()
	if ok {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok := rl.buckets[key]; ok {
		return b
	}

	cfg := rl.cfg.Defaults
	if override, ok := rl.cfg.Overrides[key]; ok {
		if override.Capacity > 0 {
			cfg.Capacity = override.Capacity
		}
		if override.RefillRate > 0 {
			cfg.RefillRate = override.RefillRate
		}
	}

	b = &bucket{
		capacity:   cfg.Capacity,
		rate:       cfg.RefillRate,
		tokens:     cfg.Capacity,
		lastRefill: time.Now(),
	}
	rl.buckets[key] = b
	return b
}

func (rl *RateLimiter) capacityOf(key string) float64 {
	b := rl.getBucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// refill adds tokens based on time elapsed. Caller must hold b.mu.
func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.lastRefill = now

	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}

func (b *bucket) tryAcquire(cost float64) Decision {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())

	if b.tokens >= cost {
		b.tokens -= cost
		return Decision{Granted: true}
	}

	needed := cost - b.tokens
	wait := time.Duration(needed / b.rate * float64(time.Second))
	return Decision{Granted: false, Wait: wait}
}

func (b *bucket) adjust(multiplier float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Settle accrual at the old rate before rescaling.
	b.refill(time.Now())

	b.capacity *= multiplier
	b.rate *= multiplier
	b.tokens *= multiplier
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}

func (b *bucket) currentTokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(time.Now())
	return b.tokens
}
