package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CircuitOpenError reports a call refused because the circuit for a resource
// key is open. It unwraps to ErrCircuitOpen.
type CircuitOpenError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit open for %s (retry in %s)", e.Key, e.RetryAfter)
}

func (e *CircuitOpenError) Unwrap() error { return ErrCircuitOpen }

// RecoveryConfig configures a recovery engine.
type RecoveryConfig struct {
	// Retry is the backoff policy for transient failures within one call.
	// RetryIf is owned by the engine's classifier and ignored here.
	Retry RetryConfig
	// Breaker is the template for per-key circuit breakers.
	Breaker CircuitBreakerConfig
	// Classify decides how failures are treated. Defaults to
	// DefaultClassifier.
	Classify Classifier
}

// RecoveryEngine runs operations against keyed resources under a combined
// policy: each key has its own circuit breaker, and transient failures are
// retried with exponential backoff before the call counts against the
// circuit. Breaker bookkeeping for a key is serialized through a per-key
// gate; the operations themselves run in parallel, same key or not.
//
// One engine call records at most one breaker outcome, no matter how many
// retry attempts it made. Cancelled and rate-limited calls record nothing.
type RecoveryEngine struct {
	retry    RetryConfig
	classify Classifier
	breakers *BreakerGroup

	mu    sync.Mutex
	gates map[string]*Bulkhead
}

// NewRecoveryEngine creates a recovery engine.
func NewRecoveryEngine(cfg RecoveryConfig) *RecoveryEngine {
	if cfg.Classify == nil {
		cfg.Classify = DefaultClassifier
	}

	return &RecoveryEngine{
		retry:    cfg.Retry,
		classify: cfg.Classify,
		breakers: NewBreakerGroup(cfg.Breaker),
		gates:    make(map[string]*Bulkhead),
	}
}

// Breakers exposes the engine's breaker group for introspection.
func (e *RecoveryEngine) Breakers() *BreakerGroup {
	return e.breakers
}

// Execute runs op under the engine's policy for key. It fails fast with a
// *CircuitOpenError while the key's circuit refuses calls, retries transient
// failures per the retry policy, and returns the last error otherwise.
//
// Execute is a function rather than a method because methods cannot have
// type parameters.
func Execute[T any](ctx context.Context, e *RecoveryEngine, key string, op func(context.Context) (T, error)) (T, error) {
	var zero T

	cb := e.breakers.Get(key)
	gate := e.gateFor(key)

	// Only the admission check holds the key's gate. The operation and its
	// backoff run outside it, so concurrent calls for one key overlap their
	// work while breaker reads and updates never interleave.
	release, err := gate.Acquire(ctx)
	if err != nil {
		return zero, err
	}
	allowed := cb.Allow()
	var retryAfter time.Duration
	if !allowed {
		retryAfter = cb.RemainingCooldown()
	}
	release()
	if !allowed {
		return zero, &CircuitOpenError{Key: key, RetryAfter: retryAfter}
	}

	retryCfg := e.retry
	retryCfg.RetryIf = func(err error) bool {
		return e.classify(err) == CategoryTransient
	}

	result, err := Retry(ctx, retryCfg, op)

	// Record the outcome even when the caller's context is already gone: a
	// half-open trial left unresolved would hold the probe slot forever.
	// Acquire cannot fail on a background context.
	recordRelease, _ := gate.Acquire(context.Background())
	defer recordRelease()

	if err == nil {
		cb.RecordSuccess()
		return result, nil
	}

	switch e.classify(err) {
	case CategoryCanceled, CategoryRateLimited:
		// Neither outcome says anything about the resource's health.
		cb.RecordCancel()
	default:
		cb.RecordFailure()
	}
	return zero, err
}

// ExecuteFunc runs an operation without a result value.
func ExecuteFunc(ctx context.Context, e *RecoveryEngine, key string, op func(context.Context) error) error {
	_, err := Execute(ctx, e, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// gateFor returns the one-slot bulkhead serializing key's breaker
// bookkeeping, creating it on first use.
func (e *RecoveryEngine) gateFor(key string) *Bulkhead {
	e.mu.Lock()
	defer e.mu.Unlock()

	gate, ok := e.gates[key]
	if !ok {
		gate = NewBulkhead(BulkheadConfig{Name: key, MaxConcurrent: 1})
		e.gates[key] = gate
	}
	return gate
}
