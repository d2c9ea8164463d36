package resilience

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrBulkheadFull reports that every slot was taken and the bulkhead
	// was configured not to wait.
	ErrBulkheadFull = errors.New("bulkhead is full")
	// ErrBulkheadTimeout reports that no slot freed up within MaxWait.
	ErrBulkheadTimeout = errors.New("bulkhead wait timed out")
)

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	// Name identifies the bulkhead in errors and logs.
	Name string
	// MaxConcurrent caps calls running at once. Zero or negative
	// collapses to one slot, which serializes callers.
	MaxConcurrent int
	// MaxWait bounds how long a caller blocks for a slot. Zero rejects
	// immediately when full.
	MaxWait time.Duration
}

// Bulkhead caps how many calls run a protected section at once. The
// recovery engine keeps a one-slot bulkhead per resource key so that
// breaker and rate-limit bookkeeping for a key never interleaves.
type Bulkhead struct {
	name    string
	maxWait time.Duration
	slots   chan struct{}
}

// NewBulkhead creates a bulkhead from cfg.
func NewBulkhead(cfg BulkheadConfig) *Bulkhead {
	capacity := cfg.MaxConcurrent
	if capacity <= 0 {
		capacity = 1
	}
	return &Bulkhead{
		name:    cfg.Name,
		maxWait: cfg.MaxWait,
		slots:   make(chan struct{}, capacity),
	}
}

// Execute runs fn while holding a slot. It returns ErrBulkheadFull or
// ErrBulkheadTimeout when no slot could be had, the context error when
// ctx ends first, and otherwise whatever fn returns.
func (b *Bulkhead) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer b.release()
	return fn(ctx)
}

// Acquire takes a slot directly, blocking until one frees or ctx ends.
// MaxWait does not apply; the context is the only bound. The returned
// release must be called exactly once. The recovery engine uses this
// form to gate a key's breaker bookkeeping.
func (b *Bulkhead) Acquire(ctx context.Context) (func(), error) {
	select {
	case b.slots <- struct{}{}:
		return b.release, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ExecuteWithResult runs a value-returning function inside the bulkhead.
func ExecuteWithResult[T any](ctx context.Context, b *Bulkhead, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	return result, err
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	default:
	}

	if b.maxWait <= 0 {
		return ErrBulkheadFull
	}

	timer := time.NewTimer(b.maxWait)
	defer timer.Stop()

	select {
	case b.slots <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrBulkheadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bulkhead) release() {
	<-b.slots
}

// Name returns the configured name.
func (b *Bulkhead) Name() string { return b.name }

// Capacity returns the slot count.
func (b *Bulkhead) Capacity() int { return cap(b.slots) }

// InUse returns how many slots are currently held.
func (b *Bulkhead) InUse() int { return len(b.slots) }

// Available returns how many slots are free.
func (b *Bulkhead) Available() int { return cap(b.slots) - len(b.slots) }
