package resilience

import (
	"context"
	"errors"
	"net"
)

// FailureCategory describes how a failed operation should be treated by
// retry and circuit breaking.
type FailureCategory int

const (
	// CategoryNone is the classification of a nil error.
	CategoryNone FailureCategory = iota
	// CategoryTransient failures may succeed on retry.
	CategoryTransient
	// CategoryPermanent failures will not succeed on retry.
	CategoryPermanent
	// CategoryRateLimited failures are admission refusals, not service faults.
	CategoryRateLimited
	// CategoryCanceled failures come from context cancellation and carry no
	// signal about service health.
	CategoryCanceled
)

// String returns the category name.
func (c FailureCategory) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	case CategoryRateLimited:
		return "rate-limited"
	case CategoryCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Classifier maps an error to a failure category.
type Classifier func(error) FailureCategory

// DefaultClassifier classifies errors without depending on any concrete
// error type. It recognizes context cancellation, the package's own
// sentinels, net timeouts, and errors that self-describe through
// IsRateLimited() or IsRetryable() methods. Unknown errors are treated as
// transient so a conservative caller still retries them; a nil error
// classifies as CategoryNone.
func DefaultClassifier(err error) FailureCategory {
	if err == nil {
		return CategoryNone
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryCanceled
	}

	// Rate limiting first: a rate-limited error may also be retryable, but
	// admission refusals must never count as service faults.
	var limited interface{ IsRateLimited() bool }
	if errors.As(err, &limited) && limited.IsRateLimited() {
		return CategoryRateLimited
	}
	if errors.Is(err, ErrRateLimited) {
		return CategoryRateLimited
	}

	if errors.Is(err, ErrCircuitOpen) {
		return CategoryPermanent
	}

	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		if retryable.IsRetryable() {
			return CategoryTransient
		}
		return CategoryPermanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTransient
	}

	return CategoryTransient
}
