package transcription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skillsenselab/voicekit/audio"
	apperrors "github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/resilience"
)

// TranscriptionRequest holds one finite utterance and its transcription
// parameters.
type TranscriptionRequest struct {
	// Audio is raw little-endian PCM sample data.
	Audio []byte
	// Format describes the sample layout of Audio.
	Format audio.Format
	// Language is the expected language of the audio (e.g. "en"). Empty
	// uses the gateway's configured default.
	Language string
	// Provider selects a backend explicitly, bypassing the configured
	// primary. Empty uses the configured order.
	Provider string
}

// TranscriptionResponse holds a successful provider response.
type TranscriptionResponse struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Language is the detected or requested language, when the provider
	// reports one.
	Language string `json:"language,omitempty"`
	// Duration is the audio duration as measured by the provider, when
	// reported.
	Duration time.Duration `json:"duration,omitempty"`
}

// TranscriptionResult is the outcome of a gateway call. Either Success is
// true and Text carries the transcript, or Failure describes what went
// wrong. Gateway calls never return an error alongside it.
type TranscriptionResult struct {
	// Success reports whether a transcript was produced.
	Success bool `json:"success"`
	// Text is the transcript. Empty on failure.
	Text string `json:"text,omitempty"`
	// Provider names the backend that produced the text, or the last one
	// attempted on failure. Empty when the request failed validation
	// before provider selection.
	Provider string `json:"provider,omitempty"`
	// Failover reports whether the result came from a backend other than
	// the first one attempted.
	Failover bool `json:"failover,omitempty"`
	// Duration is the wall time of the whole gateway call.
	Duration time.Duration `json:"duration"`
	// Failure classifies the failure. Nil on success.
	Failure *Failure `json:"failure,omitempty"`
}

// FailureKind classifies a failed transcription for the caller's
// decision-making.
type FailureKind string

const (
	// FailureTransient covers failures that may succeed on a later
	// request, after the per-call retry budget was exhausted.
	FailureTransient FailureKind = "transient"
	// FailureRateLimited covers local admission refusals and remote
	// throttling responses.
	FailureRateLimited FailureKind = "rate_limited"
	// FailurePermanent covers failures a retry will not fix, including
	// unparseable provider responses.
	FailurePermanent FailureKind = "permanent"
	// FailureCircuitOpen covers calls refused while a provider's circuit
	// is cooling down.
	FailureCircuitOpen FailureKind = "circuit_open"
	// FailureTimeout covers requests aborted by their deadline.
	FailureTimeout FailureKind = "timeout"
	// FailureCanceled covers requests abandoned by the caller.
	FailureCanceled FailureKind = "canceled"
	// FailureInvalidRequest covers requests rejected before any resource
	// was consumed: bad audio, oversize payload, unknown provider.
	FailureInvalidRequest FailureKind = "invalid_request"
)

// Failure describes why a transcription produced no text.
type Failure struct {
	// Kind is the failure classification.
	Kind FailureKind `json:"kind"`
	// Reason is a human-readable explanation.
	Reason string `json:"reason"`
	// RetryAfter is the wait until a retry could succeed. Only populated
	// for rate-limited and circuit-open failures.
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	// Err is the underlying error for logging. Nil when the failure was
	// produced without one.
	Err error `json:"-"`
}

// FailureFromError maps an error from an admission or provider call into
// the failure taxonomy. It recognizes context errors, the resilience
// package's refusal types, AppError codes, and errors that self-describe
// through IsRateLimited or IsRetryable. Unknown errors classify as
// transient.
func FailureFromError(err error) *Failure {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: FailureTimeout, Reason: "request exceeded its deadline", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Failure{Kind: FailureCanceled, Reason: "request canceled", Err: err}
	}

	var open *resilience.CircuitOpenError
	if errors.As(err, &open) {
		return &Failure{
			Kind:       FailureCircuitOpen,
			Reason:     fmt.Sprintf("circuit open for %s", open.Key),
			RetryAfter: open.RetryAfter,
			Err:        err,
		}
	}

	var limited *resilience.RateLimitedError
	if errors.As(err, &limited) {
		return &Failure{
			Kind:       FailureRateLimited,
			Reason:     fmt.Sprintf("rate limit exceeded for %s", limited.Key),
			RetryAfter: limited.Wait,
			Err:        err,
		}
	}

	if appErr, ok := apperrors.AsAppError(err); ok {
		return failureFromAppError(appErr, err)
	}

	switch resilience.DefaultClassifier(err) {
	case resilience.CategoryRateLimited:
		return &Failure{Kind: FailureRateLimited, Reason: err.Error(), Err: err}
	case resilience.CategoryPermanent:
		return &Failure{Kind: FailurePermanent, Reason: err.Error(), Err: err}
	default:
		return &Failure{Kind: FailureTransient, Reason: err.Error(), Err: err}
	}
}

func failureFromAppError(appErr *apperrors.AppError, err error) *Failure {
	kind := FailurePermanent
	switch {
	case appErr.Code == apperrors.ErrCodeInvalidAudio,
		appErr.Code == apperrors.ErrCodeInvalidInput,
		appErr.Code == apperrors.ErrCodeMissingField,
		appErr.Code == apperrors.ErrCodeInvalidFormat:
		kind = FailureInvalidRequest
	case appErr.Code == apperrors.ErrCodeRateLimited:
		kind = FailureRateLimited
	case appErr.Code == apperrors.ErrCodeCircuitOpen:
		kind = FailureCircuitOpen
	case appErr.Code == apperrors.ErrCodeTimeout:
		kind = FailureTimeout
	case appErr.IsRetryable():
		kind = FailureTransient
	}

	f := &Failure{Kind: kind, Reason: appErr.Message, Err: err}
	if ms, ok := appErr.Details["retry_after_ms"].(int64); ok {
		f.RetryAfter = time.Duration(ms) * time.Millisecond
	}
	return f
}
