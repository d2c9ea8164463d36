package audit

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of audit event.
type Type string

const (
	TypeCircuitOpened          Type = "circuit.opened"
	TypeCircuitClosed          Type = "circuit.closed"
	TypeCircuitProbe           Type = "circuit.probe"
	TypeRateLimitDenied        Type = "ratelimit.denied"
	TypeTranscriptionCompleted Type = "transcription.completed"
	TypeTranscriptionFailed    Type = "transcription.failed"
	TypeInjectionCompleted     Type = "injection.completed"
	TypeInjectionFailed        Type = "injection.failed"
	TypeFailoverPerformed      Type = "failover.performed"
)

// Event is a single audit record. Fields not relevant to the event type are
// left at their zero value and omitted from the JSON encoding.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Key is the resilience resource key, e.g. "transcription:openai".
	Key string `json:"key,omitempty"`
	// Provider is the transcription provider name.
	Provider string `json:"provider,omitempty"`
	// Strategy is the injection strategy name.
	Strategy string `json:"strategy,omitempty"`
	// Reason is a human readable failure description.
	Reason string `json:"reason,omitempty"`
	// From and To describe a failover hop.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	Failures     int   `json:"failures,omitempty"`
	Attempts     int   `json:"attempts,omitempty"`
	Chars        int   `json:"chars,omitempty"`
	DurationMs   int64 `json:"duration_ms,omitempty"`
	RetryAfterMs int64 `json:"retry_after_ms,omitempty"`
}

// IsFailure reports whether the event describes a failure a user may want to
// know about. The notification sink only surfaces these.
func (e Event) IsFailure() bool {
	switch e.Type {
	case TypeCircuitOpened, TypeTranscriptionFailed, TypeInjectionFailed:
		return true
	}
	return false
}

func newEvent(t Type) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
	}
}

// CircuitOpened records a circuit tripping after consecutive failures.
func CircuitOpened(key string, failures int, cooldown time.Duration) Event {
	e := newEvent(TypeCircuitOpened)
	e.Key = key
	e.Failures = failures
	e.RetryAfterMs = cooldown.Milliseconds()
	return e
}

// CircuitClosed records a circuit returning to normal operation.
func CircuitClosed(key string) Event {
	e := newEvent(TypeCircuitClosed)
	e.Key = key
	return e
}

// CircuitProbe records a half-open circuit admitting a trial call.
func CircuitProbe(key string) Event {
	e := newEvent(TypeCircuitProbe)
	e.Key = key
	return e
}

// RateLimitDenied records a request refused by the rate limiter.
func RateLimitDenied(key string, wait time.Duration) Event {
	e := newEvent(TypeRateLimitDenied)
	e.Key = key
	e.RetryAfterMs = wait.Milliseconds()
	return e
}

// TranscriptionCompleted records a successful transcription.
func TranscriptionCompleted(provider string, chars int, duration time.Duration) Event {
	e := newEvent(TypeTranscriptionCompleted)
	e.Provider = provider
	e.Chars = chars
	e.DurationMs = duration.Milliseconds()
	return e
}

// TranscriptionFailed records a transcription that produced no text.
func TranscriptionFailed(provider, reason string, duration time.Duration) Event {
	e := newEvent(TypeTranscriptionFailed)
	e.Provider = provider
	e.Reason = reason
	e.DurationMs = duration.Milliseconds()
	return e
}

// InjectionCompleted records text delivered to the foreground application.
func InjectionCompleted(strategy string, chars, attempts int) Event {
	e := newEvent(TypeInjectionCompleted)
	e.Strategy = strategy
	e.Chars = chars
	e.Attempts = attempts
	return e
}

// InjectionFailed records text that could not be delivered.
func InjectionFailed(strategy, reason string, attempts int) Event {
	e := newEvent(TypeInjectionFailed)
	e.Strategy = strategy
	e.Reason = reason
	e.Attempts = attempts
	return e
}

// FailoverPerformed records a switch from the primary provider to the
// secondary after the primary failed.
func FailoverPerformed(from, to, reason string) Event {
	e := newEvent(TypeFailoverPerformed)
	e.From = from
	e.To = to
	e.Reason = reason
	return e
}
