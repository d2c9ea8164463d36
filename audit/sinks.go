package audit

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/skillsenselab/voicekit/logger"
	"github.com/skillsenselab/voicekit/sse"
	"github.com/skillsenselab/voicekit/util"
)

// LoggerSink writes events to the structured log. Failure events log at
// warn level, everything else at info.
type LoggerSink struct {
	log *logger.Logger
}

// NewLoggerSink creates a sink logging under the "audit" component.
func NewLoggerSink() *LoggerSink {
	return &LoggerSink{log: logger.Get("audit")}
}

// Name implements Sink.
func (s *LoggerSink) Name() string { return "logger" }

// Deliver implements Sink.
func (s *LoggerSink) Deliver(e Event) {
	fields := map[string]interface{}{
		"event_id":   e.ID,
		"event_type": string(e.Type),
	}
	if e.Key != "" {
		fields[logger.FieldResource] = e.Key
	}
	if e.Provider != "" {
		fields[logger.FieldProvider] = e.Provider
	}
	if e.Strategy != "" {
		fields[logger.FieldStrategy] = e.Strategy
	}
	if e.Reason != "" {
		fields["reason"] = e.Reason
	}
	if e.From != "" {
		fields["from"] = e.From
		fields["to"] = e.To
	}
	if e.Failures > 0 {
		fields["failures"] = e.Failures
	}
	if e.Attempts > 0 {
		fields[logger.FieldAttempt] = e.Attempts
	}
	if e.Chars > 0 {
		fields["chars"] = e.Chars
	}
	if e.DurationMs > 0 {
		fields[logger.FieldDuration] = e.DurationMs
	}
	if e.RetryAfterMs > 0 {
		fields["retry_after_ms"] = e.RetryAfterMs
	}

	if e.IsFailure() || e.Type == TypeFailoverPerformed {
		s.log.Warn("audit event", fields)
		return
	}
	s.log.Info("audit event", fields)
}

// NotifySink surfaces failure events as desktop notifications so the user
// learns why dictated text never arrived. Notifications are rate limited;
// a flapping provider must not flood the shell with toasts.
type NotifySink struct {
	minInterval time.Duration
	notify      func(title, message string) error

	mu   sync.Mutex
	last time.Time
}

// NewNotifySink creates a notification sink. At most one notification is
// shown per minInterval; zero or negative means the 30 second default.
func NewNotifySink(minInterval time.Duration) *NotifySink {
	if minInterval <= 0 {
		minInterval = 30 * time.Second
	}
	return &NotifySink{
		minInterval: minInterval,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Name implements Sink.
func (s *NotifySink) Name() string { return "notify" }

// Deliver implements Sink.
func (s *NotifySink) Deliver(e Event) {
	if !e.IsFailure() {
		return
	}

	s.mu.Lock()
	if !s.last.IsZero() && time.Since(s.last) < s.minInterval {
		s.mu.Unlock()
		return
	}
	s.last = time.Now()
	s.mu.Unlock()

	title, message := notificationText(e)
	if err := s.notify(title, message); err != nil {
		logger.Get("audit").Debug("notification failed", logger.ErrorFields("notify", err))
	}
}

func notificationText(e Event) (title, message string) {
	switch e.Type {
	case TypeCircuitOpened:
		cooldown := time.Duration(e.RetryAfterMs) * time.Millisecond
		return "Dictation paused", fmt.Sprintf("%s is failing repeatedly, backing off for %s", e.Key, cooldown)
	case TypeTranscriptionFailed:
		return "Transcription failed", util.Truncate(e.Reason, 120)
	case TypeInjectionFailed:
		return "Text delivery failed", util.Truncate(e.Reason, 120)
	}
	return "Dictation", string(e.Type)
}

// SSESink bridges audit events onto the SSE hub so live clients can watch
// the event feed.
type SSESink struct {
	broadcaster sse.Broadcaster
	pattern     string
}

// NewSSESink creates a sink broadcasting JSON encoded events to clients
// whose IDs match "events:*".
func NewSSESink(b sse.Broadcaster) *SSESink {
	return &SSESink{broadcaster: b, pattern: "events:*"}
}

// Name implements Sink.
func (s *SSESink) Name() string { return "sse" }

// Deliver implements Sink.
func (s *SSESink) Deliver(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	s.broadcaster.BroadcastToPattern(s.pattern, data)
}
