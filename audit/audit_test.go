package audit

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Name() string { return "capture" }

func (c *captureSink) Deliver(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureSink) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

type panicSink struct{}

func (panicSink) Name() string  { return "panic" }
func (panicSink) Deliver(Event) { panic("sink exploded") }

func TestEventConstructors(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		wantType Type
		check    func(t *testing.T, e Event)
	}{
		{
			name:     "circuit opened",
			event:    CircuitOpened("Transcription:openai", 5, 30*time.Second),
			wantType: TypeCircuitOpened,
			check: func(t *testing.T, e Event) {
				if e.Key != "Transcription:openai" || e.Failures != 5 || e.RetryAfterMs != 30000 {
					t.Errorf("unexpected fields: %+v", e)
				}
			},
		},
		{
			name:     "circuit closed",
			event:    CircuitClosed("Transcription:openai"),
			wantType: TypeCircuitClosed,
			check: func(t *testing.T, e Event) {
				if e.Key != "Transcription:openai" {
					t.Errorf("Key = %q", e.Key)
				}
			},
		},
		{
			name:     "circuit probe",
			event:    CircuitProbe("Transcription:azure"),
			wantType: TypeCircuitProbe,
			check: func(t *testing.T, e Event) {
				if e.Key != "Transcription:azure" {
					t.Errorf("Key = %q", e.Key)
				}
			},
		},
		{
			name:     "rate limit denied",
			event:    RateLimitDenied("Transcription:openai", 1500*time.Millisecond),
			wantType: TypeRateLimitDenied,
			check: func(t *testing.T, e Event) {
				if e.RetryAfterMs != 1500 {
					t.Errorf("RetryAfterMs = %d", e.RetryAfterMs)
				}
			},
		},
		{
			name:     "transcription completed",
			event:    TranscriptionCompleted("openai", 42, 800*time.Millisecond),
			wantType: TypeTranscriptionCompleted,
			check: func(t *testing.T, e Event) {
				if e.Provider != "openai" || e.Chars != 42 || e.DurationMs != 800 {
					t.Errorf("unexpected fields: %+v", e)
				}
			},
		},
		{
			name:     "transcription failed",
			event:    TranscriptionFailed("azure", "connection reset", time.Second),
			wantType: TypeTranscriptionFailed,
			check: func(t *testing.T, e Event) {
				if e.Provider != "azure" || e.Reason != "connection reset" {
					t.Errorf("unexpected fields: %+v", e)
				}
			},
		},
		{
			name:     "injection completed",
			event:    InjectionCompleted("clipboard", 42, 1),
			wantType: TypeInjectionCompleted,
			check: func(t *testing.T, e Event) {
				if e.Strategy != "clipboard" || e.Chars != 42 || e.Attempts != 1 {
					t.Errorf("unexpected fields: %+v", e)
				}
			},
		},
		{
			name:     "injection failed",
			event:    InjectionFailed("keystroke", "target window closed", 2),
			wantType: TypeInjectionFailed,
			check: func(t *testing.T, e Event) {
				if e.Strategy != "keystroke" || e.Attempts != 2 {
					t.Errorf("unexpected fields: %+v", e)
				}
			},
		},
		{
			name:     "failover performed",
			event:    FailoverPerformed("openai", "azure", "circuit open"),
			wantType: TypeFailoverPerformed,
			check: func(t *testing.T, e Event) {
				if e.From != "openai" || e.To != "azure" || e.Reason != "circuit open" {
					t.Errorf("unexpected fields: %+v", e)
				}
			},
		},
	}

	seen := make(map[string]bool)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.event
			if e.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", e.Type, tt.wantType)
			}
			if e.ID == "" {
				t.Error("ID is empty")
			}
			if seen[e.ID] {
				t.Errorf("duplicate event ID %q", e.ID)
			}
			seen[e.ID] = true
			if e.Timestamp.IsZero() {
				t.Error("Timestamp is zero")
			}
			tt.check(t, e)
		})
	}
}

func TestEventIsFailure(t *testing.T) {
	failures := []Event{
		CircuitOpened("k", 5, time.Second),
		TranscriptionFailed("openai", "timeout", time.Second),
		InjectionFailed("keystroke", "window closed", 1),
	}
	for _, e := range failures {
		if !e.IsFailure() {
			t.Errorf("%s: IsFailure() = false, want true", e.Type)
		}
	}

	normal := []Event{
		CircuitClosed("k"),
		CircuitProbe("k"),
		RateLimitDenied("k", time.Second),
		TranscriptionCompleted("openai", 10, time.Second),
		InjectionCompleted("clipboard", 10, 1),
		FailoverPerformed("openai", "azure", "circuit open"),
	}
	for _, e := range normal {
		if e.IsFailure() {
			t.Errorf("%s: IsFailure() = true, want false", e.Type)
		}
	}
}

func TestDispatcherDeliversToAllSinks(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}
	d := NewDispatcher(DispatcherConfig{BufferSize: 16}, first, second)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	d.Publish(InjectionCompleted("clipboard", 10, 1))
	d.Publish(CircuitOpened("Transcription:openai", 5, 30*time.Second))
	d.Publish(CircuitClosed("Transcription:openai"))

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	wantTypes := []Type{TypeInjectionCompleted, TypeCircuitOpened, TypeCircuitClosed}
	for _, sink := range []*captureSink{first, second} {
		got := sink.snapshot()
		if len(got) != len(wantTypes) {
			t.Fatalf("sink received %d events, want %d", len(got), len(wantTypes))
		}
		for i, e := range got {
			if e.Type != wantTypes[i] {
				t.Errorf("event[%d].Type = %q, want %q", i, e.Type, wantTypes[i])
			}
		}
	}
}

func TestDispatcherDropsOldestOnOverflow(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(DispatcherConfig{BufferSize: 2}, sink)

	// Not started yet, so everything queues. The third publish must evict
	// the first event.
	d.Publish(InjectionCompleted("clipboard", 1, 1))
	d.Publish(InjectionCompleted("clipboard", 2, 1))
	d.Publish(InjectionCompleted("clipboard", 3, 1))

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	got := sink.snapshot()
	if len(got) != 2 {
		t.Fatalf("sink received %d events, want 2", len(got))
	}
	if got[0].Chars != 2 || got[1].Chars != 3 {
		t.Errorf("surviving events = %d, %d; want 2, 3", got[0].Chars, got[1].Chars)
	}
	if d.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", d.Dropped())
	}
}

func TestDispatcherIsolatesPanickingSink(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(DispatcherConfig{BufferSize: 16}, panicSink{}, sink)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	d.Publish(CircuitOpened("k", 5, time.Second))
	d.Publish(CircuitClosed("k"))
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if got := len(sink.snapshot()); got != 2 {
		t.Errorf("healthy sink received %d events, want 2", got)
	}
}

func TestDispatcherStopDrainsQueue(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(DispatcherConfig{BufferSize: 32}, sink)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		d.Publish(InjectionCompleted("clipboard", i+1, 1))
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if got := len(sink.snapshot()); got != 20 {
		t.Errorf("sink received %d events, want 20", got)
	}
}

func TestDispatcherStopWithoutStartDrains(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(DispatcherConfig{BufferSize: 8}, sink)

	d.Publish(CircuitOpened("k", 5, time.Second))
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if got := len(sink.snapshot()); got != 1 {
		t.Errorf("sink received %d events, want 1", got)
	}
}

func TestDispatcherPublishAfterStop(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(DispatcherConfig{BufferSize: 8}, sink)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// Must not panic or deliver.
	d.Publish(CircuitOpened("k", 5, time.Second))

	if got := len(sink.snapshot()); got != 0 {
		t.Errorf("sink received %d events after Stop, want 0", got)
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestNotifySinkFiltersNonFailures(t *testing.T) {
	var calls int
	s := NewNotifySink(time.Hour)
	s.notify = func(title, message string) error {
		calls++
		return nil
	}

	s.Deliver(TranscriptionCompleted("openai", 10, time.Second))
	s.Deliver(CircuitClosed("k"))
	s.Deliver(RateLimitDenied("k", time.Second))
	if calls != 0 {
		t.Fatalf("notify called %d times for non-failure events", calls)
	}

	s.Deliver(CircuitOpened("Transcription:openai", 5, 30*time.Second))
	if calls != 1 {
		t.Fatalf("notify called %d times, want 1", calls)
	}
}

func TestNotifySinkRateLimits(t *testing.T) {
	var calls int
	s := NewNotifySink(50 * time.Millisecond)
	s.notify = func(title, message string) error {
		calls++
		return nil
	}

	s.Deliver(InjectionFailed("keystroke", "window closed", 2))
	s.Deliver(InjectionFailed("keystroke", "window closed", 2))
	if calls != 1 {
		t.Fatalf("notify called %d times inside the interval, want 1", calls)
	}

	time.Sleep(60 * time.Millisecond)
	s.Deliver(InjectionFailed("keystroke", "window closed", 2))
	if calls != 2 {
		t.Fatalf("notify called %d times after the interval, want 2", calls)
	}
}

func TestNotificationText(t *testing.T) {
	title, message := notificationText(CircuitOpened("Transcription:openai", 5, 30*time.Second))
	if title != "Dictation paused" {
		t.Errorf("title = %q", title)
	}
	if !strings.Contains(message, "Transcription:openai") || !strings.Contains(message, "30s") {
		t.Errorf("message = %q", message)
	}

	title, message = notificationText(TranscriptionFailed("openai", strings.Repeat("x", 200), time.Second))
	if title != "Transcription failed" {
		t.Errorf("title = %q", title)
	}
	if len(message) > 130 {
		t.Errorf("message not truncated: %d chars", len(message))
	}
}

type captureBroadcaster struct {
	mu       sync.Mutex
	patterns []string
	payloads [][]byte
}

func (c *captureBroadcaster) BroadcastToPattern(pattern string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns = append(c.patterns, pattern)
	c.payloads = append(c.payloads, data)
}

func TestSSESinkBroadcastsJSON(t *testing.T) {
	b := &captureBroadcaster{}
	s := NewSSESink(b)

	event := TranscriptionCompleted("openai", 42, 800*time.Millisecond)
	s.Deliver(event)

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.payloads) != 1 {
		t.Fatalf("broadcast %d payloads, want 1", len(b.payloads))
	}
	if b.patterns[0] != "events:*" {
		t.Errorf("pattern = %q, want %q", b.patterns[0], "events:*")
	}

	var decoded Event
	if err := json.Unmarshal(b.payloads[0], &decoded); err != nil {
		t.Fatalf("unmarshal broadcast payload: %v", err)
	}
	if decoded.ID != event.ID || decoded.Type != TypeTranscriptionCompleted || decoded.Chars != 42 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestLoggerSinkHandlesAllEventKinds(t *testing.T) {
	s := NewLoggerSink()
	events := []Event{
		CircuitOpened("k", 5, time.Second),
		CircuitClosed("k"),
		CircuitProbe("k"),
		RateLimitDenied("k", time.Second),
		TranscriptionCompleted("openai", 10, time.Second),
		TranscriptionFailed("openai", "timeout", time.Second),
		InjectionCompleted("clipboard", 10, 1),
		InjectionFailed("keystroke", "window closed", 2),
		FailoverPerformed("openai", "azure", "circuit open"),
	}
	for _, e := range events {
		s.Deliver(e)
	}
}
