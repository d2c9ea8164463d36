package sse

import (
	"io"
	"strings"
	"testing"
)

func newBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func TestReader_FeedSession(t *testing.T) {
	// The shape the control server's event feed produces: a named
	// handshake, keep-alive comments, then unnamed JSON payloads.
	stream := "event: connected\n" +
		"data: {\"client_id\":\"events:3f2a\"}\n" +
		"\n" +
		": keepalive 1756000000\n" +
		"\n" +
		"data: {\"type\":\"circuit_opened\",\"resource\":\"transcription:openai\"}\n" +
		"\n"
	r := NewReader(newBody(stream))
	defer r.Close()

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if ev.Event != "connected" || !strings.Contains(ev.Data, "events:3f2a") {
		t.Errorf("handshake = %+v", ev)
	}

	ev, err = r.Next()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if ev.Event != "" {
		t.Errorf("broadcast payloads are unnamed, got event %q", ev.Event)
	}
	if !strings.Contains(ev.Data, "circuit_opened") {
		t.Errorf("payload data = %q", ev.Data)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF at stream end, got %v", err)
	}
}

func TestReader_MultipleEvents(t *testing.T) {
	r := NewReader(newBody("data: first\n\ndata: second\n\n"))
	defer r.Close()

	for _, want := range []string{"first", "second"} {
		ev, err := r.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Data != want {
			t.Errorf("data = %q, want %q", ev.Data, want)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReader_EventID(t *testing.T) {
	r := NewReader(newBody("id: 42\ndata: hello\n\n"))
	defer r.Close()

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ID != "42" || ev.Data != "hello" {
		t.Errorf("got %+v", ev)
	}
}

func TestReader_MultiLineData(t *testing.T) {
	r := NewReader(newBody("data: line1\ndata: line2\ndata: line3\n\n"))
	defer r.Close()

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "line1\nline2\nline3"; ev.Data != want {
		t.Errorf("data = %q, want %q", ev.Data, want)
	}
}

func TestReader_EmptyStream(t *testing.T) {
	r := NewReader(newBody(""))
	defer r.Close()

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReader_DataWithoutSpace(t *testing.T) {
	r := NewReader(newBody("data:no-space\n\n"))
	defer r.Close()

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Data != "no-space" {
		t.Errorf("data = %q, want %q", ev.Data, "no-space")
	}
}

func TestReader_DeliversEventCutAtStreamEnd(t *testing.T) {
	r := NewReader(newBody("data: trailing"))
	defer r.Close()

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Data != "trailing" {
		t.Errorf("data = %q, want %q", ev.Data, "trailing")
	}
}

func TestSplitField(t *testing.T) {
	tests := []struct {
		line  string
		field string
		value string
	}{
		{"data: hello", "data", "hello"},
		{"data:hello", "data", "hello"},
		{"data:  two spaces", "data", " two spaces"},
		{"event: connected", "event", "connected"},
		{"id: 1", "id", "1"},
		{"retry: 3000", "retry", "3000"},
		{"fieldonly", "fieldonly", ""},
	}
	for _, tt := range tests {
		f, v := splitField(tt.line)
		if f != tt.field || v != tt.value {
			t.Errorf("splitField(%q) = (%q, %q), want (%q, %q)", tt.line, f, v, tt.field, tt.value)
		}
	}
}
