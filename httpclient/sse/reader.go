// Package sse decodes text/event-stream responses. The feed client uses
// it to follow the control server's live event endpoint.
package sse

import (
	"bufio"
	"io"
	"strings"
)

// Event is one decoded server-sent event.
type Event struct {
	// Event is the event type from the "event:" line. Broadcast payloads
	// on the feed arrive unnamed, so this is often empty.
	Event string
	// Data joins the "data:" lines with newlines.
	Data string
	// ID is the "id:" line, when the server sends one.
	ID string
}

// Reader pulls events off a stream one at a time.
type Reader interface {
	// Next blocks for the next event and returns io.EOF when the stream
	// ends cleanly.
	Next() (*Event, error)
	// Close releases the underlying stream.
	Close() error
}

// maxLineBytes bounds one stream line. A coalesced burst of transcript
// segments stays far under this; anything larger is a broken stream.
const maxLineBytes = 1 << 20

type reader struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
}

// NewReader decodes events from body. Close closes body.
func NewReader(body io.ReadCloser) Reader {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	return &reader{scanner: sc, body: body}
}

func (r *reader) Next() (*Event, error) {
	var event Event
	var hasData bool

	for r.scanner.Scan() {
		line := r.scanner.Text()

		// A blank line ends the event; lines starting with ":" are
		// comments (the feed's keep-alives arrive this way).
		if line == "" {
			if hasData {
				return &event, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := splitField(line)
		switch field {
		case "data":
			if hasData {
				event.Data += "\n" + value
			} else {
				event.Data = value
				hasData = true
			}
		case "event":
			event.Event = value
		case "id":
			event.ID = value
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if hasData {
		// The stream closed mid-event; deliver what arrived.
		return &event, nil
	}
	return nil, io.EOF
}

func (r *reader) Close() error {
	return r.body.Close()
}

// splitField separates "field: value", dropping the single space the
// protocol allows after the colon. A line with no colon is a bare field
// name with an empty value.
func splitField(line string) (field, value string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}
