package sse

// Wire-level event names. Domain event payloads come from the audit
// package as JSON; the feed itself only adds these framing events.
const (
	// EventTypeConnected is sent once when a client attaches to the feed.
	EventTypeConnected = "connected"

	// EventTypeKeepAlive names the periodic keep-alive comment.
	EventTypeKeepAlive = "keepalive"
)

// ConnectedEvent is the payload of the initial "connected" event.
type ConnectedEvent struct {
	ClientID string            `json:"client_id"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
