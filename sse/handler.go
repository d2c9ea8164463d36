package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/skillsenselab/voicekit/logger"
)

// ServeSSE attaches one subscriber to the hub and streams its events
// until the connection drops. This is the entry point called from the
// /v1/events HTTP handler.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, clientID string, opts ...ClientOption) {
	log := logger.Get("sse")

	// Streaming requires http.Flusher.
	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming unsupported by response writer", logger.Fields(
			"client_id", clientID,
		))
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// The feed connection is long-lived and must outlast the server's
	// WriteTimeout, so clear the write deadline for this response.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Warn("could not clear write deadline", logger.MergeWithError(
			logger.Fields("client_id", clientID), err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := NewClient(clientID, opts...)
	hub.Register(client)
	defer func() {
		hub.Unregister(client)
	}()

	// Send the initial connection event so subscribers know their ID.
	connectedEvent := ConnectedEvent{
		ClientID: clientID,
		Metadata: client.Metadata(),
	}
	connectedData, _ := json.Marshal(connectedEvent)
	_, _ = fmt.Fprintf(w, "event: %s\n", EventTypeConnected)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", connectedData)
	flusher.Flush()

	log.Debug("feed connection open", logger.Fields(
		"client_id", clientID,
		"remote_addr", r.RemoteAddr,
	))

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("feed connection closed by subscriber", logger.Fields(
				"client_id", clientID,
				"reason", ctx.Err().Error(),
			))
			return

		case event, ok := <-client.Events():
			if !ok {
				// Hub closed the channel, shutdown in progress.
				log.Debug("feed connection closed by hub", logger.Fields(
					"client_id", clientID,
				))
				return
			}
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()

		case <-keepAlive.C:
			// SSE comment line; keeps idle connections from being reaped.
			_, _ = fmt.Fprintf(w, ": %s %d\n\n", EventTypeKeepAlive, time.Now().Unix())
			flusher.Flush()
		}
	}
}
