package sse

import (
	"context"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/httpclient"
)

// FeedEvent is one event received from a control server's feed.
type FeedEvent struct {
	// Name is the SSE event type. The connected handshake arrives named;
	// broadcast payloads are unnamed audit JSON.
	Name string
	// Data is the raw payload.
	Data []byte
}

// FeedClient follows a running host's event feed over HTTP. Companion
// tooling (a settings window, a log tail) uses it to watch dictation
// events without linking against the host's internals.
type FeedClient struct {
	http *httpclient.Client
	path string
}

// FeedClientConfig configures a FeedClient.
type FeedClientConfig struct {
	// BaseURL is the control server address, e.g. "http://127.0.0.1:7465".
	BaseURL string
	// Path is the feed endpoint. Defaults to "/v1/events".
	Path string
}

// NewFeedClient creates a client for the feed at cfg.BaseURL.
func NewFeedClient(cfg FeedClientConfig) (*FeedClient, error) {
	if cfg.Path == "" {
		cfg.Path = "/v1/events"
	}
	hc, err := httpclient.New(httpclient.Config{
		Name:    "event-feed",
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return &FeedClient{http: hc, path: cfg.Path}, nil
}

// Follow attaches to the feed and calls fn for every event until the
// server closes the stream, fn returns an error, or ctx ends. A clean
// server close returns nil; fn's error comes back as given.
func (f *FeedClient) Follow(ctx context.Context, fn func(FeedEvent) error) error {
	resp, err := f.http.DoStream(ctx, httpclient.Request{
		Method:  http.MethodGet,
		Path:    f.path,
		Headers: map[string]string{"Accept": "text/event-stream"},
	})
	if err != nil {
		return err
	}
	defer resp.Close()

	if resp.SSE == nil {
		return apperrors.MalformedResponse("event feed",
			errors.New("response is not an event stream"))
	}

	for {
		ev, err := resp.SSE.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// The transport surfaces cancellation as a read error.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err := fn(FeedEvent{Name: ev.Event, Data: []byte(ev.Data)}); err != nil {
			return err
		}
	}
}
