// Package deepgram implements transcription.Provider against the Deepgram
// speech API. Batch requests go through the pre-recorded REST endpoint;
// ListenStream opens a websocket session for live dictation.
package deepgram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/skillsenselab/voicekit/credentials"
	apperrors "github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/httpclient"
	"github.com/skillsenselab/voicekit/provider"
	"github.com/skillsenselab/voicekit/transcription"
)

const (
	// ProviderName is the registered name for the Deepgram provider.
	ProviderName = "deepgram"

	defaultBaseURL = "https://api.deepgram.com"
	defaultModel   = "nova-2"
	defaultTimeout = 30 * time.Second

	listenPath = "/v1/listen"
)

// Config holds configuration for the Deepgram provider.
type Config struct {
	Endpoint    string        `json:"endpoint" yaml:"endpoint"`
	Model       string        `json:"model" yaml:"model"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	EnableHTTP2 bool          `json:"enable_http2" yaml:"enable_http2"`
	// Credentials resolves the API key at call time.
	Credentials credentials.Store `json:"-" yaml:"-"`
}

// Provider implements transcription.Provider using the Deepgram API.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

// NewProvider creates a new Deepgram transcription provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Credentials == nil {
		return nil, apperrors.MissingField("credentials")
	}

	client, err := httpclient.New(httpclient.Config{
		Name:        ProviderName,
		BaseURL:     cfg.Endpoint,
		Timeout:     cfg.Timeout,
		EnableHTTP2: cfg.EnableHTTP2,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, client: client}, nil
}

// Factory returns a provider.Factory that creates Deepgram Provider
// instances from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(cfg map[string]any) (transcription.Provider, error) {
		dc := Config{}
		if v, ok := cfg["endpoint"].(string); ok {
			dc.Endpoint = v
		}
		if v, ok := cfg["model"].(string); ok {
			dc.Model = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			dc.Timeout = v
		}
		if v, ok := cfg["enable_http2"].(bool); ok {
			dc.EnableHTTP2 = v
		}
		if v, ok := cfg["credentials"].(credentials.Store); ok {
			dc.Credentials = v
		}
		return NewProvider(dc)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether an API key resolves.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	secret, err := p.cfg.Credentials.Resolve(ctx, ProviderName)
	return err == nil && !secret.IsZero()
}

// Transcribe posts the clip as raw PCM. Deepgram reads the sample layout
// from the query string, so no container wrapping is needed.
func (p *Provider) Transcribe(ctx context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
	secret, err := p.cfg.Credentials.Resolve(ctx, ProviderName)
	if err != nil {
		return nil, err
	}

	opts := []httpclient.RequestOption{
		httpclient.WithQueryParam("model", p.cfg.Model),
		httpclient.WithQueryParam("encoding", "linear16"),
		httpclient.WithQueryParam("sample_rate", strconv.Itoa(req.Format.SampleRate)),
		httpclient.WithQueryParam("channels", strconv.Itoa(req.Format.Channels)),
		httpclient.WithQueryParam("smart_format", "true"),
		httpclient.WithHeader("Content-Type", "application/octet-stream"),
		httpclient.WithRequestAuth(httpclient.SchemeAuth("Token", secret.Value())),
	}
	if req.Language != "" {
		opts = append(opts, httpclient.WithQueryParam("language", req.Language))
	}

	resp, err := httpclient.Post[listenResponse](p.client, ctx, listenPath, req.Audio, opts...)
	if err != nil {
		if httpclient.IsDecode(err) {
			return nil, apperrors.MalformedResponse(ProviderName, err)
		}
		return nil, err
	}

	channels := resp.Data.Results.Channels
	if len(channels) == 0 || len(channels[0].Alternatives) == 0 {
		return nil, apperrors.MalformedResponse(ProviderName, fmt.Errorf("response contains no transcript alternatives"))
	}

	return &transcription.TranscriptionResponse{
		Text:     strings.TrimSpace(channels[0].Alternatives[0].Transcript),
		Language: req.Language,
		Duration: time.Duration(resp.Data.Metadata.Duration * float64(time.Second)),
	}, nil
}

// Close releases the underlying HTTP client.
func (p *Provider) Close(ctx context.Context) error {
	return p.client.Close(ctx)
}

type listenResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}
