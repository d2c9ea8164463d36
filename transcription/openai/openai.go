// Package openai implements transcription.Provider against the OpenAI
// audio transcription API.
package openai

import (
	"context"
	"strings"
	"time"

	"github.com/skillsenselab/voicekit/audio"
	"github.com/skillsenselab/voicekit/credentials"
	apperrors "github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/httpclient"
	"github.com/skillsenselab/voicekit/provider"
	"github.com/skillsenselab/voicekit/transcription"
)

const (
	// ProviderName is the registered name for the OpenAI provider.
	ProviderName = "openai"

	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "whisper-1"
	defaultTimeout = 30 * time.Second

	transcribePath = "/v1/audio/transcriptions"
)

// Config holds configuration for the OpenAI transcription provider.
type Config struct {
	// Endpoint overrides the API base URL, e.g. for a compatible proxy.
	Endpoint string        `json:"endpoint" yaml:"endpoint"`
	Model    string        `json:"model" yaml:"model"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
	// EnableHTTP2 switches the upload transport to HTTP/2.
	EnableHTTP2 bool `json:"enable_http2" yaml:"enable_http2"`
	// Credentials resolves the API key at call time, so key rotation needs
	// no restart.
	Credentials credentials.Store `json:"-" yaml:"-"`
}

// Provider implements transcription.Provider using the OpenAI REST API.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

// NewProvider creates a new OpenAI transcription provider.
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

// Factory returns a provider.Factory that creates OpenAI Provider
// instances from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(cfg map[string]any) (transcription.Provider, error) {
		oc := Config{}
		if v, ok := cfg["endpoint"].(string); ok {
			oc.Endpoint = v
		}
		if v, ok := cfg["model"].(string); ok {
			oc.Model = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			oc.Timeout = v
		}
		if v, ok := cfg["enable_http2"].(bool); ok {
			oc.EnableHTTP2 = v
		}
		if v, ok := cfg["credentials"].(credentials.Store); ok {
			oc.Credentials = v
		}
		return NewProvider(oc)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether an API key resolves. OpenAI has no
// unauthenticated health endpoint, so a resolvable key is the best cheap
// signal.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	secret, err := p.cfg.Credentials.Resolve(ctx, ProviderName)
	return err == nil && !secret.IsZero()
}

// Transcribe uploads the clip as a WAV file and returns the transcript.
func (p *Provider) Transcribe(ctx context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
	secret, err := p.cfg.Credentials.Resolve(ctx, ProviderName)
	if err != nil {
		return nil, err
	}

	wavData, err := audio.EncodeWAV(req.Audio, req.Format)
	if err != nil {
		return nil, err
	}

	body := &httpclient.MultipartBody{
		Fields: map[string]string{
			"model":           p.cfg.Model,
			"response_format": "json",
		},
		Files: []httpclient.FileField{{
			FieldName:   "file",
			FileName:    "audio.wav",
			ContentType: "audio/wav",
			Data:        wavData,
		}},
	}
	if req.Language != "" {
		body.Fields["language"] = req.Language
	}

	resp, err := httpclient.Post[openaiResponse](p.client, ctx, transcribePath, body,
		httpclient.WithRequestAuth(httpclient.BearerAuth(secret.Value())))
	if err != nil {
		if httpclient.IsDecode(err) {
			return nil, apperrors.MalformedResponse(ProviderName, err)
		}
		return nil, err
	}

	return &transcription.TranscriptionResponse{
		Text:     strings.TrimSpace(resp.Data.Text),
		Language: req.Language,
	}, nil
}

// Close releases the underlying HTTP client.
func (p *Provider) Close(ctx context.Context) error {
	return p.client.Close(ctx)
}

type openaiResponse struct {
	Text string `json:"text"`
}
