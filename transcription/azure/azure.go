// Package azure implements transcription.Provider against the Azure Speech
// short-audio REST API.
package azure

import (
	"context"
	"fmt"
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
	// ProviderName is the registered name for the Azure Speech provider.
	ProviderName = "azure"

	defaultBaseURL = "https://eastus.stt.speech.microsoft.com"
	defaultTimeout = 30 * time.Second

	recognizePath = "/speech/recognition/conversation/cognitiveservices/v1"

	// statusSuccess is the only RecognitionStatus that carries text. Every
	// other status means the service heard us and refused, so retrying the
	// same clip cannot help.
	statusSuccess = "Success"
)

// Config holds configuration for the Azure Speech provider.
type Config struct {
	// Endpoint is the regional speech endpoint, e.g.
	// https://westeurope.stt.speech.microsoft.com.
	Endpoint    string        `json:"endpoint" yaml:"endpoint"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	EnableHTTP2 bool          `json:"enable_http2" yaml:"enable_http2"`
	// Credentials resolves the subscription key at call time.
	Credentials credentials.Store `json:"-" yaml:"-"`
}

// Provider implements transcription.Provider using the Azure Speech REST API.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

// NewProvider creates a new Azure Speech transcription provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultBaseURL
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

// Factory returns a provider.Factory that creates Azure Provider instances
// from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(cfg map[string]any) (transcription.Provider, error) {
		ac := Config{}
		if v, ok := cfg["endpoint"].(string); ok {
			ac.Endpoint = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			ac.Timeout = v
		}
		if v, ok := cfg["enable_http2"].(bool); ok {
			ac.EnableHTTP2 = v
		}
		if v, ok := cfg["credentials"].(credentials.Store); ok {
			ac.Credentials = v
		}
		return NewProvider(ac)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether a subscription key resolves.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	secret, err := p.cfg.Credentials.Resolve(ctx, ProviderName)
	return err == nil && !secret.IsZero()
}

// Transcribe posts the clip as WAV-wrapped PCM and returns the transcript.
func (p *Provider) Transcribe(ctx context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
	secret, err := p.cfg.Credentials.Resolve(ctx, ProviderName)
	if err != nil {
		return nil, err
	}

	wavData, err := audio.EncodeWAV(req.Audio, req.Format)
	if err != nil {
		return nil, err
	}

	lang := langTag(req.Language)
	contentType := fmt.Sprintf("audio/wav; codecs=audio/pcm; samplerate=%d", req.Format.SampleRate)

	resp, err := httpclient.Post[azureResponse](p.client, ctx, recognizePath, wavData,
		httpclient.WithQueryParam("language", lang),
		httpclient.WithQueryParam("format", "simple"),
		httpclient.WithHeader("Content-Type", contentType),
		httpclient.WithHeader("Accept", "application/json"),
		httpclient.WithRequestAuth(httpclient.APIKeyAuthHeader(secret.Value(), "Ocp-Apim-Subscription-Key")))
	if err != nil {
		if httpclient.IsDecode(err) {
			return nil, apperrors.MalformedResponse(ProviderName, err)
		}
		return nil, err
	}

	if resp.Data.RecognitionStatus != statusSuccess {
		return nil, apperrors.ProviderRejected(ProviderName, "recognition status "+resp.Data.RecognitionStatus)
	}

	return &transcription.TranscriptionResponse{
		Text:     strings.TrimSpace(resp.Data.DisplayText),
		Language: lang,
		// Offset and Duration are reported in 100ns ticks.
		Duration: time.Duration(resp.Data.Duration * 100),
	}, nil
}

// Close releases the underlying HTTP client.
func (p *Provider) Close(ctx context.Context) error {
	return p.client.Close(ctx)
}

type azureResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

// bcp47 expands bare ISO 639-1 codes into the full tags the speech
// endpoint requires.
var bcp47 = map[string]string{
	"en": "en-US", "es": "es-ES", "fr": "fr-FR", "de": "de-DE",
	"it": "it-IT", "pt": "pt-BR", "nl": "nl-NL", "ja": "ja-JP",
	"ko": "ko-KR", "zh": "zh-CN", "ru": "ru-RU", "ar": "ar-SA",
	"hi": "hi-IN", "pl": "pl-PL", "sv": "sv-SE", "tr": "tr-TR",
}

func langTag(lang string) string {
	if lang == "" {
		return "en-US"
	}
	if tag, ok := bcp47[strings.ToLower(lang)]; ok {
		return tag
	}
	return lang
}
