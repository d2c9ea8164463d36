package transcription

import (
	"context"

	"github.com/skillsenselab/voicekit/provider"
)

// Provider is the interface that transcription backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe sends audio for transcription and returns the result.
	Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error)
}

// NewManager creates a manager for transcription backends. A nil
// selector falls back to first-available; the host passes a priority
// selector ordered by configuration and gated on breaker state.
func NewManager(sel provider.Selector[Provider]) *provider.Manager[Provider] {
	if sel == nil {
		sel = &provider.HealthCheckSelector[Provider]{}
	}
	return provider.NewManager(provider.NewRegistry[Provider](), sel)
}
