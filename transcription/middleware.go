package transcription

import (
	"context"
	"time"

	"github.com/skillsenselab/voicekit/logger"
	"github.com/skillsenselab/voicekit/observability"
)

// Middleware wraps a Provider with cross-cutting behavior.
type Middleware func(Provider) Provider

// Chain wraps p with the given middlewares. The first middleware becomes
// the outermost layer.
func Chain(p Provider, mws ...Middleware) Provider {
	for i := len(mws) - 1; i >= 0; i-- {
		p = mws[i](p)
	}
	return p
}

// WithLogging logs every Transcribe call with its outcome and duration.
func WithLogging(log *logger.Logger) Middleware {
	return func(next Provider) Provider {
		return &loggingProvider{next: next, log: log}
	}
}

type loggingProvider struct {
	next Provider
	log  *logger.Logger
}

func (p *loggingProvider) Name() string { return p.next.Name() }

func (p *loggingProvider) IsAvailable(ctx context.Context) bool { return p.next.IsAvailable(ctx) }

func (p *loggingProvider) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	start := time.Now()
	resp, err := p.next.Transcribe(ctx, req)

	fields := logger.Fields(
		"provider", p.next.Name(),
		"bytes", len(req.Audio),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		p.log.Warn("transcribe failed", logger.MergeWithError(fields, err))
		return nil, err
	}
	p.log.Debug("transcribe succeeded", fields)
	return resp, nil
}

// WithTracing wraps every Transcribe call in a span carrying the provider
// name and outcome.
func WithTracing() Middleware {
	return func(next Provider) Provider {
		return &tracingProvider{next: next}
	}
}

type tracingProvider struct {
	next Provider
}

func (p *tracingProvider) Name() string { return p.next.Name() }

func (p *tracingProvider) IsAvailable(ctx context.Context) bool { return p.next.IsAvailable(ctx) }

func (p *tracingProvider) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanProviderCall)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrProvider, p.next.Name())

	resp, err := p.next.Transcribe(ctx, req)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return resp, err
}
