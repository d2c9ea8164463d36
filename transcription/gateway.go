package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/skillsenselab/voicekit/audio"
	"github.com/skillsenselab/voicekit/audit"
	"github.com/skillsenselab/voicekit/config"
	"github.com/skillsenselab/voicekit/logger"
	"github.com/skillsenselab/voicekit/observability"
	"github.com/skillsenselab/voicekit/provider"
	"github.com/skillsenselab/voicekit/resilience"
)

// DefaultChunkBytes is the upload chunk threshold when a provider does not
// configure one. Clips at or below it upload in a single request.
const DefaultChunkBytes = 1 << 20

// ResourceKey returns the rate-limit and circuit key for a provider. The
// gateway, bucket overrides and introspection endpoints all use it so the
// three views stay keyed the same way.
func ResourceKey(providerName string) string {
	return "transcription:" + providerName
}

// EventPublisher receives audit events from the gateway. Satisfied by
// *audit.Dispatcher. Nil disables event publishing.
type EventPublisher interface {
	Publish(e audit.Event)
}

// GatewayConfig wires a Gateway's collaborators.
type GatewayConfig struct {
	// Settings carries provider order, admission budget and per-provider
	// connection settings.
	Settings config.TranscriptionSettings
	// Providers holds the initialized backends.
	Providers *provider.Manager[Provider]
	// Limiter admits requests per provider resource key.
	Limiter *resilience.RateLimiter
	// Engine wraps provider calls with retry and circuit breaking.
	Engine *resilience.RecoveryEngine
	// Metrics records request counts and durations. Optional.
	Metrics *observability.Metrics
	// Events receives audit events. Optional.
	Events EventPublisher
	// Log defaults to the "transcription" component logger.
	Log *logger.Logger
}

// Gateway runs transcription requests through validation, rate-limit
// admission, circuit-wrapped provider calls and single failover. Its
// Transcribe method never returns an error: outcomes are classified into
// the TranscriptionResult.
type Gateway struct {
	cfg       config.TranscriptionSettings
	providers *provider.Manager[Provider]
	limiter   *resilience.RateLimiter
	engine    *resilience.RecoveryEngine
	metrics   *observability.Metrics
	events    EventPublisher
	log       *logger.Logger
}

// NewGateway creates a gateway from its configuration.
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.Providers == nil {
		return nil, fmt.Errorf("transcription gateway: provider manager is required")
	}
	if cfg.Limiter == nil {
		return nil, fmt.Errorf("transcription gateway: rate limiter is required")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("transcription gateway: recovery engine is required")
	}
	if cfg.Log == nil {
		cfg.Log = logger.Get("transcription")
	}
	return &Gateway{
		cfg:       cfg.Settings,
		providers: cfg.Providers,
		limiter:   cfg.Limiter,
		engine:    cfg.Engine,
		metrics:   cfg.Metrics,
		events:    cfg.Events,
		log:       cfg.Log,
	}, nil
}

// Transcribe turns one audio clip into text.
//
// Per attempt leg the order is: validate, rate-limit admission on the
// provider's resource key, circuit-and-retry wrapped provider call on the
// same key, response mapping. Validation failures consume no token and
// touch no circuit. On a failure that says nothing about other backends
// being broken (rate limited, canceled, timed out, invalid request) the
// request ends; otherwise it fails over to the next configured backend at
// most once.
func (g *Gateway) Transcribe(ctx context.Context, req TranscriptionRequest) TranscriptionResult {
	start := time.Now()

	ctx, span := observability.StartSpan(ctx, observability.SpanTranscription)
	defer span.End()
	if g.metrics != nil {
		g.metrics.RecordTranscriptionStart(ctx)
	}

	if err := audio.ValidateClip(req.Audio, req.Format, 0); err != nil {
		return g.failure(ctx, start, "", FailureFromError(err))
	}

	legs, fail := g.legs(req.Provider)
	if fail != nil {
		return g.failure(ctx, start, req.Provider, fail)
	}

	if g.cfg.MaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.MaxDuration)
		defer cancel()
	}

	var last *Failure
	for i, name := range legs {
		if i > 0 {
			g.log.Warn("failing over", logger.Fields(
				"from", legs[i-1], "to", name, "reason", last.Reason))
			g.publish(audit.FailoverPerformed(legs[i-1], name, last.Reason))
		}

		text, fail := g.attempt(ctx, name, req)
		if fail == nil {
			return g.success(ctx, start, name, i > 0, text)
		}
		last = fail

		if !failsOver(fail.Kind) {
			return g.failure(ctx, start, name, fail)
		}
	}
	return g.failure(ctx, start, legs[len(legs)-1], last)
}

// legs resolves the ordered provider names for one request: the hint or the
// configured primary first, then at most one failover target.
func (g *Gateway) legs(hint string) ([]string, *Failure) {
	first := g.cfg.Primary
	if hint != "" {
		if _, err := g.providers.GetByName(hint); err != nil {
			return nil, &Failure{
				Kind:   FailureInvalidRequest,
				Reason: fmt.Sprintf("unknown provider %q", hint),
				Err:    err,
			}
		}
		first = hint
	}
	if first == "" {
		return nil, &Failure{Kind: FailureInvalidRequest, Reason: "no transcription provider configured"}
	}
	if _, err := g.providers.GetByName(first); err != nil {
		return nil, &Failure{
			Kind:   FailurePermanent,
			Reason: fmt.Sprintf("provider %q is not initialized", first),
			Err:    err,
		}
	}

	next := g.cfg.Secondary
	if first != g.cfg.Primary {
		next = g.cfg.Primary
	}

	legs := []string{first}
	if next != "" && next != first {
		if _, err := g.providers.GetByName(next); err == nil {
			legs = append(legs, next)
		}
	}
	return legs, nil
}

// attempt runs one provider leg: admission, then the recovery-wrapped call.
func (g *Gateway) attempt(ctx context.Context, name string, req TranscriptionRequest) (string, *Failure) {
	p, err := g.providers.GetByName(name)
	if err != nil {
		return "", &Failure{
			Kind:   FailurePermanent,
			Reason: fmt.Sprintf("provider %q is not initialized", name),
			Err:    err,
		}
	}

	ps := g.cfg.Providers[name]
	if ps.MaxBytes > 0 && len(req.Audio) > ps.MaxBytes {
		return "", &Failure{
			Kind:   FailureInvalidRequest,
			Reason: fmt.Sprintf("payload is %d bytes, above the %d byte limit for %s", len(req.Audio), ps.MaxBytes, name),
		}
	}

	key := ResourceKey(name)
	observability.SetSpanAttribute(ctx, observability.AttrResourceKey, key)

	if err := g.limiter.Acquire(ctx, key, 1, g.cfg.AdmissionWait); err != nil {
		return "", FailureFromError(err)
	}

	text, err := resilience.Execute(ctx, g.engine, key, func(ctx context.Context) (string, error) {
		return g.call(ctx, p, ps, req)
	})
	if err != nil {
		return "", FailureFromError(err)
	}
	return text, nil
}

// call uploads the clip, split on frame boundaries when it exceeds the
// provider's chunk threshold, and reassembles partial transcripts in
// chronological order.
func (g *Gateway) call(ctx context.Context, p Provider, ps config.ProviderSettings, req TranscriptionRequest) (string, error) {
	lang := req.Language
	if lang == "" {
		lang = g.cfg.Language
	}

	chunkBytes := ps.ChunkBytes
	if chunkBytes <= 0 {
		chunkBytes = DefaultChunkBytes
	}

	chunker := audio.NewChunker(req.Audio, req.Format, chunkBytes)
	parts := make([]string, 0, chunker.Chunks())
	for {
		chunk, ok := chunker.Next()
		if !ok {
			break
		}
		resp, err := p.Transcribe(ctx, TranscriptionRequest{
			Audio:    chunk,
			Format:   req.Format,
			Language: lang,
		})
		if err != nil {
			return "", err
		}
		if text := strings.TrimSpace(resp.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

func (g *Gateway) success(ctx context.Context, start time.Time, name string, failedOver bool, text string) TranscriptionResult {
	duration := time.Since(start)
	chars := utf8.RuneCountInString(text)

	observability.SetSpanAttribute(ctx, observability.AttrProvider, name)
	observability.SetSpanAttribute(ctx, observability.AttrStatus, "success")
	if g.metrics != nil {
		g.metrics.RecordTranscriptionEnd(ctx, name, "success", duration)
	}
	g.publish(audit.TranscriptionCompleted(name, chars, duration))
	g.log.Info("transcription completed", logger.Fields(
		"provider", name,
		"chars", chars,
		"duration_ms", duration.Milliseconds(),
		"failover", failedOver,
	))

	return TranscriptionResult{
		Success:  true,
		Text:     text,
		Provider: name,
		Failover: failedOver,
		Duration: duration,
	}
}

func (g *Gateway) failure(ctx context.Context, start time.Time, name string, fail *Failure) TranscriptionResult {
	duration := time.Since(start)

	if name != "" {
		observability.SetSpanAttribute(ctx, observability.AttrProvider, name)
	}
	observability.SetSpanAttribute(ctx, observability.AttrStatus, string(fail.Kind))
	if fail.Err != nil {
		observability.SetSpanError(ctx, fail.Err)
	}
	if g.metrics != nil {
		g.metrics.RecordTranscriptionEnd(ctx, name, string(fail.Kind), duration)
	}
	g.publish(audit.TranscriptionFailed(name, fail.Reason, duration))
	g.log.Warn("transcription failed", logger.Fields(
		"provider", name,
		"kind", string(fail.Kind),
		"reason", fail.Reason,
	))

	return TranscriptionResult{
		Provider: name,
		Duration: duration,
		Failure:  fail,
	}
}

func (g *Gateway) publish(e audit.Event) {
	if g.events != nil {
		g.events.Publish(e)
	}
}

// failsOver reports whether a failure kind justifies trying another
// backend. Admission refusals and caller aborts end the request instead:
// a local token shortage or an expired deadline is not the provider's
// fault, and a request the first backend rejected as invalid stays invalid
// for the next one.
func failsOver(k FailureKind) bool {
	switch k {
	case FailureTransient, FailurePermanent, FailureCircuitOpen:
		return true
	default:
		return false
	}
}
