package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/voicekit/audio"
	"github.com/skillsenselab/voicekit/config"
	apperrors "github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/injection"
	"github.com/skillsenselab/voicekit/logger"
	"github.com/skillsenselab/voicekit/observability"
	"github.com/skillsenselab/voicekit/transcription"
	"github.com/skillsenselab/voicekit/util"
)

// Transcriber turns one audio clip into text. *transcription.Gateway
// satisfies it.
type Transcriber interface {
	Transcribe(ctx context.Context, req transcription.TranscriptionRequest) transcription.TranscriptionResult
}

// TextInjector delivers text into the foreground application.
// *injection.Dispatcher satisfies it.
type TextInjector interface {
	InjectText(ctx context.Context, text string, opts *injection.Options) injection.Result
}

// SegmentSource yields final transcript segments in speech order and
// io.EOF when the stream ends. The deepgram live session satisfies it.
type SegmentSource interface {
	Recv() (string, error)
}

// OrchestratorConfig wires an Orchestrator.
type OrchestratorConfig struct {
	Transcriber Transcriber
	Injector    TextInjector
	// MaxDuration bounds one dictation session end to end. Zero leaves
	// the caller's context in charge.
	MaxDuration time.Duration
	// Audio is the expected clip format and session size cap. The zero
	// value disables the pre-flight check.
	Audio config.AudioSettings
	Log   *logger.Logger
}

// Orchestrator sequences one dictation session: pull the clip from its
// source, transcribe it, inject the transcript. It owns the call order
// and the session deadline; admission, retries and failover live in the
// gateway, delivery mechanics in the dispatcher.
type Orchestrator struct {
	transcriber Transcriber
	injector    TextInjector
	maxDuration time.Duration
	audio       config.AudioSettings
	log         *logger.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	log := cfg.Log
	if log == nil {
		log = logger.Get("pipeline")
	}
	return &Orchestrator{
		transcriber: cfg.Transcriber,
		injector:    cfg.Injector,
		maxDuration: cfg.MaxDuration,
		audio:       cfg.Audio,
		log:         log,
	}
}

// Session describes one dictation round trip.
type Session struct {
	// Source supplies the captured clip.
	Source audio.Source
	// Language hints the expected language. Empty uses the gateway
	// default.
	Language string
	// Provider pins a backend for this session. Empty uses the
	// configured order.
	Provider string
	// Injection overrides delivery options for this session.
	Injection *injection.Options
}

// SessionResult reports both halves of a session.
type SessionResult struct {
	// SessionID identifies the session in logs and audit events.
	SessionID     string                            `json:"session_id"`
	Transcription transcription.TranscriptionResult `json:"transcription"`
	// Injection is nil when no delivery was attempted because the
	// session produced no transcript.
	Injection *injection.Result `json:"injection,omitempty"`
	Duration  time.Duration     `json:"duration"`
}

// Succeeded reports whether text was both transcribed and delivered.
func (r SessionResult) Succeeded() bool {
	return r.Transcription.Success && r.Injection != nil && r.Injection.Success
}

// Dictate runs one capture-to-injection session. Like the gateway and
// dispatcher calls it wraps, it reports every outcome through the result
// rather than an error.
func (o *Orchestrator) Dictate(ctx context.Context, session Session) SessionResult {
	start := time.Now()
	sid := uuid.NewString()

	if o.maxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.maxDuration)
		defer cancel()
	}

	// Stamp the session id so every line below, and anything the
	// gateway or dispatcher logs with the session context, carries it.
	ctx = logger.ContextWithSessionID(ctx, sid)
	log := o.log.WithContext(ctx)

	ctx, span := observability.StartSpan(ctx, observability.SpanPipeline)
	defer span.End()

	clip, err := session.Source.Clip(ctx)
	if err != nil {
		fail := transcription.FailureFromError(err)
		log.Warn("audio source failed", logger.MergeWithError(logger.Fields(
			"kind", string(fail.Kind),
		), err))
		observability.SetSpanAttribute(ctx, observability.AttrStatus, "failure")
		return SessionResult{
			SessionID:     sid,
			Transcription: transcription.TranscriptionResult{Failure: fail, Duration: time.Since(start)},
			Duration:      time.Since(start),
		}
	}

	if fail := o.checkClip(clip, session.Source.Format()); fail != nil {
		log.Warn("session clip rejected", logger.Fields(
			"reason", fail.Reason,
		))
		observability.SetSpanAttribute(ctx, observability.AttrStatus, "failure")
		return SessionResult{
			SessionID:     sid,
			Transcription: transcription.TranscriptionResult{Failure: fail, Duration: time.Since(start)},
			Duration:      time.Since(start),
		}
	}

	tres := o.transcriber.Transcribe(ctx, transcription.TranscriptionRequest{
		Audio:    clip,
		Format:   session.Source.Format(),
		Language: session.Language,
		Provider: session.Provider,
	})
	if !tres.Success {
		observability.SetSpanAttribute(ctx, observability.AttrStatus, "failure")
		return SessionResult{SessionID: sid, Transcription: tres, Duration: time.Since(start)}
	}

	ires := o.injector.InjectText(ctx, tres.Text, session.Injection)
	res := SessionResult{SessionID: sid, Transcription: tres, Injection: &ires, Duration: time.Since(start)}

	status := "failure"
	if res.Succeeded() {
		status = "success"
	}
	observability.SetSpanAttribute(ctx, observability.AttrStatus, status)
	log.Info("dictation session finished", logger.Fields(
		"status", status,
		"provider", tres.Provider,
		"strategy", string(ires.Strategy),
		"chars", ires.Chars,
		"duration_ms", res.Duration.Milliseconds(),
	))
	return res
}

// checkClip enforces the configured session format and size cap before any
// admission token is spent. Zero settings disable each check.
func (o *Orchestrator) checkClip(clip []byte, f audio.Format) *transcription.Failure {
	a := o.audio
	formatMismatch := (a.SampleRate > 0 && f.SampleRate != a.SampleRate) ||
		(a.Channels > 0 && f.Channels != a.Channels) ||
		(a.BitsPerSample > 0 && f.BitsPerSample != a.BitsPerSample)
	if formatMismatch {
		expected := audio.Format{
			SampleRate:    a.SampleRate,
			Channels:      a.Channels,
			BitsPerSample: a.BitsPerSample,
		}
		return transcription.FailureFromError(apperrors.InvalidAudio(fmt.Sprintf(
			"session format %s does not match the configured %s", f, expected)))
	}
	if a.MaxBytes > 0 && len(clip) > a.MaxBytes {
		return transcription.FailureFromError(apperrors.InvalidAudio(fmt.Sprintf(
			"clip is %d bytes, above the %d byte session limit", len(clip), a.MaxBytes)))
	}
	return nil
}

const (
	defaultCoalesceCount = 3
	defaultCoalesceAfter = 400 * time.Millisecond
	defaultSegmentBuffer = 16
)

// StreamOptions tunes live delivery.
type StreamOptions struct {
	// CoalesceCount caps how many segments join into one delivery.
	CoalesceCount int
	// CoalesceAfter stops coalescing a burst after this much time, so a
	// long utterance still lands promptly.
	CoalesceAfter time.Duration
	// BufferSize decouples segment arrival from delivery latency.
	BufferSize int
	// Injection overrides delivery options for the whole stream.
	Injection *injection.Options
}

func (o *StreamOptions) withDefaults() StreamOptions {
	opts := StreamOptions{}
	if o != nil {
		opts = *o
	}
	if opts.CoalesceCount <= 0 {
		opts.CoalesceCount = defaultCoalesceCount
	}
	if opts.CoalesceAfter <= 0 {
		opts.CoalesceAfter = defaultCoalesceAfter
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultSegmentBuffer
	}
	return opts
}

// StreamResult summarizes a live dictation stream.
type StreamResult struct {
	// Transcript is everything the stream transcribed, delivered or not.
	Transcript string `json:"transcript"`
	// Segments counts final transcript segments received.
	Segments int `json:"segments"`
	// Deliveries counts injection calls made.
	Deliveries int `json:"deliveries"`
	// Failures counts deliveries that did not land.
	Failures int           `json:"failures"`
	Duration time.Duration `json:"duration"`
}

// DictateStream drains a live transcript stream and injects it as it
// arrives. Segments are sanitized, empty ones dropped, bursts coalesced
// into one delivery, and arrival is buffered so a slow injection does
// not stall the socket reader. A failed delivery is counted and the
// stream continues; the returned error reports a stream failure, not a
// delivery one.
//
// Closing the source's send side ends the stream; the caller keeps
// ownership of the source and closes it afterwards.
func (o *Orchestrator) DictateStream(ctx context.Context, segments SegmentSource, opts *StreamOptions) (StreamResult, error) {
	start := time.Now()
	conf := opts.withDefaults()

	ctx = logger.ContextWithSessionID(ctx, uuid.NewString())
	log := o.log.WithContext(ctx)

	ctx, span := observability.StartSpan(ctx, observability.SpanPipeline)
	defer span.End()

	src := FromFunc(func(context.Context) Iterator[string] {
		return &segmentIter{source: segments}
	})
	cleaned := Map(src, func(_ context.Context, s string) (string, error) {
		return util.SanitizeTranscript(s), nil
	})
	spoken := Filter(cleaned, func(s string) bool {
		return strings.TrimSpace(s) != ""
	})
	logged := Tap(spoken, func(_ context.Context, s string) error {
		log.Debug("segment received", logger.Fields("chars", len(s)))
		return nil
	})
	buffered := Buffer(logged, conf.BufferSize)
	batched := Batch(buffered, conf.CoalesceCount, conf.CoalesceAfter)

	var res StreamResult
	var transcript strings.Builder
	err := ForEach(ctx, batched, func(ctx context.Context, parts []string) error {
		text := strings.Join(parts, " ")
		res.Segments += len(parts)
		if transcript.Len() > 0 {
			transcript.WriteString(" ")
		}
		transcript.WriteString(text)

		ires := o.injector.InjectText(ctx, text, conf.Injection)
		res.Deliveries++
		if !ires.Success {
			res.Failures++
			log.Warn("live delivery failed", logger.Fields(
				"strategy", string(ires.Strategy),
				"reason", ires.Reason,
			))
		}
		return nil
	})

	res.Transcript = transcript.String()
	res.Duration = time.Since(start)
	if err != nil {
		observability.SetSpanAttribute(ctx, observability.AttrStatus, "failure")
		observability.SetSpanError(ctx, err)
		return res, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrStatus, "success")
	log.Info("live dictation stream finished", logger.Fields(
		"segments", res.Segments,
		"deliveries", res.Deliveries,
		"failures", res.Failures,
		"duration_ms", res.Duration.Milliseconds(),
	))
	return res, nil
}

// segmentIter bridges a SegmentSource into the pipeline. Close is a
// no-op: stream lifetime belongs to whoever opened the source.
type segmentIter struct {
	source SegmentSource
}

func (it *segmentIter) Next(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	text, err := it.source.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		return "", false, err
	}
	return text, true, nil
}

func (it *segmentIter) Close() error { return nil }
