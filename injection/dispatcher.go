package injection

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/skillsenselab/voicekit/audit"
	"github.com/skillsenselab/voicekit/config"
	apperrors "github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/logger"
	"github.com/skillsenselab/voicekit/observability"
	"github.com/skillsenselab/voicekit/util"
)

// EventPublisher receives audit events. *audit.Dispatcher satisfies it;
// nil disables publishing.
type EventPublisher interface {
	Publish(e audit.Event)
}

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	Settings config.InjectionSettings
	// Prober identifies the foreground window. Defaults to the platform
	// prober.
	Prober Prober
	// Injectors override the default strategy set. Defaults to the
	// platform keystroke, clipboard and UI-automation injectors.
	Injectors []Injector
	Metrics   *observability.Metrics
	Events    EventPublisher
	Log       *logger.Logger
}

// Dispatcher selects a delivery strategy for the foreground application
// and carries transcribed text into it. It holds no mutable state across
// calls, so concurrent InjectText calls are independent.
type Dispatcher struct {
	settings  config.InjectionSettings
	prober    Prober
	injectors map[Strategy]Injector
	metrics   *observability.Metrics
	events    EventPublisher
	log       *logger.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	settings := cfg.Settings
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = 1
	}

	prober := cfg.Prober
	if prober == nil {
		prober = newPlatformProber()
	}
	injectors := cfg.Injectors
	if len(injectors) == 0 {
		injectors = defaultInjectors(settings)
	}
	byStrategy := make(map[Strategy]Injector, len(injectors))
	for _, in := range injectors {
		byStrategy[in.Strategy()] = in
	}

	log := cfg.Log
	if log == nil {
		log = logger.Get("injection")
	}

	return &Dispatcher{
		settings:  settings,
		prober:    prober,
		injectors: byStrategy,
		metrics:   cfg.Metrics,
		events:    cfg.Events,
		log:       log,
	}
}

// defaultInjectors builds the standard strategy set for this platform.
func defaultInjectors(settings config.InjectionSettings) []Injector {
	return []Injector{
		newKeystrokeInjector(),
		newClipboardInjector(settings.ClipboardPasteDelay, settings.ClipboardRestoreDelay),
		newUIAutomationInjector(),
	}
}

// InjectText delivers text into the foreground application. It never
// returns an error: every outcome, including cancellation, is described
// by the Result.
//
// The primary strategy gets the configured attempt budget with a short
// pause between attempts. When it cannot represent the text, or when the
// clipboard fallback is enabled and the budget is spent, the clipboard
// carries the text in one final attempt.
func (d *Dispatcher) InjectText(ctx context.Context, text string, opts *Options) Result {
	start := time.Now()

	clean := util.SanitizeTranscript(text)
	if clean == "" {
		// Nothing deliverable. Dictating silence is a success.
		return Result{Success: true, Duration: time.Since(start)}
	}
	if opts == nil {
		opts = &Options{}
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanInjection)
	defer span.End()

	target := d.foreground()
	strategy := d.selectStrategy(target, opts)
	observability.SetSpanAttribute(ctx, observability.AttrStrategy, string(strategy))

	req := Request{Text: clean, Target: target, KeyDelay: d.keyDelay(target, opts)}
	budget := d.settings.MaxAttempts
	if opts.MaxAttempts > 0 {
		budget = opts.MaxAttempts
	}

	res := Result{
		Strategy: strategy,
		Category: target.Category,
		Target:   target.ProcessName,
		Chars:    utf8.RuneCountInString(clean),
	}

	var lastErr error
	unsupported := false
	for attempt := 1; attempt <= budget; attempt++ {
		if attempt > 1 {
			if err := wait(ctx, d.settings.RetryDelay); err != nil {
				lastErr = err
				break
			}
		}
		res.Attempts = attempt

		err := d.deliver(ctx, strategy, req)
		if err == nil {
			return d.finish(ctx, res, start, nil)
		}
		lastErr = err
		if code(err) == apperrors.ErrCodeUnsupportedText {
			// Retrying cannot change what the strategy can represent.
			unsupported = true
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	rescue := unsupported || d.fallbackEnabled(target, opts)
	if rescue && strategy != StrategyClipboard && ctx.Err() == nil {
		res.Attempts++
		err := d.deliver(ctx, StrategyClipboard, req)
		if err == nil {
			res.Strategy = StrategyClipboard
			res.Fallback = true
			if d.metrics != nil {
				d.metrics.RecordInjectionFallback(ctx, string(strategy), string(StrategyClipboard))
			}
			return d.finish(ctx, res, start, nil)
		}
		lastErr = err
	}

	return d.finish(ctx, res, start, lastErr)
}

// foreground probes the foreground window and classifies it. Probe
// failures degrade to the unknown category rather than failing the call.
func (d *Dispatcher) foreground() Target {
	target, err := d.prober.Foreground()
	if err != nil {
		d.log.Debug("foreground probe failed", logger.MergeWithError(nil, err))
	}
	if target.Category == "" {
		target.Category = Classify(target.ProcessName)
	}
	return target
}

// selectStrategy resolves per-call override, then the configured override,
// then the category default.
func (d *Dispatcher) selectStrategy(t Target, opts *Options) Strategy {
	if opts.Strategy != "" && opts.Strategy != StrategyAuto {
		return opts.Strategy
	}
	if s := Strategy(d.settings.Strategy); s != "" && s != StrategyAuto {
		return s
	}
	return DefaultStrategy(t.Category)
}

func (d *Dispatcher) fallbackEnabled(t Target, opts *Options) bool {
	if opts.ClipboardFallback != nil {
		return *opts.ClipboardFallback
	}
	return fallbackDefault(t.Category)
}

func (d *Dispatcher) keyDelay(t Target, opts *Options) time.Duration {
	if opts.KeyDelay > 0 {
		return opts.KeyDelay
	}
	if delay, ok := d.settings.KeyDelays[string(t.Category)]; ok {
		return delay
	}
	return d.settings.KeyDelays[string(CategoryUnknown)]
}

func (d *Dispatcher) deliver(ctx context.Context, strategy Strategy, req Request) error {
	in, ok := d.injectors[strategy]
	if !ok {
		return apperrors.InjectionFailed(string(strategy), fmt.Sprintf("no %s injector is registered", strategy))
	}
	return in.Inject(ctx, req)
}

func (d *Dispatcher) finish(ctx context.Context, res Result, start time.Time, err error) Result {
	res.Duration = time.Since(start)

	if err == nil {
		res.Success = true
		observability.SetSpanAttribute(ctx, observability.AttrStatus, "success")
		if d.metrics != nil {
			d.metrics.RecordInjection(ctx, string(res.Strategy), "success", res.Attempts)
		}
		if d.events != nil {
			d.events.Publish(audit.InjectionCompleted(string(res.Strategy), res.Chars, res.Attempts))
		}
		d.log.Debug("text injected", logger.Fields(
			"strategy", string(res.Strategy),
			"category", string(res.Category),
			"chars", res.Chars,
			"attempts", res.Attempts,
			"fallback", res.Fallback,
		))
		return res
	}

	res.Reason = failureReason(err)
	observability.SetSpanAttribute(ctx, observability.AttrStatus, "failure")
	observability.SetSpanError(ctx, err)
	if d.metrics != nil {
		d.metrics.RecordInjection(ctx, string(res.Strategy), "failure", res.Attempts)
	}
	if d.events != nil {
		d.events.Publish(audit.InjectionFailed(string(res.Strategy), res.Reason, res.Attempts))
	}
	d.log.Warn("text injection failed", logger.Fields(
		"strategy", string(res.Strategy),
		"category", string(res.Category),
		"attempts", res.Attempts,
		"reason", res.Reason,
	))
	return res
}

// failureReason renders an error as the human-readable reason carried in
// the result.
func failureReason(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Message
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "delivery timed out before completing"
	case errors.Is(err, context.Canceled):
		return "delivery canceled by the caller"
	}
	return err.Error()
}

func code(err error) apperrors.ErrorCode {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}
