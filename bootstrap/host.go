package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/skillsenselab/voicekit/audit"
	"github.com/skillsenselab/voicekit/config"
	"github.com/skillsenselab/voicekit/credentials"
	"github.com/skillsenselab/voicekit/encryption"
	"github.com/skillsenselab/voicekit/injection"
	"github.com/skillsenselab/voicekit/logger"
	"github.com/skillsenselab/voicekit/observability"
	"github.com/skillsenselab/voicekit/pipeline"
	"github.com/skillsenselab/voicekit/provider"
	"github.com/skillsenselab/voicekit/resilience"
	"github.com/skillsenselab/voicekit/server"
	"github.com/skillsenselab/voicekit/sse"
	"github.com/skillsenselab/voicekit/transcription"
	"github.com/skillsenselab/voicekit/transcription/azure"
	"github.com/skillsenselab/voicekit/transcription/deepgram"
	"github.com/skillsenselab/voicekit/transcription/openai"
)

// KeyringKeyEnv names the environment variable whose value unlocks the
// encrypted credential keyring. When unset, provider keys resolve from
// environment variables only.
const KeyringKeyEnv = "VOICEKIT_KEYRING_KEY"

// Host is the assembled dictation shell: the resilience layer, the
// transcription gateway, the injection dispatcher and the session
// orchestrator, wired together with the audit feed, metrics and the
// localhost control server. Construction builds everything; the App
// lifecycle (Run, RunTask) starts and stops the registered components.
type Host struct {
	*App[*config.Settings]

	Credentials  credentials.Store
	Metrics      *observability.Metrics
	Limiter      *resilience.RateLimiter
	Engine       *resilience.RecoveryEngine
	Providers    *provider.Manager[transcription.Provider]
	Gateway      *transcription.Gateway
	Injector     *injection.Dispatcher
	Orchestrator *pipeline.Orchestrator
	Audit        *audit.Dispatcher

	// Hub and Server are nil when the control server is disabled.
	Hub    *sse.Hub
	Server *server.Server
}

// NewHost assembles the dictation shell from its settings. The wiring
// order is settings, logger, metrics, credential stores, audit feed,
// resilience, providers, gateway, injection, orchestrator, control
// server. Components register in start order; the App stops them in
// reverse.
func NewHost(cfg *config.Settings, opts ...Option) (*Host, error) {
	app, err := NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}

	h := &Host{App: app}
	if err := h.assemble(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Host) assemble() error {
	settings := h.Cfg
	base := settings.GetServiceConfig()

	// Seed named loggers so packages fetching logger.Get share the
	// initialized global configuration.
	logger.RegisterDefaults("transcription", "injection", "resilience",
		"pipeline", "audit", "provider", "server")

	meterComp, err := h.buildMetrics()
	if err != nil {
		return err
	}

	if err := h.buildCredentials(); err != nil {
		return err
	}

	// The event feed hub must exist before the audit dispatcher so the
	// feed sink can broadcast into it.
	var feed *sse.Component
	if settings.Server.Enabled {
		feed = sse.NewComponent("/v1/events")
		h.Hub = feed.Hub()
	}
	h.Audit = h.buildAudit()

	h.buildResilience()

	if err := h.buildProviders(); err != nil {
		return err
	}

	gateway, err := transcription.NewGateway(transcription.GatewayConfig{
		Settings:  settings.Transcription,
		Providers: h.Providers,
		Limiter:   h.Limiter,
		Engine:    h.Engine,
		Metrics:   h.Metrics,
		Events:    h.Audit,
		Log:       h.Logger.WithComponent("transcription"),
	})
	if err != nil {
		return fmt.Errorf("assemble gateway: %w", err)
	}
	h.Gateway = gateway

	h.Injector = injection.NewDispatcher(injection.DispatcherConfig{
		Settings: settings.Injection,
		Metrics:  h.Metrics,
		Events:   h.Audit,
		Log:      h.Logger.WithComponent("injection"),
	})

	h.Orchestrator = pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		Transcriber: h.Gateway,
		Injector:    h.Injector,
		MaxDuration: settings.Transcription.MaxDuration,
		Audio:       settings.Audio,
		Log:         h.Logger.WithComponent("pipeline"),
	})

	var serverComp *server.ServerComponent
	if settings.Server.Enabled {
		srv := server.New(settings.Server, h.Logger)
		srv.ApplyDefaults(server.Endpoints{
			Service:       base.Name,
			Checker:       h.Components.HealthAll,
			Limiter:       h.Limiter,
			Engine:        h.Engine,
			Providers:     h.Providers,
			Transcription: settings.Transcription,
			Hub:           h.Hub,
		})
		h.Server = srv
		serverComp = server.NewComponent(srv)
	}

	// Registration order is start order. The meter registers first so it
	// stops last and flushes metrics emitted during shutdown.
	if meterComp != nil {
		if err := h.RegisterComponent(meterComp); err != nil {
			return err
		}
	}
	if err := h.RegisterComponent(h.Audit); err != nil {
		return err
	}
	if feed != nil {
		if err := h.RegisterComponent(feed); err != nil {
			return err
		}
	}
	if serverComp != nil {
		if err := h.RegisterComponent(serverComp); err != nil {
			return err
		}
	}

	h.trackSummary()
	return nil
}

// buildMetrics creates the metric instruments and, when export is enabled,
// the OTLP meter provider. With export disabled the instruments record
// into the no-op global meter, so callers never branch on it.
func (h *Host) buildMetrics() (*observability.MeterComponent, error) {
	settings := h.Cfg
	base := settings.GetServiceConfig()

	var meterComp *observability.MeterComponent
	if settings.Metrics.Enabled {
		mp, err := observability.InitMeter(context.Background(), observability.MeterConfig{
			ServiceName:    base.Name,
			ServiceVersion: base.Version,
			Environment:    base.Environment,
			Endpoint:       settings.Metrics.Endpoint,
			Insecure:       true,
			Interval:       settings.Metrics.Interval,
		})
		if err != nil {
			return nil, fmt.Errorf("init meter: %w", err)
		}
		meterComp = observability.NewMeterComponent(mp, settings.Metrics.Endpoint)
	}

	metrics, err := observability.NewMetrics(observability.Meter(base.Name))
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}
	h.Metrics = metrics
	return meterComp, nil
}

// buildCredentials assembles the credential chain: environment variables
// first, then the encrypted keyring when its key is present.
func (h *Host) buildCredentials() error {
	stores := credentials.Chain{&credentials.EnvStore{}}

	if key := os.Getenv(KeyringKeyEnv); key != "" {
		enc, err := encryption.New(key)
		if err != nil {
			return fmt.Errorf("keyring encryptor: %w", err)
		}
		path, err := credentials.DefaultKeyringPath()
		if err != nil {
			return fmt.Errorf("keyring path: %w", err)
		}
		fileStore, err := credentials.NewFileStore(path, enc)
		if err != nil {
			return fmt.Errorf("open keyring: %w", err)
		}
		stores = append(stores, fileStore)
		h.Logger.Info("Credential keyring enabled", map[string]interface{}{
			"path": path,
		})
	}

	h.Credentials = stores
	return nil
}

// buildAudit creates the audit dispatcher with its sinks: structured log
// always, desktop notifications and the live event feed when configured.
func (h *Host) buildAudit() *audit.Dispatcher {
	settings := h.Cfg

	sinks := []audit.Sink{audit.NewLoggerSink()}
	if settings.Audit.Notifications {
		sinks = append(sinks, audit.NewNotifySink(0))
	}
	if h.Hub != nil {
		sinks = append(sinks, audit.NewSSESink(h.Hub))
	}

	return audit.NewDispatcher(audit.DispatcherConfig{
		BufferSize: settings.Audit.BufferSize,
	}, sinks...)
}

// buildResilience creates the rate limiter and recovery engine. Refusals
// and circuit transitions feed both the metric instruments and the audit
// dispatcher.
func (h *Host) buildResilience() {
	res := h.Cfg.Resilience
	metrics := h.Metrics
	events := h.Audit

	overrides := make(map[string]resilience.BucketConfig, len(res.BucketOverrides))
	for key, b := range res.BucketOverrides {
		overrides[key] = resilience.BucketConfig{
			Capacity:   b.Capacity,
			RefillRate: b.RefillRate,
		}
	}

	h.Limiter = resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Defaults: resilience.BucketConfig{
			Capacity:   res.Bucket.Capacity,
			RefillRate: res.Bucket.RefillRate,
		},
		Overrides: overrides,
		OnLimit: func(key string, cost float64, wait time.Duration) {
			metrics.RecordRateLimitRejected(context.Background(), key)
			events.Publish(audit.RateLimitDenied(key, wait))
		},
	})

	h.Engine = resilience.NewRecoveryEngine(resilience.RecoveryConfig{
		Retry: resilience.RetryConfig{
			MaxAttempts:    res.RetryMaxAttempts,
			InitialBackoff: res.RetryInitialBackoff,
			MaxBackoff:     res.RetryMaxBackoff,
		},
		Breaker: resilience.CircuitBreakerConfig{
			MaxFailures: res.BreakerMaxFailures,
			Timeout:     res.BreakerCooldown,
			OnStateChange: func(name string, from, to resilience.State) {
				metrics.RecordCircuitTransition(context.Background(), name, from.String(), to.String())
				switch to {
				case resilience.StateOpen:
					events.Publish(audit.CircuitOpened(name, res.BreakerMaxFailures, res.BreakerCooldown))
				case resilience.StateHalfOpen:
					events.Publish(audit.CircuitProbe(name))
				case resilience.StateClosed:
					events.Publish(audit.CircuitClosed(name))
				}
			},
		},
	})
}

// buildProviders registers and initializes every configured transcription
// backend. Uploads run over HTTP/2; provider keys resolve through the
// credential chain at call time, so key rotation needs no restart.
// Selection outside the gateway's explicit primary/secondary legs runs in
// priority order, skipping any backend whose circuit is open.
func (h *Host) buildProviders() error {
	settings := h.Cfg
	manager := transcription.NewManager(&provider.PrioritySelector[transcription.Provider]{
		Priority: settings.Transcription.ProviderOrder(),
		Gate: func(ctx context.Context, name string) bool {
			return h.Engine.Breakers().Get(transcription.ResourceKey(name)).State() != resilience.StateOpen
		},
	})

	for name, ps := range settings.Transcription.Providers {
		factory, err := providerFactory(name)
		if err != nil {
			return err
		}
		manager.Register(name, factory)

		if err := manager.Initialize(name, map[string]any{
			"endpoint":     ps.Endpoint,
			"model":        ps.Model,
			"timeout":      ps.Timeout,
			"enable_http2": true,
			"credentials":  h.Credentials,
		}); err != nil {
			return fmt.Errorf("assemble provider %q: %w", name, err)
		}
	}

	h.Providers = manager
	return nil
}

// providerFactory maps a configured provider name to its factory.
func providerFactory(name string) (provider.Factory[transcription.Provider], error) {
	switch name {
	case openai.ProviderName:
		return openai.Factory(), nil
	case deepgram.ProviderName:
		return deepgram.Factory(), nil
	case azure.ProviderName:
		return azure.Factory(), nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", name)
	}
}

// trackSummary records the session layer and provider clients for the
// startup display.
func (h *Host) trackSummary() {
	settings := h.Cfg

	for _, name := range settings.Transcription.ProviderOrder() {
		target := settings.Transcription.Providers[name].Endpoint
		if target == "" {
			target = "default endpoint"
		}
		h.Summary.TrackClient(name, target, "ready", "http")
	}

	gatewayDeps := append(settings.Transcription.ProviderOrder(), "rate-limiter", "recovery-engine")
	h.Summary.TrackBusinessComponent("transcription-gateway", "service", "ready", gatewayDeps)
	h.Summary.TrackBusinessComponent("injection-dispatcher", "service", "ready",
		[]string{"keystroke", "clipboard", "uiautomation"})
	h.Summary.TrackBusinessComponent("orchestrator", "pipeline", "ready",
		[]string{"transcription-gateway", "injection-dispatcher"})
}
