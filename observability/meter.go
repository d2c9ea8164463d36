package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/skillsenselab/voicekit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the metric instruments for the dictation pipeline.
type Metrics struct {
	transcriptionTotal    metric.Int64Counter
	transcriptionDuration metric.Float64Histogram
	transcriptionActive   metric.Int64UpDownCounter
	rateLimitRejected     metric.Int64Counter
	circuitTransitions    metric.Int64Counter
	injectionTotal        metric.Int64Counter
	injectionFallbacks    metric.Int64Counter
	errorTotal            metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	transcriptionTotal, err := meter.Int64Counter("transcription.total",
		metric.WithDescription("Total transcription attempts by provider and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.total counter: %w", err)
	}

	transcriptionDuration, err := meter.Float64Histogram("transcription.duration",
		metric.WithDescription("Duration of transcription calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.duration histogram: %w", err)
	}

	transcriptionActive, err := meter.Int64UpDownCounter("transcription.active",
		metric.WithDescription("Number of transcription calls in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.active gauge: %w", err)
	}

	rateLimitRejected, err := meter.Int64Counter("ratelimit.rejected.total",
		metric.WithDescription("Requests refused by local admission control, by resource key"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ratelimit.rejected.total counter: %w", err)
	}

	circuitTransitions, err := meter.Int64Counter("circuit.transitions.total",
		metric.WithDescription("Circuit breaker state transitions by resource key"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating circuit.transitions.total counter: %w", err)
	}

	injectionTotal, err := meter.Int64Counter("injection.total",
		metric.WithDescription("Text delivery attempts by strategy and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating injection.total counter: %w", err)
	}

	injectionFallbacks, err := meter.Int64Counter("injection.fallback.total",
		metric.WithDescription("Deliveries that fell back to another strategy"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating injection.fallback.total counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		transcriptionTotal:    transcriptionTotal,
		transcriptionDuration: transcriptionDuration,
		transcriptionActive:   transcriptionActive,
		rateLimitRejected:     rateLimitRejected,
		circuitTransitions:    circuitTransitions,
		injectionTotal:        injectionTotal,
		injectionFallbacks:    injectionFallbacks,
		errorTotal:            errorTotal,
	}, nil
}

// RecordTranscriptionStart increments the in-flight transcription count.
func (m *Metrics) RecordTranscriptionStart(ctx context.Context) {
	m.transcriptionActive.Add(ctx, 1)
}

// RecordTranscriptionEnd decrements in-flight transcriptions and records the
// completed call.
func (m *Metrics) RecordTranscriptionEnd(ctx context.Context, provider, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	)
	m.transcriptionActive.Add(ctx, -1)
	m.transcriptionTotal.Add(ctx, 1, attrs)
	m.transcriptionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// RecordRateLimitRejected records an admission refusal for a resource key.
func (m *Metrics) RecordRateLimitRejected(ctx context.Context, key string) {
	m.rateLimitRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", key),
	))
}

// RecordCircuitTransition records a breaker state change for a resource key.
func (m *Metrics) RecordCircuitTransition(ctx context.Context, key, from, to string) {
	m.circuitTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", key),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordInjection records a completed text delivery.
func (m *Metrics) RecordInjection(ctx context.Context, strategy, status string, attempts int) {
	m.injectionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.String("status", status),
		attribute.Int("attempts", attempts),
	))
}

// RecordInjectionFallback records a delivery that switched strategies.
func (m *Metrics) RecordInjectionFallback(ctx context.Context, from, to string) {
	m.injectionFallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
