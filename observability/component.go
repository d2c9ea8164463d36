package observability

import (
	"context"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/skillsenselab/voicekit/component"
)

var (
	_ component.Component   = (*MeterComponent)(nil)
	_ component.Describable = (*MeterComponent)(nil)
)

// MeterComponent manages the meter provider's lifetime under the component
// registry, so buffered metrics flush during shutdown.
type MeterComponent struct {
	provider *sdkmetric.MeterProvider
	endpoint string
}

// NewMeterComponent wraps an initialized meter provider. The endpoint is
// reported in the startup summary.
func NewMeterComponent(provider *sdkmetric.MeterProvider, endpoint string) *MeterComponent {
	return &MeterComponent{provider: provider, endpoint: endpoint}
}

// Name returns the component name used for registration.
func (m *MeterComponent) Name() string { return "meter" }

// Start is a no-op: the provider exports from the moment InitMeter runs.
func (m *MeterComponent) Start(_ context.Context) error { return nil }

// Stop flushes and shuts down the meter provider.
func (m *MeterComponent) Stop(ctx context.Context) error {
	if err := m.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}
	return nil
}

// Health reports the exporter target.
func (m *MeterComponent) Health(_ context.Context) component.Health {
	return component.Health{
		Name:    m.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("exporting to %s", m.endpoint),
	}
}

// Describe returns summary info for the startup display.
func (m *MeterComponent) Describe() component.Description {
	return component.Description{
		Name:    "Metrics Exporter",
		Type:    "otlp",
		Details: m.endpoint,
	}
}
