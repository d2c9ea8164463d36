package provider

import "context"

// Provider is the base interface all pluggable backends implement. The
// transcription gateway manages its speech backends through it.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	// Selectors skip providers that report false.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance from its configuration map, the
// decoded per-provider block of the config file.
type Factory[T Provider] func(cfg map[string]any) (T, error)
