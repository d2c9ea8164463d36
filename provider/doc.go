// Package provider implements a generic registry for swappable backends
// with runtime selection.
//
// Transcription backends are the primary consumer: each speech service
// registers a Factory, the Manager instantiates them from settings, and a
// Selector picks which one handles a request. The gateway walks the
// configured priority order and fails over when a backend is unavailable
// or failing.
//
// Availability has two layers. Every provider answers IsAvailable, a cheap
// self-check (credentials present, endpoint configured). Selectors can
// additionally consult an AvailabilityGate so that a backend whose circuit
// is open drops out of the rotation until its cooldown ends.
//
// Opt-in lifecycle:
//   - Initializable: providers that need setup before first use
//   - Closeable: providers that hold connections to release on shutdown
//
// # Usage
//
//	reg := provider.NewRegistry[MyProvider]()
//	reg.RegisterFactory("openai", openaiFactory)
//	mgr := provider.NewManager(reg, &provider.PrioritySelector[MyProvider]{
//	    Priority: []string{"openai", "azure"},
//	})
//	mgr.InitializeWithContext(ctx, "openai", cfg)
//	p, _ := mgr.Get(ctx)
package provider
