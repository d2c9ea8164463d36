package provider

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/skillsenselab/voicekit/util"
)

// Selector picks a provider from the available options.
type Selector[T Provider] interface {
	Select(ctx context.Context, providers map[string]T) (T, error)
}

// AvailabilityGate vetoes a provider by name. Selectors consult it in
// addition to the provider's own IsAvailable, typically to skip backends
// whose circuit breaker is open.
type AvailabilityGate func(ctx context.Context, name string) bool

// PrioritySelector tries providers in the given priority order
// and returns the first one that is available.
type PrioritySelector[T Provider] struct {
	// Priority is the ordered list of provider names to try.
	Priority []string
	// Gate, when set, can veto providers beyond their own IsAvailable.
	Gate AvailabilityGate
}

// Select returns the first available provider in priority order.
func (s *PrioritySelector[T]) Select(ctx context.Context, providers map[string]T) (T, error) {
	for _, name := range s.Priority {
		p, ok := providers[name]
		if !ok || !p.IsAvailable(ctx) {
			continue
		}
		if s.Gate != nil && !s.Gate(ctx, name) {
			continue
		}
		return p, nil
	}
	var zero T
	return zero, fmt.Errorf("no available provider found in priority list")
}

// RoundRobinSelector distributes requests across providers.
type RoundRobinSelector[T Provider] struct {
	counter atomic.Uint64
	// Gate, when set, can veto providers beyond their own IsAvailable.
	Gate AvailabilityGate
}

// Select picks the next provider using round-robin distribution.
func (s *RoundRobinSelector[T]) Select(ctx context.Context, providers map[string]T) (T, error) {
	names := util.SortedKeys(providers)
	if len(names) == 0 {
		var zero T
		return zero, fmt.Errorf("no providers available")
	}

	n := len(names)
	start := int(s.counter.Add(1) - 1)
	for i := range n {
		idx := (start + i) % n
		name := names[idx]
		p := providers[name]
		if !p.IsAvailable(ctx) {
			continue
		}
		if s.Gate != nil && !s.Gate(ctx, name) {
			continue
		}
		return p, nil
	}
	var zero T
	return zero, fmt.Errorf("no available provider found")
}

// HealthCheckSelector picks the first available provider by calling IsAvailable.
type HealthCheckSelector[T Provider] struct{}

// Select returns the first provider that reports as available.
func (s *HealthCheckSelector[T]) Select(ctx context.Context, providers map[string]T) (T, error) {
	for _, name := range util.SortedKeys(providers) {
		if p := providers[name]; p.IsAvailable(ctx) {
			return p, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("no available provider found")
}
