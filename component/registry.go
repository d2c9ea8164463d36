package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/skillsenselab/voicekit/logger"
)

// stopTimeout bounds each component's Stop during shutdown so one hung
// component cannot stall the rest of the teardown.
const stopTimeout = 10 * time.Second

type registration struct {
	component Component
	started   bool
}

// Registry owns the host's long-lived components. StartAll runs in
// registration order and StopAll in reverse, so dependencies register
// before their dependents.
type Registry struct {
	entries []*registration
	lookup  map[string]*registration
	mu      sync.RWMutex
	log     *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		lookup: make(map[string]*registration),
		log:    logger.Get("component"),
	}
}

// Register adds a component. Registration order is start order.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.lookup[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}

	entry := &registration{component: c}
	r.entries = append(r.entries, entry)
	r.lookup[name] = entry

	r.log.Debug("component registered", logger.Fields("component", name))
	return nil
}

// StartAll starts every component in registration order and returns at
// the first failure, leaving earlier components running for the caller
// to tear down with StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("starting components", logger.Fields("count", len(r.entries)))

	for _, entry := range r.entries {
		name := entry.component.Name()
		if err := entry.component.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.MergeWithError(
				logger.Fields("component", name), err))
			return fmt.Errorf("start %s: %w", name, err)
		}
		entry.started = true
		r.log.Debug("component started", logger.Fields("component", name))
	}

	r.log.Info("all components started")
	return nil
}

// StopAll stops started components in reverse registration order, each
// under its own timeout. Every component gets its chance to stop; the
// collected failures come back joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("stopping components")

	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if !entry.started {
			continue
		}
		name := entry.component.Name()

		stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
		err := entry.component.Stop(stopCtx)
		cancel()
		entry.started = false

		if err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
			r.log.Error("component stop failed", logger.MergeWithError(
				logger.Fields("component", name), err))
			continue
		}
		r.log.Debug("component stopped", logger.Fields("component", name))
	}

	if len(errs) == 0 {
		r.log.Info("all components stopped")
	}
	return errors.Join(errs...)
}

// HealthAll reports the health of every component in registration
// order, for the healthz endpoint.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]Health, 0, len(r.entries))
	for _, entry := range r.entries {
		results = append(results, entry.component.Health(ctx))
	}
	return results
}

// Get returns a registered component by name, or nil if not found.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, exists := r.lookup[name]; exists {
		return entry.component
	}
	return nil
}

// All returns the registered components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Component, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, entry.component)
	}
	return result
}
