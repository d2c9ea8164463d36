package resilience

import (
	"sort"
	"sync"
	"time"
)

// BreakerGroup manages one circuit breaker per resource key. Breakers are
// created on first use from a shared template, so failures against one
// resource never affect the circuit of another.
type BreakerGroup struct {
	template CircuitBreakerConfig

	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

// NewBreakerGroup creates a breaker group. Each breaker inherits the template
// configuration with its Name set to the resource key.
func NewBreakerGroup(template CircuitBreakerConfig) *BreakerGroup {
	if template.MaxFailures <= 0 {
		template.MaxFailures = 5
	}
	if template.Timeout <= 0 {
		template.Timeout = 30 * time.Second
	}
	if template.HalfOpenMaxCalls <= 0 {
		template.HalfOpenMaxCalls = 1
	}

	return &BreakerGroup{
		template: template,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Get returns the breaker for key, creating it on first use.
func (g *BreakerGroup) Get(key string) *CircuitBreaker {
	g.mu.RLock()
	cb, ok := g.breakers[key]
	g.mu.RUnlock()
	if ok {
		return cb
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if cb, ok := g.breakers[key]; ok {
		return cb
	}

	cfg := g.template
	cfg.Name = key
	cb = NewCircuitBreaker(cfg)
	g.breakers[key] = cb
	return cb
}

// BreakerStat is a point-in-time view of one breaker for introspection.
type BreakerStat struct {
	Key        string        `json:"key"`
	State      string        `json:"state"`
	Failures   int           `json:"failures"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Snapshot returns the current state of all breakers, sorted by key.
func (g *BreakerGroup) Snapshot() []BreakerStat {
	g.mu.RLock()
	keys := make([]string, 0, len(g.breakers))
	for key := range g.breakers {
		keys = append(keys, key)
	}
	g.mu.RUnlock()

	sort.Strings(keys)

	stats := make([]BreakerStat, 0, len(keys))
	for _, key := range keys {
		cb := g.Get(key)
		stats = append(stats, BreakerStat{
			Key:        key,
			State:      cb.State().String(),
			Failures:   cb.Failures(),
			RetryAfter: cb.RemainingCooldown(),
		})
	}
	return stats
}

// ResetAll forces every breaker in the group back to closed.
func (g *BreakerGroup) ResetAll() {
	g.mu.RLock()
	all := make([]*CircuitBreaker, 0, len(g.breakers))
	for _, cb := range g.breakers {
		all = append(all, cb)
	}
	g.mu.RUnlock()

	for _, cb := range all {
		cb.Reset()
	}
}
