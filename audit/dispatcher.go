package audit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/skillsenselab/voicekit/component"
	"github.com/skillsenselab/voicekit/logger"
)

// Sink receives audit events. Deliver must not block for long; slow or
// failing sinks only affect their own output, never the caller that
// published the event.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string
	// Deliver handles a single event.
	Deliver(e Event)
}

// DispatcherConfig configures the audit dispatcher.
type DispatcherConfig struct {
	// BufferSize is the event queue length. When the queue is full the
	// oldest queued event is dropped to make room. Defaults to 256.
	BufferSize int
}

// Dispatcher fans audit events out to registered sinks from a single
// background goroutine. Publishing never blocks and never fails.
type Dispatcher struct {
	sinks  []Sink
	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
	log    *logger.Logger

	mu      sync.Mutex
	started bool
	stopped bool

	dropped atomic.Uint64
}

// NewDispatcher creates a dispatcher delivering to the given sinks. The
// dispatcher is inert until Start is called; events published before Start
// are queued.
func NewDispatcher(cfg DispatcherConfig, sinks ...Sink) *Dispatcher {
	size := cfg.BufferSize
	if size <= 0 {
		size = 256
	}
	return &Dispatcher{
		sinks:  sinks,
		events: make(chan Event, size),
		done:   make(chan struct{}),
		log:    logger.Get("audit"),
	}
}

// Publish queues an event for delivery. If the queue is full the oldest
// queued event is discarded so recent events survive a stalled sink.
// Publishing after Stop is a no-op.
func (d *Dispatcher) Publish(e Event) {
	select {
	case <-d.done:
		return
	default:
	}

	select {
	case d.events <- e:
		return
	default:
	}

	// Queue full: evict the oldest entry and try once more. The retry can
	// still lose to a concurrent publisher, in which case this event is
	// the one dropped.
	select {
	case <-d.events:
		d.dropped.Add(1)
	default:
	}
	select {
	case d.events <- e:
	default:
		d.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded due to queue overflow.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Name implements component.Component.
func (d *Dispatcher) Name() string {
	return "audit"
}

// Start launches the delivery goroutine.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return nil
	}
	d.started = true

	d.wg.Add(1)
	go d.run()
	d.log.Info("audit dispatcher started", logger.Fields(
		"sinks", len(d.sinks),
		"buffer_size", cap(d.events),
	))
	return nil
}

// Stop closes the intake, drains events already queued and waits for the
// delivery goroutine to exit. Safe to call more than once.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	started := d.started
	close(d.done)
	d.mu.Unlock()

	if started {
		d.wg.Wait()
	} else {
		// Never started: deliver what was queued so events published
		// during a failed bootstrap still reach the sinks.
		d.drain()
	}
	if n := d.dropped.Load(); n > 0 {
		d.log.Warn("audit events dropped", logger.Fields("dropped", n))
	}
	return nil
}

// Health implements component.Component.
func (d *Dispatcher) Health(ctx context.Context) component.Health {
	return component.Health{
		Name:    d.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d sinks, %d queued, %d dropped", len(d.sinks), len(d.events), d.dropped.Load()),
	}
}

// Describe implements component.Describable.
func (d *Dispatcher) Describe() component.Description {
	return component.Description{
		Name:    "Audit Dispatcher",
		Type:    "audit",
		Details: fmt.Sprintf("%d sinks, buffer %d", len(d.sinks), cap(d.events)),
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case e := <-d.events:
			d.deliver(e)
		case <-d.done:
			d.drain()
			return
		}
	}
}

// drain delivers queued events until the queue is empty.
func (d *Dispatcher) drain() {
	for {
		select {
		case e := <-d.events:
			d.deliver(e)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(e Event) {
	for _, s := range d.sinks {
		d.deliverTo(s, e)
	}
}

// deliverTo invokes a single sink, recovering from panics so one broken
// sink cannot stop delivery to the others.
func (d *Dispatcher) deliverTo(s Sink, e Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("audit sink panicked", logger.Fields(
				"sink", s.Name(),
				"event_type", string(e.Type),
				"panic", fmt.Sprint(r),
			))
		}
	}()
	s.Deliver(e)
}
