package injection

import (
	"context"
	"time"
)

// Request carries one delivery attempt to an Injector.
type Request struct {
	Text   string
	Target Target
	// KeyDelay is the per-character pause for keystroke delivery. Other
	// strategies ignore it.
	KeyDelay time.Duration
}

// Injector delivers text through one concrete mechanism. Implementations
// hold no state across calls; OS handles are resolved per request.
type Injector interface {
	// Strategy tags the variant this injector implements.
	Strategy() Strategy
	// Inject delivers the text, returning nil on success.
	Inject(ctx context.Context, req Request) error
}

// Prober identifies the foreground window. Implementations fill Window,
// ProcessName and WindowTitle; classification happens in the dispatcher.
type Prober interface {
	Foreground() (Target, error)
}

// wait sleeps for d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
