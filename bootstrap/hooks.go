package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback. Host shells register hooks for setup and
// teardown that bootstrap has no business knowing about, such as claiming
// a global hotkey or flushing an in-flight dictation session.
type Hook func(ctx context.Context) error

// OnStart registers hooks that run once the components are started,
// before configuration callbacks and the ready check.
func (a *App[C]) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnReady registers hooks that run after the ready check, when the host
// is about to begin its work.
func (a *App[C]) OnReady(hooks ...Hook) {
	a.onReady = append(a.onReady, hooks...)
}

// OnStop registers hooks that run during graceful shutdown, before the
// components are stopped.
func (a *App[C]) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// runHooks executes hooks in registration order, stopping at the first
// failure.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d: %w", i, err)
		}
	}
	return nil
}
