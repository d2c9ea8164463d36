package bootstrap

import (
	"time"

	"github.com/skillsenselab/voicekit/logger"
)

// Option adjusts App construction. Options stay non-generic so a single
// set works for every config type.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger supplies a logger instead of initializing the global one
// from the config's logging section. Tests use it to keep output quiet.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout bounds how long shutdown waits for hooks and
// components. The default is 15 seconds.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}
