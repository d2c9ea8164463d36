package provider

import "context"

// Initializable is optionally implemented by providers that need setup
// before handling requests, such as verifying an API key or warming an
// HTTP connection pool. The Manager calls Init automatically when
// initializing providers.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable is optionally implemented by providers that hold resources
// requiring explicit cleanup, such as an open websocket session or idle
// connections. The Manager calls Close automatically during shutdown.
type Closeable interface {
	Close(ctx context.Context) error
}
