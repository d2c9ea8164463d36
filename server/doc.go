// Package server is the localhost control server for the dictation shell.
//
// It exposes a small introspection surface over Gin, bound to 127.0.0.1 by
// default:
//
//   - GET  /healthz                  component health aggregation
//   - GET  /version                  build info and uptime
//   - GET  /v1/runtime               goroutine and memory figures
//   - GET  /v1/resilience            rate limiter buckets and circuit states
//   - POST /v1/resilience/capacity   scale a bucket's capacity at runtime
//   - GET  /v1/providers             configured backends and availability
//   - GET  /v1/events                live audit event feed (SSE)
//
// Middleware (server/middleware): panic recovery, request IDs, a body size
// limit, and structured request logging. The server implements the
// component lifecycle so the bootstrap starts and stops it with everything
// else.
package server
