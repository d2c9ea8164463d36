// Package errors provides unified error handling for the dictation pipeline.
// It implements structured error types with machine-readable codes, HTTP
// status mapping, and retryable detection, covering the failure taxonomy the
// pipeline distinguishes: transient, rate-limited, permanent, circuit-open,
// and injection failures.
package errors
