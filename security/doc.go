// Package security provides shared TLS configuration for outbound transports.
//
// Dictation traffic often crosses corporate proxies that re-sign TLS with a
// private CA; TLSConfig lets the provider HTTP clients trust such a CA (or
// present a client certificate) without code changes.
//
// # TLS Configuration
//
//	cfg := security.TLSConfig{
//	    CAFile:   "/path/to/ca.pem",
//	    CertFile: "/path/to/cert.pem",
//	    KeyFile:  "/path/to/key.pem",
//	}
//
//	tlsConfig, err := cfg.Build()
package security
