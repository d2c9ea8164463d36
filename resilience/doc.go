// Package resilience provides patterns for building fault-tolerant systems.
//
// This package includes:
//   - CircuitBreaker: Prevents cascading failures by failing fast
//   - BreakerGroup: One circuit breaker per resource key
//   - Retry: Retries failed operations with exponential backoff
//   - Bulkhead: Limits concurrent access to isolate failures
//   - RateLimiter: Keyed token buckets with adjustable capacity
//   - RecoveryEngine: Per-key circuit breaking and retry combined
//     behind a single call
//
// The patterns compose. The recovery engine is the usual entry point:
//
//	engine := resilience.NewRecoveryEngine(resilience.RecoveryConfig{
//	    Retry:   resilience.DefaultRetryConfig(),
//	    Breaker: resilience.DefaultCircuitBreakerConfig(""),
//	})
//
//	text, err := resilience.Execute(ctx, engine, "Transcription:openai",
//	    func(ctx context.Context) (string, error) {
//	        return client.Transcribe(ctx, audio)
//	    })
//
// Admission control sits in front of it:
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	    Defaults: resilience.BucketConfig{Capacity: 5, RefillRate: 1},
//	})
//	if d := rl.TryAcquire("Transcription:openai", 1); !d.Granted {
//	    return nil, &resilience.RateLimitedError{Key: "Transcription:openai", Wait: d.Wait}
//	}
package resilience
