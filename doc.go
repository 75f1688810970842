// Package dashfetch provides a resilient JSON fetch client for dashboard
// data with graceful degradation:
//
//   - Retries with capped exponential backoff + optional jitter
//   - Circuit breaker (closed / open / half-open, single trial on recovery)
//   - In-memory payload caching keyed by URL + canonical query params
//   - Synthetic fallback payloads when live data cannot be obtained
//   - Optional token bucket rate limiting
//   - Middleware chain for cross-cutting concerns (auth, tracing, etc.)
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Fetch never returns an error for transport or server failures; it
//     resolves with either live data or a fallback payload carrying
//     "fallback": true, so rendering code needs no network error branches
//   - Small surface area - functional options configure everything
//   - Safe concurrent use of a single *Client instance
//   - Deterministic timing under test: injectable clock, jitter can be
//     disabled
//
// The circuit breaker is shared across all URLs issued through one Client
// instance. Callers needing per-endpoint isolation should construct one
// Client per endpoint group.
//
// Typical usage:
//
//	client := dashfetch.New(
//	    dashfetch.WithMaxRetries(3),
//	    dashfetch.WithCacheTTL(5*time.Minute),
//	    dashfetch.WithCSRFTokenSource(tokens.Current),
//	)
//	payload, err := client.Fetch(ctx, "https://lms.example.com/api/activity-data", &dashfetch.RequestOptions{
//	    Params: map[string]string{"period": "week"},
//	})
//	if err != nil {
//	    // caller bug (bad URL / options), not a network condition
//	}
//	if payload.IsFallback() {
//	    // degraded data: render placeholders
//	}
package dashfetch
