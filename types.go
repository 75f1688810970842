package dashfetch

import (
	"net/http"
	"time"
)

// Payload is a decoded JSON response body. Fallback payloads carry
// "fallback": true; all other fields are resource-specific.
type Payload map[string]any

// IsFallback reports whether the payload was synthesized by the client
// instead of returned by the server.
func (p Payload) IsFallback() bool {
	v, _ := p["fallback"].(bool)
	return v
}

// RequestOptions carries optional per-request parameters. Header entries
// are passed through to the transport unmodified.
type RequestOptions struct {
	Method string
	Header http.Header
	Body   []byte

	// Params are merged into the query string and form part of the
	// cache key.
	Params map[string]string
}

// TokenSource supplies the anti-forgery token attached to every outgoing
// request as the X-CSRFToken header.
type TokenSource func() string

// Middleware wraps a request dispatch for cross-cutting concerns.
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// RoundTripper represents the HTTP transport interface.
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc is a helper type for middleware.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive terminal failures
	// that trips the breaker open.
	FailureThreshold int
	// OpenDuration is how long the breaker short-circuits requests
	// before admitting a recovery trial.
	OpenDuration time.Duration
	// Clock overrides the time source, used in tests.
	Clock func() time.Time
}

// CircuitState represents the state of the circuit breaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CacheEntry is a cached payload and the time it was stored. Freshness is
// decided by the client against its configured TTL on every lookup.
type CacheEntry struct {
	Payload  Payload
	StoredAt time.Time
}

// Cache is the payload cache consulted before every dispatch.
type Cache interface {
	Get(key string) (*CacheEntry, bool)
	Set(key string, entry *CacheEntry)
	Delete(key string)
	Clear()
}

// FailureKind is the closed set of request failure classifications.
type FailureKind int

const (
	// FailureTimeout is a transport call that exceeded its deadline.
	FailureTimeout FailureKind = iota
	// FailureNetwork is a transport-level error (DNS, refused, reset).
	FailureNetwork
	// FailureHTTP is a well-formed non-2xx HTTP response.
	FailureHTTP
	// FailureAuthRequired is a 401/403 or an HTML login page served in
	// place of JSON. Never retried.
	FailureAuthRequired
	// FailureMalformed is a body that is neither JSON nor HTML.
	FailureMalformed
	// failureRateLimited is a local token bucket denial.
	failureRateLimited
	// failureCanceled is caller-initiated context cancellation.
	failureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureNetwork:
		return "network"
	case FailureHTTP:
		return "http"
	case FailureAuthRequired:
		return "auth_required"
	case FailureMalformed:
		return "malformed"
	case failureRateLimited:
		return "rate_limited"
	case failureCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Option represents a configuration option.
type Option func(*Client)
