package dashfetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/rizalarfandy/dashfetch/internal/backoff"
)

// CSRFHeader is the anti-forgery header attached to every outgoing request.
const CSRFHeader = "X-CSRFToken"

const maxBodySize = 10 * 1024 * 1024

// Client is a resilient JSON fetch client that layers caching, retries,
// circuit breaking, rate limiting, middleware and metrics around the
// standard net/http Client, degrading to synthesized fallback payloads
// instead of surfacing transport failures. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
	jitter      bool
	jitterRange time.Duration
	timeout     time.Duration
	backoff     *backoff.Calculator
	breakerCfg  BreakerConfig
	breaker     *CircuitBreaker
	middleware  []Middleware
	rateLimiter *RateLimiter
	cache       Cache
	cacheTTL    time.Duration
	keyFunc     func(rawURL string, params map[string]string) string
	tokenSource TokenSource
	metrics     *MetricsCollector
	debug       *DebugConfig
	logger      Logger
	now         func() time.Time

	validationError error
}

// New constructs a Client using the provided functional options. A best
// effort validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries:  3,
		baseDelay:   1 * time.Second,
		maxDelay:    8 * time.Second,
		jitter:      true,
		jitterRange: 1 * time.Second,
		timeout:     30 * time.Second,
		middleware:  []Middleware{},
		cacheTTL:    5 * time.Minute,
		keyFunc:     RequestKey,
		debug:       DefaultDebugConfig(),
		now:         time.Now,
	}

	for _, option := range options {
		option(client)
	}

	if client.cache == nil {
		client.cache = NewInMemoryCache()
	}
	if client.breaker == nil {
		cfg := client.breakerCfg
		if cfg.Clock == nil {
			cfg.Clock = client.now
		}
		client.breaker = NewCircuitBreaker(cfg)
	}
	jitterRange := time.Duration(0)
	if client.jitter {
		jitterRange = client.jitterRange
	}
	client.backoff = backoff.NewCalculator(backoff.Exponential{JitterRange: jitterRange})

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Fetch resolves a JSON payload for the URL, transparently applying
// caching, retries and circuit breaking. It returns an error only for
// caller bugs (empty or relative URL, invalid configuration); transport
// and server failures resolve to a fallback payload with "fallback": true.
func (c *Client) Fetch(ctx context.Context, rawURL string, opts *RequestOptions) (Payload, error) {
	if c.validationError != nil {
		return nil, c.validationError
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := c.now()

	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("%w: empty url", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: url must be absolute, got %q", ErrInvalidURL, rawURL)
	}
	if opts == nil {
		opts = &RequestOptions{}
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	endpoint := endpointFor(u)

	var requestID string
	if c.debugEnabled() && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}
	if c.debugEnabled() && c.debug.LogRequests && c.logger != nil {
		c.logger.Debug("Starting request", "requestID", requestID, "method", method, "url", rawURL, "endpoint", endpoint)
	}

	key := c.keyFunc(rawURL, opts.Params)

	if entry, found := c.cache.Get(key); found && c.now().Sub(entry.StoredAt) < c.cacheTTL {
		if c.debugEnabled() && c.debug.LogCache && c.logger != nil {
			c.logger.Debug("Cache hit", "requestID", requestID, "cacheKey", key)
		}
		if c.metrics != nil {
			c.metrics.RecordCacheHit(method, endpoint)
		}
		return entry.Payload, nil
	}
	// Missing or stale: stale entries stay in place until overwritten.
	if c.metrics != nil {
		c.metrics.RecordCacheMiss(method, endpoint)
	}
	if c.debugEnabled() && c.debug.LogCache && c.logger != nil {
		c.logger.Debug("Cache miss", "requestID", requestID, "cacheKey", key)
	}

	if c.rateLimiter != nil {
		if !c.rateLimiter.Allow() {
			if c.metrics != nil {
				c.metrics.RecordError(failureRateLimited.String(), method, endpoint)
			}
			return c.serveFallback(u, opts.Params, endpoint, failureRateLimited.String(), requestID), nil
		}
		if c.metrics != nil {
			c.metrics.RecordRateLimiterTokens("default", c.rateLimiter.Tokens())
		}
	}

	if !c.breaker.Allow() {
		if c.debugEnabled() && c.debug.LogCircuit && c.logger != nil {
			c.logger.Warn("Circuit breaker rejected request", "requestID", requestID, "endpoint", endpoint, "state", c.breaker.State().String())
		}
		if c.metrics != nil {
			c.metrics.RecordError("circuit_open", method, endpoint)
		}
		return c.serveFallback(u, opts.Params, endpoint, "circuit_open", requestID), nil
	}
	// Winning the half-open admission makes this call the recovery trial;
	// the slot must be released on every outcome or the breaker wedges.
	trial := c.breaker.State() == StateHalfOpen

	payload, status, ferr := c.fetchWithRetry(ctx, u, method, opts, requestID, endpoint)
	duration := c.now().Sub(start)

	if ferr == nil {
		c.breaker.RecordSuccess()
		if c.metrics != nil {
			c.metrics.RecordCircuitBreakerState("default", c.breaker.State())
			c.metrics.RecordRequest(method, endpoint, status, duration)
		}
		c.cache.Set(key, &CacheEntry{Payload: payload, StoredAt: c.now()})
		if c.metrics != nil {
			if mem, ok := c.cache.(*InMemoryCache); ok {
				c.metrics.RecordCacheSize("default", mem.Len())
			}
		}
		if c.debugEnabled() && c.debug.LogCache && c.logger != nil {
			c.logger.Debug("Response cached", "requestID", requestID, "cacheKey", key, "ttl", c.cacheTTL)
		}
		return payload, nil
	}

	if ferr.Kind == failureCanceled {
		// Caller went away; degrade without touching breaker counters. An
		// abandoned trial reverts to open so the next request can retry it.
		if trial {
			c.breaker.ReleaseTrial()
		}
		return c.serveFallback(u, opts.Params, endpoint, ferr.Kind.String(), requestID), nil
	}

	c.breaker.RecordFailure()
	if c.metrics != nil {
		c.metrics.RecordCircuitBreakerState("default", c.breaker.State())
		c.metrics.RecordError(ferr.Kind.String(), method, endpoint)
		c.metrics.RecordRequest(method, endpoint, status, duration)
	}
	if c.debugEnabled() && c.debug.LogCircuit && c.logger != nil {
		c.logger.Warn("Terminal failure recorded", "requestID", requestID, "error", ferr.Error(), "failures", c.breaker.Failures(), "state", c.breaker.State().String())
	}
	return c.serveFallback(u, opts.Params, endpoint, ferr.Kind.String(), requestID), nil
}

// FetchActivity fetches a time-series activity resource for the given
// period (week, month or year).
func (c *Client) FetchActivity(ctx context.Context, rawURL, period string) (Payload, error) {
	return c.Fetch(ctx, rawURL, &RequestOptions{
		Params: map[string]string{"period": period},
	})
}

func (c *Client) fetchWithRetry(ctx context.Context, u *url.URL, method string, opts *RequestOptions, requestID, endpoint string) (Payload, int, *RequestError) {
	var lastErr *RequestError
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if c.debugEnabled() && c.debug.LogRetries && c.logger != nil {
				c.logger.Info("Retry attempt", "requestID", requestID, "attempt", attempt, "maxRetries", c.maxRetries, "endpoint", endpoint)
			}
			if c.metrics != nil {
				c.metrics.RecordRetry(method, endpoint)
			}
		}

		payload, status, ferr := c.attempt(ctx, u, method, opts, attempt)
		if ferr == nil {
			return payload, status, nil
		}
		lastErr = ferr

		if ferr.Kind == failureCanceled || !ferr.Retryable() || attempt >= c.maxRetries {
			return nil, status, lastErr
		}

		delay := c.backoff.Calculate(attempt, c.baseDelay, c.maxDelay)
		if c.debugEnabled() && c.debug.LogRetries && c.logger != nil {
			c.logger.Info("Scheduling retry", "requestID", requestID, "attempt", attempt+1, "backoff", delay, "endpoint", endpoint)
		}
		if err := sleepContext(ctx, delay); err != nil {
			return nil, 0, &RequestError{Kind: failureCanceled, URL: u.String(), Attempt: attempt, Cause: err}
		}
	}
}

func (c *Client) attempt(ctx context.Context, u *url.URL, method string, opts *RequestOptions, attempt int) (Payload, int, *RequestError) {
	req, err := c.buildRequest(ctx, u, method, opts)
	if err != nil {
		return nil, 0, &RequestError{Kind: FailureNetwork, URL: u.String(), Attempt: attempt, Cause: err}
	}

	resp, err := c.executeMiddleware(req)
	if err != nil {
		return nil, 0, classifyTransportError(u.String(), attempt, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, classifyTransportError(u.String(), attempt, err)
	}

	if ferr := classifyResponse(u.String(), attempt, resp.StatusCode, resp.Header.Get("Content-Type"), body); ferr != nil {
		return nil, resp.StatusCode, ferr
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, resp.StatusCode, &RequestError{Kind: FailureMalformed, Status: resp.StatusCode, URL: u.String(), Attempt: attempt, Cause: err}
	}
	return payload, resp.StatusCode, nil
}

func (c *Client) buildRequest(ctx context.Context, u *url.URL, method string, opts *RequestOptions) (*http.Request, error) {
	target := *u
	if len(opts.Params) > 0 {
		q := target.Query()
		for k, v := range opts.Params {
			q.Set(k, v)
		}
		target.RawQuery = q.Encode()
	}

	var body io.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}

	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	// The header slot is always present, even with no token source.
	token := ""
	if c.tokenSource != nil {
		token = c.tokenSource()
	}
	req.Header.Set(CSRFHeader, token)

	return req, nil
}

func (c *Client) executeMiddleware(req *http.Request) (*http.Response, error) {
	if len(c.middleware) == 0 {
		return c.httpClient.Do(req)
	}

	current := RoundTripperFunc(c.httpClient.Do)

	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.RoundTrip(req)
}

func (c *Client) serveFallback(u *url.URL, params map[string]string, endpoint, reason, requestID string) Payload {
	if c.metrics != nil {
		c.metrics.RecordFallback(endpoint, reason)
	}
	if c.debugEnabled() && c.debug.LogFallback && c.logger != nil {
		c.logger.Warn("Serving fallback payload", "requestID", requestID, "endpoint", endpoint, "reason", reason)
	}
	return synthesizeFallback(u, params, c.now())
}

// Invalidate evicts the cache entry for a URL and parameter set.
func (c *Client) Invalidate(rawURL string, params map[string]string) {
	c.cache.Delete(c.keyFunc(rawURL, params))
}

// ClearCache drops every cached payload.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() CircuitState {
	return c.breaker.State()
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

func (c *Client) debugEnabled() bool {
	return c.debug != nil && c.debug.Enabled
}

// sleepContext waits for the delay or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func endpointFor(u *url.URL) string {
	host := u.Host
	path := u.Path

	var builder strings.Builder
	builder.WriteString(host)

	if path != "" && path != "/" {
		builder.WriteString(path)
	} else {
		builder.WriteByte('/')
	}

	return builder.String()
}
