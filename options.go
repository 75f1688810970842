package dashfetch

import (
	"fmt"
	"net/http"
	"time"
)

// WithMaxRetries sets the maximum number of retry attempts after the
// initial one.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBaseDelay sets the first retry delay; it doubles per attempt.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = d
	}
}

// WithMaxDelay caps the retry delay.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithJitter enables or disables the uniform jitter added to retry delays.
// Disabling it makes delays deterministic.
func WithJitter(enabled bool) Option {
	return func(c *Client) {
		c.jitter = enabled
	}
}

// WithJitterRange sets the upper bound of the uniform jitter.
func WithJitterRange(d time.Duration) Option {
	return func(c *Client) {
		c.jitterRange = d
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithCacheTTL sets how long a cached payload stays fresh.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// WithCache sets a custom cache implementation.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithCacheKeyFunc sets a custom cache key function.
func WithCacheKeyFunc(fn func(rawURL string, params map[string]string) string) Option {
	return func(c *Client) {
		c.keyFunc = fn
	}
}

// WithCircuitBreaker sets the circuit breaker configuration.
func WithCircuitBreaker(config BreakerConfig) Option {
	return func(c *Client) {
		c.breakerCfg = config
		c.breaker = nil
	}
}

// WithRateLimiter enables token bucket rate limiting.
func WithRateLimiter(maxTokens int, refillRate time.Duration) Option {
	return func(c *Client) {
		c.rateLimiter = NewRateLimiter(maxTokens, refillRate)
	}
}

// WithMiddleware adds middleware to the client.
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
		if c.timeout != 0 {
			c.httpClient.Timeout = c.timeout
		}
	}
}

// WithCSRFTokenSource sets where the X-CSRFToken header value comes from.
func WithCSRFTokenSource(source TokenSource) Option {
	return func(c *Client) {
		c.tokenSource = source
	}
}

// WithClock overrides the time source used for cache freshness, breaker
// recovery timing and fallback label shapes. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithMetrics enables Prometheus metrics collection.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with the default configuration.
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets a custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithLogger sets a custom logger for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a console logger.
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the client configuration and returns an
// error if invalid.
func (c *Client) ValidateConfiguration() error {
	var errs []string

	errs = append(errs, c.validateRetryConfig()...)
	errs = append(errs, c.validateCacheConfig()...)
	errs = append(errs, c.validateBreakerConfig()...)
	errs = append(errs, c.validateRateLimiterConfig()...)
	errs = append(errs, c.validateMiddlewareConfig()...)
	errs = append(errs, c.validateHTTPClientConfig()...)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, errs)
	}
	return nil
}

func (c *Client) validateRetryConfig() []string {
	var errs []string

	if c.maxRetries < 0 {
		errs = append(errs, "maxRetries must be non-negative")
	}
	if c.baseDelay <= 0 {
		errs = append(errs, "baseDelay must be positive")
	}
	if c.maxDelay < c.baseDelay {
		errs = append(errs, "maxDelay must be greater than or equal to baseDelay")
	}
	if c.jitter && c.jitterRange <= 0 {
		errs = append(errs, "jitterRange must be positive when jitter is enabled")
	}
	if c.timeout <= 0 {
		errs = append(errs, "timeout must be positive")
	}

	return errs
}

func (c *Client) validateCacheConfig() []string {
	var errs []string

	if c.cacheTTL <= 0 {
		errs = append(errs, "cacheTTL must be positive")
	}
	if c.keyFunc == nil {
		errs = append(errs, "cache key function cannot be nil")
	}

	return errs
}

func (c *Client) validateBreakerConfig() []string {
	var errs []string

	if c.breaker != nil {
		if c.breaker.config.FailureThreshold <= 0 {
			errs = append(errs, "breaker FailureThreshold must be positive")
		}
		if c.breaker.config.OpenDuration <= 0 {
			errs = append(errs, "breaker OpenDuration must be positive")
		}
	}

	return errs
}

func (c *Client) validateRateLimiterConfig() []string {
	var errs []string

	if c.rateLimiter != nil {
		if c.rateLimiter.maxTokens <= 0 {
			errs = append(errs, "rateLimiter maxTokens must be positive")
		}
		if c.rateLimiter.refillRate <= 0 {
			errs = append(errs, "rateLimiter refillRate must be positive")
		}
	}

	return errs
}

func (c *Client) validateMiddlewareConfig() []string {
	var errs []string

	for i, middleware := range c.middleware {
		if middleware == nil {
			errs = append(errs, fmt.Sprintf("middleware[%d] cannot be nil", i))
		}
	}

	return errs
}

func (c *Client) validateHTTPClientConfig() []string {
	var errs []string

	if c.httpClient == nil {
		errs = append(errs, "HTTP client cannot be nil")
	}

	return errs
}
