package dashfetch

import (
	"net/http"
	"testing"
	"time"
)

func TestOptionsApply(t *testing.T) {
	httpClient := &http.Client{}
	clock := newFakeClock()

	client := New(
		WithMaxRetries(5),
		WithBaseDelay(200*time.Millisecond),
		WithMaxDelay(2*time.Second),
		WithJitter(false),
		WithTimeout(10*time.Second),
		WithCacheTTL(time.Minute),
		WithHTTPClient(httpClient),
		WithClock(clock.Now),
	)

	if client.maxRetries != 5 {
		t.Errorf("Expected maxRetries=5, got %d", client.maxRetries)
	}
	if client.baseDelay != 200*time.Millisecond {
		t.Errorf("Expected baseDelay=200ms, got %v", client.baseDelay)
	}
	if client.maxDelay != 2*time.Second {
		t.Errorf("Expected maxDelay=2s, got %v", client.maxDelay)
	}
	if client.jitter {
		t.Error("Expected jitter disabled")
	}
	if client.cacheTTL != time.Minute {
		t.Errorf("Expected cacheTTL=1m, got %v", client.cacheTTL)
	}
	if client.httpClient != httpClient {
		t.Error("Expected custom HTTP client")
	}
	if client.httpClient.Timeout != 10*time.Second {
		t.Errorf("Expected timeout propagated to HTTP client, got %v", client.httpClient.Timeout)
	}
	if !client.IsValid() {
		t.Errorf("Expected valid configuration, got %v", client.ValidationError())
	}
}

func TestWithCircuitBreakerUsesClientClock(t *testing.T) {
	clock := newFakeClock()
	client := New(
		WithClock(clock.Now),
		WithCircuitBreaker(BreakerConfig{FailureThreshold: 1, OpenDuration: time.Minute}),
	)

	client.breaker.RecordFailure()
	clock.Advance(2 * time.Minute)

	if !client.breaker.Allow() {
		t.Error("Expected breaker to follow the injected clock")
	}
}

func TestWithCustomCache(t *testing.T) {
	cache := NewInMemoryCache()
	client := New(WithCache(cache))

	if client.cache != Cache(cache) {
		t.Error("Expected custom cache to be used")
	}
}

func TestWithCacheKeyFunc(t *testing.T) {
	client := New(WithCacheKeyFunc(func(rawURL string, params map[string]string) string {
		return "fixed"
	}))

	if client.keyFunc("https://a", nil) != "fixed" {
		t.Error("Expected custom key function to be used")
	}
}

func TestValidateConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		options []Option
	}{
		{"negative retries", []Option{WithMaxRetries(-1)}},
		{"zero base delay", []Option{WithBaseDelay(0)}},
		{"max below base", []Option{WithBaseDelay(2 * time.Second), WithMaxDelay(time.Second)}},
		{"zero cache ttl", []Option{WithCacheTTL(0)}},
		{"zero timeout", []Option{WithTimeout(0)}},
		{"nil middleware", []Option{WithMiddleware(nil)}},
		{"zero jitter range", []Option{WithJitterRange(0)}},
		{"nil key func", []Option{WithCacheKeyFunc(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(tt.options...)
			if client.IsValid() {
				t.Error("Expected invalid configuration")
			}
			if client.ValidationError() == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}

func TestValidateConfigurationOK(t *testing.T) {
	client := New(
		WithRateLimiter(10, time.Second),
		WithCircuitBreaker(BreakerConfig{FailureThreshold: 3, OpenDuration: 30 * time.Second}),
		WithJitterRange(500*time.Millisecond),
	)

	if !client.IsValid() {
		t.Errorf("Expected valid configuration, got %v", client.ValidationError())
	}
}

func TestWithDebugConfig(t *testing.T) {
	cfg := &DebugConfig{Enabled: true, LogRetries: true, RequestIDGen: func() string { return "fixed" }}
	client := New(WithDebugConfig(cfg), WithLogger(NewSimpleLogger()))

	if client.debug != cfg {
		t.Error("Expected custom debug config")
	}
	if !client.debugEnabled() {
		t.Error("Expected debug enabled")
	}
}

func TestWithRequestIDGenerator(t *testing.T) {
	client := New(WithDebug(), WithRequestIDGenerator(func() string { return "req-1" }), WithLogger(NewSimpleLogger()))

	if client.debug.RequestIDGen() != "req-1" {
		t.Error("Expected custom request ID generator")
	}
}
