package dashfetch

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the fetch lifecycle and
// reliability layers. It is safe for concurrent use.
type MetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	retriesTotal *prometheus.CounterVec

	circuitBreakerState *prometheus.GaugeVec

	rateLimiterTokens *prometheus.GaugeVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec

	fallbacksTotal *prometheus.CounterVec

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashfetch_requests_total",
				Help: "Total number of fetch requests resolved",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashfetch_request_duration_seconds",
				Help:    "Duration of fetch requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashfetch_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"method", "endpoint"},
		),
		circuitBreakerState: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dashfetch_circuit_breaker_state",
				Help: "Current state of the circuit breaker (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		rateLimiterTokens: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dashfetch_rate_limiter_tokens",
				Help: "Current number of available rate limiter tokens",
			},
			[]string{"name"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashfetch_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"method", "endpoint"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashfetch_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"method", "endpoint"},
		),
		cacheSize: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dashfetch_cache_size",
				Help: "Current number of entries in the cache",
			},
			[]string{"name"},
		),
		fallbacksTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashfetch_fallbacks_total",
				Help: "Total number of synthesized fallback payloads served",
			},
			[]string{"endpoint", "reason"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashfetch_errors_total",
				Help: "Total number of classified request failures",
			},
			[]string{"kind", "method", "endpoint"},
		),
	}
}

// RecordRequest records a resolved request with its final status code.
func (mc *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	mc.requestsTotal.WithLabelValues(method, strconv.Itoa(statusCode), endpoint).Inc()
	mc.requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRetry records one retry attempt.
func (mc *MetricsCollector) RecordRetry(method, endpoint string) {
	mc.retriesTotal.WithLabelValues(method, endpoint).Inc()
}

// RecordCircuitBreakerState records the current breaker state.
func (mc *MetricsCollector) RecordCircuitBreakerState(name string, state CircuitState) {
	mc.circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordRateLimiterTokens records the current token count.
func (mc *MetricsCollector) RecordRateLimiterTokens(name string, tokens int) {
	mc.rateLimiterTokens.WithLabelValues(name).Set(float64(tokens))
}

// RecordCacheHit records a fresh cache hit.
func (mc *MetricsCollector) RecordCacheHit(method, endpoint string) {
	mc.cacheHits.WithLabelValues(method, endpoint).Inc()
}

// RecordCacheMiss records a cache miss or stale entry.
func (mc *MetricsCollector) RecordCacheMiss(method, endpoint string) {
	mc.cacheMisses.WithLabelValues(method, endpoint).Inc()
}

// RecordCacheSize records the current cache entry count.
func (mc *MetricsCollector) RecordCacheSize(name string, size int) {
	mc.cacheSize.WithLabelValues(name).Set(float64(size))
}

// RecordFallback records a synthesized fallback payload and why it was
// served.
func (mc *MetricsCollector) RecordFallback(endpoint, reason string) {
	mc.fallbacksTotal.WithLabelValues(endpoint, reason).Inc()
}

// RecordError records a classified failure.
func (mc *MetricsCollector) RecordError(kind, method, endpoint string) {
	mc.errorsTotal.WithLabelValues(kind, method, endpoint).Inc()
}
