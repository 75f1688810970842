package dashfetch

import (
	"sync/atomic"
	"time"
)

// Default circuit breaker configuration.
const (
	DefaultFailureThreshold = 3
	DefaultOpenDuration     = 30 * time.Second
)

// CircuitBreaker guards the transport after repeated terminal failures.
// One instance is shared across all URLs issued through a Client. Failures
// are counted per completed request, not per retry attempt.
type CircuitBreaker struct {
	config      BreakerConfig
	state       int64
	failures    int64
	lastFailure int64
	now         func() time.Time
}

// NewCircuitBreaker creates a circuit breaker, applying defaults for zero
// config fields.
func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = DefaultFailureThreshold
	}
	if config.OpenDuration == 0 {
		config.OpenDuration = DefaultOpenDuration
	}
	now := config.Clock
	if now == nil {
		now = time.Now
	}
	return &CircuitBreaker{
		config: config,
		state:  int64(StateClosed),
		now:    now,
	}
}

// Allow reports whether a request may proceed. When the open duration has
// elapsed exactly one caller wins the transition to half-open and runs the
// recovery trial; everyone else is short-circuited until it resolves.
func (cb *CircuitBreaker) Allow() bool {
	switch CircuitState(atomic.LoadInt64(&cb.state)) {
	case StateClosed:
		return true
	case StateOpen:
		lastFailure := atomic.LoadInt64(&cb.lastFailure)
		if cb.now().UnixNano()-lastFailure >= int64(cb.config.OpenDuration) {
			return atomic.CompareAndSwapInt64(&cb.state, int64(StateOpen), int64(StateHalfOpen))
		}
		return false
	case StateHalfOpen:
		// Trial in flight.
		return false
	default:
		return false
	}
}

// RecordFailure registers a terminal request failure. A failure during the
// half-open trial reopens the breaker immediately; in closed state the
// breaker opens once consecutive failures reach the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	atomic.StoreInt64(&cb.lastFailure, cb.now().UnixNano())

	if CircuitState(atomic.LoadInt64(&cb.state)) == StateHalfOpen {
		atomic.AddInt64(&cb.failures, 1)
		atomic.StoreInt64(&cb.state, int64(StateOpen))
		return
	}

	if atomic.AddInt64(&cb.failures, 1) >= int64(cb.config.FailureThreshold) {
		atomic.StoreInt64(&cb.state, int64(StateOpen))
	}
}

// ReleaseTrial returns an aborted half-open trial slot without recording
// an outcome. The breaker reverts to open; the open window has already
// elapsed, so the next request is admitted as a fresh trial.
func (cb *CircuitBreaker) ReleaseTrial() {
	atomic.CompareAndSwapInt64(&cb.state, int64(StateHalfOpen), int64(StateOpen))
}

// RecordSuccess closes the breaker and clears the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	atomic.StoreInt64(&cb.failures, 0)
	atomic.StoreInt64(&cb.state, int64(StateClosed))
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	return CircuitState(atomic.LoadInt64(&cb.state))
}

// Failures returns the consecutive terminal failure count.
func (cb *CircuitBreaker) Failures() int {
	return int(atomic.LoadInt64(&cb.failures))
}
