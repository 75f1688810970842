package backoff

import (
	"math/rand"
	"time"
)

// Strategy defines the interface for backoff delay algorithms.
type Strategy interface {
	// Delay returns the wait before retry number attempt+1, given the
	// base delay and the cap.
	Delay(attempt int, baseDelay, maxDelay time.Duration) time.Duration
}

// Exponential implements capped exponential doubling with an optional
// uniform absolute jitter: min(base * 2^attempt, max) + U[0, JitterRange).
// With JitterRange zero the delay is deterministic.
type Exponential struct {
	JitterRange time.Duration
}

// Delay implements the Strategy interface.
func (s Exponential) Delay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	// Prevent overflow by limiting attempt
	if attempt > 30 {
		attempt = 30
	}

	delay := time.Duration(float64(baseDelay) * Pow(2.0, attempt))
	if delay < 0 || delay > maxDelay {
		delay = maxDelay
	}

	if s.JitterRange > 0 {
		delay += time.Duration(rand.Int63n(int64(s.JitterRange)))
	}
	return delay
}

// Pow calculates base^exponent using integer exponentiation.
func Pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
