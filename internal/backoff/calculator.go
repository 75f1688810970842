package backoff

import "time"

// Calculator provides backoff calculation using a configurable strategy.
type Calculator struct {
	strategy Strategy
}

// NewCalculator creates a backoff calculator with the specified strategy.
func NewCalculator(strategy Strategy) *Calculator {
	return &Calculator{
		strategy: strategy,
	}
}

// Calculate computes the backoff duration for the given attempt and bounds.
func (c *Calculator) Calculate(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	return c.strategy.Delay(attempt, baseDelay, maxDelay)
}

// SetStrategy updates the backoff strategy used by this calculator.
func (c *Calculator) SetStrategy(strategy Strategy) {
	c.strategy = strategy
}

// GetStrategy returns the current strategy.
func (c *Calculator) GetStrategy() Strategy {
	return c.strategy
}
