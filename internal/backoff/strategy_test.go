package backoff

import (
	"testing"
	"time"
)

func TestExponentialDeterministic(t *testing.T) {
	strategy := Exponential{}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 8 * time.Second},
		{10, 8 * time.Second},
	}

	for _, tt := range tests {
		result := strategy.Delay(tt.attempt, time.Second, 8*time.Second)
		if result != tt.expected {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, result, tt.expected)
		}
	}
}

func TestExponentialMonotonic(t *testing.T) {
	strategy := Exponential{}

	prev := time.Duration(0)
	for attempt := 0; attempt < 12; attempt++ {
		d := strategy.Delay(attempt, 250*time.Millisecond, 10*time.Second)
		if d < prev {
			t.Errorf("Delay(%d) = %v decreased from %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestExponentialNegativeAttempt(t *testing.T) {
	strategy := Exponential{}

	if d := strategy.Delay(-3, time.Second, 8*time.Second); d != time.Second {
		t.Errorf("Delay(-3) = %v, want base delay", d)
	}
}

func TestExponentialOverflowGuard(t *testing.T) {
	strategy := Exponential{}

	if d := strategy.Delay(200, time.Second, 8*time.Second); d != 8*time.Second {
		t.Errorf("Delay(200) = %v, want cap", d)
	}
}

func TestExponentialJitterBounds(t *testing.T) {
	strategy := Exponential{JitterRange: time.Second}

	for i := 0; i < 100; i++ {
		d := strategy.Delay(1, time.Second, 8*time.Second)
		if d < 2*time.Second || d >= 3*time.Second {
			t.Fatalf("Delay(1) with jitter = %v, want [2s, 3s)", d)
		}
	}
}

func TestPow(t *testing.T) {
	tests := []struct {
		base     float64
		exponent int
		expected float64
	}{
		{2.0, 0, 1.0},
		{2.0, 1, 2.0},
		{2.0, 3, 8.0},
		{3.0, 2, 9.0},
	}

	for _, tt := range tests {
		result := Pow(tt.base, tt.exponent)
		if result != tt.expected {
			t.Errorf("Pow(%f, %d) = %f, want %f", tt.base, tt.exponent, result, tt.expected)
		}
	}
}

func TestCalculator(t *testing.T) {
	calc := NewCalculator(Exponential{})

	if result := calc.Calculate(1, 100*time.Millisecond, 5*time.Second); result != 200*time.Millisecond {
		t.Errorf("Calculate(1) = %v, want 200ms", result)
	}

	calc.SetStrategy(Exponential{JitterRange: 10 * time.Millisecond})
	if _, ok := calc.GetStrategy().(Exponential); !ok {
		t.Errorf("GetStrategy() returned wrong type: %T", calc.GetStrategy())
	}
}

func BenchmarkExponential(b *testing.B) {
	strategy := Exponential{JitterRange: time.Second}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		strategy.Delay(i%10, time.Second, 8*time.Second)
	}
}
