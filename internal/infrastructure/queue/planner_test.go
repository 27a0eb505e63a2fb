package queue

import (
	"testing"
	"time"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func approx(got, want time.Duration) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Millisecond
}

func TestBackoffDelay_Schedule(t *testing.T) {
	p := NewRetryPlanner(DefaultRetryPlannerConfig(), fixedRand(0.5))

	want := []time.Duration{time.Second, 5 * time.Second, 30 * time.Second, 5 * time.Minute, 30 * time.Minute, 30 * time.Minute}
	for i, w := range want {
		if got := p.BackoffDelay(i + 1); !approx(got, w) {
			t.Errorf("attempt %d: got %v, want %v", i+1, got, w)
		}
	}
}

func TestBackoffDelay_JitterBounds(t *testing.T) {
	low := NewRetryPlanner(DefaultRetryPlannerConfig(), fixedRand(0))
	high := NewRetryPlanner(DefaultRetryPlannerConfig(), fixedRand(0.999999))

	if got := low.BackoffDelay(2); !approx(got, 4*time.Second) {
		t.Errorf("low jitter: got %v, want 4s", got)
	}
	if got := high.BackoffDelay(2); got < 5990*time.Millisecond || got > 6*time.Second+time.Millisecond {
		t.Errorf("high jitter: got %v, want just under 6s", got)
	}
}

func TestBackoffDelay_RealRandomStaysInRange(t *testing.T) {
	p := NewRetryPlanner(DefaultRetryPlannerConfig(), nil)
	for range 200 {
		d := p.BackoffDelay(3)
		if d < 23900*time.Millisecond || d > 36100*time.Millisecond {
			t.Fatalf("delay %v outside ±20%% of 30s", d)
		}
	}
}

func TestExhausted(t *testing.T) {
	p := NewRetryPlanner(RetryPlannerConfig{}, nil)
	if p.Exhausted(5) {
		t.Error("5 attempts must not exhaust the default budget")
	}
	if !p.Exhausted(6) {
		t.Error("6 attempts must exhaust the default budget")
	}

	custom := NewRetryPlanner(RetryPlannerConfig{MaxAttempts: 2}, nil)
	if !custom.Exhausted(2) {
		t.Error("custom budget ignored")
	}
}
