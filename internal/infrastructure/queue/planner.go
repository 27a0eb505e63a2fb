package queue

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the jitter source. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

type RetryPlannerConfig struct {
	// Schedule is the delay before the 2nd, 3rd, ... attempt.
	Schedule []time.Duration
	// Jitter spreads each delay by ±Jitter (0.2 = ±20%).
	Jitter float64
	// MaxAttempts is the total number of attempts before a task is abandoned.
	MaxAttempts int
}

func DefaultRetryPlannerConfig() RetryPlannerConfig {
	return RetryPlannerConfig{
		Schedule: []time.Duration{
			1 * time.Second,
			5 * time.Second,
			30 * time.Second,
			5 * time.Minute,
			30 * time.Minute,
		},
		Jitter:      0.2,
		MaxAttempts: 6,
	}
}

// RetryPlanner decides when a failed delivery is retried and when it is abandoned.
type RetryPlanner struct {
	cfg RetryPlannerConfig

	mu sync.Mutex
	r  Rand
}

func NewRetryPlanner(cfg RetryPlannerConfig, r Rand) *RetryPlanner {
	def := DefaultRetryPlannerConfig()
	if len(cfg.Schedule) == 0 {
		cfg.Schedule = def.Schedule
	}
	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		cfg.Jitter = def.Jitter
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RetryPlanner{cfg: cfg, r: r}
}

// Exhausted reports whether a task that already made attempts deliveries is out of budget.
func (p *RetryPlanner) Exhausted(attempts int) bool {
	return attempts >= p.cfg.MaxAttempts
}

// BackoffDelay returns the jittered wait after the given number of failed
// attempts. Budgets longer than the schedule reuse its last step.
func (p *RetryPlanner) BackoffDelay(attempts int) time.Duration {
	idx := attempts - 1
	switch {
	case idx < 0:
		idx = 0
	case idx >= len(p.cfg.Schedule):
		idx = len(p.cfg.Schedule) - 1
	}
	base := p.cfg.Schedule[idx]

	p.mu.Lock()
	f := p.r.Float64()
	p.mu.Unlock()

	factor := 1 - p.cfg.Jitter + 2*p.cfg.Jitter*f
	return time.Duration(float64(base) * factor)
}
