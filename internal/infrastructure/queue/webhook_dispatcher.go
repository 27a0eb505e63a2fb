package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
	"github.com/99minutos/shipment-lifecycle/internal/pkg/metrics"
)

// bookkeepingTimeout bounds queue writes that record an attempt's outcome.
// They run detached from the attempt context so results land during shutdown.
const bookkeepingTimeout = 5 * time.Second

// Sender performs one webhook delivery attempt.
type Sender interface {
	Send(ctx context.Context, sub *domain.Subscription, task *domain.NotificationTask) (int, error)
}

// WebhookDispatcherConfig tunes how the dispatcher polls and bounds its
// attempts. Zero fields fall back to DefaultWebhookDispatcherConfig.
type WebhookDispatcherConfig struct {
	PollInterval time.Duration // default: 1s
	BatchSize    int           // default: 100
	Concurrency  int           // default: 32
	// PerSubscriptionLimit caps concurrent attempts towards one subscriber.
	PerSubscriptionLimit int           // default: 4
	Lease                time.Duration // default: 60s
	ShutdownGrace        time.Duration // default: 15s
	// DeferDelay is how long a task over the per-subscription cap waits.
	DeferDelay time.Duration // default: 1s
}

// DefaultWebhookDispatcherConfig returns the values noted on each field.
func DefaultWebhookDispatcherConfig() WebhookDispatcherConfig {
	return WebhookDispatcherConfig{
		PollInterval:         time.Second,
		BatchSize:            100,
		Concurrency:          32,
		PerSubscriptionLimit: 4,
		Lease:                60 * time.Second,
		ShutdownGrace:        15 * time.Second,
		DeferDelay:           time.Second,
	}
}

func (c WebhookDispatcherConfig) withDefaults() WebhookDispatcherConfig {
	def := DefaultWebhookDispatcherConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.PerSubscriptionLimit <= 0 {
		c.PerSubscriptionLimit = def.PerSubscriptionLimit
	}
	if c.Lease <= 0 {
		c.Lease = def.Lease
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = def.ShutdownGrace
	}
	if c.DeferDelay <= 0 {
		c.DeferDelay = def.DeferDelay
	}
	return c
}

// WebhookDispatcher claims due notification tasks and delivers each in its
// own goroutine, bounded globally and per subscription. A slow or failing
// subscriber only ever occupies its own slots.
type WebhookDispatcher struct {
	queue   ports.TaskQueue
	subs    ports.SubscriptionRepository
	sender  Sender
	planner *RetryPlanner
	cfg     WebhookDispatcherConfig
	log     zerolog.Logger
	now     func() time.Time

	triggerCh chan struct{}
	sem       chan struct{}
	wg        sync.WaitGroup

	mu     sync.Mutex
	perSub map[string]int

	attemptCtx     context.Context
	cancelAttempts context.CancelFunc
}

// NewWebhookDispatcher builds a dispatcher over queue. A nil planner uses
// DefaultRetryPlannerConfig. Nothing runs until Run is called.
func NewWebhookDispatcher(
	queue ports.TaskQueue,
	subs ports.SubscriptionRepository,
	sender Sender,
	planner *RetryPlanner,
	cfg WebhookDispatcherConfig,
	log zerolog.Logger,
) *WebhookDispatcher {
	cfg = cfg.withDefaults()
	if planner == nil {
		planner = NewRetryPlanner(DefaultRetryPlannerConfig(), nil)
	}
	attemptCtx, cancel := context.WithCancel(context.Background())
	return &WebhookDispatcher{
		queue:          queue,
		subs:           subs,
		sender:         sender,
		planner:        planner,
		cfg:            cfg,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
		triggerCh:      make(chan struct{}, 1),
		sem:            make(chan struct{}, cfg.Concurrency),
		perSub:         make(map[string]int),
		attemptCtx:     attemptCtx,
		cancelAttempts: cancel,
	}
}

// Trigger forces an immediate claim cycle (best-effort, non-blocking).
func (d *WebhookDispatcher) Trigger() {
	select {
	case d.triggerCh <- struct{}{}:
	default:
	}
}

// Run claims and delivers tasks until ctx is cancelled. It then stops
// claiming, waits up to the shutdown grace for in-flight attempts and cancels
// whatever is left; those tasks keep their lease and are retried later.
func (d *WebhookDispatcher) Run(ctx context.Context) error {
	t := time.NewTicker(d.cfg.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			d.drain()
			return nil
		case <-t.C:
			d.runOnce(ctx)
		case <-d.triggerCh:
			d.runOnce(ctx)
		}
	}
}

func (d *WebhookDispatcher) drain() {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(d.cfg.ShutdownGrace):
		d.log.Warn().Dur("grace", d.cfg.ShutdownGrace).Msg("webhook attempts still running after grace, cancelling")
		d.cancelAttempts()
		<-done
	}
	d.cancelAttempts()
	d.log.Info().Msg("webhook dispatcher stopped")
}

func (d *WebhookDispatcher) runOnce(ctx context.Context) {
	free := cap(d.sem) - len(d.sem)
	if free <= 0 {
		return
	}
	limit := min(free, d.cfg.BatchSize)

	now := d.now()
	tasks, err := d.queue.Claim(ctx, now, limit, d.cfg.Lease)
	if err != nil {
		d.log.Error().Err(err).Msg("claim notification tasks")
		return
	}
	if depth, err := d.queue.Depth(ctx); err == nil {
		metrics.WebhookQueueDepth.Set(float64(depth))
	}

	for _, task := range tasks {
		if !d.reserve(task.SubscriptionID) {
			d.deferTask(task, now)
			continue
		}
		d.sem <- struct{}{}
		d.wg.Add(1)
		go func(task *domain.NotificationTask) {
			defer func() {
				d.release(task.SubscriptionID)
				<-d.sem
				d.wg.Done()
			}()
			d.deliver(d.attemptCtx, task)
		}(task)
	}
}

func (d *WebhookDispatcher) reserve(subscriptionID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.perSub[subscriptionID] >= d.cfg.PerSubscriptionLimit {
		return false
	}
	d.perSub[subscriptionID]++
	return true
}

func (d *WebhookDispatcher) release(subscriptionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.perSub[subscriptionID]--
	if d.perSub[subscriptionID] <= 0 {
		delete(d.perSub, subscriptionID)
	}
}

// deferTask puts a task back without consuming an attempt.
func (d *WebhookDispatcher) deferTask(task *domain.NotificationTask, now time.Time) {
	task.State = domain.TaskQueued
	task.NotBefore = now.Add(d.cfg.DeferDelay)
	ctx, cancel := context.WithTimeout(context.Background(), bookkeepingTimeout)
	defer cancel()
	if err := d.queue.Reschedule(ctx, task); err != nil {
		d.log.Error().Err(err).Str("task_id", task.ID).Msg("defer notification task")
		return
	}
	metrics.WebhookAttemptsTotal.WithLabelValues("deferred").Inc()
}

func (d *WebhookDispatcher) deliver(ctx context.Context, task *domain.NotificationTask) {
	log := d.log.With().
		Str("task_id", task.ID).
		Str("subscription_id", task.SubscriptionID).
		Str("shipment_id", task.ShipmentID).
		Int64("sequence", task.Sequence).
		Logger()

	bk, cancel := context.WithTimeout(context.Background(), bookkeepingTimeout)
	defer cancel()

	sub, err := d.subs.FindByID(ctx, task.SubscriptionID)
	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound) || (err == nil && !sub.Active):
		if err := d.queue.Complete(bk, task); err != nil {
			log.Error().Err(err).Msg("drop notification task")
			return
		}
		metrics.WebhookAttemptsTotal.WithLabelValues("dropped").Inc()
		log.Debug().Msg("subscription gone, task dropped")
		return
	case err != nil:
		log.Warn().Err(err).Msg("load subscription failed, deferring")
		d.deferTask(task, d.now())
		return
	}

	start := time.Now()
	code, sendErr := d.sender.Send(ctx, sub, task)
	metrics.WebhookDeliveryDuration.Observe(time.Since(start).Seconds())

	if sendErr != nil && ctx.Err() != nil {
		log.Warn().Err(sendErr).Msg("attempt cancelled by shutdown, lease kept")
		return
	}

	now := d.now()
	task.Attempts++
	task.LastStatusCode = code
	task.UpdatedAt = now

	if sendErr == nil {
		task.State = domain.TaskDelivered
		task.LastError = ""
		if err := d.queue.Complete(bk, task); err != nil {
			log.Error().Err(err).Msg("complete notification task")
			return
		}
		metrics.WebhookAttemptsTotal.WithLabelValues("delivered").Inc()
		log.Info().Int("attempt", task.Attempts).Int("status_code", code).Msg("webhook delivered")
		return
	}

	task.LastError = sendErr.Error()
	if d.planner.Exhausted(task.Attempts) {
		task.State = domain.TaskAbandoned
		if err := d.queue.Abandon(bk, task); err != nil {
			log.Error().Err(err).Msg("abandon notification task")
			return
		}
		metrics.WebhookAttemptsTotal.WithLabelValues("abandoned").Inc()
		log.Warn().Err(sendErr).Int("attempt", task.Attempts).Msg("webhook abandoned")
		return
	}

	delay := d.planner.BackoffDelay(task.Attempts)
	task.State = domain.TaskRetrying
	task.NotBefore = now.Add(delay)
	if err := d.queue.Reschedule(bk, task); err != nil {
		log.Error().Err(err).Msg("reschedule notification task")
		return
	}
	metrics.WebhookAttemptsTotal.WithLabelValues("retrying").Inc()
	log.Info().Err(sendErr).
		Int("attempt", task.Attempts).
		Dur("retry_in", delay).
		Msg("webhook failed, retry scheduled")
}
