package queue

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/infrastructure/db/memory"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type call struct {
	shipmentID string
	sequence   int64
	attempts   int
}

// scriptedSender fails the first failures[seq] attempts of each sequence.
type scriptedSender struct {
	mu       sync.Mutex
	calls    []call
	failures map[int64]int
	always   bool
	started  chan struct{}
	block    chan struct{}
	waitCtx  bool
}

func (s *scriptedSender) Send(ctx context.Context, _ *domain.Subscription, task *domain.NotificationTask) (int, error) {
	s.mu.Lock()
	s.calls = append(s.calls, call{task.ShipmentID, task.Sequence, task.Attempts})
	fail := s.always || s.failures[task.Sequence] > 0
	if s.failures[task.Sequence] > 0 {
		s.failures[task.Sequence]--
	}
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.waitCtx {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if s.block != nil {
		<-s.block
	}
	if fail {
		return http.StatusInternalServerError, errors.New("status 500")
	}
	return http.StatusOK, nil
}

func (s *scriptedSender) seqs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.sequence
	}
	return out
}

type fixture struct {
	queue *memory.TaskQueue
	store *memory.Store
	sub   *domain.Subscription
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	sub := &domain.Subscription{
		ID: "sub-1", ClientID: "client-1", URL: "https://hooks.example.com",
		Event: domain.EventStatusChanged, Active: true, Secret: "s",
	}
	require.NoError(t, memory.NewSubscriptionRepository(store).Create(context.Background(), sub))
	return &fixture{
		queue: memory.NewTaskQueue(),
		store: store,
		sub:   sub,
		clock: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) enqueue(t *testing.T, shipmentID string, seqs ...int64) {
	t.Helper()
	for _, seq := range seqs {
		s := &domain.Shipment{ID: shipmentID, TrackingNumber: "SHP000000000001"}
		ev := domain.TrackingEvent{Sequence: seq, Status: domain.StatusConfirmed, Timestamp: f.clock}
		require.NoError(t, f.queue.Enqueue(context.Background(), domain.NewNotificationTask(f.sub, s, ev, f.clock)))
	}
}

func (f *fixture) dispatcher(sender Sender, cfg WebhookDispatcherConfig, planner RetryPlannerConfig) *WebhookDispatcher {
	d := NewWebhookDispatcher(
		f.queue,
		memory.NewSubscriptionRepository(f.store),
		sender,
		NewRetryPlanner(planner, fixedRand(0.5)),
		cfg,
		zerolog.Nop(),
	)
	d.now = func() time.Time { return f.clock }
	return d
}

// cycle runs one claim pass and waits for its attempts.
func cycle(d *WebhookDispatcher) {
	d.runOnce(context.Background())
	d.wg.Wait()
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestWebhookDispatcher_DeliversAndCompletes(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, "ship-1", 1)
	sender := &scriptedSender{}
	d := f.dispatcher(sender, WebhookDispatcherConfig{}, DefaultRetryPlannerConfig())

	cycle(d)

	require.Equal(t, []int64{1}, sender.seqs())
	depth, err := f.queue.Depth(context.Background())
	require.NoError(t, err)
	require.Zero(t, depth)
}

func TestWebhookDispatcher_RetriesKeepChainOrder(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, "ship-1", 1, 2)
	sender := &scriptedSender{failures: map[int64]int{1: 1}}
	d := f.dispatcher(sender, WebhookDispatcherConfig{}, DefaultRetryPlannerConfig())

	cycle(d)
	require.Equal(t, []int64{1}, sender.seqs(), "only the chain head is claimable")

	// seq 2 must wait behind the failed seq 1
	cycle(d)
	require.Equal(t, []int64{1}, sender.seqs())

	f.clock = f.clock.Add(2 * time.Second)
	cycle(d)
	cycle(d)
	require.Equal(t, []int64{1, 1, 2}, sender.seqs())

	sender.mu.Lock()
	require.Equal(t, 1, sender.calls[1].attempts)
	sender.mu.Unlock()
}

func TestWebhookDispatcher_AbandonsAfterBudget(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, "ship-1", 1, 2)
	sender := &scriptedSender{failures: map[int64]int{1: 10}}
	d := f.dispatcher(sender, WebhookDispatcherConfig{}, RetryPlannerConfig{
		Schedule:    []time.Duration{time.Second},
		MaxAttempts: 2,
	})

	cycle(d)
	f.clock = f.clock.Add(2 * time.Second)
	cycle(d)

	abandoned, err := f.queue.ListAbandoned(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, abandoned, 1)
	require.Equal(t, int64(1), abandoned[0].Sequence)
	require.Equal(t, 2, abandoned[0].Attempts)
	require.Equal(t, http.StatusInternalServerError, abandoned[0].LastStatusCode)

	// abandoning the head unblocks the rest of the chain
	cycle(d)
	require.Equal(t, []int64{1, 1, 2}, sender.seqs())
}

func TestWebhookDispatcher_DropsTasksOfDeletedSubscription(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, "ship-1", 1)
	require.NoError(t, memory.NewSubscriptionRepository(f.store).Delete(context.Background(), f.sub.ID))
	sender := &scriptedSender{}
	d := f.dispatcher(sender, WebhookDispatcherConfig{}, DefaultRetryPlannerConfig())

	cycle(d)

	require.Empty(t, sender.seqs())
	depth, _ := f.queue.Depth(context.Background())
	require.Zero(t, depth)
	abandoned, _ := f.queue.ListAbandoned(context.Background(), 10)
	require.Empty(t, abandoned)
}

func TestWebhookDispatcher_PerSubscriptionCap(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, "ship-1", 1)
	f.enqueue(t, "ship-2", 1)
	sender := &scriptedSender{block: make(chan struct{})}
	d := f.dispatcher(sender, WebhookDispatcherConfig{PerSubscriptionLimit: 1}, DefaultRetryPlannerConfig())

	d.runOnce(context.Background())

	// the second task went back to the queue without spending an attempt
	claimed, err := f.queue.Claim(context.Background(), f.clock, 10, time.Minute)
	require.NoError(t, err)
	require.Empty(t, claimed)

	claimed, err = f.queue.Claim(context.Background(), f.clock.Add(2*time.Second), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Zero(t, claimed[0].Attempts)

	close(sender.block)
	d.wg.Wait()
	require.Len(t, sender.seqs(), 1)
}

func TestWebhookDispatcher_ShutdownKeepsLease(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, "ship-1", 1)
	sender := &scriptedSender{started: make(chan struct{}, 1), waitCtx: true}
	d := f.dispatcher(sender, WebhookDispatcherConfig{
		PollInterval:  10 * time.Millisecond,
		ShutdownGrace: 50 * time.Millisecond,
	}, DefaultRetryPlannerConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case <-sender.started:
	case <-time.After(2 * time.Second):
		t.Fatal("attempt never started")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	// still leased, not retried or abandoned
	depth, _ := f.queue.Depth(context.Background())
	require.Equal(t, int64(1), depth)
	abandoned, _ := f.queue.ListAbandoned(context.Background(), 10)
	require.Empty(t, abandoned)
}

func TestWebhookDispatcher_TriggerIsNonBlocking(t *testing.T) {
	f := newFixture(t)
	d := f.dispatcher(&scriptedSender{}, WebhookDispatcherConfig{}, DefaultRetryPlannerConfig())
	for range 5 {
		d.Trigger()
	}
}

func TestWebhookDispatcherConfig_ZeroFieldsTakeDefaults(t *testing.T) {
	cfg := WebhookDispatcherConfig{Concurrency: 2, Lease: 5 * time.Second}.withDefaults()
	def := DefaultWebhookDispatcherConfig()

	require.Equal(t, 2, cfg.Concurrency)
	require.Equal(t, 5*time.Second, cfg.Lease)
	require.Equal(t, def.PollInterval, cfg.PollInterval)
	require.Equal(t, def.BatchSize, cfg.BatchSize)
	require.Equal(t, def.PerSubscriptionLimit, cfg.PerSubscriptionLimit)
	require.Equal(t, def.ShutdownGrace, cfg.ShutdownGrace)
	require.Equal(t, def.DeferDelay, cfg.DeferDelay)
}
