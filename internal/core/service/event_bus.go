package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
	"github.com/99minutos/shipment-lifecycle/internal/pkg/metrics"
)

// Notifier is woken after new tasks were enqueued.
type Notifier interface {
	Trigger()
}

// EventBus turns ledger entries into durable notification tasks, one per
// matching active subscription of the shipment owner.
type EventBus struct {
	subs     ports.SubscriptionRepository
	ledger   ports.LedgerRepository
	queue    ports.TaskQueue
	stream   ports.TransitionStream
	notifier Notifier
	now      func() time.Time
	log      zerolog.Logger
}

// NewEventBus returns an EventBus. stream and notifier may be nil.
func NewEventBus(
	subs ports.SubscriptionRepository,
	ledger ports.LedgerRepository,
	queue ports.TaskQueue,
	stream ports.TransitionStream,
	notifier Notifier,
	log zerolog.Logger,
) *EventBus {
	return &EventBus{
		subs:     subs,
		ledger:   ledger,
		queue:    queue,
		stream:   stream,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
}

// Publish fans out one ledger entry and marks it published. Enqueueing is
// idempotent, so publishing the same entry twice yields the same tasks.
func (b *EventBus) Publish(ctx context.Context, shipment *domain.Shipment, event domain.TrackingEvent) error {
	subs, err := b.subs.ListActiveByClient(ctx, shipment.ClientID)
	if err != nil {
		return fmt.Errorf("publish: list subscriptions: %w", err)
	}

	now := b.now()
	var tasks []*domain.NotificationTask
	for _, sub := range subs {
		if sub.Matches(event) {
			tasks = append(tasks, domain.NewNotificationTask(sub, shipment, event, now))
		}
	}
	if len(tasks) > 0 {
		if err := b.queue.Enqueue(ctx, tasks...); err != nil {
			return fmt.Errorf("publish: enqueue: %w", err)
		}
		for _, t := range tasks {
			metrics.WebhookTasksEnqueuedTotal.WithLabelValues(string(t.Event)).Inc()
		}
	}

	if b.stream != nil {
		if err := b.stream.PublishTransition(ctx, shipment, event); err != nil {
			b.log.Warn().Err(err).
				Str("shipment_id", shipment.ID).
				Int64("sequence", event.Sequence).
				Msg("transition stream write failed")
		}
	}

	if err := b.ledger.MarkPublished(ctx, shipment.ID, event.Sequence); err != nil {
		return fmt.Errorf("publish: mark published: %w", err)
	}

	b.log.Debug().
		Str("shipment_id", shipment.ID).
		Int64("sequence", event.Sequence).
		Int("tasks", len(tasks)).
		Msg("transition published")

	if len(tasks) > 0 && b.notifier != nil {
		b.notifier.Trigger()
	}
	return nil
}

// PublishPending publishes unpublished entries in sequence order and stops at
// the first failure so later entries never overtake earlier ones.
func (b *EventBus) PublishPending(ctx context.Context, shipment *domain.Shipment) error {
	events, err := b.ledger.History(ctx, shipment.ID)
	if err != nil {
		return fmt.Errorf("publish pending: %w", err)
	}
	for _, ev := range events {
		if ev.Published {
			continue
		}
		if err := b.Publish(ctx, shipment, ev); err != nil {
			return fmt.Errorf("publish pending: sequence %d: %w", ev.Sequence, err)
		}
	}
	return nil
}
