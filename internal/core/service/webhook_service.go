package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

const (
	secretBytes = 32

	defaultAbandonedLimit = 50
	maxAbandonedLimit     = 500
)

type webhookService struct {
	subs  ports.SubscriptionRepository
	queue ports.TaskQueue
	now   func() time.Time
	log   zerolog.Logger
}

// NewWebhookService returns a WebhookService implementation.
func NewWebhookService(subs ports.SubscriptionRepository, queue ports.TaskQueue, log zerolog.Logger) ports.WebhookService {
	return &webhookService{
		subs:  subs,
		queue: queue,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log,
	}
}

func (s *webhookService) Register(ctx context.Context, in ports.RegisterSubscriptionInput) (*domain.Subscription, error) {
	if err := domain.ValidateCallbackURL(in.URL); err != nil {
		return nil, fmt.Errorf("register subscription: %w", err)
	}
	event := domain.EventType(in.Event)
	if !event.Valid() {
		return nil, fmt.Errorf("register subscription: %w: unknown event %q", domain.ErrInvalidSubscription, in.Event)
	}
	secret, err := newSecret()
	if err != nil {
		return nil, fmt.Errorf("register subscription: %w", err)
	}

	sub := &domain.Subscription{
		ID:        uuid.NewString(),
		ClientID:  in.ClientID,
		URL:       in.URL,
		Event:     event,
		Active:    true,
		Secret:    secret,
		CreatedAt: s.now(),
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("register subscription: %w", err)
	}

	s.log.Info().
		Str("subscription_id", sub.ID).
		Str("client_id", sub.ClientID).
		Str("event", string(sub.Event)).
		Msg("subscription registered")
	return sub, nil
}

func (s *webhookService) List(ctx context.Context, clientID string) ([]*domain.Subscription, error) {
	subs, err := s.subs.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// Delete removes a subscription. Tasks already fanned out to it are dropped
// when the dispatcher reaches them.
func (s *webhookService) Delete(ctx context.Context, in ports.DeleteSubscriptionInput) error {
	sub, err := s.subs.FindByID(ctx, in.ID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if !canAccess(in.Role, in.ClientID, sub.ClientID) {
		return fmt.Errorf("delete subscription: %w", domain.ErrSubscriptionNotFound)
	}
	if err := s.subs.Delete(ctx, sub.ID); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	s.log.Info().Str("subscription_id", sub.ID).Str("client_id", sub.ClientID).Msg("subscription deleted")
	return nil
}

func (s *webhookService) ListAbandoned(ctx context.Context, limit int) ([]*domain.NotificationTask, error) {
	if limit <= 0 {
		limit = defaultAbandonedLimit
	}
	if limit > maxAbandonedLimit {
		limit = maxAbandonedLimit
	}
	tasks, err := s.queue.ListAbandoned(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list abandoned: %w", err)
	}
	return tasks, nil
}

// newSecret returns 32 random bytes, base64url encoded without padding.
func newSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
