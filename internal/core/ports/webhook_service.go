package ports

import (
	"context"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

// RegisterSubscriptionInput carries a new webhook registration.
type RegisterSubscriptionInput struct {
	ClientID string
	URL      string
	Event    string
}

// DeleteSubscriptionInput identifies the subscription to remove.
type DeleteSubscriptionInput struct {
	ID       string
	Role     string
	ClientID string
}

// WebhookService manages subscriptions and exposes failed deliveries.
type WebhookService interface {
	// Register returns the stored subscription; its Secret is only ever
	// exposed in this response.
	Register(ctx context.Context, input RegisterSubscriptionInput) (*domain.Subscription, error)
	List(ctx context.Context, clientID string) ([]*domain.Subscription, error)
	Delete(ctx context.Context, input DeleteSubscriptionInput) error
	ListAbandoned(ctx context.Context, limit int) ([]*domain.NotificationTask, error)
}
