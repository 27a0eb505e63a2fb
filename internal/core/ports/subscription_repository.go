package ports

import (
	"context"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

// SubscriptionRepository stores webhook subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	FindByID(ctx context.Context, id string) (*domain.Subscription, error)
	ListByClient(ctx context.Context, clientID string) ([]*domain.Subscription, error)
	ListActiveByClient(ctx context.Context, clientID string) ([]*domain.Subscription, error)
	Delete(ctx context.Context, id string) error
}
