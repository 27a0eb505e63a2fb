package ports

import (
	"context"
	"time"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

// TransitionInput requests a status change for one shipment.
type TransitionInput struct {
	ShipmentID  string
	Status      domain.ShipmentStatus
	Description string
	Location    string
	// Timestamp defaults to the service clock when zero.
	Timestamp time.Time
}

// LifecycleService owns the state machine and the tracking ledger.
type LifecycleService interface {
	ApplyTransition(ctx context.Context, input TransitionInput) (*domain.Shipment, error)
	History(ctx context.Context, shipmentID string) ([]domain.TrackingEvent, error)
	VerifyConsistency(ctx context.Context, shipmentID string) error
}

// EventPublisher fans accepted transitions out to subscribers.
type EventPublisher interface {
	// PublishPending publishes every unpublished ledger entry of the shipment
	// in sequence order, stopping at the first failure.
	PublishPending(ctx context.Context, shipment *domain.Shipment) error
}

// TransitionStream mirrors accepted transitions to an external log.
type TransitionStream interface {
	PublishTransition(ctx context.Context, shipment *domain.Shipment, event domain.TrackingEvent) error
}
