package ports

import (
	"context"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

// ShipmentRepository defines persistence operations for shipments.
type ShipmentRepository interface {
	// Create stores a new shipment. ErrDuplicateShipment is returned when the
	// client already used the same idempotency key.
	Create(ctx context.Context, s *domain.Shipment) error
	FindByID(ctx context.Context, id string) (*domain.Shipment, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error)
	FindByIdempotencyKey(ctx context.Context, clientID, key string) (*domain.Shipment, error)
}
