package ports

import (
	"context"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

// ServiceTypeRepository reads the service catalog.
type ServiceTypeRepository interface {
	ListActive(ctx context.Context) ([]domain.ServiceType, error)
	FindByCode(ctx context.Context, code string) (*domain.ServiceType, error)
	Upsert(ctx context.Context, st domain.ServiceType) error
}
