package ports

import (
	"context"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

// RateRequest is the input of a quote.
type RateRequest struct {
	Origin      AddressInput
	Destination AddressInput
	Package     PackageInput
}

// RateService prices a package against the active catalog.
type RateService interface {
	Quote(ctx context.Context, req RateRequest) ([]domain.Rate, error)
}
