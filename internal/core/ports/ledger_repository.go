package ports

import (
	"context"
	"time"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

// AppendInput describes one ledger append.
type AppendInput struct {
	ShipmentID string
	// ExpectedSequence must equal the shipment's current sequence, otherwise
	// the append fails with ErrSequenceConflict and nothing is written.
	ExpectedSequence int64
	Event            domain.TrackingEvent
	// TrackingNumber is assigned together with the append when non-empty.
	TrackingNumber string
	UpdatedAt      time.Time
}

// LedgerRepository persists the append-only tracking ledger. Appends update
// the cached status and sequence on the shipment in the same atomic write.
type LedgerRepository interface {
	// Append fails with ErrLedgerCorrupted once the shipment is quarantined.
	Append(ctx context.Context, in AppendInput) error
	// Load returns the shipment together with its ledger from a single read,
	// so the cached status and the events always describe the same moment.
	Load(ctx context.Context, shipmentID string) (*domain.Shipment, []domain.TrackingEvent, error)
	// Quarantine persists the quarantine flag on the shipment.
	Quarantine(ctx context.Context, shipmentID string) error
	// History returns the ledger oldest-first.
	History(ctx context.Context, shipmentID string) ([]domain.TrackingEvent, error)
	MarkPublished(ctx context.Context, shipmentID string, sequence int64) error
	// ListUnpublished returns ids of shipments holding entries not yet fanned out.
	ListUnpublished(ctx context.Context, limit int) ([]string, error)
}
