package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
	"github.com/99minutos/shipment-lifecycle/internal/pkg/metrics"
)

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, trackingNumber, status string, ts time.Time) (bool, error)
	Mark(ctx context.Context, trackingNumber, status string, ts time.Time) error
}

type eventService struct {
	shipmentRepo ports.ShipmentRepository
	lifecycle    ports.LifecycleService
	dedup        DedupChecker
	log          zerolog.Logger
}

// NewEventService returns an EventService implementation.
func NewEventService(
	shipmentRepo ports.ShipmentRepository,
	lifecycle ports.LifecycleService,
	dedup DedupChecker,
	log zerolog.Logger,
) ports.EventService {
	return &eventService{
		shipmentRepo: shipmentRepo,
		lifecycle:    lifecycle,
		dedup:        dedup,
		log:          log,
	}
}

// RecordCarrierEvent validates, deduplicates and applies a single carrier
// status event. Exact replays of an accepted event succeed as no-ops.
func (s *eventService) RecordCarrierEvent(ctx context.Context, in ports.CarrierEventInput) error {
	trackingNumber := strings.ToUpper(strings.TrimSpace(in.TrackingNumber))
	newStatus, err := domain.ParseStatus(in.Status)
	if err != nil {
		return fmt.Errorf("record carrier event: %w", err)
	}

	isDup, err := s.dedup.IsDuplicate(ctx, trackingNumber, in.Status, in.Timestamp)
	if err != nil {
		s.log.Warn().Err(err).Str("tracking_number", trackingNumber).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.EventsDedupTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("tracking_number", trackingNumber).Str("status", in.Status).Msg("duplicate event skipped")
		return nil
	}
	metrics.EventsDedupTotal.WithLabelValues("miss").Inc()

	shipment, err := s.shipmentRepo.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return fmt.Errorf("record carrier event: %w", err)
	}

	if _, err := s.lifecycle.ApplyTransition(ctx, ports.TransitionInput{
		ShipmentID:  shipment.ID,
		Status:      newStatus,
		Description: in.Description,
		Location:    in.Location,
		Timestamp:   in.Timestamp,
	}); err != nil {
		return fmt.Errorf("record carrier event: %w", err)
	}

	// Marked after the append so a failed write can be retried by the carrier.
	if markErr := s.dedup.Mark(ctx, trackingNumber, in.Status, in.Timestamp); markErr != nil {
		s.log.Warn().Err(markErr).Str("tracking_number", trackingNumber).Msg("failed to set dedup key")
	}

	s.log.Info().
		Str("tracking_number", trackingNumber).
		Str("status", in.Status).
		Msg("carrier event recorded")

	return nil
}
