package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
	"github.com/99minutos/shipment-lifecycle/internal/pkg/metrics"
)

// maxAppendAttempts bounds how often a transition is re-validated after losing
// a sequence race against another writer or drawing a taken tracking number.
const maxAppendAttempts = 4

const trackingNumberPrefix = "SHP"

// LifecycleService applies status transitions and guards the tracking ledger.
//
// Transitions on one shipment are serialized by an in-process keyed mutex;
// writers in other processes are fenced by the ledger's compare-and-swap on
// the sequence number. Every transition replays the ledger first, and a
// shipment whose ledger disagrees with its cache is quarantined in storage,
// so the halt holds across restarts and replicas.
type LifecycleService struct {
	shipments ports.ShipmentRepository
	ledger    ports.LedgerRepository
	publisher ports.EventPublisher
	locks     *keyedMutex

	now               func() time.Time
	newTrackingNumber func() string
	log               zerolog.Logger
}

// NewLifecycleService returns a LifecycleService implementation.
func NewLifecycleService(
	shipments ports.ShipmentRepository,
	ledger ports.LedgerRepository,
	publisher ports.EventPublisher,
	log zerolog.Logger,
) *LifecycleService {
	return &LifecycleService{
		shipments:         shipments,
		ledger:            ledger,
		publisher:         publisher,
		locks:             newKeyedMutex(),
		now:               func() time.Time { return time.Now().UTC() },
		newTrackingNumber: randomTrackingNumber,
		log:               log,
	}
}

// randomTrackingNumber returns "SHP" followed by 12 random digits.
func randomTrackingNumber() string {
	var b strings.Builder
	b.Grow(len(trackingNumberPrefix) + 12)
	b.WriteString(trackingNumberPrefix)
	for range 12 {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}

// transitionGuard runs inside the shipment lock against freshly loaded state.
type transitionGuard func(*domain.Shipment) error

// ApplyTransition validates the requested status against the graph and, on
// success, appends the ledger entry and publishes it.
func (s *LifecycleService) ApplyTransition(ctx context.Context, in ports.TransitionInput) (*domain.Shipment, error) {
	return s.transition(ctx, in, nil)
}

func (s *LifecycleService) transition(ctx context.Context, in ports.TransitionInput, guard transitionGuard) (*domain.Shipment, error) {
	if !in.Status.Valid() {
		metrics.TransitionsRejectedTotal.WithLabelValues("invalid_transition").Inc()
		return nil, fmt.Errorf("apply transition: %w: unknown status %q", domain.ErrInvalidTransition, in.Status)
	}

	unlock := s.locks.Lock(in.ShipmentID)
	defer unlock()

	for attempt := 1; ; attempt++ {
		shipment, err := s.loadChecked(ctx, in.ShipmentID)
		if err != nil {
			if errors.Is(err, domain.ErrLedgerCorrupted) {
				metrics.TransitionsRejectedTotal.WithLabelValues("quarantined").Inc()
			}
			return nil, fmt.Errorf("apply transition: %w", err)
		}
		if guard != nil {
			if err := guard(shipment); err != nil {
				return nil, fmt.Errorf("apply transition: %w", err)
			}
		}
		if err := shipment.Status.CheckTransition(in.Status); err != nil {
			reason := "invalid_transition"
			if errors.Is(err, domain.ErrTerminalState) {
				reason = "terminal_state"
			}
			metrics.TransitionsRejectedTotal.WithLabelValues(reason).Inc()
			return nil, fmt.Errorf("apply transition: %w", err)
		}

		now := s.now()
		ts := in.Timestamp
		if ts.IsZero() {
			ts = now
		}
		event := domain.TrackingEvent{
			Sequence:    shipment.Sequence + 1,
			Status:      in.Status,
			Description: in.Description,
			Location:    in.Location,
			Timestamp:   ts.UTC(),
			RecordedAt:  now,
		}
		req := ports.AppendInput{
			ShipmentID:       shipment.ID,
			ExpectedSequence: shipment.Sequence,
			Event:            event,
			UpdatedAt:        now,
		}
		if shipment.TrackingNumber == "" && in.Status != domain.StatusCancelled {
			req.TrackingNumber = s.newTrackingNumber()
		}

		err = s.ledger.Append(ctx, req)
		retryable := errors.Is(err, domain.ErrSequenceConflict) ||
			(req.TrackingNumber != "" && errors.Is(err, domain.ErrDuplicateShipment))
		if err != nil {
			if retryable && attempt < maxAppendAttempts {
				s.log.Debug().Err(err).
					Str("shipment_id", shipment.ID).
					Int("attempt", attempt).
					Msg("ledger append lost a race, re-validating")
				continue
			}
			if retryable {
				metrics.TransitionsRejectedTotal.WithLabelValues("conflict").Inc()
			}
			return nil, fmt.Errorf("apply transition: append: %w", err)
		}

		prev := shipment.Status
		shipment.Status = event.Status
		shipment.Sequence = event.Sequence
		shipment.UpdatedAt = now
		if req.TrackingNumber != "" {
			shipment.TrackingNumber = req.TrackingNumber
		}
		metrics.TransitionsTotal.WithLabelValues(string(event.Status)).Inc()

		s.log.Info().
			Str("shipment_id", shipment.ID).
			Str("tracking_number", shipment.TrackingNumber).
			Str("from", string(prev)).
			Str("to", string(event.Status)).
			Int64("sequence", event.Sequence).
			Msg("transition applied")

		// The entry stays unpublished on failure; the outbox relay picks it up.
		if err := s.publisher.PublishPending(ctx, shipment); err != nil {
			s.log.Warn().Err(err).
				Str("shipment_id", shipment.ID).
				Int64("sequence", event.Sequence).
				Msg("publish failed, left for outbox relay")
		}
		return shipment, nil
	}
}

// History returns the ledger oldest-first.
func (s *LifecycleService) History(ctx context.Context, shipmentID string) ([]domain.TrackingEvent, error) {
	_, events, err := s.ledger.Load(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return events, nil
}

// VerifyConsistency replays the ledger and compares it with the cached status.
// A mismatch quarantines the shipment until an operator intervenes.
func (s *LifecycleService) VerifyConsistency(ctx context.Context, shipmentID string) error {
	unlock := s.locks.Lock(shipmentID)
	defer unlock()

	if _, err := s.loadChecked(ctx, shipmentID); err != nil {
		return fmt.Errorf("verify consistency: %w", err)
	}
	return nil
}

// snapshot loads a shipment and its ledger from one read and checks them
// against each other. The single read keeps a concurrent transition from
// showing up as a mismatch.
func (s *LifecycleService) snapshot(ctx context.Context, shipmentID string) (*domain.Shipment, []domain.TrackingEvent, error) {
	shipment, events, err := s.ledger.Load(ctx, shipmentID)
	if err != nil {
		return nil, nil, err
	}
	if shipment.Quarantined {
		return nil, nil, fmt.Errorf("%w: shipment %s is quarantined", domain.ErrLedgerCorrupted, shipmentID)
	}
	if err := s.checkLedger(ctx, shipment, events); err != nil {
		return nil, nil, err
	}
	return shipment, events, nil
}

func (s *LifecycleService) loadChecked(ctx context.Context, shipmentID string) (*domain.Shipment, error) {
	shipment, _, err := s.snapshot(ctx, shipmentID)
	return shipment, err
}

// checkLedger quarantines the shipment when events disagree with its cache.
func (s *LifecycleService) checkLedger(ctx context.Context, shipment *domain.Shipment, events []domain.TrackingEvent) error {
	err := domain.CheckConsistency(shipment, events)
	if err == nil {
		return nil
	}
	metrics.LedgerCorruptionsTotal.Inc()
	log := s.log.Error().Err(err).
		Str("shipment_id", shipment.ID).
		Str("tracking_number", shipment.TrackingNumber)
	if qerr := s.ledger.Quarantine(ctx, shipment.ID); qerr != nil {
		log.AnErr("quarantine_error", qerr).Msg("tracking ledger inconsistent, quarantine not persisted")
		return err
	}
	log.Msg("tracking ledger inconsistent, shipment quarantined")
	return err
}

// RelayPending re-publishes unpublished ledger entries for up to limit
// shipments and returns how many shipments were fully published.
func (s *LifecycleService) RelayPending(ctx context.Context, limit int) (int, error) {
	ids, err := s.ledger.ListUnpublished(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("relay pending: %w", err)
	}

	relayed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return relayed, ctx.Err()
		}
		if s.relayOne(ctx, id) {
			relayed++
		}
	}
	return relayed, nil
}

func (s *LifecycleService) relayOne(ctx context.Context, shipmentID string) bool {
	unlock := s.locks.Lock(shipmentID)
	defer unlock()

	shipment, err := s.shipments.FindByID(ctx, shipmentID)
	if err != nil {
		s.log.Warn().Err(err).Str("shipment_id", shipmentID).Msg("relay: load shipment failed")
		return false
	}
	if err := s.publisher.PublishPending(ctx, shipment); err != nil {
		s.log.Warn().Err(err).Str("shipment_id", shipmentID).Msg("relay: publish failed")
		return false
	}
	metrics.OutboxRelayedTotal.Inc()
	return true
}
