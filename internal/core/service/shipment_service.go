package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
	"github.com/99minutos/shipment-lifecycle/internal/pkg/metrics"
)

const (
	createdDescription   = "Shipment created and confirmed."
	cancelledDescription = "Shipment cancelled by customer."
)

type ShipmentService struct {
	repo      ports.ShipmentRepository
	catalog   ports.ServiceTypeRepository
	lifecycle *LifecycleService
	engine    RateEngine
	now       func() time.Time
	logger    zerolog.Logger
}

func NewShipmentService(
	repo ports.ShipmentRepository,
	catalog ports.ServiceTypeRepository,
	lifecycle *LifecycleService,
	engine RateEngine,
	logger zerolog.Logger,
) *ShipmentService {
	return &ShipmentService{
		repo:      repo,
		catalog:   catalog,
		lifecycle: lifecycle,
		engine:    engine,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// CreateShipment quotes the chosen service, stores the shipment as pending and
// confirms it, which assigns the tracking number. If an idempotency key is
// provided and already seen, the previously created shipment is returned; a
// replay of a create whose confirm step failed finishes the confirm first.
func (s *ShipmentService) CreateShipment(ctx context.Context, input ports.CreateShipmentInput) (*ports.ShipmentResult, error) {
	if input.IdempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, input.ClientID, input.IdempotencyKey)
		switch {
		case err == nil:
			return s.replay(ctx, existing)
		case !errors.Is(err, domain.ErrShipmentNotFound):
			return nil, fmt.Errorf("create shipment: %w", err)
		}
	}

	st, err := s.catalog.FindByCode(ctx, input.ServiceCode)
	if err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	if !st.Active {
		return nil, fmt.Errorf("create shipment: %w: %s is not active", domain.ErrServiceTypeNotFound, st.Code)
	}

	now := s.now()
	rates, err := s.engine.Quote([]domain.ServiceType{*st}, ports.RateRequest{
		Origin:      input.Sender,
		Destination: input.Receiver,
		Package:     input.Package,
	}, now)
	if err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	rate := rates[0]

	shipment := &domain.Shipment{
		ID:              uuid.NewString(),
		ReferenceNumber: strings.TrimSpace(input.ReferenceNumber),
		ClientID:        input.ClientID,
		Sender:          toAddress(input.Sender),
		Receiver:        toAddress(input.Receiver),
		Package: domain.Package{
			WeightKg:    input.Package.WeightKg,
			LengthCm:    input.Package.LengthCm,
			WidthCm:     input.Package.WidthCm,
			HeightCm:    input.Package.HeightCm,
			Description: input.Package.Description,
		},
		Service:    st.Snapshot(),
		QuotedCost: rate.Cost,
		EstimatedDelivery: domain.DeliveryWindow{
			Min: rate.EstimatedDeliveryMin,
			Max: rate.EstimatedDeliveryMax,
		},
		Status:         domain.StatusPending,
		IdempotencyKey: input.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, shipment); err != nil {
		if input.IdempotencyKey != "" && errors.Is(err, domain.ErrDuplicateShipment) {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, input.ClientID, input.IdempotencyKey)
			if findErr == nil {
				return s.replay(ctx, existing)
			}
		}
		s.logger.Error().Err(err).Msg("failed to create shipment")
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	metrics.ShipmentsCreatedTotal.WithLabelValues(st.Code).Inc()

	confirmed, err := s.confirm(ctx, shipment, now)
	if err != nil {
		s.logger.Error().Err(err).Str("shipment_id", shipment.ID).Msg("shipment stored but not confirmed")
		return nil, fmt.Errorf("create shipment: confirm: %w", err)
	}

	s.logger.Info().
		Str("shipment_id", confirmed.ID).
		Str("tracking_number", confirmed.TrackingNumber).
		Str("client_id", input.ClientID).
		Str("service", st.Code).
		Msg("shipment created")

	return &ports.ShipmentResult{Shipment: confirmed}, nil
}

func (s *ShipmentService) confirm(ctx context.Context, shipment *domain.Shipment, at time.Time) (*domain.Shipment, error) {
	return s.lifecycle.ApplyTransition(ctx, ports.TransitionInput{
		ShipmentID:  shipment.ID,
		Status:      domain.StatusConfirmed,
		Description: createdDescription,
		Location:    shipment.Sender.Locality(),
		Timestamp:   at,
	})
}

// replay answers a repeated create. A shipment still pending with an empty
// ledger was stored by an attempt whose confirm failed, so it is confirmed
// now. Losing that race to a concurrent replay is fine: the winner's result
// is read back.
func (s *ShipmentService) replay(ctx context.Context, existing *domain.Shipment) (*ports.ShipmentResult, error) {
	log := s.logger.With().Str("shipment_id", existing.ID).Str("idempotency_key", existing.IdempotencyKey).Logger()
	if existing.Status != domain.StatusPending || existing.Sequence != 0 {
		log.Info().Msg("idempotent replay")
		return &ports.ShipmentResult{Shipment: existing, AlreadyExisted: true}, nil
	}

	confirmed, err := s.confirm(ctx, existing, s.now())
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidTransition) && !errors.Is(err, domain.ErrTerminalState) {
			return nil, fmt.Errorf("create shipment: confirm: %w", err)
		}
		if confirmed, err = s.repo.FindByID(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("create shipment: %w", err)
		}
	}
	log.Info().Str("tracking_number", confirmed.TrackingNumber).Msg("idempotent replay completed pending shipment")
	return &ports.ShipmentResult{Shipment: confirmed, AlreadyExisted: true}, nil
}

// GetShipment returns a shipment. Clients asking for another client's
// shipment get ErrShipmentNotFound so ids cannot be probed.
func (s *ShipmentService) GetShipment(ctx context.Context, input ports.GetShipmentInput) (*domain.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, input.ShipmentID)
	if err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	if !canAccess(input.Role, input.ClientID, shipment.ClientID) {
		return nil, fmt.Errorf("get shipment: %w", domain.ErrShipmentNotFound)
	}
	return shipment, nil
}

// CancelShipment moves a pending or confirmed shipment to cancelled.
func (s *ShipmentService) CancelShipment(ctx context.Context, input ports.CancelShipmentInput) (*domain.Shipment, error) {
	description := cancelledDescription
	if reason := strings.TrimSpace(input.Reason); reason != "" {
		description += " Reason: " + reason
	}

	guard := func(shipment *domain.Shipment) error {
		if !canAccess(input.Role, input.ClientID, shipment.ClientID) {
			return domain.ErrShipmentNotFound
		}
		return shipment.Status.CheckCancellable()
	}

	shipment, err := s.lifecycle.transition(ctx, ports.TransitionInput{
		ShipmentID:  input.ShipmentID,
		Status:      domain.StatusCancelled,
		Description: description,
	}, guard)
	if err != nil {
		return nil, fmt.Errorf("cancel shipment: %w", err)
	}

	s.logger.Info().Str("shipment_id", shipment.ID).Str("client_id", input.ClientID).Msg("shipment cancelled")
	return shipment, nil
}

// Track builds the public tracking view, most recent event first. The
// tracking number only resolves the id; status and history come from one
// snapshot read.
func (s *ShipmentService) Track(ctx context.Context, trackingNumber string) (*ports.TrackingView, error) {
	found, err := s.repo.FindByTrackingNumber(ctx, strings.ToUpper(strings.TrimSpace(trackingNumber)))
	if err != nil {
		return nil, fmt.Errorf("track: %w", err)
	}
	shipment, events, err := s.lifecycle.snapshot(ctx, found.ID)
	if err != nil {
		return nil, fmt.Errorf("track: %w", err)
	}

	view := &ports.TrackingView{
		TrackingNumber:        shipment.TrackingNumber,
		CurrentStatus:         string(shipment.Status),
		LastUpdate:            shipment.UpdatedAt,
		ReferenceNumber:       shipment.ReferenceNumber,
		EstimatedDeliveryDate: shipment.EstimatedDelivery.Max,
		History:               make([]ports.TrackingHistoryItem, 0, len(events)),
	}
	if n := len(events); n > 0 {
		view.LastUpdate = events[n-1].Timestamp
	}
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		view.History = append(view.History, ports.TrackingHistoryItem{
			Status:      string(ev.Status),
			Description: ev.Description,
			Location:    ev.Location,
			Timestamp:   ev.Timestamp,
		})
	}
	return view, nil
}

func canAccess(role, callerClientID, ownerClientID string) bool {
	return role == domain.RoleAdmin || callerClientID == ownerClientID
}

func toAddress(in ports.AddressInput) domain.Address {
	return domain.Address{
		Name:       in.Name,
		Company:    in.Company,
		Street:     in.Street,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
		Country:    in.Country,
		Phone:      in.Phone,
		Email:      in.Email,
	}
}
