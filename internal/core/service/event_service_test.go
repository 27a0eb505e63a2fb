package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubDedup struct {
	dupResult bool
	dupErr    error
	markErr   error
	marked    []string
}

func (d *stubDedup) IsDuplicate(_ context.Context, tracking, status string, _ time.Time) (bool, error) {
	return d.dupResult, d.dupErr
}

func (d *stubDedup) Mark(_ context.Context, tracking, status string, _ time.Time) error {
	if d.markErr != nil {
		return d.markErr
	}
	d.marked = append(d.marked, tracking+":"+status)
	return nil
}

func newEventSvc(h *harness, dedup *stubDedup) ports.EventService {
	return NewEventService(h.shipments, h.lifecycle, dedup, discardLogger)
}

var scanTime = time.Date(2026, 4, 2, 14, 30, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRecordCarrierEvent_AppliesTransition(t *testing.T) {
	h := newHarness(t)
	s := h.createConfirmed(t, "client-1")
	dedup := &stubDedup{}

	err := newEventSvc(h, dedup).RecordCarrierEvent(context.Background(), ports.CarrierEventInput{
		TrackingNumber: s.TrackingNumber,
		Status:         "picked_up",
		Location:       "Monterrey, NL",
		Description:    "Package picked up",
		Timestamp:      scanTime,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, _ := h.ledger.History(context.Background(), s.ID)
	last := events[len(events)-1]
	if last.Status != domain.StatusPickedUp || !last.Timestamp.Equal(scanTime) || last.Location != "Monterrey, NL" {
		t.Errorf("unexpected entry %+v", last)
	}
	if len(dedup.marked) != 1 || dedup.marked[0] != s.TrackingNumber+":picked_up" {
		t.Errorf("dedup marks = %v", dedup.marked)
	}
}

func TestRecordCarrierEvent_DuplicateIsNoop(t *testing.T) {
	h := newHarness(t)
	s := h.createConfirmed(t, "client-1")

	err := newEventSvc(h, &stubDedup{dupResult: true}).RecordCarrierEvent(context.Background(), ports.CarrierEventInput{
		TrackingNumber: s.TrackingNumber, Status: "picked_up", Timestamp: scanTime,
	})
	if err != nil {
		t.Fatalf("duplicate must succeed silently, got %v", err)
	}
	events, _ := h.ledger.History(context.Background(), s.ID)
	if len(events) != 1 {
		t.Errorf("duplicate appended to ledger: %d entries", len(events))
	}
}

func TestRecordCarrierEvent_DedupErrorProcessesAnyway(t *testing.T) {
	h := newHarness(t)
	s := h.createConfirmed(t, "client-1")

	err := newEventSvc(h, &stubDedup{dupErr: errors.New("redis timeout")}).RecordCarrierEvent(context.Background(), ports.CarrierEventInput{
		TrackingNumber: s.TrackingNumber, Status: "in_transit", Timestamp: scanTime,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecordCarrierEvent_InvalidTransitionIsNotMarked(t *testing.T) {
	h := newHarness(t)
	s := h.createConfirmed(t, "client-1")
	h.advance(t, s.ID, domain.StatusInTransit)
	dedup := &stubDedup{}

	err := newEventSvc(h, dedup).RecordCarrierEvent(context.Background(), ports.CarrierEventInput{
		TrackingNumber: s.TrackingNumber, Status: "picked_up", Timestamp: scanTime,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if len(dedup.marked) != 0 {
		t.Errorf("rejected event was marked: %v", dedup.marked)
	}
}

func TestRecordCarrierEvent_UnknownStatus(t *testing.T) {
	h := newHarness(t)
	s := h.createConfirmed(t, "client-1")

	err := newEventSvc(h, &stubDedup{}).RecordCarrierEvent(context.Background(), ports.CarrierEventInput{
		TrackingNumber: s.TrackingNumber, Status: "vaporized", Timestamp: scanTime,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRecordCarrierEvent_ShipmentNotFound(t *testing.T) {
	h := newHarness(t)
	err := newEventSvc(h, &stubDedup{}).RecordCarrierEvent(context.Background(), ports.CarrierEventInput{
		TrackingNumber: "SHP999999999999", Status: "picked_up", Timestamp: scanTime,
	})
	if !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Fatalf("expected ErrShipmentNotFound, got %v", err)
	}
}

func TestRecordCarrierEvent_TerminalShipment(t *testing.T) {
	h := newHarness(t)
	s := h.createConfirmed(t, "client-1")
	h.advance(t, s.ID, domain.StatusDelivered)

	err := newEventSvc(h, &stubDedup{}).RecordCarrierEvent(context.Background(), ports.CarrierEventInput{
		TrackingNumber: s.TrackingNumber, Status: "returned", Timestamp: scanTime,
	})
	if !errors.Is(err, domain.ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
}
