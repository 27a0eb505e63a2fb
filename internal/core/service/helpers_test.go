package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
	"github.com/99minutos/shipment-lifecycle/internal/infrastructure/db/memory"
)

// ---------------------------------------------------------------------------
// Harness wiring the services over the in-memory store
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type harness struct {
	store     *memory.Store
	shipments ports.ShipmentRepository
	ledger    ports.LedgerRepository
	subs      ports.SubscriptionRepository
	catalog   ports.ServiceTypeRepository
	queue     *memory.TaskQueue
	bus       *EventBus
	lifecycle *LifecycleService
	shipSvc   *ShipmentService
	notifier  *countingNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	h := &harness{
		store:     store,
		shipments: memory.NewShipmentRepository(store),
		ledger:    memory.NewLedgerRepository(store),
		subs:      memory.NewSubscriptionRepository(store),
		catalog:   memory.NewServiceTypeRepository(store),
		queue:     memory.NewTaskQueue(),
		notifier:  &countingNotifier{},
	}
	for _, st := range domain.DefaultCatalog() {
		if err := h.catalog.Upsert(context.Background(), st); err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}
	h.bus = NewEventBus(h.subs, h.ledger, h.queue, nil, h.notifier, discardLogger)
	h.lifecycle = NewLifecycleService(h.shipments, h.ledger, h.bus, discardLogger)
	h.shipSvc = NewShipmentService(h.shipments, h.catalog, h.lifecycle, NewRateEngine(DefaultMaxWeightKg), discardLogger)
	return h
}

func minimalInput(clientID string) ports.CreateShipmentInput {
	return ports.CreateShipmentInput{
		ClientID: clientID,
		Sender: ports.AddressInput{
			Name: "Pedro", Street: "Av 1", City: "CDMX", State: "CDMX", PostalCode: "06600", Country: "MX",
		},
		Receiver: ports.AddressInput{
			Name: "Lucia", Street: "Calle 2", City: "Puebla", State: "PUE", PostalCode: "72000", Country: "MX",
		},
		Package:     ports.PackageInput{WeightKg: 5.5, LengthCm: 30, WidthCm: 20, HeightCm: 10, Description: "books"},
		ServiceCode: "standard",
	}
}

// createConfirmed creates a shipment through the service and returns it in confirmed status.
func (h *harness) createConfirmed(t *testing.T, clientID string) *domain.Shipment {
	t.Helper()
	res, err := h.shipSvc.CreateShipment(context.Background(), minimalInput(clientID))
	if err != nil {
		t.Fatalf("create shipment: %v", err)
	}
	return res.Shipment
}

// advance applies each status in order and fails the test on the first error.
func (h *harness) advance(t *testing.T, shipmentID string, statuses ...domain.ShipmentStatus) *domain.Shipment {
	t.Helper()
	var s *domain.Shipment
	for _, st := range statuses {
		var err error
		s, err = h.lifecycle.ApplyTransition(context.Background(), ports.TransitionInput{ShipmentID: shipmentID, Status: st})
		if err != nil {
			t.Fatalf("transition to %s: %v", st, err)
		}
	}
	return s
}

// corruptLedger appends an entry that skips a sequence number, leaving a
// ledger whose replay fails. Returns the ledger length afterwards.
func (h *harness) corruptLedger(t *testing.T, shipmentID string) int {
	t.Helper()
	ctx := context.Background()
	s, err := h.shipments.FindByID(ctx, shipmentID)
	if err != nil {
		t.Fatalf("find shipment: %v", err)
	}
	err = h.ledger.Append(ctx, ports.AppendInput{
		ShipmentID:       s.ID,
		ExpectedSequence: s.Sequence,
		Event:            domain.TrackingEvent{Sequence: s.Sequence + 2, Status: domain.StatusPickedUp, Timestamp: time.Now().UTC()},
		UpdatedAt:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("append gap entry: %v", err)
	}
	events, _ := h.ledger.History(ctx, s.ID)
	return len(events)
}

func (h *harness) subscribe(t *testing.T, clientID string, event domain.EventType) *domain.Subscription {
	t.Helper()
	sub := &domain.Subscription{
		ID:        clientID + "-" + string(event),
		ClientID:  clientID,
		URL:       "https://hooks.example.com/" + string(event),
		Event:     event,
		Active:    true,
		Secret:    "s3cr3t",
		CreatedAt: time.Now().UTC(),
	}
	if err := h.subs.Create(context.Background(), sub); err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	return sub
}

// drain claims every due task, completing each so the next chain member
// becomes claimable, and returns them in claim order.
func (h *harness) drain(t *testing.T) []*domain.NotificationTask {
	t.Helper()
	ctx := context.Background()
	var out []*domain.NotificationTask
	for {
		batch, err := h.queue.Claim(ctx, time.Now().Add(time.Hour), 100, time.Minute)
		if err != nil {
			t.Fatalf("claim: %v", err)
		}
		if len(batch) == 0 {
			return out
		}
		for _, task := range batch {
			out = append(out, task)
			if err := h.queue.Complete(ctx, task); err != nil {
				t.Fatalf("complete: %v", err)
			}
		}
	}
}

type countingNotifier struct {
	mu sync.Mutex
	n  int
}

func (c *countingNotifier) Trigger() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
