package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

// flakyLedger injects failures in front of a real ledger.
type flakyLedger struct {
	ports.LedgerRepository
	conflicts     int32 // Append returns ErrSequenceConflict this many times
	appendErr     error // then appendErr, failAppends times
	failAppends   int32
	markErr       error
	appendCalls   atomic.Int32
	markPublished atomic.Int32
}

func (l *flakyLedger) Append(ctx context.Context, in ports.AppendInput) error {
	l.appendCalls.Add(1)
	if atomic.AddInt32(&l.conflicts, -1) >= 0 {
		return domain.ErrSequenceConflict
	}
	if atomic.AddInt32(&l.failAppends, -1) >= 0 {
		return l.appendErr
	}
	return l.LedgerRepository.Append(ctx, in)
}

func (l *flakyLedger) MarkPublished(ctx context.Context, shipmentID string, seq int64) error {
	if l.markErr != nil {
		return l.markErr
	}
	l.markPublished.Add(1)
	return l.LedgerRepository.MarkPublished(ctx, shipmentID, seq)
}

// ---------------------------------------------------------------------------
// ApplyTransition
// ---------------------------------------------------------------------------

func TestApplyTransition_AppendsAndPublishes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.subscribe(t, "client-1", domain.EventStatusChanged)
	s := h.createConfirmed(t, "client-1")

	got, err := h.lifecycle.ApplyTransition(ctx, ports.TransitionInput{
		ShipmentID:  s.ID,
		Status:      domain.StatusPickedUp,
		Description: "Picked up by driver",
		Location:    "CDMX, CDMX",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.StatusPickedUp || got.Sequence != 2 {
		t.Errorf("got status %s seq %d, want picked_up seq 2", got.Status, got.Sequence)
	}

	events, err := h.lifecycle.History(ctx, s.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(events))
	}
	last := events[1]
	if last.Sequence != 2 || last.Description != "Picked up by driver" || last.Location != "CDMX, CDMX" {
		t.Errorf("unexpected entry: %+v", last)
	}
	for _, ev := range events {
		if !ev.Published {
			t.Errorf("sequence %d not marked published", ev.Sequence)
		}
	}

	tasks := h.drain(t)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks (created + picked up), got %d", len(tasks))
	}
	if tasks[0].Sequence != 1 || tasks[1].Sequence != 2 {
		t.Errorf("tasks out of order: %d, %d", tasks[0].Sequence, tasks[1].Sequence)
	}
	if tasks[1].NewStatus != domain.StatusPickedUp || tasks[1].TrackingNumber != s.TrackingNumber {
		t.Errorf("unexpected task: %+v", tasks[1])
	}
	if h.notifier.count() == 0 {
		t.Error("dispatcher was not notified")
	}
}

func TestApplyTransition_TerminalRejectsEveryTargetWithoutMutation(t *testing.T) {
	paths := map[domain.ShipmentStatus][]domain.ShipmentStatus{
		domain.StatusDelivered: {domain.StatusPickedUp, domain.StatusInTransit, domain.StatusOutForDelivery, domain.StatusDelivered},
		domain.StatusCancelled: {domain.StatusCancelled},
		domain.StatusReturned:  {domain.StatusInTransit, domain.StatusReturned},
	}

	for terminal, path := range paths {
		t.Run(string(terminal), func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			s := h.createConfirmed(t, "client-1")
			h.advance(t, s.ID, path...)

			before, _ := h.ledger.History(ctx, s.ID)
			for _, target := range domain.AllStatuses() {
				_, err := h.lifecycle.ApplyTransition(ctx, ports.TransitionInput{ShipmentID: s.ID, Status: target})
				if !errors.Is(err, domain.ErrTerminalState) {
					t.Errorf("%s -> %s: expected ErrTerminalState, got %v", terminal, target, err)
				}
			}
			after, _ := h.ledger.History(ctx, s.ID)
			if len(after) != len(before) {
				t.Errorf("ledger grew from %d to %d entries", len(before), len(after))
			}
		})
	}
}

func TestApplyTransition_InvalidTransition(t *testing.T) {
	h := newHarness(t)
	s := h.createConfirmed(t, "client-1")
	h.advance(t, s.ID, domain.StatusInTransit)

	_, err := h.lifecycle.ApplyTransition(context.Background(), ports.TransitionInput{ShipmentID: s.ID, Status: domain.StatusPickedUp})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	_, err = h.lifecycle.ApplyTransition(context.Background(), ports.TransitionInput{ShipmentID: s.ID, Status: "lost"})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("unknown status: expected ErrInvalidTransition, got %v", err)
	}
}

func TestApplyTransition_NotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.lifecycle.ApplyTransition(context.Background(), ports.TransitionInput{ShipmentID: "missing", Status: domain.StatusPickedUp})
	if !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Fatalf("expected ErrShipmentNotFound, got %v", err)
	}
}

func TestApplyTransition_ConcurrentExactlyOneWins(t *testing.T) {
	h := newHarness(t)
	s := h.createConfirmed(t, "client-1")

	const writers = 32
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		rejected  atomic.Int32
	)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.lifecycle.ApplyTransition(context.Background(), ports.TransitionInput{ShipmentID: s.ID, Status: domain.StatusPickedUp})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, domain.ErrInvalidTransition):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes.Load() != 1 || rejected.Load() != writers-1 {
		t.Fatalf("successes=%d rejected=%d", successes.Load(), rejected.Load())
	}

	events, _ := h.ledger.History(context.Background(), s.ID)
	if len(events) != 2 {
		t.Fatalf("expected gapless ledger of 2, got %d", len(events))
	}
	for i, ev := range events {
		if ev.Sequence != int64(i+1) {
			t.Errorf("entry %d has sequence %d", i, ev.Sequence)
		}
	}
	if n := h.lifecycle.locks.size(); n != 0 {
		t.Errorf("keyed mutex leaked %d entries", n)
	}
}

func TestApplyTransition_ConcurrentShipmentsProgressIndependently(t *testing.T) {
	h := newHarness(t)
	const shipments = 8
	ids := make([]string, shipments)
	for i := range ids {
		ids[i] = h.createConfirmed(t, "client-1").ID
	}

	path := []domain.ShipmentStatus{domain.StatusPickedUp, domain.StatusInTransit, domain.StatusOutForDelivery, domain.StatusDelivered}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for _, st := range path {
				if _, err := h.lifecycle.ApplyTransition(context.Background(), ports.TransitionInput{ShipmentID: id, Status: st}); err != nil {
					t.Errorf("%s -> %s: %v", id, st, err)
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		if err := h.lifecycle.VerifyConsistency(context.Background(), id); err != nil {
			t.Errorf("%s: %v", id, err)
		}
	}
}

func TestApplyTransition_RetriesAfterSequenceConflict(t *testing.T) {
	h := newHarness(t)
	s := h.createConfirmed(t, "client-1")

	flaky := &flakyLedger{LedgerRepository: h.ledger, conflicts: 2}
	lc := NewLifecycleService(h.shipments, flaky, NewEventBus(h.subs, flaky, h.queue, nil, nil, discardLogger), discardLogger)

	got, err := lc.ApplyTransition(context.Background(), ports.TransitionInput{ShipmentID: s.ID, Status: domain.StatusPickedUp})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sequence != 2 {
		t.Errorf("got sequence %d, want 2", got.Sequence)
	}
	if calls := flaky.appendCalls.Load(); calls != 3 {
		t.Errorf("expected 3 append calls, got %d", calls)
	}
}

func TestApplyTransition_GivesUpAfterRepeatedConflicts(t *testing.T) {
	h := newHarness(t)
	s := h.createConfirmed(t, "client-1")

	flaky := &flakyLedger{LedgerRepository: h.ledger, conflicts: 100}
	lc := NewLifecycleService(h.shipments, flaky, h.bus, discardLogger)

	_, err := lc.ApplyTransition(context.Background(), ports.TransitionInput{ShipmentID: s.ID, Status: domain.StatusPickedUp})
	if !errors.Is(err, domain.ErrSequenceConflict) {
		t.Fatalf("expected ErrSequenceConflict, got %v", err)
	}
	if calls := flaky.appendCalls.Load(); calls != maxAppendAttempts {
		t.Errorf("expected %d append calls, got %d", maxAppendAttempts, calls)
	}
}

// ---------------------------------------------------------------------------
// Outbox
// ---------------------------------------------------------------------------

func TestApplyTransition_PublishFailureIsRelayedLater(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.subscribe(t, "client-1", domain.EventStatusChanged)
	s := h.createConfirmed(t, "client-1")
	h.drain(t)

	flaky := &flakyLedger{LedgerRepository: h.ledger, markErr: errors.New("mongo unavailable")}
	bus := NewEventBus(h.subs, flaky, h.queue, nil, nil, discardLogger)
	lc := NewLifecycleService(h.shipments, flaky, bus, discardLogger)

	if _, err := lc.ApplyTransition(ctx, ports.TransitionInput{ShipmentID: s.ID, Status: domain.StatusPickedUp}); err != nil {
		t.Fatalf("transition must succeed when publishing fails: %v", err)
	}

	pending, err := h.ledger.ListUnpublished(ctx, 10)
	if err != nil || len(pending) != 1 || pending[0] != s.ID {
		t.Fatalf("expected shipment in outbox, got %v, %v", pending, err)
	}

	relayed, err := h.lifecycle.RelayPending(ctx, 10)
	if err != nil || relayed != 1 {
		t.Fatalf("relay: relayed=%d err=%v", relayed, err)
	}
	pending, _ = h.ledger.ListUnpublished(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("outbox not drained: %v", pending)
	}

	tasks := h.drain(t)
	if len(tasks) != 1 || tasks[0].Sequence != 2 {
		t.Fatalf("expected one task for sequence 2 after dedup, got %d", len(tasks))
	}
}

// ---------------------------------------------------------------------------
// Consistency
// ---------------------------------------------------------------------------

func TestVerifyConsistency_ReplayMatchesCache(t *testing.T) {
	h := newHarness(t)
	s := h.createConfirmed(t, "client-1")
	h.advance(t, s.ID, domain.StatusInTransit, domain.StatusReturned)

	if err := h.lifecycle.VerifyConsistency(context.Background(), s.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, _ := h.ledger.History(context.Background(), s.ID)
	status, err := domain.Replay(events)
	if err != nil || status != domain.StatusReturned {
		t.Fatalf("replay: %s, %v", status, err)
	}
}

func TestVerifyConsistency_QuarantinesCorruptedShipment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.createConfirmed(t, "client-1")
	entries := h.corruptLedger(t, s.ID)

	if err := h.lifecycle.VerifyConsistency(ctx, s.ID); !errors.Is(err, domain.ErrLedgerCorrupted) {
		t.Fatalf("expected ErrLedgerCorrupted, got %v", err)
	}

	_, err := h.lifecycle.ApplyTransition(ctx, ports.TransitionInput{ShipmentID: s.ID, Status: domain.StatusOutForDelivery})
	if !errors.Is(err, domain.ErrLedgerCorrupted) {
		t.Fatalf("quarantined shipment accepted a transition: %v", err)
	}

	events, _ := h.ledger.History(ctx, s.ID)
	if len(events) != entries {
		t.Errorf("ledger must not be repaired or extended, got %d entries, want %d", len(events), entries)
	}
}

func TestApplyTransition_DetectsCorruptionBeforeAppending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.createConfirmed(t, "client-1")
	entries := h.corruptLedger(t, s.ID)

	_, err := h.lifecycle.ApplyTransition(ctx, ports.TransitionInput{ShipmentID: s.ID, Status: domain.StatusInTransit})
	if !errors.Is(err, domain.ErrLedgerCorrupted) {
		t.Fatalf("expected ErrLedgerCorrupted, got %v", err)
	}
	stored, _ := h.shipments.FindByID(ctx, s.ID)
	if !stored.Quarantined {
		t.Error("transition over a corrupted ledger must quarantine the shipment")
	}
	if events, _ := h.ledger.History(ctx, s.ID); len(events) != entries {
		t.Errorf("ledger extended to %d entries, want %d", len(events), entries)
	}
}

func TestQuarantine_SurvivesRestart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.createConfirmed(t, "client-1")
	entries := h.corruptLedger(t, s.ID)

	if err := h.lifecycle.VerifyConsistency(ctx, s.ID); !errors.Is(err, domain.ErrLedgerCorrupted) {
		t.Fatalf("expected ErrLedgerCorrupted, got %v", err)
	}

	// each service below starts with no memory of the earlier check
	for i := range 2 {
		lc := NewLifecycleService(h.shipments, h.ledger, h.bus, discardLogger)
		_, err := lc.ApplyTransition(ctx, ports.TransitionInput{ShipmentID: s.ID, Status: domain.StatusOutForDelivery})
		if !errors.Is(err, domain.ErrLedgerCorrupted) {
			t.Fatalf("restart %d: quarantined shipment accepted a transition: %v", i, err)
		}
		svc := NewShipmentService(h.shipments, h.catalog, lc, NewRateEngine(DefaultMaxWeightKg), discardLogger)
		if _, err := svc.Track(ctx, s.TrackingNumber); !errors.Is(err, domain.ErrLedgerCorrupted) {
			t.Fatalf("restart %d: quarantined shipment tracked: %v", i, err)
		}
	}

	// the store fences appends on its own
	err := h.ledger.Append(ctx, ports.AppendInput{
		ShipmentID:       s.ID,
		ExpectedSequence: int64(entries) + 1,
		Event:            domain.TrackingEvent{Sequence: int64(entries) + 2, Status: domain.StatusInTransit},
	})
	if !errors.Is(err, domain.ErrLedgerCorrupted) {
		t.Fatalf("direct append on quarantined shipment: %v", err)
	}
	if events, _ := h.ledger.History(ctx, s.ID); len(events) != entries {
		t.Errorf("ledger extended to %d entries, want %d", len(events), entries)
	}
}

func TestRandomTrackingNumber(t *testing.T) {
	tn := randomTrackingNumber()
	if len(tn) != 15 || tn[:3] != "SHP" {
		t.Fatalf("unexpected tracking number %q", tn)
	}
	for _, r := range tn[3:] {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit in %q", tn)
		}
	}
}
