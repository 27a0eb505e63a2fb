package domain

import (
	"errors"
	"testing"
	"time"
)

func ledger(statuses ...ShipmentStatus) []TrackingEvent {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	out := make([]TrackingEvent, len(statuses))
	for i, s := range statuses {
		out[i] = TrackingEvent{Sequence: int64(i + 1), Status: s, Timestamp: base.Add(time.Duration(i) * time.Hour)}
	}
	return out
}

func TestReplay(t *testing.T) {
	got, err := Replay(nil)
	if err != nil || got != StatusPending {
		t.Fatalf("empty ledger: got %q, %v", got, err)
	}

	got, err = Replay(ledger(StatusConfirmed, StatusPickedUp, StatusInTransit, StatusReturned))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != StatusReturned {
		t.Errorf("got %q, want returned", got)
	}
}

func TestReplay_Gap(t *testing.T) {
	events := ledger(StatusConfirmed, StatusPickedUp, StatusInTransit)
	events[2].Sequence = 4
	if _, err := Replay(events); !errors.Is(err, ErrLedgerCorrupted) {
		t.Fatalf("expected ErrLedgerCorrupted, got %v", err)
	}
}

func TestReplay_Duplicate(t *testing.T) {
	events := ledger(StatusConfirmed, StatusPickedUp)
	events[1].Sequence = 1
	if _, err := Replay(events); !errors.Is(err, ErrLedgerCorrupted) {
		t.Fatalf("expected ErrLedgerCorrupted, got %v", err)
	}
}

func TestReplay_IllegalStep(t *testing.T) {
	if _, err := Replay(ledger(StatusConfirmed, StatusDelivered, StatusInTransit)); !errors.Is(err, ErrLedgerCorrupted) {
		t.Fatalf("expected ErrLedgerCorrupted, got %v", err)
	}
}

func TestCheckConsistency(t *testing.T) {
	events := ledger(StatusConfirmed, StatusPickedUp)
	s := &Shipment{Status: StatusPickedUp, Sequence: 2}
	if err := CheckConsistency(s, events); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Status = StatusInTransit
	if err := CheckConsistency(s, events); !errors.Is(err, ErrLedgerCorrupted) {
		t.Fatalf("status mismatch: expected ErrLedgerCorrupted, got %v", err)
	}

	s.Status = StatusPickedUp
	s.Sequence = 3
	if err := CheckConsistency(s, events); !errors.Is(err, ErrLedgerCorrupted) {
		t.Fatalf("sequence mismatch: expected ErrLedgerCorrupted, got %v", err)
	}
}

func TestSubscriptionMatches(t *testing.T) {
	created := TrackingEvent{Sequence: 1, Status: StatusConfirmed}
	delivered := TrackingEvent{Sequence: 4, Status: StatusDelivered}
	moving := TrackingEvent{Sequence: 2, Status: StatusPickedUp}

	cases := []struct {
		event EventType
		ev    TrackingEvent
		want  bool
	}{
		{EventStatusChanged, created, true},
		{EventStatusChanged, moving, true},
		{EventCreated, created, true},
		{EventCreated, moving, false},
		{EventDelivered, delivered, true},
		{EventDelivered, moving, false},
	}
	for _, tc := range cases {
		sub := &Subscription{Event: tc.event}
		if got := sub.Matches(tc.ev); got != tc.want {
			t.Errorf("%s on %s: got %v, want %v", tc.event, tc.ev.Status, got, tc.want)
		}
	}

	recorded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	moving.RecordedAt = recorded
	older := &Subscription{Event: EventStatusChanged, CreatedAt: recorded.Add(-time.Second)}
	newer := &Subscription{Event: EventStatusChanged, CreatedAt: recorded.Add(time.Second)}
	if !older.Matches(moving) {
		t.Error("subscription older than the transition must match")
	}
	if newer.Matches(moving) {
		t.Error("subscription created after the transition must not match")
	}
}

func TestValidateCallbackURL(t *testing.T) {
	if err := ValidateCallbackURL("https://hooks.example.com/shipping"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, raw := range []string{"http://hooks.example.com", "ftp://x", "https://", "::not a url"} {
		if err := ValidateCallbackURL(raw); !errors.Is(err, ErrInvalidSubscription) {
			t.Errorf("%q: expected ErrInvalidSubscription, got %v", raw, err)
		}
	}
}

func TestNewTaskID_Deterministic(t *testing.T) {
	a := NewTaskID("ship-1", 3, "sub-1")
	if a != NewTaskID("ship-1", 3, "sub-1") {
		t.Fatal("same inputs must produce the same id")
	}
	if a == NewTaskID("ship-1", 4, "sub-1") || a == NewTaskID("ship-1", 3, "sub-2") {
		t.Fatal("different inputs must produce different ids")
	}
}
