package domain

import (
	"errors"
	"testing"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to ShipmentStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusPickedUp, true},
		{StatusPickedUp, StatusInTransit, true},
		{StatusInTransit, StatusOutForDelivery, true},
		{StatusOutForDelivery, StatusDelivered, true},
		// forward skips on the main line
		{StatusConfirmed, StatusInTransit, true},
		{StatusPickedUp, StatusDelivered, true},
		// side branches
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusPickedUp, StatusCancelled, true},
		{StatusInTransit, StatusReturned, true},
		{StatusOutForDelivery, StatusReturned, true},
		{StatusInTransit, StatusCancelled, false},
		{StatusConfirmed, StatusReturned, false},
		// backwards and self loops
		{StatusInTransit, StatusPickedUp, false},
		{StatusConfirmed, StatusConfirmed, false},
		{StatusConfirmed, StatusPending, false},
		{StatusPending, ShipmentStatus("lost"), false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCheckTransition_TerminalRejectsEveryTarget(t *testing.T) {
	for _, from := range []ShipmentStatus{StatusDelivered, StatusCancelled, StatusReturned} {
		for _, to := range AllStatuses() {
			err := from.CheckTransition(to)
			if !errors.Is(err, ErrTerminalState) {
				t.Errorf("%s -> %s: expected ErrTerminalState, got %v", from, to, err)
			}
		}
	}
}

func TestCheckTransition_Invalid(t *testing.T) {
	err := StatusInTransit.CheckTransition(StatusConfirmed)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if errors.Is(err, ErrTerminalState) {
		t.Error("non-terminal source must not report ErrTerminalState")
	}
}

func TestCheckCancellable(t *testing.T) {
	for _, s := range []ShipmentStatus{StatusPending, StatusConfirmed} {
		if err := s.CheckCancellable(); err != nil {
			t.Errorf("%s: expected cancellable, got %v", s, err)
		}
	}

	delivered := StatusDelivered.CheckCancellable()
	inTransit := StatusInTransit.CheckCancellable()

	if !errors.Is(delivered, ErrNotCancellable) || !errors.Is(inTransit, ErrNotCancellable) {
		t.Fatalf("both refusals must match ErrNotCancellable: %v / %v", delivered, inTransit)
	}
	if !errors.Is(delivered, ErrCancelFinalized) || errors.Is(delivered, ErrCancelInTransit) {
		t.Errorf("delivered refusal matched wrong sentinel: %v", delivered)
	}
	if !errors.Is(inTransit, ErrCancelInTransit) || errors.Is(inTransit, ErrCancelFinalized) {
		t.Errorf("in-transit refusal matched wrong sentinel: %v", inTransit)
	}
	if delivered.Error() != "cannot cancel shipment with status: delivered" {
		t.Errorf("unexpected message: %q", delivered.Error())
	}
	if delivered.Error() == inTransit.Error() {
		t.Error("refusal messages must differ")
	}
	for _, s := range []ShipmentStatus{StatusPickedUp, StatusOutForDelivery} {
		if !errors.Is(s.CheckCancellable(), ErrCancelInTransit) {
			t.Errorf("%s: expected ErrCancelInTransit", s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("out_for_delivery"); err != nil || s != StatusOutForDelivery {
		t.Fatalf("got %q, %v", s, err)
	}
	if _, err := ParseStatus("teleported"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAddressLocality(t *testing.T) {
	if got := (Address{City: "Monterrey", State: "NL"}).Locality(); got != "Monterrey, NL" {
		t.Errorf("got %q", got)
	}
	if got := (Address{City: "Monterrey"}).Locality(); got != "Monterrey" {
		t.Errorf("got %q", got)
	}
}
