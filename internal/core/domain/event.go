package domain

import (
	"fmt"
	"time"
)

// TrackingEvent is one entry of a shipment's append-only ledger.
type TrackingEvent struct {
	Sequence    int64          `json:"sequence" bson:"sequence"`
	Status      ShipmentStatus `json:"status" bson:"status"`
	Description string         `json:"description,omitempty" bson:"description,omitempty"`
	Location    string         `json:"location,omitempty" bson:"location,omitempty"`
	Timestamp   time.Time      `json:"timestamp" bson:"timestamp"`
	// RecordedAt is when the transition was accepted. Timestamp is the
	// carrier's clock and may lie in the past.
	RecordedAt time.Time `json:"recorded_at" bson:"recorded_at"`
	// Published is cleared until the transition has been fanned out to subscribers.
	Published bool `json:"-" bson:"published"`
}

// Replay rebuilds the status implied by an oldest-first ledger. An empty
// ledger yields StatusPending. Gaps, duplicates or illegal steps are reported
// as ErrLedgerCorrupted.
func Replay(events []TrackingEvent) (ShipmentStatus, error) {
	status := StatusPending
	for i, ev := range events {
		want := int64(i + 1)
		if ev.Sequence != want {
			return "", fmt.Errorf("%w: expected sequence %d, found %d", ErrLedgerCorrupted, want, ev.Sequence)
		}
		if err := status.CheckTransition(ev.Status); err != nil {
			return "", fmt.Errorf("%w: sequence %d: %v", ErrLedgerCorrupted, ev.Sequence, err)
		}
		status = ev.Status
	}
	return status, nil
}

// CheckConsistency replays events and compares the result with the cached
// status and sequence held on the shipment.
func CheckConsistency(s *Shipment, events []TrackingEvent) error {
	status, err := Replay(events)
	if err != nil {
		return err
	}
	if status != s.Status {
		return fmt.Errorf("%w: cached status %s, ledger replays to %s", ErrLedgerCorrupted, s.Status, status)
	}
	if int64(len(events)) != s.Sequence {
		return fmt.Errorf("%w: cached sequence %d, ledger holds %d entries", ErrLedgerCorrupted, s.Sequence, len(events))
	}
	return nil
}
