package domain

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTerminalState     = errors.New("shipment is in a terminal state")
	ErrSequenceConflict  = errors.New("ledger sequence conflict")
	ErrLedgerCorrupted   = errors.New("tracking ledger corrupted")

	ErrShipmentNotFound  = errors.New("shipment not found")
	ErrDuplicateShipment = errors.New("shipment already exists")
	ErrForbidden         = errors.New("access forbidden")

	ErrInvalidPackage      = errors.New("invalid package")
	ErrServiceTypeNotFound = errors.New("service type not found")

	ErrInvalidSubscription  = errors.New("invalid subscription")
	ErrSubscriptionNotFound = errors.New("subscription not found")

	ErrTaskNotFound = errors.New("notification task not found")

	// ErrNotCancellable matches every cancellation refusal.
	ErrNotCancellable = errors.New("shipment cannot be cancelled")

	// ErrCancelFinalized is returned (wrapped with the status) when the
	// shipment already reached a terminal status.
	ErrCancelFinalized error = &cancelRefusal{msg: "cannot cancel shipment with status"}

	// ErrCancelInTransit is returned when the carrier already holds the parcel.
	ErrCancelInTransit error = &cancelRefusal{msg: "cannot cancel shipment that is already in transit, please contact support"}
)

type cancelRefusal struct {
	msg string
}

func (e *cancelRefusal) Error() string { return e.msg }

func (e *cancelRefusal) Is(target error) bool { return target == ErrNotCancellable }
