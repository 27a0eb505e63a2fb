package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ShipmentStatus represents the lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusPending        ShipmentStatus = "pending"
	StatusConfirmed      ShipmentStatus = "confirmed"
	StatusPickedUp       ShipmentStatus = "picked_up"
	StatusInTransit      ShipmentStatus = "in_transit"
	StatusOutForDelivery ShipmentStatus = "out_for_delivery"
	StatusDelivered      ShipmentStatus = "delivered"
	StatusCancelled      ShipmentStatus = "cancelled"
	StatusReturned       ShipmentStatus = "returned"
)

// mainLine is the forward path a shipment normally follows. A status may jump
// ahead on this line (a carrier feed can miss a scan) but never go back.
var mainLine = []ShipmentStatus{
	StatusPending,
	StatusConfirmed,
	StatusPickedUp,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
}

// sideBranches lists the exits from the main line and the only statuses they
// can be taken from.
var sideBranches = map[ShipmentStatus][]ShipmentStatus{
	StatusPending:        {StatusCancelled},
	StatusConfirmed:      {StatusCancelled},
	StatusPickedUp:       {StatusCancelled},
	StatusInTransit:      {StatusReturned},
	StatusOutForDelivery: {StatusReturned},
}

// AllStatuses returns every known status in graph order.
func AllStatuses() []ShipmentStatus {
	out := make([]ShipmentStatus, 0, len(mainLine)+2)
	out = append(out, mainLine...)
	return append(out, StatusCancelled, StatusReturned)
}

// ParseStatus converts raw input into a known status.
func ParseStatus(raw string) (ShipmentStatus, error) {
	s := ShipmentStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, raw)
	}
	return s, nil
}

// Valid reports whether s is one of the known statuses.
func (s ShipmentStatus) Valid() bool {
	for _, known := range AllStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s ShipmentStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusReturned
}

// InTransit reports whether the parcel is physically with the carrier.
func (s ShipmentStatus) InTransit() bool {
	return s == StatusPickedUp || s == StatusInTransit || s == StatusOutForDelivery
}

func (s ShipmentStatus) linePosition() int {
	for i, st := range mainLine {
		if st == s {
			return i
		}
	}
	return -1
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	if s.IsTerminal() {
		return false
	}
	for _, allowed := range sideBranches[s] {
		if allowed == next {
			return true
		}
	}
	from, to := s.linePosition(), next.linePosition()
	return from >= 0 && to > from
}

// CheckTransition returns ErrTerminalState when s is terminal and
// ErrInvalidTransition when next is not reachable from s.
func (s ShipmentStatus) CheckTransition(next ShipmentStatus) error {
	if s.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, s)
	}
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w (from %s to %s)", ErrInvalidTransition, s, next)
	}
	return nil
}

// CheckCancellable tells whether a client may cancel a shipment in status s.
func (s ShipmentStatus) CheckCancellable() error {
	switch {
	case s.IsTerminal():
		return fmt.Errorf("%w: %s", ErrCancelFinalized, s)
	case s.InTransit():
		return ErrCancelInTransit
	}
	return nil
}

// Address is a sender or receiver snapshot copied onto the shipment at creation.
type Address struct {
	Name       string `json:"name" bson:"name"`
	Company    string `json:"company,omitempty" bson:"company,omitempty"`
	Street     string `json:"street" bson:"street"`
	City       string `json:"city" bson:"city"`
	State      string `json:"state" bson:"state"`
	PostalCode string `json:"postal_code" bson:"postal_code"`
	Country    string `json:"country" bson:"country"`
	Phone      string `json:"phone,omitempty" bson:"phone,omitempty"`
	Email      string `json:"email,omitempty" bson:"email,omitempty"`
}

// Locality is the short "city, state" form used on tracking events.
func (a Address) Locality() string {
	switch {
	case a.City != "" && a.State != "":
		return a.City + ", " + a.State
	case a.City != "":
		return a.City
	}
	return a.State
}

// Package contains the details of what is being shipped.
type Package struct {
	WeightKg    float64 `json:"weight_kg" bson:"weight_kg"`
	LengthCm    float64 `json:"length_cm" bson:"length_cm"`
	WidthCm     float64 `json:"width_cm" bson:"width_cm"`
	HeightCm    float64 `json:"height_cm" bson:"height_cm"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
}

// ServiceSnapshot pins the service type terms a shipment was quoted with.
type ServiceSnapshot struct {
	ID               string          `json:"id" bson:"id"`
	Code             string          `json:"code" bson:"code"`
	Name             string          `json:"name" bson:"name"`
	BaseRate         decimal.Decimal `json:"base_rate" bson:"base_rate"`
	RatePerKg        decimal.Decimal `json:"rate_per_kg" bson:"rate_per_kg"`
	EstimatedDaysMin int             `json:"estimated_days_min" bson:"estimated_days_min"`
	EstimatedDaysMax int             `json:"estimated_days_max" bson:"estimated_days_max"`
}

// DeliveryWindow is the inclusive range of expected delivery dates.
type DeliveryWindow struct {
	Min time.Time `json:"min" bson:"min"`
	Max time.Time `json:"max" bson:"max"`
}

// Shipment is the core aggregate root. Status and Sequence cache the latest
// ledger entry; the ledger itself is authoritative.
type Shipment struct {
	ID                string          `json:"id" bson:"_id"`
	TrackingNumber    string          `json:"tracking_number,omitempty" bson:"tracking_number,omitempty"`
	ReferenceNumber   string          `json:"reference_number,omitempty" bson:"reference_number,omitempty"`
	ClientID          string          `json:"client_id" bson:"client_id"`
	Sender            Address         `json:"sender" bson:"sender"`
	Receiver          Address         `json:"receiver" bson:"receiver"`
	Package           Package         `json:"package" bson:"package"`
	Service           ServiceSnapshot `json:"service" bson:"service"`
	QuotedCost        decimal.Decimal `json:"quoted_cost" bson:"quoted_cost"`
	EstimatedDelivery DeliveryWindow  `json:"estimated_delivery" bson:"estimated_delivery"`
	Status            ShipmentStatus  `json:"status" bson:"status"`
	Sequence          int64           `json:"sequence" bson:"sequence"`
	IdempotencyKey    string          `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	CreatedAt         time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" bson:"updated_at"`

	// Quarantined is set once the ledger was found inconsistent. It is stored
	// with the shipment and blocks every further append until an operator
	// repairs the record.
	Quarantined bool `json:"quarantined,omitempty" bson:"quarantined,omitempty"`
}

// Clone returns a copy that shares no mutable state with s.
func (s *Shipment) Clone() *Shipment {
	c := *s
	return &c
}
