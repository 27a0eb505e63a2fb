package ports

import (
	"context"
	"time"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

// AddressInput holds a sender or receiver address.
type AddressInput struct {
	Name       string
	Company    string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
	Email      string
}

// PackageInput holds package weight and size.
type PackageInput struct {
	WeightKg    float64
	LengthCm    float64
	WidthCm     float64
	HeightCm    float64
	Description string
}

// CreateShipmentInput carries all data needed to create a new shipment.
type CreateShipmentInput struct {
	ClientID        string
	Sender          AddressInput
	Receiver        AddressInput
	Package         PackageInput
	ServiceCode     string
	ReferenceNumber string
	IdempotencyKey  string
}

// ShipmentResult is returned by the service after creating a shipment.
type ShipmentResult struct {
	Shipment *domain.Shipment
	// AlreadyExisted is true when the Idempotency-Key matched an existing shipment.
	AlreadyExisted bool
}

// GetShipmentInput carries the parameters needed to retrieve a single shipment.
// Role and ClientID enforce RBAC: the "client" role only sees its own shipments.
type GetShipmentInput struct {
	ShipmentID string
	Role       string
	ClientID   string
}

// CancelShipmentInput identifies the shipment a caller wants to cancel.
type CancelShipmentInput struct {
	ShipmentID string
	Role       string
	ClientID   string
	Reason     string
}

// TrackingHistoryItem is one row of the public tracking view.
type TrackingHistoryItem struct {
	Status      string
	Description string
	Location    string
	Timestamp   time.Time
}

// TrackingView is the public read model of a shipment.
type TrackingView struct {
	TrackingNumber        string
	CurrentStatus         string
	LastUpdate            time.Time
	ReferenceNumber       string
	EstimatedDeliveryDate time.Time
	// History is ordered most-recent-first.
	History []TrackingHistoryItem
}

// ShipmentService defines use-case operations for shipments.
type ShipmentService interface {
	CreateShipment(ctx context.Context, input CreateShipmentInput) (*ShipmentResult, error)
	GetShipment(ctx context.Context, input GetShipmentInput) (*domain.Shipment, error)
	CancelShipment(ctx context.Context, input CancelShipmentInput) (*domain.Shipment, error)
	Track(ctx context.Context, trackingNumber string) (*TrackingView, error)
}
