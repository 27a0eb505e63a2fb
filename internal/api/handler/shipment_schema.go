package handler

import (
	"time"

	"github.com/shopspring/decimal"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type addressRequest struct {
	Name       string `json:"name"        validate:"required"`
	Company    string `json:"company"`
	Street     string `json:"street"      validate:"required"`
	City       string `json:"city"        validate:"required"`
	State      string `json:"state"       validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country"     validate:"required,len=2"`
	Phone      string `json:"phone"`
	Email      string `json:"email"       validate:"omitempty,email"`
}

type packageRequest struct {
	WeightKg    float64 `json:"weight_kg"  validate:"required,gt=0"`
	LengthCm    float64 `json:"length_cm"  validate:"required,gt=0"`
	WidthCm     float64 `json:"width_cm"   validate:"required,gt=0"`
	HeightCm    float64 `json:"height_cm"  validate:"required,gt=0"`
	Description string  `json:"description" validate:"max=500"`
}

type createShipmentRequest struct {
	Sender          addressRequest `json:"sender"           validate:"required"`
	Receiver        addressRequest `json:"receiver"         validate:"required"`
	Package         packageRequest `json:"package"          validate:"required"`
	ServiceCode     string         `json:"service_code"     validate:"required"`
	ReferenceNumber string         `json:"reference_number" validate:"max=64"`
}

type cancelShipmentRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type shipmentLinks struct {
	Self  string `json:"self"`
	Track string `json:"track,omitempty"`
}

// Response-only types owned by the transport layer.
// These are intentionally separate from ports/domain types so the JSON
// contract is not coupled to internal service changes.

type addressResponse struct {
	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

type packageResponse struct {
	WeightKg    float64 `json:"weight_kg"`
	LengthCm    float64 `json:"length_cm"`
	WidthCm     float64 `json:"width_cm"`
	HeightCm    float64 `json:"height_cm"`
	Description string  `json:"description,omitempty"`
}

type serviceResponse struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	BaseRate  decimal.Decimal `json:"base_rate"  swaggertype:"string"`
	RatePerKg decimal.Decimal `json:"rate_per_kg" swaggertype:"string"`
}

type deliveryWindowResponse struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

type shipmentResponse struct {
	ID                string                 `json:"id"`
	TrackingNumber    string                 `json:"tracking_number,omitempty"`
	ReferenceNumber   string                 `json:"reference_number,omitempty"`
	Status            string                 `json:"status"`
	Service           serviceResponse        `json:"service"`
	QuotedCost        decimal.Decimal        `json:"quoted_cost" swaggertype:"string"`
	EstimatedDelivery deliveryWindowResponse `json:"estimated_delivery"`
	Sender            addressResponse        `json:"sender"`
	Receiver          addressResponse        `json:"receiver"`
	Package           packageResponse        `json:"package"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	Links             shipmentLinks          `json:"_links"`
}

type trackingHistoryResponse struct {
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type trackingResponse struct {
	TrackingNumber        string                    `json:"tracking_number"`
	CurrentStatus         string                    `json:"current_status"`
	LastUpdate            time.Time                 `json:"last_update"`
	ReferenceNumber       string                    `json:"reference_number,omitempty"`
	EstimatedDeliveryDate time.Time                 `json:"estimated_delivery_date"`
	History               []trackingHistoryResponse `json:"history"`
}
