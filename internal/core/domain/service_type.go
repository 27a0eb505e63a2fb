package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceType is one entry of the shipping service catalog.
type ServiceType struct {
	ID               string          `json:"id" bson:"_id"`
	Name             string          `json:"name" bson:"name"`
	Code             string          `json:"code" bson:"code"`
	BaseRate         decimal.Decimal `json:"base_rate" bson:"base_rate"`
	RatePerKg        decimal.Decimal `json:"rate_per_kg" bson:"rate_per_kg"`
	EstimatedDaysMin int             `json:"estimated_days_min" bson:"estimated_days_min"`
	EstimatedDaysMax int             `json:"estimated_days_max" bson:"estimated_days_max"`
	Active           bool            `json:"active" bson:"active"`
}

// Snapshot copies the pricing terms so later catalog edits do not affect
// shipments already quoted.
func (st ServiceType) Snapshot() ServiceSnapshot {
	return ServiceSnapshot{
		ID:               st.ID,
		Code:             st.Code,
		Name:             st.Name,
		BaseRate:         st.BaseRate,
		RatePerKg:        st.RatePerKg,
		EstimatedDaysMin: st.EstimatedDaysMin,
		EstimatedDaysMax: st.EstimatedDaysMax,
	}
}

// Rate is one priced option returned by the rate engine.
type Rate struct {
	ServiceTypeID        string          `json:"service_type_id"`
	ServiceName          string          `json:"service_name"`
	ServiceCode          string          `json:"service_code"`
	Cost                 decimal.Decimal `json:"cost"`
	EstimatedDaysMin     int             `json:"estimated_days_min"`
	EstimatedDaysMax     int             `json:"estimated_days_max"`
	EstimatedDeliveryMin time.Time       `json:"estimated_delivery_min"`
	EstimatedDeliveryMax time.Time       `json:"estimated_delivery_max"`
}

// DefaultCatalog is the service catalog seeded into empty stores.
func DefaultCatalog() []ServiceType {
	return []ServiceType{
		{
			ID: "8f8c2a4e-3d6b-4c55-9b1e-2f4f8c7a1d01", Name: "Standard", Code: "standard",
			BaseRate: decimal.RequireFromString("10.00"), RatePerKg: decimal.RequireFromString("2.50"),
			EstimatedDaysMin: 3, EstimatedDaysMax: 5, Active: true,
		},
		{
			ID: "8f8c2a4e-3d6b-4c55-9b1e-2f4f8c7a1d02", Name: "Express", Code: "express",
			BaseRate: decimal.RequireFromString("18.00"), RatePerKg: decimal.RequireFromString("3.75"),
			EstimatedDaysMin: 1, EstimatedDaysMax: 2, Active: true,
		},
		{
			ID: "8f8c2a4e-3d6b-4c55-9b1e-2f4f8c7a1d03", Name: "Economy", Code: "economy",
			BaseRate: decimal.RequireFromString("6.50"), RatePerKg: decimal.RequireFromString("1.80"),
			EstimatedDaysMin: 5, EstimatedDaysMax: 9, Active: true,
		},
	}
}
