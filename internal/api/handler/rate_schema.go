package handler

import (
	"time"

	"github.com/shopspring/decimal"
)

type rateAddressRequest struct {
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country"     validate:"required,len=2"`
}

type rateRequest struct {
	Origin      rateAddressRequest `json:"origin"      validate:"required"`
	Destination rateAddressRequest `json:"destination" validate:"required"`
	Package     packageRequest     `json:"package"     validate:"required"`
}

type rateResponse struct {
	ServiceCode          string          `json:"service_code"`
	ServiceName          string          `json:"service_name"`
	Cost                 decimal.Decimal `json:"cost" swaggertype:"string"`
	EstimatedDaysMin     int             `json:"estimated_days_min"`
	EstimatedDaysMax     int             `json:"estimated_days_max"`
	EstimatedDeliveryMin time.Time       `json:"estimated_delivery_min"`
	EstimatedDeliveryMax time.Time       `json:"estimated_delivery_max"`
}

type quoteResponse struct {
	Rates []rateResponse `json:"rates"`
}
