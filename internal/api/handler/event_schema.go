package handler

import "time"

type carrierEventRequest struct {
	TrackingNumber string    `json:"tracking_number" validate:"required"`
	Status         string    `json:"status"          validate:"required,oneof=confirmed picked_up in_transit out_for_delivery delivered cancelled returned"`
	Location       string    `json:"location"        validate:"max=200"`
	Description    string    `json:"description"     validate:"max=500"`
	Timestamp      time.Time `json:"timestamp"       validate:"required"`
}

type acceptedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}
