package handler

import "time"

type registerWebhookRequest struct {
	URL   string `json:"url"   validate:"required,https_url"`
	Event string `json:"event" validate:"required,oneof=shipment.status_changed shipment.created shipment.delivered"`
	// ClientID is honoured for admins only.
	ClientID string `json:"client_id"`
}

type subscriptionResponse struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	URL       string    `json:"url"`
	Event     string    `json:"event"`
	Active    bool      `json:"active"`
	Secret    string    `json:"secret,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type listSubscriptionsResponse struct {
	Data []subscriptionResponse `json:"data"`
}

type abandonedTaskResponse struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscription_id"`
	ShipmentID     string    `json:"shipment_id"`
	Sequence       int64     `json:"sequence"`
	Event          string    `json:"event"`
	TrackingNumber string    `json:"tracking_number"`
	NewStatus      string    `json:"new_status"`
	Attempts       int       `json:"attempts"`
	LastError      string    `json:"last_error,omitempty"`
	LastStatusCode int       `json:"last_status_code,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type listAbandonedResponse struct {
	Data []abandonedTaskResponse `json:"data"`
}
