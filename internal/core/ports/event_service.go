package ports

import (
	"context"
	"time"
)

// CarrierEventInput is the DTO passed from the transport layer to EventService.
type CarrierEventInput struct {
	TrackingNumber string
	Status         string
	Location       string
	Description    string
	Timestamp      time.Time
}

// EventService records already-parsed carrier status events.
type EventService interface {
	RecordCarrierEvent(ctx context.Context, event CarrierEventInput) error
}
