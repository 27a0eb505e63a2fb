package domain

import (
	"fmt"
	"net/url"
	"time"
)

// EventType is the webhook event a subscription listens to.
type EventType string

const (
	EventStatusChanged EventType = "shipment.status_changed"
	EventCreated       EventType = "shipment.created"
	EventDelivered     EventType = "shipment.delivered"
)

// Valid reports whether e is a known event type.
func (e EventType) Valid() bool {
	return e == EventStatusChanged || e == EventCreated || e == EventDelivered
}

// Subscription is a client's webhook endpoint registration.
type Subscription struct {
	ID        string    `json:"id" bson:"_id"`
	ClientID  string    `json:"client_id" bson:"client_id"`
	URL       string    `json:"url" bson:"url"`
	Event     EventType `json:"event" bson:"event"`
	Active    bool      `json:"active" bson:"active"`
	Secret    string    `json:"-" bson:"secret"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Matches reports whether the subscription wants the transition that
// produced ledger entry ev. Transitions accepted before the subscription
// existed never match, even when they are fanned out late by the relay.
func (s *Subscription) Matches(ev TrackingEvent) bool {
	if !ev.RecordedAt.IsZero() && s.CreatedAt.After(ev.RecordedAt) {
		return false
	}
	switch s.Event {
	case EventStatusChanged:
		return true
	case EventDelivered:
		return ev.Status == StatusDelivered
	case EventCreated:
		return ev.Sequence == 1 && ev.Status == StatusConfirmed
	}
	return false
}

// ValidateCallbackURL accepts absolute https URLs only.
func ValidateCallbackURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSubscription, err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: callback url must use https", ErrInvalidSubscription)
	}
	return nil
}
