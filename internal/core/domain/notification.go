package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TaskState tracks a notification task through delivery.
type TaskState string

const (
	TaskQueued    TaskState = "queued"
	TaskInFlight  TaskState = "in_flight"
	TaskDelivered TaskState = "delivered"
	TaskRetrying  TaskState = "retrying"
	TaskAbandoned TaskState = "abandoned"
)

// taskNamespace scopes the deterministic task ids.
var taskNamespace = uuid.MustParse("6f1d7c3a-95b2-4e0f-8a43-1c2d9e7b5a10")

// NewTaskID derives the idempotency identity of a delivery obligation. The
// same transition fanned out twice to the same subscription yields the same id.
func NewTaskID(shipmentID string, sequence int64, subscriptionID string) string {
	name := shipmentID + "/" + strconv.FormatInt(sequence, 10) + "/" + subscriptionID
	return uuid.NewSHA1(taskNamespace, []byte(name)).String()
}

// NotificationTask is one pending webhook delivery for one (transition, subscription) pair.
type NotificationTask struct {
	ID              string         `json:"id"`
	SubscriptionID  string         `json:"subscription_id"`
	ShipmentID      string         `json:"shipment_id"`
	Sequence        int64          `json:"sequence"`
	Event           EventType      `json:"event"`
	TrackingNumber  string         `json:"tracking_number"`
	NewStatus       ShipmentStatus `json:"new_status"`
	ReferenceNumber string         `json:"reference_number,omitempty"`
	OccurredAt      time.Time      `json:"occurred_at"`
	Attempts        int            `json:"attempts"`
	NotBefore       time.Time      `json:"not_before"`
	State           TaskState      `json:"state"`
	LastError       string         `json:"last_error,omitempty"`
	LastStatusCode  int            `json:"last_status_code,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ChainKey groups tasks that must be delivered in ledger order.
func (t *NotificationTask) ChainKey() string {
	return t.SubscriptionID + "|" + t.ShipmentID
}

// NewNotificationTask builds the queued task for ev on sub.
func NewNotificationTask(sub *Subscription, s *Shipment, ev TrackingEvent, now time.Time) *NotificationTask {
	return &NotificationTask{
		ID:              NewTaskID(s.ID, ev.Sequence, sub.ID),
		SubscriptionID:  sub.ID,
		ShipmentID:      s.ID,
		Sequence:        ev.Sequence,
		Event:           sub.Event,
		TrackingNumber:  s.TrackingNumber,
		NewStatus:       ev.Status,
		ReferenceNumber: s.ReferenceNumber,
		OccurredAt:      ev.Timestamp,
		NotBefore:       now,
		State:           TaskQueued,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// WebhookPayload is the body POSTed to subscriber endpoints. Field order is
// fixed so identical tasks serialize to identical bytes.
type WebhookPayload struct {
	ID              string    `json:"id"`
	Event           EventType `json:"event"`
	ShipmentID      string    `json:"shipment_id"`
	TrackingNumber  string    `json:"tracking_number"`
	NewStatus       string    `json:"new_status"`
	ReferenceNumber string    `json:"reference_number"`
	Timestamp       string    `json:"timestamp"`
}

// Payload renders the wire body for t.
func (t *NotificationTask) Payload() WebhookPayload {
	return WebhookPayload{
		ID:              t.ID,
		Event:           t.Event,
		ShipmentID:      t.ShipmentID,
		TrackingNumber:  t.TrackingNumber,
		NewStatus:       string(t.NewStatus),
		ReferenceNumber: t.ReferenceNumber,
		Timestamp:       t.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}
