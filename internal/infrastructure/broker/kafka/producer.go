package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// TransitionMessage is the value published for every accepted transition.
// Messages are keyed by shipment id so one partition sees a shipment in ledger order.
type TransitionMessage struct {
	ShipmentID      string    `json:"shipment_id"`
	TrackingNumber  string    `json:"tracking_number,omitempty"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	ClientID        string    `json:"client_id"`
	Sequence        int64     `json:"sequence"`
	Status          string    `json:"status"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Producer publishes accepted transitions to a Kafka topic.
type Producer struct {
	w     messageWriter
	topic string
}

var _ ports.TransitionStream = (*Producer)(nil)

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		topic: topic,
	}
}

func newProducerWithWriter(w messageWriter, topic string) *Producer {
	return &Producer{w: w, topic: topic}
}

func (p *Producer) PublishTransition(ctx context.Context, s *domain.Shipment, ev domain.TrackingEvent) error {
	value, err := json.Marshal(TransitionMessage{
		ShipmentID:      s.ID,
		TrackingNumber:  s.TrackingNumber,
		ReferenceNumber: s.ReferenceNumber,
		ClientID:        s.ClientID,
		Sequence:        ev.Sequence,
		Status:          string(ev.Status),
		Description:     ev.Description,
		Location:        ev.Location,
		OccurredAt:      ev.Timestamp.UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "encode transition")
	}

	if err := p.w.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(s.ID),
		Value: value,
	}); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

// Close flushes pending writes.
func (p *Producer) Close() error {
	if c, ok := p.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
