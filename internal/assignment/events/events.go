// Package events publishes booking assignment events.
package events

import (
	"context"
	"time"

	"dispatch/pkg/kafka"
	"dispatch/pkg/logger"
	"dispatch/pkg/middleware"
)

const (
	EventTechnicianAssigned = "booking.technician_assigned"
	SchemaVersion           = "1"
	Source                  = "dispatch-admin-api"
)

type TechnicianAssigned struct {
	BookingID      string    `json:"bookingId"`
	TechnicianID   string    `json:"technicianId"`
	TechnicianName string    `json:"technicianName"`
	PreviousStatus string    `json:"previousStatus"`
	AssignedBy     string    `json:"assignedBy"`
	AssignedAt     time.Time `json:"assignedAt"`
}

type Publisher interface {
	PublishAssigned(ctx context.Context, event TechnicianAssigned) error
	Close() error
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaPublisher keys every event by booking id so one booking's events stay
// ordered on a single partition.
type KafkaPublisher struct {
	producer messagePublisher
	log      *logger.Logger
}

func NewKafkaPublisher(producer messagePublisher, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, log: log}
}

func (p *KafkaPublisher) PublishAssigned(ctx context.Context, event TechnicianAssigned) error {
	msg, err := kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventID("").
		WithEventType(EventTechnicianAssigned).
		WithCorrelationID(middleware.RequestIDFrom(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishAssigned(context.Context, TechnicianAssigned) error { return nil }

func (NoopPublisher) Close() error { return nil }
