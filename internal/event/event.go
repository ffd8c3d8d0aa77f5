// Package event defines the domain events published to the message broker
// and the publisher behind them. Publishing is best-effort: callers log
// failures and move on, the booking path never blocks on the broker.
package event

import "context"

const (
	QueueAppointmentBooked    = "appointment.booked"
	QueueAppointmentCancelled = "appointment.cancelled"
)

// AppointmentEvent carries enough information for downstream consumers
// (notifications, analytics) to act without querying the database.
type AppointmentEvent struct {
	AppointmentID string `json:"appointment_id"`
	DriverID      string `json:"driver_id"`
	CarID         string `json:"car_id"`
	SlotID        string `json:"slot_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
}

// Publisher publishes a domain event to the named queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, ev AppointmentEvent) error
}

// NopPublisher discards every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, queue string, ev AppointmentEvent) error {
	return nil
}
