// Package events publishes booking lifecycle events for downstream
// consumers (notifications, reporting). Publishing is best-effort: a
// broker failure is logged and never fails the originating request.
package events

import (
	"context"

	"darshan/pkg/kafka"
	"darshan/pkg/logger"
	"darshan/pkg/model"
)

const (
	EventBookingCreated        = "darshan.booking.created"
	EventBookingCancelled      = "darshan.booking.cancelled"
	EventBookingPaymentUpdated = "darshan.booking.payment_updated"
)

type Publisher interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingCancelled(ctx context.Context, booking *model.Booking)
	PaymentUpdated(ctx context.Context, booking *model.Booking)
}

type bookingEvent struct {
	BookingID     string `json:"booking_id"`
	DarshanID     string `json:"darshan_id"`
	SlotID        string `json:"slot_id"`
	OwnerID       string `json:"owner_id"`
	Date          string `json:"date"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	ReceiptNumber string `json:"receipt_number"`
	Amount        int64  `json:"amount"`
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log,
	}
}

func (p *kafkaPublisher) BookingCreated(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingCreated, booking)
}

func (p *kafkaPublisher) BookingCancelled(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingCancelled, booking)
}

func (p *kafkaPublisher) PaymentUpdated(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingPaymentUpdated, booking)
}

func (p *kafkaPublisher) publish(ctx context.Context, eventType string, booking *model.Booking) {
	msg, err := kafka.NewEvent(eventType, booking.ID, bookingEvent{
		BookingID:     booking.ID,
		DarshanID:     booking.DarshanID,
		SlotID:        booking.SlotID,
		OwnerID:       booking.OwnerID,
		Date:          booking.Date.Format("2006-01-02"),
		Status:        string(booking.Status),
		PaymentStatus: string(booking.PaymentStatus),
		ReceiptNumber: booking.ReceiptNumber,
		Amount:        booking.Amount,
	})
	if err != nil {
		p.log.Error("Failed to build booking event", "event_type", eventType, "booking_id", booking.ID, "error", err)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish booking event", "event_type", eventType, "booking_id", booking.ID, "error", err)
		return
	}

	p.log.Debug("Booking event published", "event_type", eventType, "booking_id", booking.ID)
}

// noopPublisher keeps the service wiring uniform when no brokers are
// configured.
type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) BookingCreated(context.Context, *model.Booking)   {}
func (noopPublisher) BookingCancelled(context.Context, *model.Booking) {}
func (noopPublisher) PaymentUpdated(context.Context, *model.Booking)   {}
