package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
	TopicWebhookEvents = "webhook.events"
)

// Event types.
const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"

	PaymentSucceeded = "payment.succeeded"
	PaymentFailed    = "payment.failed"
	PaymentRefunded  = "payment.refunded"

	WebhookReceived = "webhook.received"
)

// BookingEvent is published on every booking lifecycle transition.
type BookingEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	BranchID    uuid.UUID `json:"branch_id"`
	StylistID   uuid.UUID `json:"stylist_id"`
	StartTime   time.Time `json:"start_time"`
	Status      string    `json:"status"`
	PriceCents  int64     `json:"price_cents"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PaymentEvent is published on every payment state transition.
type PaymentEvent struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	Method      string    `json:"method"`
	Status      string    `json:"status"`
	AmountCents int64     `json:"amount_cents"`
	ProviderRef string    `json:"provider_ref,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// WebhookEnvelope carries a raw provider callback from the webhook receiver
// onto the queue for asynchronous processing.
type WebhookEnvelope struct {
	Provider   string            `json:"provider"`
	Headers    map[string]string `json:"headers,omitempty"`
	Query      map[string]string `json:"query,omitempty"`
	Body       []byte            `json:"body,omitempty"`
	ReceivedAt time.Time         `json:"received_at"`
}
