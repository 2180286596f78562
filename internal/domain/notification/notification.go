package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notification sent to a customer.
type Kind string

const (
	KindBookingConfirmed Kind = "booking_confirmed"
	KindBookingCancelled Kind = "booking_cancelled"
	KindBookingReminder  Kind = "booking_reminder"
	KindPaymentFailed    Kind = "payment_failed"
	KindReviewPrompt     Kind = "review_prompt"
)

// Notification is a record of a message dispatched to a customer.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	BookingID uuid.UUID
	Kind      Kind
	Subject   string
	Body      string
	SentAt    time.Time
}

// Repository persists notification records.
type Repository interface {
	Save(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error)
}
