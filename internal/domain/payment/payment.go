package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salonflow/platform/pkg/domain"
)

// Method identifies the payment provider a payment was created against.
type Method string

const (
	MethodStripe Method = "stripe"
	MethodVNPay  Method = "vnpay"
	MethodCash   Method = "cash"
)

// ParseMethod maps a case-insensitive method name onto a known Method.
func ParseMethod(s string) (Method, bool) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodStripe:
		return MethodStripe, true
	case MethodVNPay:
		return MethodVNPay, true
	case MethodCash:
		return MethodCash, true
	}
	return "", false
}

// Status represents the state of a payment. Transitions are monotonic:
// pending -> {succeeded, failed}, succeeded -> refunded, and cancelled is
// terminal from pending or failed. A status never regresses.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusRefunded || s == StatusCancelled
}

// Payment is the aggregate root for a booking's payment. One payment exists
// per booking.
type Payment struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	method      Method
	status      Status
	amountCents int64
	providerRef string
	failReason  string
	succeededAt *time.Time
	refundedAt  *time.Time
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewPayment creates a pending payment for a booking.
func NewPayment(bookingID uuid.UUID, method Method, amountCents int64) *Payment {
	now := time.Now().UTC()
	return &Payment{
		id:          uuid.New(),
		bookingID:   bookingID,
		method:      method,
		status:      StatusPending,
		amountCents: amountCents,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (p *Payment) ID() uuid.UUID           { return p.id }
func (p *Payment) BookingID() uuid.UUID    { return p.bookingID }
func (p *Payment) Method() Method          { return p.method }
func (p *Payment) Status() Status          { return p.status }
func (p *Payment) AmountCents() int64      { return p.amountCents }
func (p *Payment) ProviderRef() string     { return p.providerRef }
func (p *Payment) FailReason() string      { return p.failReason }
func (p *Payment) SucceededAt() *time.Time { return p.succeededAt }
func (p *Payment) RefundedAt() *time.Time  { return p.refundedAt }
func (p *Payment) Version() int64          { return p.version }
func (p *Payment) CreatedAt() time.Time    { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time    { return p.updatedAt }

// SetProviderRef stores the provider correlation handle (payment-intent ID
// for Stripe, payment URL for VNPay).
func (p *Payment) SetProviderRef(ref string) {
	p.providerRef = ref
	p.updatedAt = time.Now().UTC()
}

// Succeed transitions from pending to succeeded.
func (p *Payment) Succeed() error {
	if p.status != StatusPending {
		return domain.NewInvalidStateError(string(p.status), string(StatusSucceeded))
	}
	now := time.Now().UTC()
	p.status = StatusSucceeded
	p.succeededAt = &now
	p.updatedAt = now
	return nil
}

// Fail transitions from pending to failed.
func (p *Payment) Fail(reason string) error {
	if p.status != StatusPending {
		return domain.NewInvalidStateError(string(p.status), string(StatusFailed))
	}
	p.status = StatusFailed
	p.failReason = reason
	p.updatedAt = time.Now().UTC()
	return nil
}

// Refund transitions from succeeded to refunded.
func (p *Payment) Refund() error {
	if p.status != StatusSucceeded {
		return domain.NewInvalidStateError(string(p.status), string(StatusRefunded))
	}
	now := time.Now().UTC()
	p.status = StatusRefunded
	p.refundedAt = &now
	p.updatedAt = now
	return nil
}

// Cancel transitions from pending or failed to cancelled.
func (p *Payment) Cancel() error {
	if p.status != StatusPending && p.status != StatusFailed {
		return domain.NewInvalidStateError(string(p.status), string(StatusCancelled))
	}
	p.status = StatusCancelled
	p.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (p *Payment) IncrementVersion() {
	p.version++
	p.updatedAt = time.Now().UTC()
}

// Reconstitute rebuilds a Payment from persisted data.
func Reconstitute(
	id, bookingID uuid.UUID,
	method Method,
	status Status,
	amountCents int64,
	providerRef, failReason string,
	succeededAt, refundedAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:          id,
		bookingID:   bookingID,
		method:      method,
		status:      status,
		amountCents: amountCents,
		providerRef: providerRef,
		failReason:  failReason,
		succeededAt: succeededAt,
		refundedAt:  refundedAt,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}
