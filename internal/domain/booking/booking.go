package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/salonflow/platform/pkg/domain"
)

// Slot geometry. Bookings occupy fixed-width slots inside the daily
// business window.
const (
	SlotDuration = 30 * time.Minute
	OpeningHour  = 9
	ClosingHour  = 18
)

// Status represents the state of a booking.
// pending -> confirmed -> completed, with cancelled reachable from
// pending and confirmed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Booking is the aggregate root for a reserved slot. At most one
// non-cancelled booking exists per (branch, stylist, start time).
type Booking struct {
	id              uuid.UUID
	branchID        uuid.UUID
	stylistID       uuid.UUID
	serviceID       uuid.UUID
	customerID      uuid.UUID
	startTime       time.Time
	status          Status
	totalPriceCents int64
	version         int64
	createdAt       time.Time
	updatedAt       time.Time
}

// NewBooking creates a pending booking for the given slot.
func NewBooking(branchID, stylistID, serviceID, customerID uuid.UUID, startTime time.Time, totalPriceCents int64) (*Booking, error) {
	if totalPriceCents <= 0 {
		return nil, domain.NewValidationError("total price must be positive")
	}
	startTime = startTime.UTC()
	if startTime.Truncate(SlotDuration) != startTime {
		return nil, domain.NewValidationError("booking time must fall on a slot boundary")
	}
	hour := startTime.Hour()
	if hour < OpeningHour || hour >= ClosingHour {
		return nil, domain.NewValidationError("booking time is outside business hours")
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		branchID:        branchID,
		stylistID:       stylistID,
		serviceID:       serviceID,
		customerID:      customerID,
		startTime:       startTime,
		status:          StatusPending,
		totalPriceCents: totalPriceCents,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

func (b *Booking) ID() uuid.UUID          { return b.id }
func (b *Booking) BranchID() uuid.UUID    { return b.branchID }
func (b *Booking) StylistID() uuid.UUID   { return b.stylistID }
func (b *Booking) ServiceID() uuid.UUID   { return b.serviceID }
func (b *Booking) CustomerID() uuid.UUID  { return b.customerID }
func (b *Booking) StartTime() time.Time   { return b.startTime }
func (b *Booking) EndTime() time.Time     { return b.startTime.Add(SlotDuration) }
func (b *Booking) Status() Status         { return b.status }
func (b *Booking) TotalPriceCents() int64 { return b.totalPriceCents }
func (b *Booking) Version() int64         { return b.version }
func (b *Booking) CreatedAt() time.Time   { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time   { return b.updatedAt }

// Confirm transitions from pending to confirmed on payment success.
func (b *Booking) Confirm() error {
	if b.status != StatusPending {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.updatedAt = time.Now().UTC()
	return nil
}

// Complete transitions from confirmed to completed.
func (b *Booking) Complete() error {
	if b.status != StatusConfirmed {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	b.status = StatusCompleted
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions from pending or confirmed to cancelled.
func (b *Booking) Cancel() error {
	if b.status != StatusPending && b.status != StatusConfirmed {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	b.status = StatusCancelled
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

// Reconstitute rebuilds a Booking from persisted data.
func Reconstitute(
	id, branchID, stylistID, serviceID, customerID uuid.UUID,
	startTime time.Time,
	status Status,
	totalPriceCents int64,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		branchID:        branchID,
		stylistID:       stylistID,
		serviceID:       serviceID,
		customerID:      customerID,
		startTime:       startTime,
		status:          status,
		totalPriceCents: totalPriceCents,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}
