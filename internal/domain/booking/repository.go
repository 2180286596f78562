package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for Booking aggregates.
type Repository interface {
	// FindByID retrieves a booking by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindActiveBySlot returns the non-cancelled booking occupying the exact
	// (branch, stylist, start time) slot, or a not-found error.
	FindActiveBySlot(ctx context.Context, branchID, stylistID uuid.UUID, startTime time.Time) (*Booking, error)

	// ListByCustomer retrieves a customer's bookings, newest first.
	ListByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListActiveStartTimes returns start times of non-cancelled bookings for
	// a stylist at a branch within [from, to). Used by availability.
	ListActiveStartTimes(ctx context.Context, branchID, stylistID uuid.UUID, from, to time.Time) ([]time.Time, error)

	// ListConfirmedEndedBefore returns confirmed bookings whose slot ended
	// before the cutoff. Used by the completion sweep.
	ListConfirmedEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Booking, error)

	// ListPendingCreatedBefore returns pending bookings created before the
	// cutoff. Used by the stale-booking sweep.
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Booking, error)

	// Save persists a new booking aggregate.
	Save(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, b *Booking) error
}
