package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/salonflow/platform/internal/domain/booking"
	"github.com/salonflow/platform/pkg/domain"
)

// BookingModel is the GORM persistence model for the bookings table.
// A partial unique index over (branch_id, stylist_id, start_time) for
// non-cancelled rows backstops the slot-conflict check; see EnsureIndexes.
type BookingModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	BranchID        uuid.UUID `gorm:"type:uuid;not null;index"`
	StylistID       uuid.UUID `gorm:"type:uuid;not null;index"`
	ServiceID       uuid.UUID `gorm:"type:uuid;not null"`
	CustomerID      uuid.UUID `gorm:"type:uuid;not null;index"`
	StartTime       time.Time `gorm:"type:timestamptz;not null"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pending'"`
	TotalPriceCents int64     `gorm:"not null"`
	Version         int64     `gorm:"not null;default:1"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt       time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (BookingModel) TableName() string {
	return "bookings"
}

// EnsureBookingIndexes creates the partial unique index that enforces the
// one-active-booking-per-slot invariant at the database level.
func EnsureBookingIndexes(db *gorm.DB) error {
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_slot
		ON bookings (branch_id, stylist_id, start_time)
		WHERE status <> 'cancelled'`).Error
}

// BookingRepositoryImpl is the GORM-based implementation of booking.Repository.
type BookingRepositoryImpl struct {
	db *gorm.DB
}

// NewBookingRepository creates a new GORM-based booking repository.
func NewBookingRepository(db *gorm.DB) *BookingRepositoryImpl {
	return &BookingRepositoryImpl{db: db}
}

// FindByID retrieves a booking by its unique ID.
func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, err
	}
	return bookingToDomain(&model), nil
}

// FindActiveBySlot returns the non-cancelled booking occupying the slot.
func (r *BookingRepositoryImpl) FindActiveBySlot(ctx context.Context, branchID, stylistID uuid.UUID, startTime time.Time) (*bookingDomain.Booking, error) {
	var model BookingModel
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND stylist_id = ? AND start_time = ? AND status <> ?",
			branchID, stylistID, startTime.UTC(), string(bookingDomain.StatusCancelled)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking for slot", startTime.UTC().Format(time.RFC3339))
		}
		return nil, err
	}
	return bookingToDomain(&model), nil
}

// ListByCustomer retrieves a customer's bookings, newest first.
func (r *BookingRepositoryImpl) ListByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	r.db.WithContext(ctx).Model(&BookingModel{}).Where("customer_id = ?", customerID).Count(&total)

	var models []BookingModel
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("start_time DESC").
		Offset(offset).Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = bookingToDomain(&models[i])
	}
	return bookings, total, nil
}

// ListActiveStartTimes returns start times of non-cancelled bookings in [from, to).
func (r *BookingRepositoryImpl) ListActiveStartTimes(ctx context.Context, branchID, stylistID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("branch_id = ? AND stylist_id = ? AND start_time >= ? AND start_time < ? AND status <> ?",
			branchID, stylistID, from.UTC(), to.UTC(), string(bookingDomain.StatusCancelled)).
		Order("start_time ASC").
		Pluck("start_time", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

// ListConfirmedEndedBefore returns confirmed bookings whose slot ended before cutoff.
func (r *BookingRepositoryImpl) ListConfirmedEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	endBoundary := cutoff.UTC().Add(-bookingDomain.SlotDuration)
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time <= ?", string(bookingDomain.StatusConfirmed), endBoundary).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = bookingToDomain(&models[i])
	}
	return bookings, nil
}

// ListPendingCreatedBefore returns pending bookings created before cutoff.
func (r *BookingRepositoryImpl) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(bookingDomain.StatusPending), cutoff.UTC()).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = bookingToDomain(&models[i])
	}
	return bookings, nil
}

// Save persists a new booking aggregate.
func (r *BookingRepositoryImpl) Save(ctx context.Context, b *bookingDomain.Booking) error {
	model := bookingToModel(b)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("slot is already booked")
		}
		return err
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *BookingRepositoryImpl) Update(ctx context.Context, b *bookingDomain.Booking) error {
	model := bookingToModel(b)
	previousVersion := b.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Select("Status", "Version", "UpdatedAt").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// bookingToDomain maps a BookingModel to the domain Booking aggregate.
func bookingToDomain(model *BookingModel) *bookingDomain.Booking {
	return bookingDomain.Reconstitute(
		model.ID,
		model.BranchID,
		model.StylistID,
		model.ServiceID,
		model.CustomerID,
		model.StartTime,
		bookingDomain.Status(model.Status),
		model.TotalPriceCents,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

// bookingToModel maps a domain Booking aggregate to a BookingModel.
func bookingToModel(b *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:              b.ID(),
		BranchID:        b.BranchID(),
		StylistID:       b.StylistID(),
		ServiceID:       b.ServiceID(),
		CustomerID:      b.CustomerID(),
		StartTime:       b.StartTime(),
		Status:          string(b.Status()),
		TotalPriceCents: b.TotalPriceCents(),
		Version:         b.Version(),
		CreatedAt:       b.CreatedAt(),
		UpdatedAt:       b.UpdatedAt(),
	}
}
