package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/application"
	"github.com/salonflow/platform/internal/domain/booking"
	"github.com/salonflow/platform/pkg/auth"
)

const sweepBatchSize = 100

// Sweeper runs the periodic booking maintenance jobs: completing confirmed
// bookings whose slot has passed and cancelling pending ones that never paid.
type Sweeper struct {
	bookings     booking.Repository
	bookingSvc   *application.BookingService
	stalePending time.Duration
	cron         *cron.Cron
	logger       *zap.Logger
}

// NewSweeper creates the sweeper. stalePending is how long a pending booking
// may stay unpaid before the sweep cancels it.
func NewSweeper(
	bookings booking.Repository,
	bookingSvc *application.BookingService,
	stalePending time.Duration,
	logger *zap.Logger,
) *Sweeper {
	return &Sweeper{
		bookings:     bookings,
		bookingSvc:   bookingSvc,
		stalePending: stalePending,
		cron:         cron.New(),
		logger:       logger,
	}
}

// Start registers the cron entries and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc("*/5 * * * *", s.completePastBookings); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("*/5 * * * *", s.cancelStalePending); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("booking sweeps scheduled")
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// completePastBookings marks confirmed bookings whose slot has ended as
// completed. Cash payments still pending settle as part of the transition.
func (s *Sweeper) completePastBookings() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	items, err := s.bookings.ListConfirmedEndedBefore(ctx, time.Now().UTC(), sweepBatchSize)
	if err != nil {
		s.logger.Error("completion sweep query failed", zap.Error(err))
		return
	}

	for _, b := range items {
		if _, err := s.bookingSvc.CompleteBooking(ctx, b.ID()); err != nil {
			s.logger.Warn("completion sweep could not complete booking",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
		}
	}
	if len(items) > 0 {
		s.logger.Info("completion sweep finished", zap.Int("processed", len(items)))
	}
}

// cancelStalePending cancels pending bookings that were never paid within the
// configured window, freeing their slots.
func (s *Sweeper) cancelStalePending() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-s.stalePending)
	items, err := s.bookings.ListPendingCreatedBefore(ctx, cutoff, sweepBatchSize)
	if err != nil {
		s.logger.Error("stale-pending sweep query failed", zap.Error(err))
		return
	}

	for _, b := range items {
		_, err := s.bookingSvc.CancelBooking(ctx, uuid.Nil, auth.RoleAdmin, b.ID(), "payment not completed in time")
		if err != nil {
			s.logger.Warn("stale-pending sweep could not cancel booking",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
		}
	}
	if len(items) > 0 {
		s.logger.Info("stale-pending sweep finished", zap.Int("processed", len(items)))
	}
}
