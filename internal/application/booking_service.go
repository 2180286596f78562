package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/adapter"
	"github.com/salonflow/platform/internal/domain/booking"
	"github.com/salonflow/platform/internal/domain/catalog"
	"github.com/salonflow/platform/internal/domain/payment"
	"github.com/salonflow/platform/internal/domain/promo"
	"github.com/salonflow/platform/internal/events"
	"github.com/salonflow/platform/internal/saga"
	"github.com/salonflow/platform/pkg/auth"
	"github.com/salonflow/platform/pkg/domain"
	"github.com/salonflow/platform/pkg/kafka"
	"github.com/salonflow/platform/pkg/retry"
)

// CreateBookingRequest is the DTO for reserving a slot.
type CreateBookingRequest struct {
	BranchID  uuid.UUID `json:"branch_id" binding:"required"`
	StylistID uuid.UUID `json:"stylist_id" binding:"required"`
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
	PromoCode string    `json:"promo_code"`
}

// BookingDTO is the API response DTO for booking data.
type BookingDTO struct {
	ID              uuid.UUID `json:"id"`
	BranchID        uuid.UUID `json:"branch_id"`
	StylistID       uuid.UUID `json:"stylist_id"`
	ServiceID       uuid.UUID `json:"service_id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Status          string    `json:"status"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AvailabilityDTO lists the open slot start times for a stylist on one day.
type AvailabilityDTO struct {
	BranchID  uuid.UUID   `json:"branch_id"`
	StylistID uuid.UUID   `json:"stylist_id"`
	Date      string      `json:"date"`
	Slots     []time.Time `json:"slots"`
}

// BookingService manages the booking lifecycle: creation with slot conflict
// checks and promo pricing, cancellation with ordered compensations,
// completion, and availability.
type BookingService struct {
	bookings  booking.Repository
	payments  payment.Repository
	catalog   catalog.Repository
	promos    promo.Repository
	providers *adapter.Registry
	calendar  CalendarSync
	producer  EventPublisher
	retry     retry.Policy
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService. calendar may be nil when no
// calendar integration is configured.
func NewBookingService(
	bookings booking.Repository,
	payments payment.Repository,
	catalogRepo catalog.Repository,
	promos promo.Repository,
	providers *adapter.Registry,
	calendar CalendarSync,
	producer EventPublisher,
	retryPolicy retry.Policy,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		payments:  payments,
		catalog:   catalogRepo,
		promos:    promos,
		providers: providers,
		calendar:  calendar,
		producer:  producer,
		retry:     retryPolicy,
		logger:    logger,
	}
}

// CreateBooking reserves a slot for a customer. The slot conflict check is
// read-then-write; a partial unique index on the bookings table backstops the
// race between concurrent creates.
func (s *BookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	if _, err := s.catalog.GetBranch(ctx, req.BranchID); err != nil {
		return nil, err
	}
	stylist, err := s.catalog.GetStylist(ctx, req.StylistID)
	if err != nil {
		return nil, err
	}
	if stylist.BranchID != req.BranchID {
		return nil, domain.NewValidationError("stylist does not work at this branch")
	}
	if !stylist.Active {
		return nil, domain.NewValidationError("stylist is not accepting bookings")
	}
	svc, err := s.catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	price := svc.PriceCents
	var appliedPromo *promo.PromoCode
	if req.PromoCode != "" {
		pc, err := s.promos.FindByCode(ctx, req.PromoCode)
		if err != nil {
			return nil, err
		}
		redeemed, err := s.promos.HasCustomerRedeemed(ctx, pc.ID(), customerID)
		if err != nil {
			return nil, err
		}
		if redeemed {
			return nil, domain.NewValidationError("promo code already redeemed")
		}
		price, err = pc.Apply(price, req.BranchID)
		if err != nil {
			return nil, err
		}
		appliedPromo = pc
	}

	start := req.StartTime.UTC()
	if _, err := s.bookings.FindActiveBySlot(ctx, req.BranchID, req.StylistID, start); err == nil {
		return nil, domain.NewConflictError("slot is already booked")
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	b, err := booking.NewBooking(req.BranchID, req.StylistID, req.ServiceID, customerID, start, price)
	if err != nil {
		return nil, err
	}
	if err := s.bookings.Save(ctx, b); err != nil {
		return nil, err
	}

	if appliedPromo != nil {
		discount := svc.PriceCents - price
		appliedPromo.MarkRedeemed()
		if err := s.promos.Update(ctx, appliedPromo); err != nil {
			s.logger.Warn("could not record promo usage",
				zap.String("promo", appliedPromo.Code()),
				zap.Error(err),
			)
		}
		redemption := &promo.Redemption{
			ID:            uuid.New(),
			PromoID:       appliedPromo.ID(),
			CustomerID:    customerID,
			BookingID:     b.ID(),
			DiscountCents: discount,
			RedeemedAt:    time.Now().UTC(),
		}
		if err := s.promos.SaveRedemption(ctx, redemption); err != nil {
			s.logger.Warn("could not save promo redemption",
				zap.String("promo", appliedPromo.Code()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID().String()),
		zap.String("customer_id", customerID.String()),
		zap.Time("start_time", b.StartTime()),
		zap.Int64("price_cents", b.TotalPriceCents()),
	)
	s.publishBookingEvent(ctx, b, events.BookingCreated, "")

	dto := toBookingDTO(b)
	return &dto, nil
}

// GetBooking retrieves a booking. Customers may only read their own.
func (s *BookingService) GetBooking(ctx context.Context, requesterID uuid.UUID, role auth.Role, bookingID uuid.UUID) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !role.IsStaff() && b.CustomerID() != requesterID {
		return nil, domain.NewForbiddenError("booking belongs to another customer")
	}
	dto := toBookingDTO(b)
	return &dto, nil
}

// ListMyBookings retrieves a customer's bookings, newest first.
func (s *BookingService) ListMyBookings(ctx context.Context, customerID uuid.UUID, page, limit int) ([]BookingDTO, int64, error) {
	items, total, err := s.bookings.ListByCustomer(ctx, customerID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]BookingDTO, len(items))
	for i, b := range items {
		dtos[i] = toBookingDTO(b)
	}
	return dtos, total, nil
}

// CancelBooking cancels a booking with ordered compensations: the calendar
// mirror is removed best-effort, the payment is reversed (a reversal failure
// aborts the cancellation), the booking is marked cancelled, and the event is
// published.
func (s *BookingService) CancelBooking(ctx context.Context, requesterID uuid.UUID, role auth.Role, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !role.IsStaff() && b.CustomerID() != requesterID {
		return nil, domain.NewForbiddenError("booking belongs to another customer")
	}
	if b.Status() != booking.StatusPending && b.Status() != booking.StatusConfirmed {
		return nil, domain.NewInvalidStateError(string(b.Status()), string(booking.StatusCancelled))
	}

	flow := saga.New("cancel_booking", s.logger)

	flow.AddStep(saga.Step{
		Name:       "remove_calendar_event",
		BestEffort: true,
		Execute: func(ctx context.Context) error {
			if s.calendar == nil {
				return nil
			}
			return s.calendar.DeleteEvent(ctx, b)
		},
	})

	flow.AddStep(saga.Step{
		Name: "reverse_payment",
		Execute: func(ctx context.Context) error {
			return s.reversePayment(ctx, b, reason)
		},
	})

	flow.AddStep(saga.Step{
		Name: "mark_cancelled",
		Execute: func(ctx context.Context) error {
			if err := b.Cancel(); err != nil {
				return err
			}
			b.IncrementVersion()
			return s.bookings.Update(ctx, b)
		},
	})

	flow.AddStep(saga.Step{
		Name:       "publish_cancelled_event",
		BestEffort: true,
		Execute: func(ctx context.Context) error {
			s.publishBookingEvent(ctx, b, events.BookingCancelled, reason)
			return nil
		},
	})

	if err := flow.Execute(ctx); err != nil {
		return nil, err
	}

	dto := toBookingDTO(b)
	return &dto, nil
}

// reversePayment undoes the payment attached to a booking being cancelled.
// Succeeded payments are refunded (through the provider when it supports
// refunds, as a book-keeping reversal otherwise); open payments are cancelled.
// Reversal failures propagate so a paid customer is never left without money
// or a booking.
func (s *BookingService) reversePayment(ctx context.Context, b *booking.Booking, reason string) error {
	p, err := s.payments.FindByBookingID(ctx, b.ID())
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}

	switch p.Status() {
	case payment.StatusSucceeded:
		refunder, err := s.providers.RefunderFor(p.Method())
		switch {
		case err == nil:
			err = s.retry.Do(ctx, func() error {
				return refunder.RefundPayment(ctx, p.ProviderRef(), p.AmountCents())
			})
			if err != nil {
				return err
			}
		case domain.IsUnsupported(err):
			// No provider-side reversal exists; settle out of band and
			// record the refund.
			s.logger.Info("marking payment refunded without provider call",
				zap.String("payment_id", p.ID().String()),
				zap.String("method", string(p.Method())),
			)
		default:
			return err
		}
		if err := p.Refund(); err != nil {
			return err
		}
		p.IncrementVersion()
		if err := s.payments.Update(ctx, p); err != nil {
			return err
		}
		s.publishPaymentServiceEvent(ctx, p, events.PaymentRefunded, reason)
		return nil

	case payment.StatusPending, payment.StatusFailed:
		if err := p.Cancel(); err != nil {
			return err
		}
		p.IncrementVersion()
		return s.payments.Update(ctx, p)
	}

	// Already refunded or cancelled: nothing left to reverse.
	return nil
}

// ConfirmCashPayment settles a cash payment at the desk and confirms the
// booking, mirroring what a provider callback does for online methods.
func (s *BookingService) ConfirmCashPayment(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	p, err := s.payments.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if p.Method() != payment.MethodCash {
		return nil, domain.NewValidationError("payment method is not cash")
	}
	if err := p.Succeed(); err != nil {
		return nil, err
	}
	p.IncrementVersion()
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publishPaymentServiceEvent(ctx, p, events.PaymentSucceeded, "")

	if err := b.Confirm(); err != nil {
		return nil, err
	}
	b.IncrementVersion()
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}
	s.publishBookingEvent(ctx, b, events.BookingConfirmed, "")

	if s.calendar != nil {
		if err := s.calendar.CreateEvent(ctx, b); err != nil {
			s.logger.Warn("calendar event creation failed",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
		}
	}

	dto := toBookingDTO(b)
	return &dto, nil
}

// CompleteBooking marks a confirmed booking completed after the visit. A cash
// payment still pending at completion is settled as part of the transition.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Reject the transition before settling anything so a pending booking never
	// leaves a settled payment behind.
	if err := b.Complete(); err != nil {
		return nil, err
	}

	if p, err := s.payments.FindByBookingID(ctx, bookingID); err == nil {
		if p.Method() == payment.MethodCash && p.Status() == payment.StatusPending {
			if err := p.Succeed(); err != nil {
				return nil, err
			}
			p.IncrementVersion()
			if err := s.payments.Update(ctx, p); err != nil {
				return nil, err
			}
			s.publishPaymentServiceEvent(ctx, p, events.PaymentSucceeded, "")
		}
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	b.IncrementVersion()
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}
	s.publishBookingEvent(ctx, b, events.BookingCompleted, "")

	dto := toBookingDTO(b)
	return &dto, nil
}

// Availability enumerates the open slot start times for a stylist on one day
// by subtracting booked starts from the fixed business window.
func (s *BookingService) Availability(ctx context.Context, branchID, stylistID uuid.UUID, date time.Time) (*AvailabilityDTO, error) {
	stylist, err := s.catalog.GetStylist(ctx, stylistID)
	if err != nil {
		return nil, err
	}
	if stylist.BranchID != branchID {
		return nil, domain.NewValidationError("stylist does not work at this branch")
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	from := day.Add(booking.OpeningHour * time.Hour)
	to := day.Add(booking.ClosingHour * time.Hour)

	booked, err := s.bookings.ListActiveStartTimes(ctx, branchID, stylistID, from, to)
	if err != nil {
		return nil, err
	}
	taken := make(map[time.Time]struct{}, len(booked))
	for _, t := range booked {
		taken[t.UTC()] = struct{}{}
	}

	slots := make([]time.Time, 0, int(to.Sub(from)/booking.SlotDuration))
	for t := from; t.Before(to); t = t.Add(booking.SlotDuration) {
		if _, occupied := taken[t]; !occupied {
			slots = append(slots, t)
		}
	}

	return &AvailabilityDTO{
		BranchID:  branchID,
		StylistID: stylistID,
		Date:      day.Format("2006-01-02"),
		Slots:     slots,
	}, nil
}

func (s *BookingService) publishBookingEvent(ctx context.Context, b *booking.Booking, eventType, reason string) {
	event := events.BookingEvent{
		BookingID:  b.ID(),
		CustomerID: b.CustomerID(),
		BranchID:   b.BranchID(),
		StylistID:  b.StylistID(),
		StartTime:  b.StartTime(),
		Status:     string(b.Status()),
		PriceCents: b.TotalPriceCents(),
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
	cloudEvent, err := kafka.NewCloudEvent("salon-api", eventType, event)
	if err != nil {
		s.logger.Error("failed to create booking cloud event", zap.Error(err))
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicBookingEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish booking event", zap.Error(err))
	}
}

func (s *BookingService) publishPaymentServiceEvent(ctx context.Context, p *payment.Payment, eventType, reason string) {
	event := events.PaymentEvent{
		PaymentID:   p.ID(),
		BookingID:   p.BookingID(),
		Method:      string(p.Method()),
		Status:      string(p.Status()),
		AmountCents: p.AmountCents(),
		ProviderRef: p.ProviderRef(),
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	}
	cloudEvent, err := kafka.NewCloudEvent("salon-api", eventType, event)
	if err != nil {
		s.logger.Error("failed to create payment cloud event", zap.Error(err))
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicPaymentEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish payment event", zap.Error(err))
	}
}

// toBookingDTO maps a domain Booking to a BookingDTO.
func toBookingDTO(b *booking.Booking) BookingDTO {
	return BookingDTO{
		ID:              b.ID(),
		BranchID:        b.BranchID(),
		StylistID:       b.StylistID(),
		ServiceID:       b.ServiceID(),
		CustomerID:      b.CustomerID(),
		StartTime:       b.StartTime(),
		EndTime:         b.EndTime(),
		Status:          string(b.Status()),
		TotalPriceCents: b.TotalPriceCents(),
		Version:         b.Version(),
		CreatedAt:       b.CreatedAt(),
		UpdatedAt:       b.UpdatedAt(),
	}
}
