package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/salonflow/platform/internal/adapter"
	"github.com/salonflow/platform/internal/domain/booking"
	"github.com/salonflow/platform/internal/domain/payment"
	"github.com/salonflow/platform/internal/events"
	"github.com/salonflow/platform/pkg/auth"
	"github.com/salonflow/platform/pkg/domain"
	"github.com/salonflow/platform/pkg/kafka"
	"github.com/salonflow/platform/pkg/retry"
)

// CreatePaymentRequest is the DTO for opening a payment against a booking.
type CreatePaymentRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	Method    string    `json:"method" binding:"required"`
}

// RefundPaymentRequest is the DTO for a staff-initiated refund.
type RefundPaymentRequest struct {
	PaymentID uuid.UUID `json:"payment_id" binding:"required"`
	Reason    string    `json:"reason" binding:"required"`
}

// PaymentDTO is the API response DTO for payment data.
type PaymentDTO struct {
	ID          uuid.UUID  `json:"id"`
	BookingID   uuid.UUID  `json:"booking_id"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	AmountCents int64      `json:"amount_cents"`
	ProviderRef string     `json:"provider_ref,omitempty"`
	FailReason  string     `json:"fail_reason,omitempty"`
	SucceededAt *time.Time `json:"succeeded_at,omitempty"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreatePaymentResponse pairs the persisted payment with the provider's
// client-facing payload (checkout URL, redirect URL, or confirmation).
type CreatePaymentResponse struct {
	Payment  PaymentDTO              `json:"payment"`
	Provider *adapter.ProviderResult `json:"provider"`
}

// PaymentService orchestrates payment use cases against the provider set.
type PaymentService struct {
	payments  payment.Repository
	bookings  booking.Repository
	providers *adapter.Registry
	producer  EventPublisher
	retry     retry.Policy
	logger    *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	payments payment.Repository,
	bookings booking.Repository,
	providers *adapter.Registry,
	producer EventPublisher,
	retryPolicy retry.Policy,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		payments:  payments,
		bookings:  bookings,
		providers: providers,
		producer:  producer,
		retry:     retryPolicy,
		logger:    logger,
	}
}

// CreatePaymentIntent validates the booking, persists a pending payment, and
// opens it with the selected provider. Persistence and the provider call run
// concurrently; the overall operation succeeds only when both do.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, customerID uuid.UUID, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	method, ok := payment.ParseMethod(req.Method)
	if !ok {
		return nil, domain.NewValidationError("unknown payment method: " + req.Method)
	}

	b, err := s.bookings.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID() != customerID {
		return nil, domain.NewForbiddenError("booking belongs to another customer")
	}
	if b.Status() != booking.StatusPending {
		return nil, domain.NewInvalidStateError(string(b.Status()), "payment creation requires a pending booking")
	}

	if existing, err := s.payments.FindByBookingID(ctx, req.BookingID); err == nil {
		return nil, domain.NewConflictError("payment already exists for booking: " + existing.ID().String())
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	provider, err := s.providers.ForMethod(method)
	if err != nil {
		return nil, err
	}

	p := payment.NewPayment(b.ID(), method, b.TotalPriceCents())

	s.logger.Info("creating payment intent",
		zap.String("payment_id", p.ID().String()),
		zap.String("booking_id", b.ID().String()),
		zap.String("method", string(method)),
		zap.Int64("amount_cents", p.AmountCents()),
	)

	var result *adapter.ProviderResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.payments.Save(gctx, p)
	})
	g.Go(func() error {
		return s.retry.Do(gctx, func() error {
			var perr error
			result, perr = provider.CreatePayment(gctx, adapter.CreatePaymentInput{
				PaymentID:   p.ID(),
				BookingID:   b.ID(),
				BranchID:    b.BranchID(),
				AmountCents: p.AmountCents(),
			})
			return perr
		})
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("payment intent creation failed",
			zap.String("payment_id", p.ID().String()),
			zap.Error(err),
		)
		// The pending row may or may not have landed; mark it failed so
		// the booking is not stuck behind an unfinishable payment.
		if ferr := p.Fail("provider call failed: " + err.Error()); ferr == nil {
			p.IncrementVersion()
			if uerr := s.payments.Update(ctx, p); uerr != nil {
				s.logger.Warn("could not mark failed payment",
					zap.String("payment_id", p.ID().String()),
					zap.Error(uerr),
				)
			}
		}
		return nil, err
	}

	if ref := result.Ref(); ref != "" {
		p.SetProviderRef(ref)
		p.IncrementVersion()
		if err := s.payments.Update(ctx, p); err != nil {
			return nil, err
		}
	}

	dto := toPaymentDTO(p)
	return &CreatePaymentResponse{Payment: dto, Provider: result}, nil
}

// GetPayment retrieves a payment by its ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*PaymentDTO, error) {
	p, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	dto := toPaymentDTO(p)
	return &dto, nil
}

// GetPaymentByBooking retrieves the payment for a booking. Customers may only
// read payments on their own bookings; staff may read any.
func (s *PaymentService) GetPaymentByBooking(ctx context.Context, requesterID uuid.UUID, role auth.Role, bookingID uuid.UUID) (*PaymentDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !role.IsStaff() && b.CustomerID() != requesterID {
		return nil, domain.NewForbiddenError("booking belongs to another customer")
	}

	p, err := s.payments.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	dto := toPaymentDTO(p)
	return &dto, nil
}

// RefundPayment reverses a captured payment through its provider. Only
// providers with the refund capability qualify, and only succeeded payments
// can be refunded.
func (s *PaymentService) RefundPayment(ctx context.Context, req RefundPaymentRequest) (*PaymentDTO, error) {
	p, err := s.payments.FindByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if p.Status() != payment.StatusSucceeded {
		return nil, domain.NewInvalidStateError(string(p.Status()), string(payment.StatusRefunded))
	}

	refunder, err := s.providers.RefunderFor(p.Method())
	if err != nil {
		return nil, err
	}

	s.logger.Info("refunding payment",
		zap.String("payment_id", p.ID().String()),
		zap.String("reason", req.Reason),
	)

	err = s.retry.Do(ctx, func() error {
		return refunder.RefundPayment(ctx, p.ProviderRef(), p.AmountCents())
	})
	if err != nil {
		s.logger.Error("provider refund failed",
			zap.String("payment_id", p.ID().String()),
			zap.Error(err),
		)
		return nil, err
	}

	if err := p.Refund(); err != nil {
		return nil, err
	}
	p.IncrementVersion()
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}

	s.publishPaymentEvent(ctx, p, events.PaymentRefunded, req.Reason)

	dto := toPaymentDTO(p)
	return &dto, nil
}

// --- Admin methods ---

// PaymentStatsDTO holds payment statistics for the staff dashboard.
type PaymentStatsDTO struct {
	TotalRevenueCents int64            `json:"total_revenue_cents"`
	TotalPayments     int64            `json:"total_payments"`
	ByStatus          map[string]int64 `json:"by_status"`
}

// ListAllPayments returns a paginated list of all payments (staff).
func (s *PaymentService) ListAllPayments(ctx context.Context, page, limit int) ([]PaymentDTO, int64, error) {
	payments, total, err := s.payments.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos, total, nil
}

// GetPaymentStats returns aggregate payment statistics (staff).
func (s *PaymentService) GetPaymentStats(ctx context.Context) (*PaymentStatsDTO, error) {
	revenue, counts, err := s.payments.GetRevenueStats(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &PaymentStatsDTO{
		TotalRevenueCents: revenue,
		TotalPayments:     total,
		ByStatus:          counts,
	}, nil
}

func (s *PaymentService) publishPaymentEvent(ctx context.Context, p *payment.Payment, eventType, reason string) {
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

// toPaymentDTO maps a domain Payment to a PaymentDTO.
func toPaymentDTO(p *payment.Payment) PaymentDTO {
	return PaymentDTO{
		ID:          p.ID(),
		BookingID:   p.BookingID(),
		Method:      string(p.Method()),
		Status:      string(p.Status()),
		AmountCents: p.AmountCents(),
		ProviderRef: p.ProviderRef(),
		FailReason:  p.FailReason(),
		SucceededAt: p.SucceededAt(),
		RefundedAt:  p.RefundedAt(),
		Version:     p.Version(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}
