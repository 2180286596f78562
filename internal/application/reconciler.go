package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/adapter"
	"github.com/salonflow/platform/internal/domain/booking"
	"github.com/salonflow/platform/internal/domain/payment"
	"github.com/salonflow/platform/internal/events"
	"github.com/salonflow/platform/pkg/kafka"
)

// CalendarSync mirrors a booking into an external calendar. It is a pure side
// effect: failures are logged and never block the core flow.
type CalendarSync interface {
	CreateEvent(ctx context.Context, b *booking.Booking) error
	DeleteEvent(ctx context.Context, b *booking.Booking) error
}

// CallbackReconciler turns verified provider callbacks into payment and
// booking state transitions. Repeated deliveries of a terminal signal are
// no-ops; callbacks for unknown payments are rejected.
type CallbackReconciler struct {
	payments  payment.Repository
	bookings  booking.Repository
	providers *adapter.Registry
	calendar  CalendarSync
	producer  EventPublisher
	logger    *zap.Logger
}

// NewCallbackReconciler creates a new CallbackReconciler. calendar may be nil
// when no calendar integration is configured.
func NewCallbackReconciler(
	payments payment.Repository,
	bookings booking.Repository,
	providers *adapter.Registry,
	calendar CalendarSync,
	producer EventPublisher,
	logger *zap.Logger,
) *CallbackReconciler {
	return &CallbackReconciler{
		payments:  payments,
		bookings:  bookings,
		providers: providers,
		calendar:  calendar,
		producer:  producer,
		logger:    logger,
	}
}

// HandleCallback verifies and applies one provider callback. Verification
// failures, unknown methods, and unknown payments surface as errors; an
// authentic event the platform does not act on returns nil.
func (r *CallbackReconciler) HandleCallback(ctx context.Context, method payment.Method, req adapter.CallbackRequest) error {
	handler, err := r.providers.CallbackFor(method)
	if err != nil {
		return err
	}

	outcome, err := handler.HandleCallback(ctx, req)
	if err != nil {
		r.logger.Warn("callback rejected",
			zap.String("method", string(method)),
			zap.Error(err),
		)
		return err
	}

	if outcome.Signal == adapter.SignalIgnore {
		r.logger.Debug("callback acknowledged without action",
			zap.String("method", string(method)),
			zap.String("code", outcome.Code),
		)
		return nil
	}

	p, err := r.payments.FindByID(ctx, outcome.PaymentID)
	if err != nil {
		return err
	}

	switch outcome.Signal {
	case adapter.SignalSuccess:
		return r.applySuccess(ctx, p, outcome)
	case adapter.SignalFailure:
		return r.applyFailure(ctx, p, outcome)
	}
	return nil
}

func (r *CallbackReconciler) applySuccess(ctx context.Context, p *payment.Payment, outcome *adapter.CallbackOutcome) error {
	if p.Status() == payment.StatusSucceeded || p.Status().IsTerminal() {
		r.logger.Info("duplicate success callback ignored",
			zap.String("payment_id", p.ID().String()),
			zap.String("status", string(p.Status())),
		)
		return nil
	}

	// Stripe reports the payment intent only at settlement; it supersedes
	// the checkout session handle stored at creation so refunds can target
	// the intent.
	if outcome.ProviderRef != "" {
		p.SetProviderRef(outcome.ProviderRef)
	}
	if err := p.Succeed(); err != nil {
		return err
	}
	p.IncrementVersion()
	if err := r.payments.Update(ctx, p); err != nil {
		return err
	}

	r.logger.Info("payment succeeded",
		zap.String("payment_id", p.ID().String()),
		zap.String("booking_id", p.BookingID().String()),
	)
	r.publishPaymentEvent(ctx, p, events.PaymentSucceeded, "")

	b, err := r.bookings.FindByID(ctx, p.BookingID())
	if err != nil {
		return err
	}
	if err := b.Confirm(); err != nil {
		// The booking may have been cancelled while the callback was in
		// flight; the payment stays succeeded and refundable.
		r.logger.Warn("could not confirm booking after payment success",
			zap.String("booking_id", b.ID().String()),
			zap.String("status", string(b.Status())),
			zap.Error(err),
		)
		return nil
	}
	b.IncrementVersion()
	if err := r.bookings.Update(ctx, b); err != nil {
		return err
	}
	r.publishBookingEvent(ctx, b, events.BookingConfirmed, "")

	if r.calendar != nil {
		if err := r.calendar.CreateEvent(ctx, b); err != nil {
			r.logger.Warn("calendar event creation failed",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (r *CallbackReconciler) applyFailure(ctx context.Context, p *payment.Payment, outcome *adapter.CallbackOutcome) error {
	if p.Status() == payment.StatusFailed || p.Status().IsTerminal() {
		r.logger.Info("duplicate failure callback ignored",
			zap.String("payment_id", p.ID().String()),
			zap.String("status", string(p.Status())),
		)
		return nil
	}

	reason := outcome.Reason
	if reason == "" {
		reason = "provider reported code " + outcome.Code
	}
	if err := p.Fail(reason); err != nil {
		return err
	}
	p.IncrementVersion()
	if err := r.payments.Update(ctx, p); err != nil {
		return err
	}

	r.logger.Info("payment failed",
		zap.String("payment_id", p.ID().String()),
		zap.String("code", outcome.Code),
		zap.String("reason", reason),
	)
	r.publishPaymentEvent(ctx, p, events.PaymentFailed, reason)
	return nil
}

func (r *CallbackReconciler) publishPaymentEvent(ctx context.Context, p *payment.Payment, eventType, reason string) {
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
		r.logger.Error("failed to create payment cloud event", zap.Error(err))
		return
	}
	if err := r.producer.PublishEvent(ctx, events.TopicPaymentEvents, cloudEvent); err != nil {
		r.logger.Error("failed to publish payment event", zap.Error(err))
	}
}

func (r *CallbackReconciler) publishBookingEvent(ctx context.Context, b *booking.Booking, eventType, reason string) {
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
		r.logger.Error("failed to create booking cloud event", zap.Error(err))
		return
	}
	if err := r.producer.PublishEvent(ctx, events.TopicBookingEvents, cloudEvent); err != nil {
		r.logger.Error("failed to publish booking event", zap.Error(err))
	}
}
