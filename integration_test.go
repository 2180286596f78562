//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonflow/platform/internal/adapter"
	"github.com/salonflow/platform/internal/application"
	"github.com/salonflow/platform/internal/domain/booking"
	"github.com/salonflow/platform/internal/domain/payment"
	"github.com/salonflow/platform/internal/events"
	"github.com/salonflow/platform/pkg/auth"
	"github.com/salonflow/platform/pkg/domain"
)

// TestCashBooking_FullLifecycle walks a cash appointment from creation through
// counter settlement to completion and checks the events published along the way.
func TestCashBooking_FullLifecycle(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSalonStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	catalog := seedCatalog(t, infra.DB)
	customerID := newCustomerID()
	ctx := context.Background()

	// Reserve the slot.
	b, err := stack.Bookings.CreateBooking(ctx, customerID, application.CreateBookingRequest{
		BranchID:  catalog.BranchID,
		StylistID: catalog.StylistID,
		ServiceID: catalog.ServiceID,
		StartTime: nextSlot(t),
	})
	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusPending), b.Status)
	assert.Equal(t, int64(4500), b.TotalPriceCents)

	// Open a cash payment against it.
	resp, err := stack.Payments.CreatePaymentIntent(ctx, customerID, application.CreatePaymentRequest{
		BookingID: b.ID,
		Method:    "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, string(payment.StatusPending), resp.Payment.Status)
	assert.NotEmpty(t, resp.Provider.Confirmation)

	// Staff confirms the cash payment at the counter.
	confirmed, err := stack.Bookings.ConfirmCashPayment(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusConfirmed), confirmed.Status)

	p, err := stack.PaymentRepo.FindByBookingID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSucceeded, p.Status())

	// After the visit the booking is completed.
	done, err := stack.Bookings.CompleteBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusCompleted), done.Status)

	// Assert the lifecycle events landed on their topics.
	created := consumeOneEvent(t, infra.KafkaBrokers, events.TopicBookingEvents, events.BookingCreated, 15*time.Second)
	var createdEvt events.BookingEvent
	require.NoError(t, created.ParseData(&createdEvt))
	assert.Equal(t, b.ID, createdEvt.BookingID)
	assert.Equal(t, customerID, createdEvt.CustomerID)

	consumeOneEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents, events.PaymentSucceeded, 15*time.Second)
	consumeOneEvent(t, infra.KafkaBrokers, events.TopicBookingEvents, events.BookingConfirmed, 15*time.Second)
	consumeOneEvent(t, infra.KafkaBrokers, events.TopicBookingEvents, events.BookingCompleted, 15*time.Second)
}

// TestStripeWebhook_ConfirmsBooking verifies that a signed
// payment_intent.succeeded webhook settles the payment, confirms the booking,
// and that a duplicate delivery is a no-op.
func TestStripeWebhook_ConfirmsBooking(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSalonStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	catalog := seedCatalog(t, infra.DB)
	customerID := newCustomerID()
	ctx := context.Background()

	b, err := stack.Bookings.CreateBooking(ctx, customerID, application.CreateBookingRequest{
		BranchID:  catalog.BranchID,
		StylistID: catalog.StylistID,
		ServiceID: catalog.ServiceID,
		StartTime: nextSlot(t),
	})
	require.NoError(t, err)

	resp, err := stack.Payments.CreatePaymentIntent(ctx, customerID, application.CreatePaymentRequest{
		BookingID: b.ID,
		Method:    "stripe",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Provider.SessionURL)

	// Deliver the settlement webhook.
	intentID := "pi_mock_settled_01"
	payload := stripeEventPayload(t, "payment_intent.succeeded", resp.Payment.ID, intentID)
	err = stack.Reconciler.HandleCallback(ctx, payment.MethodStripe, adapter.CallbackRequest{
		RawBody:   payload,
		Signature: adapter.MockSignature,
	})
	require.NoError(t, err)

	p, err := stack.PaymentRepo.FindByID(ctx, resp.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSucceeded, p.Status())
	assert.Equal(t, intentID, p.ProviderRef(), "payment intent should supersede the session ref")

	got, err := stack.BookingRepo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, got.Status())

	// Stripe retries webhooks; the second delivery must not error or
	// change state.
	versionAfterFirst := p.Version()
	require.NoError(t, stack.Reconciler.HandleCallback(ctx, payment.MethodStripe, adapter.CallbackRequest{
		RawBody:   payload,
		Signature: adapter.MockSignature,
	}))
	p, err = stack.PaymentRepo.FindByID(ctx, resp.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, versionAfterFirst, p.Version(), "duplicate delivery should not bump the version")

	// A tampered signature is rejected outright.
	err = stack.Reconciler.HandleCallback(ctx, payment.MethodStripe, adapter.CallbackRequest{
		RawBody:   payload,
		Signature: "t=0,v1=forged",
	})
	require.Error(t, err)
}

// TestCancelConfirmedBooking_RefundsStripePayment verifies that cancelling a
// paid booking refunds through the provider and frees the slot.
func TestCancelConfirmedBooking_RefundsStripePayment(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSalonStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	catalog := seedCatalog(t, infra.DB)
	customerID := newCustomerID()
	ctx := context.Background()
	slot := nextSlot(t)

	b, err := stack.Bookings.CreateBooking(ctx, customerID, application.CreateBookingRequest{
		BranchID:  catalog.BranchID,
		StylistID: catalog.StylistID,
		ServiceID: catalog.ServiceID,
		StartTime: slot,
	})
	require.NoError(t, err)

	resp, err := stack.Payments.CreatePaymentIntent(ctx, customerID, application.CreatePaymentRequest{
		BookingID: b.ID,
		Method:    "stripe",
	})
	require.NoError(t, err)

	intentID := "pi_mock_to_refund"
	payload := stripeEventPayload(t, "payment_intent.succeeded", resp.Payment.ID, intentID)
	require.NoError(t, stack.Reconciler.HandleCallback(ctx, payment.MethodStripe, adapter.CallbackRequest{
		RawBody:   payload,
		Signature: adapter.MockSignature,
	}))

	cancelled, err := stack.Bookings.CancelBooking(ctx, customerID, auth.RoleCustomer, b.ID, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, string(booking.StatusCancelled), cancelled.Status)

	p, err := stack.PaymentRepo.FindByID(ctx, resp.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusRefunded, p.Status())
	assert.Contains(t, stack.MockStripe.Refunds, intentID, "refund should target the payment intent")

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents, events.PaymentRefunded, 15*time.Second)
	var refunded events.PaymentEvent
	require.NoError(t, ce.ParseData(&refunded))
	assert.Equal(t, resp.Payment.ID, refunded.PaymentID)

	// The slot opens up again for another customer.
	otherCustomer := newCustomerID()
	rebooked, err := stack.Bookings.CreateBooking(ctx, otherCustomer, application.CreateBookingRequest{
		BranchID:  catalog.BranchID,
		StylistID: catalog.StylistID,
		ServiceID: catalog.ServiceID,
		StartTime: slot,
	})
	require.NoError(t, err, "cancelled slot should be bookable again")
	assert.Equal(t, otherCustomer, rebooked.CustomerID)
}

// TestSlotConflict_SecondBookingRejected verifies that two customers cannot
// hold the same stylist slot.
func TestSlotConflict_SecondBookingRejected(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSalonStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	catalog := seedCatalog(t, infra.DB)
	ctx := context.Background()
	slot := nextSlot(t)

	_, err := stack.Bookings.CreateBooking(ctx, newCustomerID(), application.CreateBookingRequest{
		BranchID:  catalog.BranchID,
		StylistID: catalog.StylistID,
		ServiceID: catalog.ServiceID,
		StartTime: slot,
	})
	require.NoError(t, err)

	_, err = stack.Bookings.CreateBooking(ctx, newCustomerID(), application.CreateBookingRequest{
		BranchID:  catalog.BranchID,
		StylistID: catalog.StylistID,
		ServiceID: catalog.ServiceID,
		StartTime: slot,
	})
	require.Error(t, err, "second booking for the same slot must be rejected")

	// A racing insert that slips past the advisory read-then-check still
	// trips the partial unique index and maps to a conflict.
	racing, err := booking.NewBooking(catalog.BranchID, catalog.StylistID, catalog.ServiceID, newCustomerID(), slot, 4500)
	require.NoError(t, err)
	err = stack.BookingRepo.Save(ctx, racing)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict, "unique index violation should surface as a conflict")
}
