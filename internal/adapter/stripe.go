package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/domain/payment"
	"github.com/salonflow/platform/pkg/domain"
)

// StripeConfig holds Stripe settings for the provider.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// CheckoutInput is what the backend needs to open a hosted checkout session.
type CheckoutInput struct {
	PaymentID   uuid.UUID
	BookingID   uuid.UUID
	AmountCents int64
}

// StripeBackend is the Anti-Corruption Layer over the Stripe API. The real
// implementation talks to Stripe; the mock simulates it for development
// and tests.
type StripeBackend interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (sessionID, sessionURL string, err error)
	CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64) error
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

// StripeProvider implements PaymentProvider, CallbackHandler and Refunder
// on top of a StripeBackend.
type StripeProvider struct {
	backend StripeBackend
	logger  *zap.Logger
}

// NewStripeProvider creates the Stripe provider variant.
func NewStripeProvider(backend StripeBackend, logger *zap.Logger) *StripeProvider {
	return &StripeProvider{backend: backend, logger: logger}
}

func (p *StripeProvider) Method() payment.Method { return payment.MethodStripe }

// CreatePayment opens a hosted checkout session for the booking.
func (p *StripeProvider) CreatePayment(ctx context.Context, in CreatePaymentInput) (*ProviderResult, error) {
	id, url, err := p.backend.CreateCheckoutSession(ctx, CheckoutInput{
		PaymentID:   in.PaymentID,
		BookingID:   in.BookingID,
		AmountCents: in.AmountCents,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &ProviderResult{
		Method:     payment.MethodStripe,
		SessionID:  id,
		SessionURL: url,
	}, nil
}

// RefundPayment refunds the captured payment intent.
func (p *StripeProvider) RefundPayment(ctx context.Context, providerRef string, amountCents int64) error {
	if providerRef == "" {
		return domain.NewValidationError("payment has no provider reference to refund")
	}
	return p.backend.CreateRefund(ctx, providerRef, amountCents)
}

// HandleCallback verifies the webhook signature against the exact raw body
// and maps the event onto a reconciliation outcome. Verification fails
// closed: any mismatch is an error, never a silently accepted event.
func (p *StripeProvider) HandleCallback(ctx context.Context, req CallbackRequest) (*CallbackOutcome, error) {
	if len(req.RawBody) == 0 {
		return nil, domain.NewValidationError("missing webhook body")
	}
	if req.Signature == "" {
		return nil, domain.NewValidationError("missing stripe-signature header")
	}

	event, err := p.backend.ConstructEvent(req.RawBody, req.Signature)
	if err != nil {
		return nil, domain.NewValidationError("invalid webhook signature")
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, domain.NewValidationError("malformed payment_intent payload")
		}
		paymentID, err := uuid.Parse(pi.Metadata["payment_id"])
		if err != nil {
			return nil, domain.NewValidationError("payment_intent has no payment_id metadata")
		}
		return &CallbackOutcome{
			Signal:      SignalSuccess,
			PaymentID:   paymentID,
			ProviderRef: pi.ID,
			Code:        string(event.Type),
		}, nil

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, domain.NewValidationError("malformed payment_intent payload")
		}
		paymentID, err := uuid.Parse(pi.Metadata["payment_id"])
		if err != nil {
			return nil, domain.NewValidationError("payment_intent has no payment_id metadata")
		}
		reason := "payment failed"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			reason = pi.LastPaymentError.Msg
		}
		return &CallbackOutcome{
			Signal:      SignalFailure,
			PaymentID:   paymentID,
			ProviderRef: pi.ID,
			Code:        string(event.Type),
			Reason:      reason,
		}, nil

	case "checkout.session.completed":
		// payment_intent.succeeded is the authoritative success signal;
		// session completion is acknowledged without acting on it.
		p.logger.Debug("ignoring checkout.session.completed", zap.String("event_id", event.ID))
		return &CallbackOutcome{Signal: SignalIgnore, Code: string(event.Type)}, nil
	}

	p.logger.Debug("ignoring unhandled stripe event", zap.String("type", string(event.Type)))
	return &CallbackOutcome{Signal: SignalIgnore, Code: string(event.Type)}, nil
}

// --- Real backend ---

type stripeBackend struct {
	cfg StripeConfig
}

// NewStripeBackend creates the production backend using the Stripe SDK.
func NewStripeBackend(cfg StripeConfig) StripeBackend {
	stripe.Key = cfg.SecretKey
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &stripeBackend{cfg: cfg}
}

func (b *stripeBackend) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(b.cfg.SuccessURL),
		CancelURL:         stripe.String(b.cfg.CancelURL),
		ClientReferenceID: stripe.String(in.BookingID.String()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(b.cfg.Currency),
					UnitAmount: stripe.Int64(in.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Salon booking"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				"payment_id": in.PaymentID.String(),
				"booking_id": in.BookingID.String(),
			},
		},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return "", "", err
	}
	return s.ID, s.URL, nil
}

func (b *stripeBackend) CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	if amountCents > 0 {
		params.Amount = stripe.Int64(amountCents)
	}
	params.Context = ctx

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("create refund: %w", err)
	}
	return nil
}

func (b *stripeBackend) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, b.cfg.WebhookSecret)
}

// --- Mock backend ---

// MockSignature is the signature header the mock backend accepts.
const MockSignature = "t=0,v1=mock"

// MockStripeBackend simulates Stripe for development and tests.
type MockStripeBackend struct {
	logger *zap.Logger

	// FailCreates makes CreateCheckoutSession fail this many times before
	// succeeding, for retry tests.
	FailCreates int

	// Refunds records refunded payment intent IDs.
	Refunds []string

	creates int
}

// NewMockStripeBackend creates a mock backend.
func NewMockStripeBackend(logger *zap.Logger) *MockStripeBackend {
	return &MockStripeBackend{logger: logger}
}

func (m *MockStripeBackend) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (string, string, error) {
	m.creates++
	if m.creates <= m.FailCreates {
		return "", "", fmt.Errorf("simulated stripe outage")
	}

	id := fmt.Sprintf("cs_mock_%s", uuid.New().String()[:8])
	url := fmt.Sprintf("https://checkout.stripe.example/%s", id)
	m.logger.Info("[MOCK STRIPE] checkout session created",
		zap.String("session_id", id),
		zap.String("payment_id", in.PaymentID.String()),
		zap.Int64("amount_cents", in.AmountCents),
	)
	return id, url, nil
}

func (m *MockStripeBackend) CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64) error {
	m.Refunds = append(m.Refunds, paymentIntentID)
	m.logger.Info("[MOCK STRIPE] refund created",
		zap.String("payment_intent_id", paymentIntentID),
		zap.Int64("amount_cents", amountCents),
	)
	return nil
}

func (m *MockStripeBackend) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	if sigHeader != MockSignature {
		return stripe.Event{}, fmt.Errorf("signature mismatch")
	}
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return stripe.Event{}, err
	}
	return event, nil
}
