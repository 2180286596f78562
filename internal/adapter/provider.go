package adapter

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/salonflow/platform/internal/domain/payment"
	"github.com/salonflow/platform/pkg/domain"
)

// CreatePaymentInput carries everything a provider needs to open a payment.
type CreatePaymentInput struct {
	PaymentID   uuid.UUID
	BookingID   uuid.UUID
	BranchID    uuid.UUID
	AmountCents int64
}

// ProviderResult is the provider-specific outcome of creating a payment.
// Callers must treat it as an opaque payload for the client; only the field
// group matching Method is populated.
type ProviderResult struct {
	Method payment.Method `json:"method"`

	// Stripe hosted checkout.
	SessionID  string `json:"session_id,omitempty"`
	SessionURL string `json:"session_url,omitempty"`

	// VNPay redirect.
	PaymentURL string `json:"payment_url,omitempty"`

	// Cash.
	Confirmation string `json:"confirmation,omitempty"`
}

// Ref returns the correlation handle to persist on the payment row.
func (r *ProviderResult) Ref() string {
	switch r.Method {
	case payment.MethodStripe:
		return r.SessionID
	case payment.MethodVNPay:
		return r.PaymentURL
	}
	return ""
}

// Signal is the normalized meaning of a provider callback.
type Signal string

const (
	SignalSuccess Signal = "success"
	SignalFailure Signal = "failure"
	// SignalIgnore marks an authentic event the platform deliberately
	// does not act on.
	SignalIgnore Signal = "ignore"
)

// CallbackRequest is the raw material of an inbound provider callback.
// Stripe needs the exact unparsed body plus the signature header; VNPay
// needs the query parameters.
type CallbackRequest struct {
	RawBody   []byte
	Signature string
	Query     url.Values
}

// CallbackOutcome is a verified callback mapped to internal terms.
// ProviderRef, when set, supersedes the handle stored at creation time
// (Stripe reports the payment intent only once the payment settles).
type CallbackOutcome struct {
	Signal      Signal
	PaymentID   uuid.UUID
	ProviderRef string
	Code        string
	Reason      string
}

// PaymentProvider is the uniform contract every payment backend implements.
type PaymentProvider interface {
	Method() payment.Method
	CreatePayment(ctx context.Context, in CreatePaymentInput) (*ProviderResult, error)
}

// CallbackHandler is the optional capability of verifying and normalizing
// inbound callbacks. Providers without callbacks (cash) do not implement it.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, req CallbackRequest) (*CallbackOutcome, error)
}

// Refunder is the optional capability of reversing a captured payment.
type Refunder interface {
	RefundPayment(ctx context.Context, providerRef string, amountCents int64) error
}

// Registry holds the closed set of provider variants and dispatches by
// method. The set is fixed at construction; there is no mutable lookup map.
type Registry struct {
	stripe PaymentProvider
	vnpay  PaymentProvider
	cash   PaymentProvider
}

// NewRegistry wires the three provider variants.
func NewRegistry(stripe, vnpay, cash PaymentProvider) *Registry {
	return &Registry{stripe: stripe, vnpay: vnpay, cash: cash}
}

// ForMethod selects the provider variant for a payment method.
func (r *Registry) ForMethod(m payment.Method) (PaymentProvider, error) {
	switch m {
	case payment.MethodStripe:
		return r.stripe, nil
	case payment.MethodVNPay:
		return r.vnpay, nil
	case payment.MethodCash:
		return r.cash, nil
	}
	return nil, domain.NewValidationError("unknown payment method: " + string(m))
}

// CallbackFor returns the callback capability for a method, or an
// unsupported error when the provider has none.
func (r *Registry) CallbackFor(m payment.Method) (CallbackHandler, error) {
	p, err := r.ForMethod(m)
	if err != nil {
		return nil, err
	}
	h, ok := p.(CallbackHandler)
	if !ok {
		return nil, domain.NewUnsupportedError("payment method " + string(m) + " does not support callbacks")
	}
	return h, nil
}

// RefunderFor returns the refund capability for a method, or an
// unsupported error when the provider has none.
func (r *Registry) RefunderFor(m payment.Method) (Refunder, error) {
	p, err := r.ForMethod(m)
	if err != nil {
		return nil, err
	}
	ref, ok := p.(Refunder)
	if !ok {
		return nil, domain.NewUnsupportedError("payment method " + string(m) + " does not support refunds")
	}
	return ref, nil
}
