package adapter

import (
	"context"

	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/domain/payment"
)

// CashProvider keeps the orchestrator's contract uniform for in-person
// payment. It performs no external call and supports neither callbacks nor
// refunds; staff confirm cash payments explicitly.
type CashProvider struct {
	logger *zap.Logger
}

// NewCashProvider creates the cash provider variant.
func NewCashProvider(logger *zap.Logger) *CashProvider {
	return &CashProvider{logger: logger}
}

func (p *CashProvider) Method() payment.Method { return payment.MethodCash }

// CreatePayment acknowledges that payment will be collected at the branch.
func (p *CashProvider) CreatePayment(ctx context.Context, in CreatePaymentInput) (*ProviderResult, error) {
	p.logger.Debug("cash payment registered",
		zap.String("payment_id", in.PaymentID.String()),
		zap.Int64("amount_cents", in.AmountCents),
	)
	return &ProviderResult{
		Method:       payment.MethodCash,
		Confirmation: "pay at the branch before your appointment",
	}, nil
}
