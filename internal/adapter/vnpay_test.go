package adapter

import (
	"context"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/domain/payment"
)

func testVNPayProvider() *VNPayProvider {
	return NewVNPayProvider(VNPayConfig{
		TmnCode:    "TESTTMN",
		HashSecret: "test-secret",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "https://salon.example/payments/vnpay/return",
	}, zap.NewNop())
}

// signedCallbackQuery builds a callback query signed the way VNPay signs its
// return redirects.
func signedCallbackQuery(p *VNPayProvider, paymentID uuid.UUID, responseCode string) url.Values {
	q := url.Values{}
	q.Set("vnp_TmnCode", "TESTTMN")
	q.Set("vnp_TxnRef", paymentID.String())
	q.Set("vnp_ResponseCode", responseCode)
	q.Set("vnp_Amount", "450000")
	q.Set("vnp_TransactionNo", "14226112")
	q.Set("vnp_SecureHash", p.SignQuery(q))
	return q
}

func TestVNPayCreatePayment_SignedRedirectURL(t *testing.T) {
	p := testVNPayProvider()

	result, err := p.CreatePayment(context.Background(), CreatePaymentInput{
		PaymentID:   uuid.New(),
		BookingID:   uuid.New(),
		AmountCents: 4500,
	})
	require.NoError(t, err)
	assert.Equal(t, payment.MethodVNPay, result.Method)

	parsed, err := url.Parse(result.PaymentURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "450000", q.Get("vnp_Amount"), "amount is sent multiplied by 100")
	assert.Equal(t, "TESTTMN", q.Get("vnp_TmnCode"))

	// The embedded hash must verify against the remaining parameters.
	received := q.Get("vnp_SecureHash")
	require.NotEmpty(t, received)
	q.Del("vnp_SecureHash")
	assert.Equal(t, p.SignQuery(q), received)
}

func TestVNPayCallback_SuccessCode(t *testing.T) {
	p := testVNPayProvider()
	paymentID := uuid.New()

	outcome, err := p.HandleCallback(context.Background(), CallbackRequest{
		Query: signedCallbackQuery(p, paymentID, VNPayCodeSuccess),
	})
	require.NoError(t, err)
	assert.Equal(t, SignalSuccess, outcome.Signal)
	assert.Equal(t, paymentID, outcome.PaymentID)
	assert.Equal(t, VNPayCodeSuccess, outcome.Code)
}

func TestVNPayCallback_FailureCode(t *testing.T) {
	p := testVNPayProvider()
	paymentID := uuid.New()

	outcome, err := p.HandleCallback(context.Background(), CallbackRequest{
		Query: signedCallbackQuery(p, paymentID, "24"),
	})
	require.NoError(t, err)
	assert.Equal(t, SignalFailure, outcome.Signal)
	assert.Equal(t, "24", outcome.Code)
	assert.Contains(t, outcome.Reason, "24")
}

func TestVNPayCallback_RejectsTamperedQuery(t *testing.T) {
	p := testVNPayProvider()
	q := signedCallbackQuery(p, uuid.New(), "24")

	// Flip the response code after signing.
	q.Set("vnp_ResponseCode", VNPayCodeSuccess)

	_, err := p.HandleCallback(context.Background(), CallbackRequest{Query: q})
	require.Error(t, err)
}

func TestVNPayCallback_RejectsMissingSignature(t *testing.T) {
	p := testVNPayProvider()

	q := url.Values{}
	q.Set("vnp_TxnRef", uuid.New().String())
	q.Set("vnp_ResponseCode", VNPayCodeSuccess)

	_, err := p.HandleCallback(context.Background(), CallbackRequest{Query: q})
	require.Error(t, err)

	_, err = p.HandleCallback(context.Background(), CallbackRequest{})
	require.Error(t, err)
}

func TestVNPayCallback_RejectsBadTxnRef(t *testing.T) {
	p := testVNPayProvider()

	q := url.Values{}
	q.Set("vnp_TxnRef", "not-a-uuid")
	q.Set("vnp_ResponseCode", VNPayCodeSuccess)
	q.Set("vnp_SecureHash", p.SignQuery(q))

	_, err := p.HandleCallback(context.Background(), CallbackRequest{Query: q})
	require.Error(t, err)
}
