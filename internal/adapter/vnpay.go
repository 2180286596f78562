package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/domain/payment"
	"github.com/salonflow/platform/pkg/domain"
)

// VNPay protocol constants.
const (
	vnpVersion       = "2.1.0"
	vnpCommandPay    = "pay"
	vnpCurrCode      = "VND"
	vnpLocale        = "vn"
	vnpDateLayout    = "20060102150405"
	vnpHashField     = "vnp_SecureHash"
	vnpHashTypeField = "vnp_SecureHashType"

	// VNPayCodeSuccess is the only response code that confirms a payment.
	VNPayCodeSuccess = "00"
)

// VNPayConfig holds merchant settings for VNPay.
type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
}

// VNPayProvider implements PaymentProvider and CallbackHandler for VNPay.
// VNPay has no API-initiated refund in this integration, so it does not
// implement Refunder.
type VNPayProvider struct {
	cfg    VNPayConfig
	now    func() time.Time
	logger *zap.Logger
}

// NewVNPayProvider creates the VNPay provider variant.
func NewVNPayProvider(cfg VNPayConfig, logger *zap.Logger) *VNPayProvider {
	return &VNPayProvider{cfg: cfg, now: time.Now, logger: logger}
}

func (p *VNPayProvider) Method() payment.Method { return payment.MethodVNPay }

// CreatePayment builds the signed redirect URL the customer pays at.
// Query parameters are sorted deterministically before signing.
func (p *VNPayProvider) CreatePayment(ctx context.Context, in CreatePaymentInput) (*ProviderResult, error) {
	params := url.Values{}
	params.Set("vnp_Version", vnpVersion)
	params.Set("vnp_Command", vnpCommandPay)
	params.Set("vnp_TmnCode", p.cfg.TmnCode)
	// VNPay expects the amount multiplied by 100.
	params.Set("vnp_Amount", fmt.Sprintf("%d", in.AmountCents*100))
	params.Set("vnp_CurrCode", vnpCurrCode)
	params.Set("vnp_TxnRef", in.PaymentID.String())
	params.Set("vnp_OrderInfo", "booking "+in.BookingID.String())
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", vnpLocale)
	params.Set("vnp_ReturnUrl", p.cfg.ReturnURL)
	params.Set("vnp_CreateDate", p.now().UTC().Format(vnpDateLayout))

	signData := canonicalQuery(params)
	params.Set(vnpHashField, p.sign(signData))

	return &ProviderResult{
		Method:     payment.MethodVNPay,
		PaymentURL: p.cfg.PayURL + "?" + params.Encode(),
	}, nil
}

// HandleCallback verifies the HMAC over the returned query parameters and
// maps the response code. The signature fields themselves are excluded from
// the signed data; any mismatch rejects the callback before state is read.
func (p *VNPayProvider) HandleCallback(ctx context.Context, req CallbackRequest) (*CallbackOutcome, error) {
	if len(req.Query) == 0 {
		return nil, domain.NewValidationError("missing callback query parameters")
	}

	received := req.Query.Get(vnpHashField)
	if received == "" {
		return nil, domain.NewValidationError("missing vnp_SecureHash")
	}

	unsigned := url.Values{}
	for k, vs := range req.Query {
		if k == vnpHashField || k == vnpHashTypeField {
			continue
		}
		for _, v := range vs {
			unsigned.Add(k, v)
		}
	}

	expected := p.sign(canonicalQuery(unsigned))
	if !hmac.Equal([]byte(expected), []byte(received)) {
		p.logger.Warn("vnpay signature mismatch",
			zap.String("txn_ref", req.Query.Get("vnp_TxnRef")),
		)
		return nil, domain.NewValidationError("invalid vnpay signature")
	}

	paymentID, err := uuid.Parse(req.Query.Get("vnp_TxnRef"))
	if err != nil {
		return nil, domain.NewValidationError("invalid vnp_TxnRef")
	}

	code := req.Query.Get("vnp_ResponseCode")
	outcome := &CallbackOutcome{
		PaymentID: paymentID,
		Code:      code,
	}
	if code == VNPayCodeSuccess {
		outcome.Signal = SignalSuccess
	} else {
		outcome.Signal = SignalFailure
		outcome.Reason = "vnpay response code " + code
	}
	return outcome, nil
}

// SignQuery signs arbitrary query parameters with the merchant secret.
// The reminder tests and mock callbacks use it to build valid payloads.
func (p *VNPayProvider) SignQuery(params url.Values) string {
	return p.sign(canonicalQuery(params))
}

func (p *VNPayProvider) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(p.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalQuery renders params as key=value pairs in sorted key order,
// values URL-encoded, the exact form VNPay hashes.
func canonicalQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params.Get(k)))
	}
	return sb.String()
}
