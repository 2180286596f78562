package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/domain/promo"
)

func newPromoServiceUnderTest() (*PromoService, *fakePromoRepo) {
	repo := newFakePromoRepo()
	return NewPromoService(repo, zap.NewNop()), repo
}

func TestCreatePromo_ParsesWindowAndPersists(t *testing.T) {
	svc, repo := newPromoServiceUnderTest()
	now := time.Now().UTC()

	dto, err := svc.CreatePromo(context.Background(), CreatePromoRequest{
		Code:          "spring15",
		DiscountType:  string(promo.DiscountPercentage),
		DiscountValue: 15,
		MaxUses:       50,
		ValidFrom:     now.Format(time.RFC3339),
		ValidUntil:    now.Add(30 * 24 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.Equal(t, "SPRING15", dto.Code)

	stored, err := repo.FindByCode(context.Background(), "SPRING15")
	require.NoError(t, err)
	assert.Equal(t, dto.ID, stored.ID())
}

func TestCreatePromo_RejectsBadInput(t *testing.T) {
	svc, _ := newPromoServiceUnderTest()
	now := time.Now().UTC()
	ctx := context.Background()

	_, err := svc.CreatePromo(ctx, CreatePromoRequest{
		Code: "X", DiscountType: "percentage", DiscountValue: 10,
		ValidFrom: "yesterday", ValidUntil: now.Format(time.RFC3339),
	})
	require.Error(t, err, "valid_from must be RFC3339")

	_, err = svc.CreatePromo(ctx, CreatePromoRequest{
		Code: "X", DiscountType: "percentage", DiscountValue: 150,
		ValidFrom:  now.Format(time.RFC3339),
		ValidUntil: now.Add(time.Hour).Format(time.RFC3339),
	})
	require.Error(t, err, "domain validation surfaces through the service")
}

func TestValidatePromo_PreviewsDiscount(t *testing.T) {
	svc, repo := newPromoServiceUnderTest()
	now := time.Now().UTC()
	ctx := context.Background()

	pc, err := promo.NewPromoCode("OFF500", promo.DiscountFixed, 500, nil, 0, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, pc))

	result, err := svc.ValidatePromo(ctx, uuid.New(), ValidatePromoRequest{
		Code: "OFF500", BranchID: uuid.New(), AmountCents: 4500,
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, int64(4000), result.DiscountedCents)
}

func TestValidatePromo_InvalidCasesAreNotErrors(t *testing.T) {
	svc, repo := newPromoServiceUnderTest()
	now := time.Now().UTC()
	ctx := context.Background()
	customerID := uuid.New()

	// Unknown code.
	result, err := svc.ValidatePromo(ctx, customerID, ValidatePromoRequest{
		Code: "NOPE", BranchID: uuid.New(), AmountCents: 4500,
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "promo code not found", result.Message)

	// Already redeemed by this customer.
	pc, err := promo.NewPromoCode("ONCE", promo.DiscountFixed, 500, nil, 0, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, pc))
	require.NoError(t, repo.SaveRedemption(ctx, &promo.Redemption{
		ID: uuid.New(), PromoID: pc.ID(), CustomerID: customerID, BookingID: uuid.New(), DiscountCents: 500, RedeemedAt: now,
	}))

	result, err = svc.ValidatePromo(ctx, customerID, ValidatePromoRequest{
		Code: "ONCE", BranchID: uuid.New(), AmountCents: 4500,
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)

	// Expired code.
	expired, err := promo.NewPromoCode("OLD", promo.DiscountFixed, 500, nil, 0, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, expired))

	result, err = svc.ValidatePromo(ctx, customerID, ValidatePromoRequest{
		Code: "OLD", BranchID: uuid.New(), AmountCents: 4500,
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Message)
}
