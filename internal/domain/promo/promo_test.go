package promo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWindow() (time.Time, time.Time) {
	now := time.Now().UTC()
	return now.Add(-time.Hour), now.Add(24 * time.Hour)
}

func TestNewPromoCode_NormalizesCode(t *testing.T) {
	from, until := validWindow()
	p, err := NewPromoCode("  welcome10 ", DiscountPercentage, 10, nil, 100, from, until)
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", p.Code())
}

func TestNewPromoCode_Validation(t *testing.T) {
	from, until := validWindow()

	tests := []struct {
		name         string
		code         string
		discountType DiscountType
		value        int64
		from, until  time.Time
	}{
		{"empty code", "", DiscountPercentage, 10, from, until},
		{"bad type", "X", DiscountType("bogus"), 10, from, until},
		{"zero value", "X", DiscountFixed, 0, from, until},
		{"over 100 percent", "X", DiscountPercentage, 150, from, until},
		{"inverted window", "X", DiscountFixed, 500, until, from},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPromoCode(tt.code, tt.discountType, tt.value, nil, 0, tt.from, tt.until)
			assert.Error(t, err)
		})
	}
}

func TestApply_PercentageAndFixed(t *testing.T) {
	from, until := validWindow()
	branch := uuid.New()

	pct, err := NewPromoCode("PCT20", DiscountPercentage, 20, nil, 0, from, until)
	require.NoError(t, err)
	got, err := pct.Apply(10000, branch)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), got)

	fixed, err := NewPromoCode("OFF500", DiscountFixed, 500, nil, 0, from, until)
	require.NoError(t, err)
	got, err = fixed.Apply(4500, branch)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), got)
}

func TestApply_NeverBelowZero(t *testing.T) {
	from, until := validWindow()
	p, err := NewPromoCode("BIGOFF", DiscountFixed, 10000, nil, 0, from, until)
	require.NoError(t, err)

	got, err := p.Apply(2500, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestIsRedeemable_WindowAndUsage(t *testing.T) {
	now := time.Now().UTC()
	branch := uuid.New()

	expired, err := NewPromoCode("OLD", DiscountFixed, 500, nil, 0, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.False(t, expired.IsRedeemable(branch))

	notYet, err := NewPromoCode("SOON", DiscountFixed, 500, nil, 0, now.Add(24*time.Hour), now.Add(48*time.Hour))
	require.NoError(t, err)
	assert.False(t, notYet.IsRedeemable(branch))

	from, until := validWindow()
	limited, err := NewPromoCode("ONCE", DiscountFixed, 500, nil, 1, from, until)
	require.NoError(t, err)
	assert.True(t, limited.IsRedeemable(branch))
	limited.MarkRedeemed()
	assert.False(t, limited.IsRedeemable(branch), "usage limit reached")

	_, err = limited.Apply(4500, branch)
	assert.Error(t, err)
}

func TestIsRedeemable_BranchScope(t *testing.T) {
	from, until := validWindow()
	home := uuid.New()
	scoped, err := NewPromoCode("LOCAL", DiscountPercentage, 15, &home, 0, from, until)
	require.NoError(t, err)

	assert.True(t, scoped.IsRedeemable(home))
	assert.False(t, scoped.IsRedeemable(uuid.New()), "other branches are out of scope")
}
