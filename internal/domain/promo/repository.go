package promo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence operations for promo codes.
type Repository interface {
	Save(ctx context.Context, p *PromoCode) error
	Update(ctx context.Context, p *PromoCode) error
	FindByCode(ctx context.Context, code string) (*PromoCode, error)
	FindByID(ctx context.Context, id uuid.UUID) (*PromoCode, error)
	SaveRedemption(ctx context.Context, r *Redemption) error
	HasCustomerRedeemed(ctx context.Context, promoID, customerID uuid.UUID) (bool, error)
}

// Redemption records a single promo code use against a booking.
type Redemption struct {
	ID            uuid.UUID
	PromoID       uuid.UUID
	CustomerID    uuid.UUID
	BookingID     uuid.UUID
	DiscountCents int64
	RedeemedAt    time.Time
}
