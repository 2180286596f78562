package promo

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salonflow/platform/pkg/domain"
)

// DiscountType is how a promo code reduces a booking's price.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// PromoCode is the aggregate root for promotional codes redeemable at
// booking creation. A nil branch scope means the code is valid platform-wide.
type PromoCode struct {
	id            uuid.UUID
	code          string
	discountType  DiscountType
	discountValue int64 // percentage (1-100) or fixed amount in cents
	branchID      *uuid.UUID
	maxUses       int
	currentUses   int
	validFrom     time.Time
	validUntil    time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

// NewPromoCode creates a promo code after validating its shape.
func NewPromoCode(code string, discountType DiscountType, discountValue int64, branchID *uuid.UUID, maxUses int, validFrom, validUntil time.Time) (*PromoCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, domain.NewValidationError("promo code is required")
	}
	if discountType != DiscountPercentage && discountType != DiscountFixed {
		return nil, domain.NewValidationError("invalid discount type: " + string(discountType))
	}
	if discountValue <= 0 {
		return nil, domain.NewValidationError("discount value must be positive")
	}
	if discountType == DiscountPercentage && discountValue > 100 {
		return nil, domain.NewValidationError("percentage discount cannot exceed 100")
	}
	if validUntil.Before(validFrom) {
		return nil, domain.NewValidationError("valid_until must be after valid_from")
	}

	now := time.Now().UTC()
	return &PromoCode{
		id:            uuid.New(),
		code:          code,
		discountType:  discountType,
		discountValue: discountValue,
		branchID:      branchID,
		maxUses:       maxUses,
		validFrom:     validFrom,
		validUntil:    validUntil,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// IsRedeemable reports whether the code can be applied now at the branch.
func (p *PromoCode) IsRedeemable(branchID uuid.UUID) bool {
	now := time.Now().UTC()
	if now.Before(p.validFrom) || now.After(p.validUntil) {
		return false
	}
	if p.maxUses > 0 && p.currentUses >= p.maxUses {
		return false
	}
	if p.branchID != nil && *p.branchID != branchID {
		return false
	}
	return true
}

// Apply returns the discounted price for a booking total. The result never
// drops below zero.
func (p *PromoCode) Apply(totalCents int64, branchID uuid.UUID) (int64, error) {
	if !p.IsRedeemable(branchID) {
		return 0, domain.NewValidationError("promo code is not redeemable")
	}

	var discount int64
	switch p.discountType {
	case DiscountPercentage:
		discount = totalCents * p.discountValue / 100
	case DiscountFixed:
		discount = p.discountValue
	}
	if discount > totalCents {
		discount = totalCents
	}
	return totalCents - discount, nil
}

// MarkRedeemed increments the usage count.
func (p *PromoCode) MarkRedeemed() {
	p.currentUses++
	p.updatedAt = time.Now().UTC()
}

func (p *PromoCode) ID() uuid.UUID              { return p.id }
func (p *PromoCode) Code() string               { return p.code }
func (p *PromoCode) DiscountType() DiscountType { return p.discountType }
func (p *PromoCode) DiscountValue() int64       { return p.discountValue }
func (p *PromoCode) BranchID() *uuid.UUID       { return p.branchID }
func (p *PromoCode) MaxUses() int               { return p.maxUses }
func (p *PromoCode) CurrentUses() int           { return p.currentUses }
func (p *PromoCode) ValidFrom() time.Time       { return p.validFrom }
func (p *PromoCode) ValidUntil() time.Time      { return p.validUntil }
func (p *PromoCode) CreatedAt() time.Time       { return p.createdAt }
func (p *PromoCode) UpdatedAt() time.Time       { return p.updatedAt }

// Reconstitute rebuilds a PromoCode from persistence.
func Reconstitute(id uuid.UUID, code string, discountType DiscountType, discountValue int64, branchID *uuid.UUID, maxUses, currentUses int, validFrom, validUntil, createdAt, updatedAt time.Time) *PromoCode {
	return &PromoCode{
		id: id, code: code, discountType: discountType, discountValue: discountValue,
		branchID: branchID, maxUses: maxUses, currentUses: currentUses,
		validFrom: validFrom, validUntil: validUntil,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}
