package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	promoDomain "github.com/salonflow/platform/internal/domain/promo"
	"github.com/salonflow/platform/pkg/domain"
)

// PromoModel is the GORM persistence model for the promos table.
type PromoModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Code          string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	DiscountType  string     `gorm:"type:varchar(20);not null"`
	DiscountValue int64      `gorm:"not null"`
	BranchID      *uuid.UUID `gorm:"type:uuid"`
	MaxUses       int        `gorm:"default:0"`
	CurrentUses   int        `gorm:"default:0"`
	ValidFrom     time.Time  `gorm:"type:timestamptz;not null"`
	ValidUntil    time.Time  `gorm:"type:timestamptz;not null"`
	CreatedAt     time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt     time.Time  `gorm:"type:timestamptz;not null"`
}

func (PromoModel) TableName() string { return "promos" }

// RedemptionModel is the GORM persistence model for the promo_redemptions table.
type RedemptionModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	PromoID       uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerID    uuid.UUID `gorm:"type:uuid;not null;index"`
	BookingID     uuid.UUID `gorm:"type:uuid;not null"`
	DiscountCents int64     `gorm:"not null"`
	RedeemedAt    time.Time `gorm:"type:timestamptz;not null"`
}

func (RedemptionModel) TableName() string { return "promo_redemptions" }

// PromoRepositoryImpl is the GORM-based implementation of promo.Repository.
type PromoRepositoryImpl struct {
	db *gorm.DB
}

// NewPromoRepository creates a new GORM-based promo repository.
func NewPromoRepository(db *gorm.DB) *PromoRepositoryImpl {
	return &PromoRepositoryImpl{db: db}
}

// Save persists a new promo code.
func (r *PromoRepositoryImpl) Save(ctx context.Context, p *promoDomain.PromoCode) error {
	model := promoToModel(p)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("promo code already exists: " + p.Code())
		}
		return err
	}
	return nil
}

// Update persists usage count changes to an existing promo code.
func (r *PromoRepositoryImpl) Update(ctx context.Context, p *promoDomain.PromoCode) error {
	model := promoToModel(p)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByCode retrieves a promo code by its code string.
func (r *PromoRepositoryImpl) FindByCode(ctx context.Context, code string) (*promoDomain.PromoCode, error) {
	var model PromoModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("promo code", code)
		}
		return nil, err
	}
	return promoToDomain(&model), nil
}

// FindByID retrieves a promo code by ID.
func (r *PromoRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*promoDomain.PromoCode, error) {
	var model PromoModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("promo code", id.String())
		}
		return nil, err
	}
	return promoToDomain(&model), nil
}

// SaveRedemption persists a promo redemption record.
func (r *PromoRepositoryImpl) SaveRedemption(ctx context.Context, red *promoDomain.Redemption) error {
	model := RedemptionModel{
		ID:            red.ID,
		PromoID:       red.PromoID,
		CustomerID:    red.CustomerID,
		BookingID:     red.BookingID,
		DiscountCents: red.DiscountCents,
		RedeemedAt:    red.RedeemedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// HasCustomerRedeemed reports whether a customer has already redeemed a promo.
func (r *PromoRepositoryImpl) HasCustomerRedeemed(ctx context.Context, promoID, customerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RedemptionModel{}).
		Where("promo_id = ? AND customer_id = ?", promoID, customerID).
		Count(&count).Error
	return count > 0, err
}

func promoToModel(p *promoDomain.PromoCode) PromoModel {
	return PromoModel{
		ID:            p.ID(),
		Code:          p.Code(),
		DiscountType:  string(p.DiscountType()),
		DiscountValue: p.DiscountValue(),
		BranchID:      p.BranchID(),
		MaxUses:       p.MaxUses(),
		CurrentUses:   p.CurrentUses(),
		ValidFrom:     p.ValidFrom(),
		ValidUntil:    p.ValidUntil(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
}

func promoToDomain(m *PromoModel) *promoDomain.PromoCode {
	return promoDomain.Reconstitute(
		m.ID, m.Code, promoDomain.DiscountType(m.DiscountType),
		m.DiscountValue, m.BranchID,
		m.MaxUses, m.CurrentUses,
		m.ValidFrom, m.ValidUntil,
		m.CreatedAt, m.UpdatedAt,
	)
}
