package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	promoDomain "github.com/salonflow/platform/internal/domain/promo"
	"github.com/salonflow/platform/pkg/domain"
)

// CreatePromoRequest holds data to create a promo code.
type CreatePromoRequest struct {
	Code          string     `json:"code" binding:"required"`
	DiscountType  string     `json:"discount_type" binding:"required"`
	DiscountValue int64      `json:"discount_value" binding:"required"`
	BranchID      *uuid.UUID `json:"branch_id"`
	MaxUses       int        `json:"max_uses"`
	ValidFrom     string     `json:"valid_from" binding:"required"`
	ValidUntil    string     `json:"valid_until" binding:"required"`
}

// ValidatePromoRequest holds data to preview a promo code against a price.
type ValidatePromoRequest struct {
	Code        string    `json:"code" binding:"required"`
	BranchID    uuid.UUID `json:"branch_id" binding:"required"`
	AmountCents int64     `json:"amount_cents" binding:"required"`
}

// PromoDTO is the API response representation of a promo code.
type PromoDTO struct {
	ID            uuid.UUID  `json:"id"`
	Code          string     `json:"code"`
	DiscountType  string     `json:"discount_type"`
	DiscountValue int64      `json:"discount_value"`
	BranchID      *uuid.UUID `json:"branch_id,omitempty"`
	MaxUses       int        `json:"max_uses"`
	CurrentUses   int        `json:"current_uses"`
	ValidFrom     time.Time  `json:"valid_from"`
	ValidUntil    time.Time  `json:"valid_until"`
	CreatedAt     time.Time  `json:"created_at"`
}

// PromoValidationDTO is the result of previewing a promo code.
type PromoValidationDTO struct {
	Valid           bool   `json:"valid"`
	Code            string `json:"code"`
	DiscountedCents int64  `json:"discounted_cents"`
	Message         string `json:"message,omitempty"`
}

// PromoService handles promo code use cases.
type PromoService struct {
	repo   promoDomain.Repository
	logger *zap.Logger
}

// NewPromoService creates a new PromoService.
func NewPromoService(repo promoDomain.Repository, logger *zap.Logger) *PromoService {
	return &PromoService{repo: repo, logger: logger}
}

// CreatePromo creates a new promo code (staff only).
func (s *PromoService) CreatePromo(ctx context.Context, req CreatePromoRequest) (*PromoDTO, error) {
	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		return nil, domain.NewValidationError("invalid valid_from format (use RFC3339)")
	}
	validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		return nil, domain.NewValidationError("invalid valid_until format (use RFC3339)")
	}

	pc, err := promoDomain.NewPromoCode(
		req.Code,
		promoDomain.DiscountType(req.DiscountType),
		req.DiscountValue,
		req.BranchID,
		req.MaxUses,
		validFrom,
		validUntil,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, pc); err != nil {
		return nil, err
	}

	s.logger.Info("promo code created", zap.String("code", pc.Code()))
	return toPromoDTO(pc), nil
}

// ValidatePromo previews a promo code against a price without redeeming it.
func (s *PromoService) ValidatePromo(ctx context.Context, customerID uuid.UUID, req ValidatePromoRequest) (*PromoValidationDTO, error) {
	pc, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil {
		if domain.IsNotFound(err) {
			return &PromoValidationDTO{Valid: false, Code: req.Code, Message: "promo code not found"}, nil
		}
		return nil, err
	}

	redeemed, err := s.repo.HasCustomerRedeemed(ctx, pc.ID(), customerID)
	if err != nil {
		return nil, err
	}
	if redeemed {
		return &PromoValidationDTO{Valid: false, Code: req.Code, Message: "promo code already redeemed"}, nil
	}

	discounted, err := pc.Apply(req.AmountCents, req.BranchID)
	if err != nil {
		return &PromoValidationDTO{Valid: false, Code: req.Code, Message: err.Error()}, nil
	}

	return &PromoValidationDTO{
		Valid:           true,
		Code:            pc.Code(),
		DiscountedCents: discounted,
	}, nil
}

func toPromoDTO(p *promoDomain.PromoCode) *PromoDTO {
	return &PromoDTO{
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
	}
}
