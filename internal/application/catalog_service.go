package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/domain/catalog"
)

// CatalogService exposes the read side of the catalog: branches, stylists and
// services backing availability and booking validation.
type CatalogService struct {
	repo   catalog.Repository
	logger *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo catalog.Repository, logger *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// ListBranches returns all salon branches.
func (s *CatalogService) ListBranches(ctx context.Context) ([]*catalog.Branch, error) {
	return s.repo.ListBranches(ctx)
}

// ListStylists returns the active stylists at a branch.
func (s *CatalogService) ListStylists(ctx context.Context, branchID uuid.UUID) ([]*catalog.Stylist, error) {
	if _, err := s.repo.GetBranch(ctx, branchID); err != nil {
		return nil, err
	}
	return s.repo.ListStylistsByBranch(ctx, branchID)
}

// ListServices returns all bookable services.
func (s *CatalogService) ListServices(ctx context.Context) ([]*catalog.Service, error) {
	return s.repo.ListServices(ctx)
}
