package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salonflow/platform/internal/domain/catalog"
	"github.com/salonflow/platform/pkg/domain"
)

// BranchModel is the GORM persistence model for the branches table.
type BranchModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Address   string    `gorm:"type:text"`
	Phone     string    `gorm:"type:varchar(32)"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (BranchModel) TableName() string { return "branches" }

// StylistModel is the GORM persistence model for the stylists table.
type StylistModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	BranchID  uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (StylistModel) TableName() string { return "stylists" }

// ServiceModel is the GORM persistence model for the services table.
type ServiceModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name       string    `gorm:"type:varchar(255);not null"`
	PriceCents int64     `gorm:"not null"`
	CreatedAt  time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (ServiceModel) TableName() string { return "services" }

// CatalogRepositoryImpl is the GORM-based implementation of catalog.Repository.
type CatalogRepositoryImpl struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new GORM-based catalog repository.
func NewCatalogRepository(db *gorm.DB) *CatalogRepositoryImpl {
	return &CatalogRepositoryImpl{db: db}
}

// GetBranch retrieves a branch by ID.
func (r *CatalogRepositoryImpl) GetBranch(ctx context.Context, id uuid.UUID) (*catalog.Branch, error) {
	var model BranchModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("branch", id.String())
		}
		return nil, err
	}
	return &catalog.Branch{ID: model.ID, Name: model.Name, Address: model.Address, Phone: model.Phone, CreatedAt: model.CreatedAt}, nil
}

// GetStylist retrieves a stylist by ID.
func (r *CatalogRepositoryImpl) GetStylist(ctx context.Context, id uuid.UUID) (*catalog.Stylist, error) {
	var model StylistModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("stylist", id.String())
		}
		return nil, err
	}
	return stylistToDomain(&model), nil
}

// GetService retrieves a service by ID.
func (r *CatalogRepositoryImpl) GetService(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	var model ServiceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("service", id.String())
		}
		return nil, err
	}
	return &catalog.Service{ID: model.ID, Name: model.Name, PriceCents: model.PriceCents, CreatedAt: model.CreatedAt}, nil
}

// ListBranches retrieves all branches.
func (r *CatalogRepositoryImpl) ListBranches(ctx context.Context) ([]*catalog.Branch, error) {
	var models []BranchModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	branches := make([]*catalog.Branch, len(models))
	for i, m := range models {
		branches[i] = &catalog.Branch{ID: m.ID, Name: m.Name, Address: m.Address, Phone: m.Phone, CreatedAt: m.CreatedAt}
	}
	return branches, nil
}

// ListStylistsByBranch retrieves the active stylists at a branch.
func (r *CatalogRepositoryImpl) ListStylistsByBranch(ctx context.Context, branchID uuid.UUID) ([]*catalog.Stylist, error) {
	var models []StylistModel
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND active", branchID).
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	stylists := make([]*catalog.Stylist, len(models))
	for i := range models {
		stylists[i] = stylistToDomain(&models[i])
	}
	return stylists, nil
}

// ListServices retrieves all services.
func (r *CatalogRepositoryImpl) ListServices(ctx context.Context) ([]*catalog.Service, error) {
	var models []ServiceModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	services := make([]*catalog.Service, len(models))
	for i, m := range models {
		services[i] = &catalog.Service{ID: m.ID, Name: m.Name, PriceCents: m.PriceCents, CreatedAt: m.CreatedAt}
	}
	return services, nil
}

func stylistToDomain(m *StylistModel) *catalog.Stylist {
	return &catalog.Stylist{ID: m.ID, BranchID: m.BranchID, UserID: m.UserID, Name: m.Name, Active: m.Active, CreatedAt: m.CreatedAt}
}
