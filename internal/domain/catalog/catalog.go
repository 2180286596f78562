package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Branch is a salon location.
type Branch struct {
	ID        uuid.UUID
	Name      string
	Address   string
	Phone     string
	CreatedAt time.Time
}

// Stylist is a staff member bookable at a branch.
type Stylist struct {
	ID        uuid.UUID
	BranchID  uuid.UUID
	UserID    uuid.UUID
	Name      string
	Active    bool
	CreatedAt time.Time
}

// Service is a bookable salon service with its list price.
type Service struct {
	ID         uuid.UUID
	Name       string
	PriceCents int64
	CreatedAt  time.Time
}

// Repository is the read-side contract for the catalog. Catalog rows are
// managed elsewhere; the booking core only reads them.
type Repository interface {
	GetBranch(ctx context.Context, id uuid.UUID) (*Branch, error)
	GetStylist(ctx context.Context, id uuid.UUID) (*Stylist, error)
	GetService(ctx context.Context, id uuid.UUID) (*Service, error)
	ListBranches(ctx context.Context) ([]*Branch, error)
	ListStylistsByBranch(ctx context.Context, branchID uuid.UUID) ([]*Stylist, error)
	ListServices(ctx context.Context) ([]*Service, error)
}
