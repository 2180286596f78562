package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salonflow/platform/internal/domain/integration"
	"github.com/salonflow/platform/pkg/domain"
)

// ExternalSessionModel is the GORM persistence model for the external_sessions table.
type ExternalSessionModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	BookingID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CalendarType    string    `gorm:"type:varchar(32);not null"`
	ExternalEventID string    `gorm:"type:varchar(255);not null"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (ExternalSessionModel) TableName() string { return "external_sessions" }

// CredentialModel is the GORM persistence model for the credentials table.
type CredentialModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index:idx_credentials_user_integration,unique"`
	Integration  string    `gorm:"type:varchar(64);not null;index:idx_credentials_user_integration,unique"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text;not null"`
	Expiry       time.Time `gorm:"type:timestamptz;not null"`
	ProviderData []byte    `gorm:"type:jsonb"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (CredentialModel) TableName() string { return "credentials" }

// ExternalSessionRepositoryImpl is the GORM-based implementation of
// integration.SessionRepository.
type ExternalSessionRepositoryImpl struct {
	db *gorm.DB
}

// NewExternalSessionRepository creates a new GORM-based external session repository.
func NewExternalSessionRepository(db *gorm.DB) *ExternalSessionRepositoryImpl {
	return &ExternalSessionRepositoryImpl{db: db}
}

// FindByBookingID retrieves the calendar linkage for a booking.
func (r *ExternalSessionRepositoryImpl) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*integration.ExternalSession, error) {
	var model ExternalSessionModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("external session", bookingID.String())
		}
		return nil, err
	}
	return &integration.ExternalSession{
		ID:              model.ID,
		BookingID:       model.BookingID,
		CalendarType:    integration.CalendarType(model.CalendarType),
		ExternalEventID: model.ExternalEventID,
		CreatedAt:       model.CreatedAt,
	}, nil
}

// Save persists a new calendar linkage record.
func (r *ExternalSessionRepositoryImpl) Save(ctx context.Context, s *integration.ExternalSession) error {
	model := ExternalSessionModel{
		ID:              s.ID,
		BookingID:       s.BookingID,
		CalendarType:    string(s.CalendarType),
		ExternalEventID: s.ExternalEventID,
		CreatedAt:       s.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// DeleteByBookingID removes the calendar linkage for a booking. Missing rows
// are not an error: a booking without a mirrored event has nothing to remove.
func (r *ExternalSessionRepositoryImpl) DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Delete(&ExternalSessionModel{}).Error
}

// CredentialRepositoryImpl is the GORM-based implementation of
// integration.CredentialRepository.
type CredentialRepositoryImpl struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new GORM-based credential repository.
func NewCredentialRepository(db *gorm.DB) *CredentialRepositoryImpl {
	return &CredentialRepositoryImpl{db: db}
}

// FindByUser retrieves a user's stored credential for an integration.
func (r *CredentialRepositoryImpl) FindByUser(ctx context.Context, userID uuid.UUID, integrationName string) (*integration.Credential, error) {
	var model CredentialModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND integration = ?", userID, integrationName).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("credential", userID.String())
		}
		return nil, err
	}
	return &integration.Credential{
		ID:           model.ID,
		UserID:       model.UserID,
		Integration:  model.Integration,
		AccessToken:  model.AccessToken,
		RefreshToken: model.RefreshToken,
		Expiry:       model.Expiry,
		ProviderData: model.ProviderData,
		UpdatedAt:    model.UpdatedAt,
	}, nil
}

// UpdateTokens persists a refreshed token pair for a stored credential.
func (r *CredentialRepositoryImpl) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiry time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&CredentialModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expiry":        expiry,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("credential", id.String())
	}
	return nil
}
