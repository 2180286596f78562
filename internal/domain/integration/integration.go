package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CalendarType identifies an external calendar backend.
type CalendarType string

const CalendarGoogle CalendarType = "google"

// ExternalSession links a booking to a mirrored external calendar event.
// It is never the source of truth for booking state.
type ExternalSession struct {
	ID              uuid.UUID
	BookingID       uuid.UUID
	CalendarType    CalendarType
	ExternalEventID string
	CreatedAt       time.Time
}

// Credential is a stored per-user OAuth credential for an external
// integration. The booking core reads tokens and persists refreshed ones;
// it never creates credentials.
type Credential struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Integration  string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	ProviderData []byte
	UpdatedAt    time.Time
}

// SessionRepository persists calendar event linkage records.
type SessionRepository interface {
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*ExternalSession, error)
	Save(ctx context.Context, s *ExternalSession) error
	DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) error
}

// CredentialRepository reads and refreshes stored OAuth credentials.
type CredentialRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID, integration string) (*Credential, error)
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiry time.Time) error
}
