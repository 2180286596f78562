package adapter

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/salonflow/platform/internal/domain/booking"
	"github.com/salonflow/platform/internal/domain/integration"
	"github.com/salonflow/platform/pkg/domain"
)

// GoogleCalendarConfig holds the OAuth application settings.
type GoogleCalendarConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// GoogleCalendarSync mirrors bookings into customers' Google calendars.
// It is strictly best-effort: every error is reported to the caller for
// logging and never blocks a booking or payment transition.
type GoogleCalendarSync struct {
	oauthCfg *oauth2.Config
	creds    integration.CredentialRepository
	sessions integration.SessionRepository
	logger   *zap.Logger
}

// NewGoogleCalendarSync creates the calendar collaborator.
func NewGoogleCalendarSync(cfg GoogleCalendarConfig, creds integration.CredentialRepository, sessions integration.SessionRepository, logger *zap.Logger) *GoogleCalendarSync {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = "https://oauth2.googleapis.com/token"
	}
	return &GoogleCalendarSync{
		oauthCfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
			Scopes:       []string{calendar.CalendarEventsScope},
		},
		creds:    creds,
		sessions: sessions,
		logger:   logger,
	}
}

// CreateEvent inserts a calendar event for the booking and records the
// linkage. Customers without a stored Google credential are skipped.
func (s *GoogleCalendarSync) CreateEvent(ctx context.Context, b *booking.Booking) error {
	cred, err := s.creds.FindByUser(ctx, b.CustomerID(), "google")
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	event := &calendar.Event{
		Summary:     "Salon appointment",
		Description: "Booking " + b.ID().String(),
		Start:       &calendar.EventDateTime{DateTime: b.StartTime().Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: b.EndTime().Format(time.RFC3339)},
	}

	var eventID string
	err = s.withClient(ctx, cred, func(svc *calendar.Service) error {
		created, err := svc.Events.Insert("primary", event).Context(ctx).Do()
		if err != nil {
			return err
		}
		eventID = created.Id
		return nil
	})
	if err != nil {
		return err
	}

	return s.sessions.Save(ctx, &integration.ExternalSession{
		BookingID:       b.ID(),
		CalendarType:    integration.CalendarGoogle,
		ExternalEventID: eventID,
		CreatedAt:       time.Now().UTC(),
	})
}

// DeleteEvent removes the mirrored calendar event for a cancelled booking.
// A booking with no linked event is a no-op.
func (s *GoogleCalendarSync) DeleteEvent(ctx context.Context, b *booking.Booking) error {
	session, err := s.sessions.FindByBookingID(ctx, b.ID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	cred, err := s.creds.FindByUser(ctx, b.CustomerID(), "google")
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.sessions.DeleteByBookingID(ctx, b.ID())
		}
		return err
	}

	err = s.withClient(ctx, cred, func(svc *calendar.Service) error {
		err := svc.Events.Delete("primary", session.ExternalEventID).Context(ctx).Do()
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == 404 || gerr.Code == 410) {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}

	return s.sessions.DeleteByBookingID(ctx, b.ID())
}

// withClient runs op with a calendar client built from the stored
// credential. On a 401 it forces a token refresh, persists the new token,
// and retries exactly once.
func (s *GoogleCalendarSync) withClient(ctx context.Context, cred *integration.Credential, op func(*calendar.Service) error) error {
	token := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Expiry:       cred.Expiry,
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return err
	}

	err = op(svc)
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != 401 {
		return err
	}

	// Access token rejected. Exchange the refresh token and retry once.
	refreshed, err := s.oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		return err
	}
	if err := s.creds.UpdateTokens(ctx, cred.ID, refreshed.AccessToken, refreshed.RefreshToken, refreshed.Expiry); err != nil {
		s.logger.Warn("failed to persist refreshed google token", zap.Error(err))
	}

	svc, err = calendar.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(refreshed)))
	if err != nil {
		return err
	}
	return op(svc)
}
