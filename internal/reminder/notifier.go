package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/domain/notification"
)

// Notifier delivers a notification to a customer. Delivery transport is a
// seam: the console implementation logs, a real deployment plugs email/SMS in.
type Notifier interface {
	Send(ctx context.Context, n *notification.Notification) error
}

// ConsoleNotifier logs notifications instead of delivering them.
type ConsoleNotifier struct {
	logger *zap.Logger
}

// NewConsoleNotifier creates a logging Notifier.
func NewConsoleNotifier(logger *zap.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{logger: logger}
}

// Send logs the notification.
func (c *ConsoleNotifier) Send(_ context.Context, n *notification.Notification) error {
	c.logger.Info("notification dispatched",
		zap.String("user_id", n.UserID.String()),
		zap.String("kind", string(n.Kind)),
		zap.String("subject", n.Subject),
	)
	return nil
}

// Dispatcher records a notification row and sends it through the Notifier.
type Dispatcher struct {
	repo     notification.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(repo notification.Repository, notifier Notifier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, notifier: notifier, logger: logger}
}

// Dispatch persists and delivers one notification. A delivery failure is
// logged; the stored row is the system of record either way.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, bookingID uuid.UUID, kind notification.Kind, subject, body string) error {
	n := &notification.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		BookingID: bookingID,
		Kind:      kind,
		Subject:   subject,
		Body:      body,
		SentAt:    time.Now().UTC(),
	}
	if err := d.repo.Save(ctx, n); err != nil {
		return err
	}
	if err := d.notifier.Send(ctx, n); err != nil {
		d.logger.Warn("notification delivery failed",
			zap.String("notification_id", n.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}
