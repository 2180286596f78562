package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salonflow/platform/internal/domain/notification"
)

// NotificationModel is the GORM persistence model for the notifications table.
type NotificationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	BookingID uuid.UUID `gorm:"type:uuid;index"`
	Kind      string    `gorm:"type:varchar(32);not null"`
	Subject   string    `gorm:"type:varchar(255);not null"`
	Body      string    `gorm:"type:text"`
	SentAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (NotificationModel) TableName() string { return "notifications" }

// NotificationRepositoryImpl is the GORM-based implementation of
// notification.Repository.
type NotificationRepositoryImpl struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new GORM-based notification repository.
func NewNotificationRepository(db *gorm.DB) *NotificationRepositoryImpl {
	return &NotificationRepositoryImpl{db: db}
}

// Save persists a dispatched notification record.
func (r *NotificationRepositoryImpl) Save(ctx context.Context, n *notification.Notification) error {
	model := NotificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		BookingID: n.BookingID,
		Kind:      string(n.Kind),
		Subject:   n.Subject,
		Body:      n.Body,
		SentAt:    n.SentAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// ListByUser retrieves a user's most recent notifications.
func (r *NotificationRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*notification.Notification, error) {
	var models []NotificationModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sent_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	items := make([]*notification.Notification, len(models))
	for i, m := range models {
		items[i] = &notification.Notification{
			ID:        m.ID,
			UserID:    m.UserID,
			BookingID: m.BookingID,
			Kind:      notification.Kind(m.Kind),
			Subject:   m.Subject,
			Body:      m.Body,
			SentAt:    m.SentAt,
		}
	}
	return items, nil
}
