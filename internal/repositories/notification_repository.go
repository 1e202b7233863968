package repositories

import (
	"errors"
	"strconv"
	"time"

	"github.com/jhagel/campushub/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Upsert(notification *models.Notification) error
	GetByRecipientID(recipientID uint, page, limit int) ([]models.Notification, int64, error)
	GetByReference(referenceType, referenceID string, recipientID uint) (*models.Notification, error)
	GetUnreadCount(recipientID uint) (int64, error)
	MarkAsRead(notificationID, recipientID uint) error
	MarkAllAsRead(recipientID uint) error
	MarkSent(ids []uint) error
	FindDigestRecipients(hour int) ([]models.Account, error)
	FindUnsentUnread(recipientID uint) ([]models.Notification, error)
	DeleteByReference(referenceType, referenceID string) error
	DeleteForRecipient(notificationID, recipientID uint) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a new NotificationRepository backed by PostgreSQL
func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

// Upsert writes the notification row for its (reference, recipient) pair.
// When a row already exists the rendered content is refreshed, is_read is
// reset and updated_at bumped, so a recurring event on the same reference
// collapses into one row that moves back to the top of the list.
func (r *postgresNotificationRepository) Upsert(notification *models.Notification) error {
	now := time.Now()
	notification.UpdatedAt = now
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "reference_type"}, {Name: "reference_id"}, {Name: "recipient_id"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"rendered":   notification.Rendered,
			"sender_id":  notification.SenderID,
			"target_url": notification.TargetURL,
			"is_read":    false,
			"updated_at": now,
		}),
	}).Create(notification).Error
}

// GetByRecipientID returns paginated notifications, unread first, newest on top
func (r *postgresNotificationRepository) GetByRecipientID(recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	r.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&total)

	offset := (page - 1) * limit
	err := r.db.Preload("Sender").
		Where("recipient_id = ?", recipientID).
		Order("is_read ASC, updated_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

// GetByReference retrieves the notification row for a (reference, recipient)
// pair. Returns nil without error when no row exists.
func (r *postgresNotificationRepository) GetByReference(referenceType, referenceID string, recipientID uint) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.Where("reference_type = ? AND reference_id = ? AND recipient_id = ?",
		referenceType, referenceID, recipientID).First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// GetUnreadCount returns the unread notification count for a recipient
func (r *postgresNotificationRepository) GetUnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkAsRead marks a single notification as read, scoped to its recipient
func (r *postgresNotificationRepository) MarkAsRead(notificationID, recipientID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("is_read", true).Error
}

// MarkAllAsRead marks every unread notification of a recipient as read
func (r *postgresNotificationRepository) MarkAllAsRead(recipientID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
}

// MarkSent flags the given notifications as sent in one batch update
func (r *postgresNotificationRepository) MarkSent(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Notification{}).
		Where("id IN ?", ids).
		Update("is_sent", true).Error
}

// FindDigestRecipients returns the accounts due for a digest email: hourly
// subscribers, and daily subscribers whose chosen hour matches, restricted to
// accounts that actually have unsent unread notifications.
func (r *postgresNotificationRepository) FindDigestRecipients(hour int) ([]models.Account, error) {
	var accounts []models.Account
	pending := r.db.Model(&models.Notification{}).Select("recipient_id").
		Where("is_sent = ? AND is_read = ?", false, false)
	err := r.db.Where("id IN (?)", pending).
		Where("email_notifications = ? OR (email_notifications = ? AND daily_email_notification_hour = ?)",
			models.EmailHourly, models.EmailCollectedDaily, hour).
		Find(&accounts).Error
	return accounts, err
}

// FindUnsentUnread returns the digestible notifications of one recipient
func (r *postgresNotificationRepository) FindUnsentUnread(recipientID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("recipient_id = ? AND is_sent = ? AND is_read = ?", recipientID, false, false).
		Order("updated_at ASC").
		Find(&notifications).Error
	return notifications, err
}

// DeleteByReference removes all notification rows about one reference entity
func (r *postgresNotificationRepository) DeleteByReference(referenceType, referenceID string) error {
	return r.db.Where("reference_type = ? AND reference_id = ?", referenceType, referenceID).
		Delete(&models.Notification{}).Error
}

// DeleteForRecipient removes a single notification, scoped to its recipient
func (r *postgresNotificationRepository) DeleteForRecipient(notificationID, recipientID uint) error {
	return r.db.Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Delete(&models.Notification{}).Error
}

// deleteNotificationReferences cascades the removal of a Postgres-side
// reference entity to its notification rows.
func deleteNotificationReferences(tx *gorm.DB, referenceType string, referenceID uint) error {
	return tx.Where("reference_type = ? AND reference_id = ?", referenceType, strconv.FormatUint(uint64(referenceID), 10)).
		Delete(&models.Notification{}).Error
}

// deleteNotificationReferencesForRecipient removes one recipient's
// notification rows about a reference entity.
func deleteNotificationReferencesForRecipient(tx *gorm.DB, referenceType string, referenceID, recipientID uint) error {
	return tx.Where("reference_type = ? AND reference_id = ? AND recipient_id = ?",
		referenceType, strconv.FormatUint(uint64(referenceID), 10), recipientID).
		Delete(&models.Notification{}).Error
}
