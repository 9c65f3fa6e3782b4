package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"gorm.io/gorm"
)

// NotificationRepository handles notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, recipientID string, page, limit int) ([]domain.Notification, int64, error)
	CountByRecipientAndType(ctx context.Context, recipientID string, typ domain.NotificationType, requirementID string) (int64, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkAsRead(ctx context.Context, id uint, recipientID string) (bool, error)
	MarkAllAsRead(ctx context.Context, recipientID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts a new notification
func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// List returns paginated notifications for a recipient, newest first
func (r *notificationRepository) List(ctx context.Context, recipientID string, page, limit int) ([]domain.Notification, int64, error) {
	page, limit = normalizePage(page, limit)

	var items []domain.Notification
	var total int64
	err := readWithRetry(ctx, func() error {
		if err := r.db.WithContext(ctx).Model(&domain.Notification{}).
			Where("recipient_id = ?", recipientID).
			Count(&total).Error; err != nil {
			return err
		}
		items = items[:0]
		return r.db.WithContext(ctx).
			Where("recipient_id = ?", recipientID).
			Order("created_at DESC, id DESC").
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&items).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CountByRecipientAndType requirementID "" matches any requirement
func (r *notificationRepository) CountByRecipientAndType(ctx context.Context, recipientID string, typ domain.NotificationType, requirementID string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("recipient_id = ? AND type = ?", recipientID, typ)
	if requirementID != "" {
		query = query.Where("requirement_id = ?", requirementID)
	}
	err := query.Count(&count).Error
	return count, err
}

// UnreadCount returns the number of unread notifications
func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := readWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).Model(&domain.Notification{}).
			Where("recipient_id = ? AND is_read = ?", recipientID, false).
			Count(&count).Error
	})
	return count, err
}

// MarkAsRead marks one notification owned by recipientID as read
func (r *notificationRepository) MarkAsRead(ctx context.Context, id uint, recipientID string) (bool, error) {
	var n domain.Notification
	if err := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("notification %d: %w", id, common.ErrNotFound)
		}
		return false, err
	}
	if n.IsRead {
		return false, nil
	}
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
	return err == nil, err
}

// MarkAllAsRead marks all notifications as read for a recipient
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
