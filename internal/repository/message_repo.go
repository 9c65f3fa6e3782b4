package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"gorm.io/gorm"
)

// MessageRepository 채팅 메시지 저장소
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	ListThread(ctx context.Context, requirementID, sellerID string, before *time.Time, limit int) ([]*domain.Message, error)
	MarkThreadRead(ctx context.Context, requirementID, sellerID, recipientID string) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	var msg domain.Message
	err := readWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("message %s: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	return &msg, nil
}

// ListThread returns messages oldest first; before pages backwards
func (r *messageRepository) ListThread(ctx context.Context, requirementID, sellerID string, before *time.Time, limit int) ([]*domain.Message, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	var msgs []*domain.Message
	err := readWithRetry(ctx, func() error {
		query := r.db.WithContext(ctx).
			Where("requirement_id = ? AND seller_id = ?", requirementID, sellerID)
		if before != nil {
			query = query.Where("created_at < ?", *before)
		}
		msgs = msgs[:0]
		return query.Order("created_at DESC").Limit(limit).Find(&msgs).Error
	})
	if err != nil {
		return nil, err
	}
	// 최신순 조회 후 시간순으로 뒤집기
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *messageRepository) MarkThreadRead(ctx context.Context, requirementID, sellerID, recipientID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("requirement_id = ? AND seller_id = ? AND recipient_id = ? AND read_at IS NULL",
			requirementID, sellerID, recipientID).
		Update("read_at", time.Now())
	return result.RowsAffected, result.Error
}
