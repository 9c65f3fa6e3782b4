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

// RequirementRepository 요청 저장소 인터페이스
type RequirementRepository interface {
	Create(ctx context.Context, req *domain.Requirement) error
	FindByID(ctx context.Context, id string) (*domain.Requirement, error)
	ListByBuyer(ctx context.Context, buyerID string, page, limit int) ([]*domain.Requirement, int64, error)
	List(ctx context.Context, params *domain.RequirementListParams) ([]*domain.Requirement, int64, error)
	UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error
	SoftRemove(ctx context.Context, id, reason string) error
}

type requirementRepository struct {
	db *gorm.DB
}

// NewRequirementRepository 요청 저장소 생성
func NewRequirementRepository(db *gorm.DB) RequirementRepository {
	return &requirementRepository{db: db}
}

func (r *requirementRepository) Create(ctx context.Context, req *domain.Requirement) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *requirementRepository) FindByID(ctx context.Context, id string) (*domain.Requirement, error) {
	var req domain.Requirement
	err := readWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).Where("id = ? AND is_removed = ?", id, false).First(&req).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("requirement %s: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	return &req, nil
}

func (r *requirementRepository) ListByBuyer(ctx context.Context, buyerID string, page, limit int) ([]*domain.Requirement, int64, error) {
	return r.List(ctx, &domain.RequirementListParams{BuyerID: buyerID, Page: page, Limit: limit})
}

func (r *requirementRepository) List(ctx context.Context, params *domain.RequirementListParams) ([]*domain.Requirement, int64, error) {
	page, limit := normalizePage(params.Page, params.Limit)

	var items []*domain.Requirement
	var total int64
	err := readWithRetry(ctx, func() error {
		query := r.db.WithContext(ctx).Model(&domain.Requirement{}).Where("is_removed = ?", false)

		// 필터 적용
		if params.BuyerID != "" {
			query = query.Where("buyer_id = ?", params.BuyerID)
		}
		if params.City != "" {
			query = query.Where("city = ?", params.City)
		}
		if params.Category != "" {
			query = query.Where("category = ?", params.Category)
		}
		if params.Keyword != "" {
			query = query.Where("(product_name LIKE ? OR brand_model LIKE ?)",
				"%"+params.Keyword+"%", "%"+params.Keyword+"%")
		}

		if err := query.Count(&total).Error; err != nil {
			return err
		}
		items = items[:0]
		return query.Order("created_at DESC").
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&items).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *requirementRepository) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&domain.Requirement{}).
		Where("id = ? AND is_removed = ?", id, false).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("requirement %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *requirementRepository) SoftRemove(ctx context.Context, id, reason string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&domain.Requirement{}).
		Where("id = ? AND is_removed = ?", id, false).
		Updates(map[string]interface{}{
			"is_removed":     true,
			"removed_reason": reason,
			"removed_at":     now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("requirement %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
