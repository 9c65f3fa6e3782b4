package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OfferRepository 견적 저장소 인터페이스
type OfferRepository interface {
	Upsert(ctx context.Context, offer *domain.Offer, autoEnableContact bool) (*domain.Offer, bool, error)
	FindByID(ctx context.Context, id string) (*domain.Offer, error)
	Get(ctx context.Context, requirementID, sellerID string) (*domain.Offer, error)
	MarkViewed(ctx context.Context, id string) (*domain.Offer, bool, error)
	SetContactEnabled(ctx context.Context, requirementID, sellerID string, enabled bool) (*domain.Offer, error)
	SetContactEnabledForAll(ctx context.Context, requirementID string, enabled bool) (int64, error)
	ListLive(ctx context.Context, requirementID string) ([]*domain.Offer, error)
	ListBySeller(ctx context.Context, sellerID string, page, limit int) ([]*domain.Offer, int64, error)
	CountLive(ctx context.Context, requirementID string) (int64, error)
}

type offerRepository struct {
	db *gorm.DB
}

// NewOfferRepository 견적 저장소 생성
func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

// Upsert writes the (requirement, seller) row outside the negotiation transaction.
// Returns the stored row and whether it was newly created.
func (r *offerRepository) Upsert(ctx context.Context, offer *domain.Offer, autoEnableContact bool) (*domain.Offer, bool, error) {
	var stored *domain.Offer
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		stored, created, err = upsertOffer(tx, offer, autoEnableContact)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// upsertOffer is atomic on the unique (requirement_id, seller_id) key.
// A resubmission replaces the priced fields, revives a removed row and resets the viewed flag.
func upsertOffer(tx *gorm.DB, offer *domain.Offer, autoEnableContact bool) (*domain.Offer, bool, error) {
	newID := uuid.New().String()
	now := time.Now()

	row := *offer
	row.ID = newID
	row.ViewedByBuyer = false
	row.ViewedAt = nil
	row.ContactEnabledByBuyer = autoEnableContact
	row.Removed = false
	row.RemovedReason = ""
	row.RemovedAt = nil
	row.CreatedAt = now
	row.UpdatedAt = now
	if row.Attachments == nil {
		row.Attachments = []string{}
	}

	assignments := map[string]interface{}{
		"price":                     row.Price,
		"message":                   row.Message,
		"delivery_time":             row.DeliveryTime,
		"payment_terms":             row.PaymentTerms,
		"attachments":               row.Attachments,
		"viewed_by_buyer":           false,
		"viewed_at":                 nil,
		"is_removed":                false,
		"removed_reason":            "",
		"removed_at":                nil,
		"moderation_flagged":        row.Moderation.Flagged,
		"moderation_flagged_at":     row.Moderation.FlaggedAt,
		"moderation_flagged_reason": row.Moderation.FlaggedReason,
		"updated_at":                now,
	}
	// 자동 채팅 허용이 꺼져 있으면 기존 값 유지
	if autoEnableContact {
		assignments["contact_enabled_by_buyer"] = true
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "requirement_id"}, {Name: "seller_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&row).Error
	if err != nil {
		return nil, false, fmt.Errorf("upsert offer: %w", err)
	}

	var stored domain.Offer
	if err := tx.Where("requirement_id = ? AND seller_id = ?", offer.RequirementID, offer.SellerID).
		First(&stored).Error; err != nil {
		return nil, false, fmt.Errorf("reload offer: %w", err)
	}
	return &stored, stored.ID == newID, nil
}

func (r *offerRepository) FindByID(ctx context.Context, id string) (*domain.Offer, error) {
	var offer domain.Offer
	err := readWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&offer).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("offer %s: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	return &offer, nil
}

// Get returns the (requirement, seller) row, including a soft-removed one.
func (r *offerRepository) Get(ctx context.Context, requirementID, sellerID string) (*domain.Offer, error) {
	var offer domain.Offer
	err := readWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("requirement_id = ? AND seller_id = ?", requirementID, sellerID).
			First(&offer).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("offer %s/%s: %w", requirementID, sellerID, common.ErrNotFound)
		}
		return nil, err
	}
	return &offer, nil
}

// MarkViewed sets viewed_by_buyer once. changed is false when it was already set.
func (r *offerRepository) MarkViewed(ctx context.Context, id string) (*domain.Offer, bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&domain.Offer{}).
		Where("id = ? AND viewed_by_buyer = ?", id, false).
		Updates(map[string]interface{}{"viewed_by_buyer": true, "viewed_at": now})
	if result.Error != nil {
		return nil, false, result.Error
	}
	offer, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return offer, result.RowsAffected > 0, nil
}

func (r *offerRepository) SetContactEnabled(ctx context.Context, requirementID, sellerID string, enabled bool) (*domain.Offer, error) {
	offer, err := r.Get(ctx, requirementID, sellerID)
	if err != nil {
		return nil, err
	}
	if offer.Removed {
		return nil, fmt.Errorf("offer %s removed: %w", offer.ID, common.ErrNotFound)
	}
	if err := r.db.WithContext(ctx).Model(&domain.Offer{}).
		Where("id = ?", offer.ID).
		Update("contact_enabled_by_buyer", enabled).Error; err != nil {
		return nil, err
	}
	offer.ContactEnabledByBuyer = enabled
	return offer, nil
}

func (r *offerRepository) SetContactEnabledForAll(ctx context.Context, requirementID string, enabled bool) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Offer{}).
		Where("requirement_id = ? AND is_removed = ?", requirementID, false).
		Update("contact_enabled_by_buyer", enabled)
	return result.RowsAffected, result.Error
}

// ListLive excludes soft-removed rows, cheapest first.
func (r *offerRepository) ListLive(ctx context.Context, requirementID string) ([]*domain.Offer, error) {
	var offers []*domain.Offer
	err := readWithRetry(ctx, func() error {
		offers = offers[:0]
		return r.db.WithContext(ctx).
			Where("requirement_id = ? AND is_removed = ?", requirementID, false).
			Order("price ASC, created_at ASC").
			Find(&offers).Error
	})
	return offers, err
}

func (r *offerRepository) ListBySeller(ctx context.Context, sellerID string, page, limit int) ([]*domain.Offer, int64, error) {
	page, limit = normalizePage(page, limit)

	var offers []*domain.Offer
	var total int64
	err := readWithRetry(ctx, func() error {
		query := r.db.WithContext(ctx).Model(&domain.Offer{}).Where("seller_id = ?", sellerID)
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		offers = offers[:0]
		return query.Order("updated_at DESC").
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&offers).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

func (r *offerRepository) CountLive(ctx context.Context, requirementID string) (int64, error) {
	var stats LiveStats
	err := readWithRetry(ctx, func() error {
		var err error
		stats, err = liveStats(r.db.WithContext(ctx), requirementID)
		return err
	})
	return stats.Count, err
}
