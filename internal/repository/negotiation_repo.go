package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultCommitRetries bounds the optimistic commit loop.
const DefaultCommitRetries = 5

// errStaleVersion 다른 트랜잭션이 먼저 커밋함
var errStaleVersion = errors.New("requirement version changed")

// LiveStats aggregates over non-removed offers of one requirement.
type LiveStats struct {
	Count    int64               `gorm:"column:cnt"`
	MinPrice decimal.NullDecimal `gorm:"column:min_price"`
}

// OfferCommit describes one offer submission.
//
// Check runs against the requirement read inside the transaction and may
// reject the price. Apply mutates the requirement's auction fields after the
// offer row is written; stats already include the new offer.
type OfferCommit struct {
	Offer             *domain.Offer
	AutoEnableContact bool
	Check             func(req *domain.Requirement) error
	Apply             func(req *domain.Requirement, offer *domain.Offer, stats LiveStats) error
}

// CommitResult is the committed state of an offer submission.
type CommitResult struct {
	Offer       *domain.Offer
	Requirement *domain.Requirement
	Created     bool
	Stats       LiveStats
	Attempts    int
}

// AuctionMutation mutates a requirement under the version check.
// Returning ErrNoChange commits nothing.
type AuctionMutation func(req *domain.Requirement, stats LiveStats) error

// OfferRemoval mutates a requirement after one of its offers was soft-removed.
// stats no longer count the removed offer.
type OfferRemoval func(req *domain.Requirement, removed *domain.Offer, stats LiveStats) error

// ErrNoChange lets a mutation skip the write.
var ErrNoChange = errors.New("no change")

// NegotiationRepository serializes same-requirement effects on the auction
// fields and current_lowest_price through requirements.version.
type NegotiationRepository interface {
	CommitOffer(ctx context.Context, commit *OfferCommit) (*CommitResult, error)
	RemoveOffer(ctx context.Context, offerID, reason string, mutate OfferRemoval) (*domain.Offer, *domain.Requirement, error)
	MutateAuction(ctx context.Context, requirementID string, mutate AuctionMutation) (*domain.Requirement, LiveStats, error)
}

type negotiationRepository struct {
	db      *gorm.DB
	retries int
}

// NewNegotiationRepository retries <= 0 uses DefaultCommitRetries
func NewNegotiationRepository(db *gorm.DB, retries int) NegotiationRepository {
	if retries <= 0 {
		retries = DefaultCommitRetries
	}
	return &negotiationRepository{db: db, retries: retries}
}

func (r *negotiationRepository) CommitOffer(ctx context.Context, commit *OfferCommit) (*CommitResult, error) {
	var result *CommitResult
	attempts := 0
	err := r.retryCommit(ctx, func() error {
		attempts++
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			req, err := loadRequirement(tx, commit.Offer.RequirementID)
			if err != nil {
				return err
			}
			version := req.Version

			if commit.Check != nil {
				if err := commit.Check(req); err != nil {
					return err
				}
			}

			offer, created, err := upsertOffer(tx, commit.Offer, commit.AutoEnableContact)
			if err != nil {
				return err
			}

			stats, err := liveStats(tx, req.ID)
			if err != nil {
				return err
			}
			req.CurrentLowestPrice = stats.MinPrice

			if commit.Apply != nil {
				if err := commit.Apply(req, offer, stats); err != nil {
					return err
				}
			}

			if err := saveNegotiationState(tx, req, version); err != nil {
				return err
			}
			result = &CommitResult{Offer: offer, Requirement: req, Created: created, Stats: stats}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	result.Attempts = attempts
	return result, nil
}

func (r *negotiationRepository) RemoveOffer(ctx context.Context, offerID, reason string, mutate OfferRemoval) (*domain.Offer, *domain.Requirement, error) {
	var offer domain.Offer
	var req *domain.Requirement
	err := r.retryCommit(ctx, func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id = ?", offerID).First(&offer).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("offer %s: %w", offerID, common.ErrNotFound)
				}
				return err
			}
			var err error
			req, err = loadRequirement(tx, offer.RequirementID)
			if err != nil {
				return err
			}
			version := req.Version

			if !offer.Removed {
				now := tx.NowFunc()
				if err := tx.Model(&domain.Offer{}).Where("id = ?", offer.ID).
					Updates(map[string]interface{}{
						"is_removed":     true,
						"removed_reason": reason,
						"removed_at":     now,
					}).Error; err != nil {
					return err
				}
				offer.Removed = true
				offer.RemovedReason = reason
				offer.RemovedAt = &now
			}

			stats, err := liveStats(tx, req.ID)
			if err != nil {
				return err
			}
			req.CurrentLowestPrice = stats.MinPrice
			if mutate != nil {
				if err := mutate(req, &offer, stats); err != nil {
					return err
				}
			}
			return saveNegotiationState(tx, req, version)
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return &offer, req, nil
}

func (r *negotiationRepository) MutateAuction(ctx context.Context, requirementID string, mutate AuctionMutation) (*domain.Requirement, LiveStats, error) {
	var req *domain.Requirement
	var stats LiveStats
	noChange := false
	err := r.retryCommit(ctx, func() error {
		noChange = false
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			req, err = loadRequirement(tx, requirementID)
			if err != nil {
				return err
			}
			version := req.Version

			stats, err = liveStats(tx, req.ID)
			if err != nil {
				return err
			}
			if err := mutate(req, stats); err != nil {
				if errors.Is(err, ErrNoChange) {
					noChange = true
					return nil
				}
				return err
			}
			return saveNegotiationState(tx, req, version)
		})
	})
	if err != nil {
		return nil, LiveStats{}, err
	}
	if noChange {
		return req, stats, ErrNoChange
	}
	return req, stats, nil
}

// retryCommit re-runs the whole transaction when it lost the version race or
// hit a deadlock. Any other error ends the loop.
func (r *negotiationRepository) retryCommit(ctx context.Context, op Operation) error {
	err := withRetries(ctx, op, r.retries, func(err error) bool {
		return errors.Is(err, errStaleVersion) || isWriteConflict(err)
	})
	if err != nil && (errors.Is(err, errStaleVersion) || isWriteConflict(err)) {
		return fmt.Errorf("negotiation commit after %d retries: %w", r.retries, common.ErrConflict)
	}
	return err
}

func loadRequirement(tx *gorm.DB, id string) (*domain.Requirement, error) {
	var req domain.Requirement
	if err := tx.Where("id = ? AND is_removed = ?", id, false).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("requirement %s: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	return &req, nil
}

func liveStats(db *gorm.DB, requirementID string) (LiveStats, error) {
	var stats LiveStats
	err := db.Model(&domain.Offer{}).
		Select("COUNT(*) AS cnt, MIN(price) AS min_price").
		Where("requirement_id = ? AND is_removed = ?", requirementID, false).
		Scan(&stats).Error
	return stats, err
}

// saveNegotiationState writes the auction sub-document and the cached lowest
// price only if nobody committed since version was read.
func saveNegotiationState(tx *gorm.DB, req *domain.Requirement, version int64) error {
	a := req.Auction
	result := tx.Model(&domain.Requirement{}).
		Where("id = ? AND version = ?", req.ID, version).
		Updates(map[string]interface{}{
			"auction_active":       a.Active,
			"auction_lowest_price": a.LowestPrice,
			"auction_target_price": a.TargetPrice,
			"auction_started_at":   a.StartedAt,
			"auction_updated_at":   a.UpdatedAt,
			"auction_closed_at":    a.ClosedAt,
			"current_lowest_price": req.CurrentLowestPrice,
			"version":              version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errStaleVersion
	}
	req.Version = version + 1
	return nil
}
