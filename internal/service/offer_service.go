package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/repository"
	pkglogger "github.com/bazaarhub/negotiation-backend/pkg/logger"
)

// OfferService 견적 제출/조회
type OfferService interface {
	Submit(ctx context.Context, requirementID, sellerID string, req *domain.SubmitOfferRequest) (*domain.SubmitOfferResult, error)
	ListForRequirement(ctx context.Context, requirementID, userID string) ([]*domain.Offer, error)
	ListMine(ctx context.Context, sellerID string, page, limit int) ([]*domain.Offer, *common.V2Meta, error)
	View(ctx context.Context, offerID, buyerID string) (*domain.Offer, error)
	Remove(ctx context.Context, offerID, reason string) (*domain.Offer, error)
}

type offerService struct {
	requirements  repository.RequirementRepository
	offers        repository.OfferRepository
	negotiation   repository.NegotiationRepository
	profiles      repository.ProfileRepository
	notifications NotificationService
	moderator     *Moderator
	now           func() time.Time
}

// NewOfferService 견적 서비스 생성
func NewOfferService(
	requirements repository.RequirementRepository,
	offers repository.OfferRepository,
	negotiation repository.NegotiationRepository,
	profiles repository.ProfileRepository,
	notifications NotificationService,
	moderator *Moderator,
) OfferService {
	return &offerService{
		requirements:  requirements,
		offers:        offers,
		negotiation:   negotiation,
		profiles:      profiles,
		notifications: notifications,
		moderator:     moderator,
		now:           time.Now,
	}
}

// Submit runs moderation, then validates and writes the offer and the
// recomputed prices in one commit. Fan-out happens after the commit.
func (s *offerService) Submit(ctx context.Context, requirementID, sellerID string, in *domain.SubmitOfferRequest) (*domain.SubmitOfferResult, error) {
	// 경매 상태와 무관한 검사 먼저
	if err := ValidatePrice(in.Price, domain.ReverseAuction{}); err != nil {
		offersRejected.WithLabelValues("invalid_price").Inc()
		return nil, err
	}

	req, err := s.requirements.FindByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if req.IsOwnedBy(sellerID) {
		return nil, fmt.Errorf("buyer cannot bid on own requirement: %w", common.ErrForbidden)
	}

	buyer, err := s.profiles.Get(ctx, req.BuyerID)
	if err != nil {
		return nil, err
	}

	offer := &domain.Offer{
		RequirementID: requirementID,
		SellerID:      sellerID,
		Price:         in.Price,
		Message:       in.Message,
		DeliveryTime:  in.DeliveryTime,
		PaymentTerms:  in.PaymentTerms,
		Attachments:   in.Attachments,
	}
	offer.Moderation = s.moderator.Scan(ctx, offer.FreeText()...)

	var wasActive bool
	result, err := s.negotiation.CommitOffer(ctx, &repository.OfferCommit{
		Offer:             offer,
		AutoEnableContact: buyer.AutoEnableChat,
		Check: func(r *domain.Requirement) error {
			wasActive = r.Auction.Active
			return ValidatePrice(in.Price, r.Auction)
		},
		Apply: func(r *domain.Requirement, _ *domain.Offer, stats repository.LiveStats) error {
			applyOfferAccepted(r, in.Price, stats, s.now())
			return nil
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrPriceNotCompetitive):
			offersRejected.WithLabelValues("not_competitive").Inc()
		case errors.Is(err, common.ErrConflict):
			offersRejected.WithLabelValues("conflict").Inc()
			commitConflicts.Inc()
		}
		return nil, err
	}
	offersAccepted.Inc()

	s.afterOfferAccepted(ctx, result, wasActive)

	return &domain.SubmitOfferResult{
		Offer:       result.Offer,
		Created:     result.Created,
		Requirement: result.Requirement,
	}, nil
}

// afterOfferAccepted 구매자 알림 + 역경매 진행 중이면 price_moved 이벤트
func (s *offerService) afterOfferAccepted(ctx context.Context, result *repository.CommitResult, wasActive bool) {
	req, offer := result.Requirement, result.Offer

	msg := fmt.Sprintf("New offer of %s on %s", offer.Price.StringFixed(2), req.ProductName)
	if !result.Created {
		msg = fmt.Sprintf("Updated offer of %s on %s", offer.Price.StringFixed(2), req.ProductName)
	}
	if _, err := s.notifications.Notify(ctx, req.BuyerID, domain.NotifyNewOffer, msg, domain.NotifyContext{
		RequirementID: req.ID,
		FromUserID:    offer.SellerID,
	}); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("offer_id", offer.ID).Msg("new_offer notification failed")
	}

	if wasActive && req.Auction.Active {
		s.notifications.PushLive(req.BuyerID, &domain.LiveEvent{
			Type: domain.LiveEventPriceMoved,
			Data: domain.PriceMovedPayload{
				RequirementID: req.ID,
				LowestPrice:   req.Auction.LowestPrice.Decimal,
				OfferID:       offer.ID,
				SellerID:      offer.SellerID,
			},
		})
	}
}

// ListForRequirement 구매자는 전체, 판매자는 본인 견적만
func (s *offerService) ListForRequirement(ctx context.Context, requirementID, userID string) ([]*domain.Offer, error) {
	req, err := s.requirements.FindByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if req.IsOwnedBy(userID) {
		return s.offers.ListLive(ctx, requirementID)
	}
	offer, err := s.offers.Get(ctx, requirementID, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return []*domain.Offer{}, nil
		}
		return nil, err
	}
	return []*domain.Offer{offer}, nil
}

func (s *offerService) ListMine(ctx context.Context, sellerID string, page, limit int) ([]*domain.Offer, *common.V2Meta, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offers, total, err := s.offers.ListBySeller(ctx, sellerID, page, limit)
	if err != nil {
		return nil, nil, err
	}
	return offers, common.NewV2Meta(page, limit, total), nil
}

// View marks the offer viewed when the buyer opens it; the seller hears about it once.
func (s *offerService) View(ctx context.Context, offerID, buyerID string) (*domain.Offer, error) {
	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	req, err := s.requirements.FindByID(ctx, offer.RequirementID)
	if err != nil {
		return nil, err
	}
	if !req.IsOwnedBy(buyerID) {
		if offer.SellerID == buyerID {
			return offer, nil
		}
		return nil, common.ErrForbidden
	}
	if offer.Removed {
		return nil, fmt.Errorf("offer %s removed: %w", offerID, common.ErrNotFound)
	}

	viewed, changed, err := s.offers.MarkViewed(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if changed {
		if _, err := s.notifications.Notify(ctx, viewed.SellerID, domain.NotifyOfferViewed,
			fmt.Sprintf("The buyer viewed your offer on %s", req.ProductName),
			domain.NotifyContext{RequirementID: req.ID, FromUserID: buyerID}); err != nil {
			pkglogger.GetLogger().Warn().Err(err).Str("offer_id", offerID).Msg("offer_viewed notification failed")
		}
	}
	return viewed, nil
}

// Remove soft-removes an offer for moderation and re-derives prices from
// the remaining live offers.
func (s *offerService) Remove(ctx context.Context, offerID, reason string) (*domain.Offer, error) {
	offer, _, err := s.negotiation.RemoveOffer(ctx, offerID, reason, func(r *domain.Requirement, removed *domain.Offer, stats repository.LiveStats) error {
		applyOfferRemoved(r, removed.Price, stats, s.now())
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			commitConflicts.Inc()
		}
		return nil, err
	}
	return offer, nil
}
