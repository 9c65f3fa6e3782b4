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
	"github.com/shopspring/decimal"
)

// DefaultMinOffers live offers required before an auction can start
const DefaultMinOffers = 3

// applyOfferAccepted recomputes the auction lowest price after an offer write.
// stats already include the new offer. A closed auction keeps its final prices.
func applyOfferAccepted(req *domain.Requirement, price decimal.Decimal, stats repository.LiveStats, now time.Time) {
	req.CurrentLowestPrice = stats.MinPrice

	switch req.Auction.State() {
	case domain.AuctionActive:
		if !req.Auction.LowestPrice.Valid || price.LessThan(req.Auction.LowestPrice.Decimal) {
			req.Auction.LowestPrice = decimal.NewNullDecimal(price)
		}
		req.Auction.UpdatedAt = &now
	case domain.AuctionInactive:
		req.Auction.LowestPrice = stats.MinPrice
	}
}

// applyOfferRemoved re-derives prices from the remaining live offers.
// The auction bar only moves up when the removed offer was the one holding it.
func applyOfferRemoved(req *domain.Requirement, removedPrice decimal.Decimal, stats repository.LiveStats, now time.Time) {
	req.CurrentLowestPrice = stats.MinPrice

	switch req.Auction.State() {
	case domain.AuctionActive:
		bar := req.Auction.LowestPrice
		switch {
		case !stats.MinPrice.Valid:
			// 남은 견적 없음. 기준가 유지
		case !bar.Valid, removedPrice.LessThanOrEqual(bar.Decimal):
			req.Auction.LowestPrice = stats.MinPrice
		case stats.MinPrice.Decimal.LessThan(bar.Decimal):
			req.Auction.LowestPrice = stats.MinPrice
		}
		req.Auction.UpdatedAt = &now
	case domain.AuctionInactive:
		req.Auction.LowestPrice = stats.MinPrice
	}
}

func checkAuctionPrice(field string, p *decimal.Decimal) error {
	switch {
	case p == nil:
		return nil
	case !p.IsPositive():
		return common.NewValidationError(field, "must be greater than zero")
	case !p.Equal(p.Round(2)):
		return common.NewValidationError(field, "at most two decimal places")
	}
	return nil
}

// AuctionService 역경매 상태 머신
type AuctionService interface {
	Start(ctx context.Context, requirementID, buyerID string, req *domain.StartAuctionRequest) (*domain.AuctionStatus, error)
	Stop(ctx context.Context, requirementID, buyerID string) (*domain.AuctionStatus, error)
	Status(ctx context.Context, requirementID string) (*domain.AuctionStatus, error)
}

type auctionService struct {
	negotiation   repository.NegotiationRepository
	requirements  repository.RequirementRepository
	offers        repository.OfferRepository
	notifications NotificationService
	minOffers     int
	now           func() time.Time
}

// NewAuctionService minOffers <= 0 uses DefaultMinOffers
func NewAuctionService(
	negotiation repository.NegotiationRepository,
	requirements repository.RequirementRepository,
	offers repository.OfferRepository,
	notifications NotificationService,
	minOffers int,
) AuctionService {
	if minOffers <= 0 {
		minOffers = DefaultMinOffers
	}
	return &auctionService{
		negotiation:   negotiation,
		requirements:  requirements,
		offers:        offers,
		notifications: notifications,
		minOffers:     minOffers,
		now:           time.Now,
	}
}

// Start arms the auction. Calling it on an active auction re-arms it with
// fresh timestamps and lowest price.
func (s *auctionService) Start(ctx context.Context, requirementID, buyerID string, in *domain.StartAuctionRequest) (*domain.AuctionStatus, error) {
	if in == nil {
		in = &domain.StartAuctionRequest{}
	}
	if err := checkAuctionPrice("target_price", in.TargetPrice); err != nil {
		return nil, err
	}
	if err := checkAuctionPrice("starting_price", in.StartingPrice); err != nil {
		return nil, err
	}

	req, stats, err := s.negotiation.MutateAuction(ctx, requirementID, func(r *domain.Requirement, st repository.LiveStats) error {
		if !r.IsOwnedBy(buyerID) {
			return common.ErrForbidden
		}
		if st.Count < int64(s.minOffers) {
			return &common.InsufficientOffersError{Live: st.Count, Required: s.minOffers}
		}

		lowest := st.MinPrice
		if in.StartingPrice != nil {
			if st.MinPrice.Valid && in.StartingPrice.GreaterThan(st.MinPrice.Decimal) {
				return common.NewValidationError("starting_price", "must not exceed the current lowest offer "+st.MinPrice.Decimal.String())
			}
			lowest = decimal.NewNullDecimal(*in.StartingPrice)
		}

		now := s.now()
		r.Auction.Active = true
		r.Auction.LowestPrice = lowest
		if in.TargetPrice != nil {
			r.Auction.TargetPrice = decimal.NewNullDecimal(*in.TargetPrice)
		}
		r.Auction.StartedAt = &now
		r.Auction.UpdatedAt = &now
		r.Auction.ClosedAt = nil
		r.CurrentLowestPrice = st.MinPrice
		return nil
	})
	if err != nil {
		return nil, s.wrapCommitErr("start auction", err)
	}
	auctionTransitions.WithLabelValues("start").Inc()

	s.notifySellers(ctx, req, domain.NotifyReverseAuctionInvoked,
		fmt.Sprintf("Reverse auction started for %s. Beat %s to stay in the race.", req.ProductName, req.Auction.LowestPrice.Decimal.String()))

	return toStatus(req, stats.Count), nil
}

// Stop closes an active auction. Stopping an inactive auction is a no-op.
func (s *auctionService) Stop(ctx context.Context, requirementID, buyerID string) (*domain.AuctionStatus, error) {
	req, stats, err := s.negotiation.MutateAuction(ctx, requirementID, func(r *domain.Requirement, _ repository.LiveStats) error {
		if !r.IsOwnedBy(buyerID) {
			return common.ErrForbidden
		}
		if !r.Auction.Active {
			return repository.ErrNoChange
		}
		now := s.now()
		r.Auction.Active = false
		r.Auction.UpdatedAt = &now
		r.Auction.ClosedAt = &now
		return nil
	})
	if errors.Is(err, repository.ErrNoChange) {
		return toStatus(req, stats.Count), nil
	}
	if err != nil {
		return nil, s.wrapCommitErr("stop auction", err)
	}
	auctionTransitions.WithLabelValues("stop").Inc()

	s.notifySellers(ctx, req, domain.NotifyReverseAuctionStopped,
		fmt.Sprintf("Reverse auction for %s has been closed by the buyer.", req.ProductName))

	return toStatus(req, stats.Count), nil
}

func (s *auctionService) Status(ctx context.Context, requirementID string) (*domain.AuctionStatus, error) {
	req, err := s.requirements.FindByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	count, err := s.offers.CountLive(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	return toStatus(req, count), nil
}

// notifySellers 활성 견적을 낸 판매자에게 한 번씩 알림
func (s *auctionService) notifySellers(ctx context.Context, req *domain.Requirement, typ domain.NotificationType, message string) {
	offers, err := s.offers.ListLive(ctx, req.ID)
	if err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("requirement_id", req.ID).Msg("list sellers for fan-out failed")
		return
	}
	sellers := make([]string, 0, len(offers))
	for _, o := range offers {
		sellers = append(sellers, o.SellerID)
	}
	if _, err := s.notifications.NotifyMany(ctx, sellers, typ, message, domain.NotifyContext{
		RequirementID: req.ID,
		FromUserID:    req.BuyerID,
	}); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("requirement_id", req.ID).Msg("auction fan-out incomplete")
	}
}

func (s *auctionService) wrapCommitErr(op string, err error) error {
	if errors.Is(err, common.ErrConflict) {
		commitConflicts.Inc()
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toStatus(req *domain.Requirement, live int64) *domain.AuctionStatus {
	return &domain.AuctionStatus{
		RequirementID:      req.ID,
		State:              req.Auction.State(),
		Auction:            req.Auction,
		CurrentLowestPrice: req.CurrentLowestPrice,
		LiveOffers:         live,
	}
}
