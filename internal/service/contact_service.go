package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/repository"
	pkglogger "github.com/bazaarhub/negotiation-backend/pkg/logger"
)

// ContactService 구매자-판매자 채팅 허용 게이트
type ContactService interface {
	SetContactEnabled(ctx context.Context, requirementID, buyerID, sellerID string, enabled bool) (*domain.ContactStatus, error)
	SetContactEnabledForAll(ctx context.Context, requirementID, buyerID string, enabled bool) (*domain.BulkContactResult, error)
	Status(ctx context.Context, requirementID, sellerID, userID string) (*domain.ContactStatus, error)
	// CheckChatAllowed reads fresh state; it is called before every chat write
	// and attachment resolution.
	CheckChatAllowed(ctx context.Context, requirementID, sellerID string) (*domain.Requirement, error)
}

type contactService struct {
	requirements  repository.RequirementRepository
	offers        repository.OfferRepository
	profiles      repository.ProfileRepository
	notifications NotificationService
}

// NewContactService 연락 게이트 서비스 생성
func NewContactService(
	requirements repository.RequirementRepository,
	offers repository.OfferRepository,
	profiles repository.ProfileRepository,
	notifications NotificationService,
) ContactService {
	return &contactService{
		requirements:  requirements,
		offers:        offers,
		profiles:      profiles,
		notifications: notifications,
	}
}

func (s *contactService) SetContactEnabled(ctx context.Context, requirementID, buyerID, sellerID string, enabled bool) (*domain.ContactStatus, error) {
	req, err := s.ownedRequirement(ctx, requirementID, buyerID)
	if err != nil {
		return nil, err
	}
	before, err := s.offers.Get(ctx, requirementID, sellerID)
	if err != nil {
		return nil, err
	}
	offer, err := s.offers.SetContactEnabled(ctx, requirementID, sellerID, enabled)
	if err != nil {
		return nil, err
	}
	if enabled && !before.ContactEnabledByBuyer {
		s.notifyEnabled(ctx, req, []string{sellerID})
	}
	return &domain.ContactStatus{RequirementID: requirementID, SellerID: sellerID, Enabled: offer.ContactEnabledByBuyer}, nil
}

func (s *contactService) SetContactEnabledForAll(ctx context.Context, requirementID, buyerID string, enabled bool) (*domain.BulkContactResult, error) {
	req, err := s.ownedRequirement(ctx, requirementID, buyerID)
	if err != nil {
		return nil, err
	}

	var newlyEnabled []string
	if enabled {
		offers, err := s.offers.ListLive(ctx, requirementID)
		if err != nil {
			return nil, err
		}
		for _, o := range offers {
			if !o.ContactEnabledByBuyer {
				newlyEnabled = append(newlyEnabled, o.SellerID)
			}
		}
	}

	n, err := s.offers.SetContactEnabledForAll(ctx, requirementID, enabled)
	if err != nil {
		return nil, err
	}
	if len(newlyEnabled) > 0 {
		s.notifyEnabled(ctx, req, newlyEnabled)
	}
	return &domain.BulkContactResult{RequirementID: requirementID, Enabled: enabled, Updated: n}, nil
}

// Status 구매자 또는 해당 판매자만 조회 가능
func (s *contactService) Status(ctx context.Context, requirementID, sellerID, userID string) (*domain.ContactStatus, error) {
	req, err := s.requirements.FindByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if !req.IsOwnedBy(userID) && sellerID != userID {
		return nil, common.ErrForbidden
	}
	offer, err := s.offers.Get(ctx, requirementID, sellerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return &domain.ContactStatus{RequirementID: requirementID, SellerID: sellerID}, nil
		}
		return nil, err
	}
	return &domain.ContactStatus{
		RequirementID: requirementID,
		SellerID:      sellerID,
		Enabled:       offer.ContactEnabledByBuyer && !offer.Removed,
	}, nil
}

func (s *contactService) CheckChatAllowed(ctx context.Context, requirementID, sellerID string) (*domain.Requirement, error) {
	req, err := s.requirements.FindByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if req.ChatDisabled {
		return nil, fmt.Errorf("requirement chat disabled: %w", common.ErrChatNotEnabled)
	}

	offer, err := s.offers.Get(ctx, requirementID, sellerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("no offer from seller: %w", common.ErrChatNotEnabled)
		}
		return nil, err
	}
	if offer.Removed || !offer.ContactEnabledByBuyer {
		return nil, common.ErrChatNotEnabled
	}

	for _, userID := range []string{req.BuyerID, sellerID} {
		p, err := s.profiles.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		if p.ChatDisabled {
			return nil, fmt.Errorf("user %s disabled chat: %w", userID, common.ErrChatNotEnabled)
		}
	}
	return req, nil
}

func (s *contactService) ownedRequirement(ctx context.Context, requirementID, buyerID string) (*domain.Requirement, error) {
	req, err := s.requirements.FindByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if !req.IsOwnedBy(buyerID) {
		return nil, common.ErrForbidden
	}
	return req, nil
}

func (s *contactService) notifyEnabled(ctx context.Context, req *domain.Requirement, sellers []string) {
	if _, err := s.notifications.NotifyMany(ctx, sellers, domain.NotifyContactEnabled,
		fmt.Sprintf("The buyer enabled chat for your offer on %s", req.ProductName),
		domain.NotifyContext{RequirementID: req.ID, FromUserID: req.BuyerID}); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("requirement_id", req.ID).Msg("contact_enabled fan-out incomplete")
	}
}
