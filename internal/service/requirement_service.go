package service

import (
	"context"
	"fmt"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/repository"
	pkglogger "github.com/bazaarhub/negotiation-backend/pkg/logger"
	"github.com/google/uuid"
)

// RequirementService 구매 요청 관리
type RequirementService interface {
	Create(ctx context.Context, buyerID string, req *domain.CreateRequirementRequest) (*domain.Requirement, error)
	Get(ctx context.Context, id string) (*domain.Requirement, error)
	ListByBuyer(ctx context.Context, buyerID string, page, limit int) ([]*domain.Requirement, *common.V2Meta, error)
	List(ctx context.Context, params *domain.RequirementListParams) ([]*domain.Requirement, *common.V2Meta, error)
	Update(ctx context.Context, id, buyerID string, req *domain.UpdateRequirementRequest) (*domain.Requirement, error)
	Remove(ctx context.Context, id, userID string, moderator bool, reason string) error
}

type requirementService struct {
	repo          repository.RequirementRepository
	offers        repository.OfferRepository
	notifications NotificationService
	moderator     *Moderator
}

// NewRequirementService 요청 서비스 생성
func NewRequirementService(
	repo repository.RequirementRepository,
	offers repository.OfferRepository,
	notifications NotificationService,
	moderator *Moderator,
) RequirementService {
	return &requirementService{repo: repo, offers: offers, notifications: notifications, moderator: moderator}
}

// Create stores the requirement even when moderation flags it
func (s *requirementService) Create(ctx context.Context, buyerID string, in *domain.CreateRequirementRequest) (*domain.Requirement, error) {
	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	req := &domain.Requirement{
		ID:          uuid.New().String(),
		BuyerID:     buyerID,
		City:        in.City,
		Category:    in.Category,
		ProductName: in.ProductName,
		BrandModel:  in.BrandModel,
		Quantity:    quantity,
		Unit:        in.Unit,
		Details:     in.Details,
	}
	req.Moderation = s.moderator.Scan(ctx, req.FreeText()...)

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create requirement: %w", err)
	}
	return req, nil
}

func (s *requirementService) Get(ctx context.Context, id string) (*domain.Requirement, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *requirementService) ListByBuyer(ctx context.Context, buyerID string, page, limit int) ([]*domain.Requirement, *common.V2Meta, error) {
	return s.List(ctx, &domain.RequirementListParams{BuyerID: buyerID, Page: page, Limit: limit})
}

func (s *requirementService) List(ctx context.Context, params *domain.RequirementListParams) ([]*domain.Requirement, *common.V2Meta, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}
	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	return items, common.NewV2Meta(params.Page, params.Limit, total), nil
}

// Update applies the non-nil fields and tells sellers with live offers.
func (s *requirementService) Update(ctx context.Context, id, buyerID string, in *domain.UpdateRequirementRequest) (*domain.Requirement, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsOwnedBy(buyerID) {
		return nil, common.ErrForbidden
	}

	updates := map[string]interface{}{}
	setIf := func(col string, v *string, dst *string) {
		if v != nil {
			updates[col] = *v
			*dst = *v
		}
	}
	setIf("city", in.City, &req.City)
	setIf("category", in.Category, &req.Category)
	setIf("product_name", in.ProductName, &req.ProductName)
	setIf("brand_model", in.BrandModel, &req.BrandModel)
	setIf("unit", in.Unit, &req.Unit)
	setIf("details", in.Details, &req.Details)
	if in.Quantity != nil {
		updates["quantity"] = *in.Quantity
		req.Quantity = *in.Quantity
	}
	if in.ChatDisabled != nil {
		updates["chat_disabled"] = *in.ChatDisabled
		req.ChatDisabled = *in.ChatDisabled
	}
	if len(updates) == 0 {
		return req, nil
	}

	// 텍스트 필드가 바뀌면 다시 검사
	req.Moderation = s.moderator.Scan(ctx, req.FreeText()...)
	updates["moderation_flagged"] = req.Moderation.Flagged
	updates["moderation_flagged_at"] = req.Moderation.FlaggedAt
	updates["moderation_flagged_reason"] = req.Moderation.FlaggedReason

	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		return nil, err
	}

	s.notifyOfferingSellers(ctx, req)
	return req, nil
}

func (s *requirementService) notifyOfferingSellers(ctx context.Context, req *domain.Requirement) {
	offers, err := s.offers.ListLive(ctx, req.ID)
	if err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("requirement_id", req.ID).Msg("list sellers for update fan-out failed")
		return
	}
	sellers := make([]string, 0, len(offers))
	for _, o := range offers {
		sellers = append(sellers, o.SellerID)
	}
	if _, err := s.notifications.NotifyMany(ctx, sellers, domain.NotifyRequirementUpdated,
		fmt.Sprintf("The buyer updated the requirement for %s", req.ProductName),
		domain.NotifyContext{RequirementID: req.ID, FromUserID: req.BuyerID}); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("requirement_id", req.ID).Msg("requirement_updated fan-out incomplete")
	}
}

// Remove soft-deletes. Owner or moderator only.
func (s *requirementService) Remove(ctx context.Context, id, userID string, moderator bool, reason string) error {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !moderator && !req.IsOwnedBy(userID) {
		return common.ErrForbidden
	}
	if reason == "" {
		reason = "removed by owner"
	}
	return s.repo.SoftRemove(ctx, id, reason)
}
