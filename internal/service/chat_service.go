package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/repository"
	pkglogger "github.com/bazaarhub/negotiation-backend/pkg/logger"
	"github.com/google/uuid"
)

// AttachmentResolver turns a stored object key into a short-lived URL
type AttachmentResolver interface {
	PresignGet(ctx context.Context, key string) (string, time.Time, error)
}

// ChatService 요청별 구매자-판매자 채팅
type ChatService interface {
	Send(ctx context.Context, requirementID, sellerID, senderID string, req *domain.SendMessageRequest) (*domain.Message, error)
	List(ctx context.Context, requirementID, sellerID, userID string, before *time.Time, limit int) ([]*domain.Message, error)
	AttachmentURL(ctx context.Context, requirementID, sellerID, messageID string, index int, userID string) (*domain.AttachmentURL, error)
}

type chatService struct {
	messages      repository.MessageRepository
	requirements  repository.RequirementRepository
	contact       ContactService
	notifications NotificationService
	moderator     *Moderator
	resolver      AttachmentResolver
}

// NewChatService resolver may be nil when object storage is disabled
func NewChatService(
	messages repository.MessageRepository,
	requirements repository.RequirementRepository,
	contact ContactService,
	notifications NotificationService,
	moderator *Moderator,
	resolver AttachmentResolver,
) ChatService {
	return &chatService{
		messages:      messages,
		requirements:  requirements,
		contact:       contact,
		notifications: notifications,
		moderator:     moderator,
		resolver:      resolver,
	}
}

func (s *chatService) Send(ctx context.Context, requirementID, sellerID, senderID string, in *domain.SendMessageRequest) (*domain.Message, error) {
	if in.Body == "" && len(in.Attachments) == 0 {
		return nil, common.NewValidationError("body", "message is empty")
	}

	req, err := s.requirements.FindByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	recipientID, err := counterpart(req, sellerID, senderID)
	if err != nil {
		return nil, err
	}

	// 저장 직전에 게이트 확인
	if _, err := s.contact.CheckChatAllowed(ctx, requirementID, sellerID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:            uuid.New().String(),
		RequirementID: requirementID,
		SellerID:      sellerID,
		SenderID:      senderID,
		RecipientID:   recipientID,
		Body:          in.Body,
		Attachments:   in.Attachments,
	}
	if msg.Attachments == nil {
		msg.Attachments = []string{}
	}
	msg.Moderation = s.moderator.Scan(ctx, msg.Body)

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	s.notifications.PushLive(recipientID, &domain.LiveEvent{Type: domain.LiveEventNewMessage, Data: msg})
	if _, err := s.notifications.Notify(ctx, recipientID, domain.NotifyNewMessage,
		fmt.Sprintf("New message about %s", req.ProductName),
		domain.NotifyContext{RequirementID: requirementID, FromUserID: senderID}); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("message_id", msg.ID).Msg("new_message notification failed")
	}
	return msg, nil
}

// List 참여자만 조회. 조회 시 받은 메시지는 읽음 처리.
func (s *chatService) List(ctx context.Context, requirementID, sellerID, userID string, before *time.Time, limit int) ([]*domain.Message, error) {
	req, err := s.requirements.FindByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if _, err := counterpart(req, sellerID, userID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListThread(ctx, requirementID, sellerID, before, limit)
	if err != nil {
		return nil, err
	}
	if _, err := s.messages.MarkThreadRead(ctx, requirementID, sellerID, userID); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("requirement_id", requirementID).Msg("mark thread read failed")
	}
	return msgs, nil
}

func (s *chatService) AttachmentURL(ctx context.Context, requirementID, sellerID, messageID string, index int, userID string) (*domain.AttachmentURL, error) {
	req, err := s.requirements.FindByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if _, err := counterpart(req, sellerID, userID); err != nil {
		return nil, err
	}
	if _, err := s.contact.CheckChatAllowed(ctx, requirementID, sellerID); err != nil {
		return nil, err
	}

	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.RequirementID != requirementID || msg.SellerID != sellerID {
		return nil, fmt.Errorf("message %s not in thread: %w", messageID, common.ErrNotFound)
	}
	if index < 0 || index >= len(msg.Attachments) {
		return nil, fmt.Errorf("attachment %d: %w", index, common.ErrNotFound)
	}
	if s.resolver == nil {
		return nil, fmt.Errorf("attachment storage disabled: %w", common.ErrNotFound)
	}

	key := msg.Attachments[index]
	url, expiresAt, err := s.resolver.PresignGet(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("presign attachment: %w", err)
	}
	return &domain.AttachmentURL{Key: key, URL: url, ExpiresAt: expiresAt}, nil
}

// counterpart returns the other party of the (requirement, seller) thread
func counterpart(req *domain.Requirement, sellerID, userID string) (string, error) {
	switch {
	case req.IsOwnedBy(userID) && userID != sellerID:
		return sellerID, nil
	case userID == sellerID && !req.IsOwnedBy(userID):
		return req.BuyerID, nil
	default:
		return "", common.ErrForbidden
	}
}
