package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/repository"
	pkglogger "github.com/bazaarhub/negotiation-backend/pkg/logger"
)

// LivePusher delivers a transient event to one user's live channel.
// Implementations must not block on slow consumers.
type LivePusher interface {
	Push(userID string, event *domain.LiveEvent) error
}

// SideChannelDispatcher hands a stored notification to the push/email
// channels. Dispatch returns immediately and never reports failure.
type SideChannelDispatcher interface {
	Dispatch(ctx context.Context, n *domain.Notification)
}

// NotificationService writes durable notifications and fans them out
type NotificationService interface {
	Notify(ctx context.Context, recipientID string, typ domain.NotificationType, message string, nctx domain.NotifyContext) (*domain.Notification, error)
	NotifyMany(ctx context.Context, recipientIDs []string, typ domain.NotificationType, message string, nctx domain.NotifyContext) ([]*domain.Notification, error)
	PushLive(userID string, event *domain.LiveEvent)

	List(ctx context.Context, userID string, page, limit int) (*domain.NotificationListResponse, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, userID string, id uint) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo       repository.NotificationRepository
	pusher     LivePusher
	dispatcher SideChannelDispatcher
}

// NewNotificationService pusher and dispatcher may be nil
func NewNotificationService(repo repository.NotificationRepository, pusher LivePusher, dispatcher SideChannelDispatcher) NotificationService {
	return &notificationService{repo: repo, pusher: pusher, dispatcher: dispatcher}
}

// Notify stores the row first. Live push and side channels are best effort
// and never undo the stored row.
func (s *notificationService) Notify(ctx context.Context, recipientID string, typ domain.NotificationType, message string, nctx domain.NotifyContext) (*domain.Notification, error) {
	n := &domain.Notification{
		RecipientID: recipientID,
		Type:        typ,
		Message:     message,
	}
	if nctx.RequirementID != "" {
		n.RequirementID = &nctx.RequirementID
	}
	if nctx.FromUserID != "" {
		n.FromUserID = &nctx.FromUserID
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}

	s.PushLive(recipientID, &domain.LiveEvent{Type: domain.LiveEventNotification, Data: n})

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(context.WithoutCancel(ctx), n)
	}
	return n, nil
}

// NotifyMany sends to each distinct recipient independently. A failed row
// write for one recipient does not stop the others.
func (s *notificationService) NotifyMany(ctx context.Context, recipientIDs []string, typ domain.NotificationType, message string, nctx domain.NotifyContext) ([]*domain.Notification, error) {
	seen := make(map[string]struct{}, len(recipientIDs))
	out := make([]*domain.Notification, 0, len(recipientIDs))
	var errs []error
	for _, id := range recipientIDs {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}

		n, err := s.Notify(ctx, id, typ, message, nctx)
		if err != nil {
			pkglogger.GetLogger().Warn().Err(err).
				Str("recipient_id", id).
				Str("type", string(typ)).
				Msg("notification fan-out: row write failed")
			errs = append(errs, err)
			continue
		}
		out = append(out, n)
	}
	return out, errors.Join(errs...)
}

// PushLive 실패는 로그만 남김
func (s *notificationService) PushLive(userID string, event *domain.LiveEvent) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.Push(userID, event); err != nil {
		livePushes.WithLabelValues(event.Type, "failed").Inc()
		pkglogger.GetLogger().Warn().Err(err).
			Str("user_id", userID).
			Str("event", event.Type).
			Msg("live push failed")
		return
	}
	livePushes.WithLabelValues(event.Type, "delivered").Inc()
}

func (s *notificationService) List(ctx context.Context, userID string, page, limit int) (*domain.NotificationListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	items, total, err := s.repo.List(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}
	return &domain.NotificationListResponse{
		Items:       items,
		Total:       total,
		UnreadCount: unread,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID string, id uint) error {
	changed, err := s.repo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if changed {
		s.pushUnreadCount(ctx, userID)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.pushUnreadCount(ctx, userID)
	}
	return n, nil
}

func (s *notificationService) pushUnreadCount(ctx context.Context, userID string) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return
	}
	s.PushLive(userID, &domain.LiveEvent{
		Type: domain.LiveEventUnreadCount,
		Data: domain.NotificationSummaryResponse{TotalUnread: count},
	})
}
