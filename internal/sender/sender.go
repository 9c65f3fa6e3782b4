// Package sender delivers stored notifications over side channels
// (push gateway, email). Callers treat every failure as best effort.
package sender

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazaarhub/negotiation-backend/internal/config"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/repository"
	pkglogger "github.com/bazaarhub/negotiation-backend/pkg/logger"
)

// Sender delivers one notification over one channel
type Sender interface {
	Name() string
	Send(ctx context.Context, n *domain.Notification) error
}

// LoggingSender only logs. Used when no channel is configured.
type LoggingSender struct{}

func (LoggingSender) Name() string { return "log" }

func (LoggingSender) Send(_ context.Context, n *domain.Notification) error {
	pkglogger.GetLogger().Info().
		Uint("notification_id", n.ID).
		Str("recipient_id", n.RecipientID).
		Str("type", string(n.Type)).
		Msg("side channel (logged)")
	return nil
}

// CompositeSender fans one notification out to every configured channel.
// All channels are attempted; errors are joined.
type CompositeSender struct {
	senders []Sender
}

// NewCompositeSender nil senders are skipped
func NewCompositeSender(senders ...Sender) *CompositeSender {
	cs := &CompositeSender{}
	for _, s := range senders {
		cs.Add(s)
	}
	return cs
}

// Add appends a channel
func (cs *CompositeSender) Add(s Sender) {
	if s != nil {
		cs.senders = append(cs.senders, s)
	}
}

// Len number of channels
func (cs *CompositeSender) Len() int {
	return len(cs.senders)
}

func (cs *CompositeSender) Name() string { return "composite" }

func (cs *CompositeSender) Send(ctx context.Context, n *domain.Notification) error {
	if len(cs.senders) == 0 {
		return errors.New("no side channels configured")
	}
	var errs []error
	for _, s := range cs.senders {
		if err := s.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Subject 알림 종류별 제목
func Subject(n *domain.Notification) string {
	switch n.Type {
	case domain.NotifyNewOffer:
		return "You received a new offer"
	case domain.NotifyReverseAuctionInvoked:
		return "Reverse auction started"
	case domain.NotifyReverseAuctionStopped:
		return "Reverse auction closed"
	case domain.NotifyNewMessage:
		return "New chat message"
	case domain.NotifyOfferViewed:
		return "Your offer was viewed"
	case domain.NotifyContactEnabled:
		return "Chat enabled for your offer"
	case domain.NotifyRequirementUpdated:
		return "A requirement you bid on was updated"
	default:
		return "Notification"
	}
}

// FromConfig builds the enabled side channels. With none enabled the
// notifications are only logged.
func FromConfig(cfg config.NotificationConfig, profiles repository.ProfileRepository) Sender {
	cs := NewCompositeSender()
	if cfg.Email.Enabled && cfg.Email.Host != "" {
		cs.Add(NewEmailSender(cfg.Email, profiles))
	}
	if cfg.Push.Enabled && cfg.Push.Endpoint != "" {
		cs.Add(NewPushSender(cfg.Push))
	}
	if cs.Len() == 0 {
		return LoggingSender{}
	}
	return cs
}
