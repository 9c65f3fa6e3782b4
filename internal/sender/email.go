package sender

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/config"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/repository"
)

// sendMailFunc matches smtp.SendMail
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSender mails the recipient's profile address. Recipients without an
// address are skipped.
type EmailSender struct {
	cfg      config.SMTPConfig
	auth     smtp.Auth
	addr     string
	profiles repository.ProfileRepository
	sendMail sendMailFunc
}

// NewEmailSender creates an SMTP side channel
func NewEmailSender(cfg config.SMTPConfig, profiles repository.ProfileRepository) *EmailSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &EmailSender{
		cfg:      cfg,
		auth:     auth,
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		profiles: profiles,
		sendMail: smtp.SendMail,
	}
}

func (s *EmailSender) Name() string { return "email" }

func (s *EmailSender) Send(ctx context.Context, n *domain.Notification) error {
	profile, err := s.profiles.Get(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("load recipient profile: %w", err)
	}
	if profile.Email == "" {
		return nil
	}
	msg := buildMessage(s.cfg.FromAddress, profile.Email, Subject(n), n.Message, time.Now())
	if err := s.sendMail(s.addr, s.auth, s.cfg.FromAddress, []string{profile.Email}, msg); err != nil {
		return fmt.Errorf("smtp error: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string, at time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", at.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.Bytes()
}
