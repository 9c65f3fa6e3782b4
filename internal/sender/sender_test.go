package sender

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/config"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/repository"
	"github.com/bazaarhub/negotiation-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	name string
	err  error
	hits int
}

func (s *stubSender) Name() string { return s.name }

func (s *stubSender) Send(context.Context, *domain.Notification) error {
	s.hits++
	return s.err
}

func TestCompositeSender(t *testing.T) {
	n := &domain.Notification{RecipientID: "u1", Type: domain.NotifyNewOffer}

	t.Run("모든 채널 시도, 에러 합침", func(t *testing.T) {
		ok := &stubSender{name: "ok"}
		bad := &stubSender{name: "bad", err: errors.New("down")}
		cs := NewCompositeSender(bad, nil, ok)

		err := cs.Send(context.Background(), n)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad: down")
		assert.Equal(t, 1, ok.hits)
		assert.Equal(t, 2, cs.Len())
	})

	t.Run("채널 없음", func(t *testing.T) {
		assert.Error(t, NewCompositeSender().Send(context.Background(), n))
	})
}

func TestPushSender(t *testing.T) {
	var got pushPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got.UserID == "fail" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewPushSender(config.PushConfig{Endpoint: srv.URL, APIKey: "k1", Timeout: 2})
	req := "req-9"

	require.NoError(t, s.Send(context.Background(), &domain.Notification{
		RecipientID: "seller-1", Type: domain.NotifyReverseAuctionInvoked, Message: "beat 450", RequirementID: &req,
	}))
	assert.Equal(t, "Bearer k1", auth)
	assert.Equal(t, "seller-1", got.UserID)
	assert.Equal(t, "Reverse auction started", got.Title)
	assert.Equal(t, "req-9", *got.RequirementID)

	err := s.Send(context.Background(), &domain.Notification{RecipientID: "fail"})
	assert.ErrorContains(t, err, "503")
}

func TestEmailSender(t *testing.T) {
	ctx := context.Background()
	profiles := repository.NewProfileRepository(testutil.NewTestDB(t))
	require.NoError(t, profiles.Save(ctx, &domain.UserProfile{UserID: "buyer", Email: "buyer@example.test"}))

	s := NewEmailSender(config.SMTPConfig{Host: "smtp.example.test", Port: 587, FromAddress: "noreply@example.test"}, profiles)

	var sentTo []string
	var sentMsg []byte
	s.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "smtp.example.test:587", addr)
		assert.Equal(t, "noreply@example.test", from)
		sentTo, sentMsg = to, msg
		return nil
	}

	require.NoError(t, s.Send(ctx, &domain.Notification{RecipientID: "buyer", Type: domain.NotifyNewOffer, Message: "New offer of 450.00"}))
	assert.Equal(t, []string{"buyer@example.test"}, sentTo)
	assert.True(t, strings.Contains(string(sentMsg), "Subject: You received a new offer\r\n"))
	assert.True(t, strings.HasSuffix(string(sentMsg), "New offer of 450.00\r\n"))

	// 이메일 없는 사용자는 건너뜀
	sentTo = nil
	require.NoError(t, s.Send(ctx, &domain.Notification{RecipientID: "no-email"}))
	assert.Nil(t, sentTo)
}

func TestBuildMessage(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	msg := string(buildMessage("a@x.test", "b@x.test", "Hi", "body", at))
	assert.True(t, strings.HasPrefix(msg, "From: a@x.test\r\nTo: b@x.test\r\nSubject: Hi\r\n"))
	assert.Contains(t, msg, "Date: Sun, 01 Mar 2026 09:00:00 +0000")
}

func TestFromConfig(t *testing.T) {
	profiles := repository.NewProfileRepository(testutil.NewTestDB(t))

	_, isLog := FromConfig(config.NotificationConfig{}, profiles).(LoggingSender)
	assert.True(t, isLog)

	s := FromConfig(config.NotificationConfig{
		Email: config.SMTPConfig{Enabled: true, Host: "smtp.example.test", Port: 25},
		Push:  config.PushConfig{Enabled: true, Endpoint: "http://push.example.test"},
	}, profiles)
	cs, ok := s.(*CompositeSender)
	require.True(t, ok)
	assert.Equal(t, 2, cs.Len())
}
