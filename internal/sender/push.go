package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/config"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
)

// PushSender posts notifications to a mobile push gateway
type PushSender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewPushSender timeout defaults to 5s
func NewPushSender(cfg config.PushConfig) *PushSender {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PushSender{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type pushPayload struct {
	UserID        string  `json:"user_id"`
	Title         string  `json:"title"`
	Body          string  `json:"body"`
	Type          string  `json:"type"`
	RequirementID *string `json:"requirement_id,omitempty"`
}

func (s *PushSender) Name() string { return "push" }

func (s *PushSender) Send(ctx context.Context, n *domain.Notification) error {
	body, err := json.Marshal(pushPayload{
		UserID:        n.RecipientID,
		Title:         Subject(n),
		Body:          n.Message,
		Type:          string(n.Type),
		RequirementID: n.RequirementID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned %d", resp.StatusCode)
	}
	return nil
}
