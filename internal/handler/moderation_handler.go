package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/gin-gonic/gin"
)

// ModerationRuleStore reads and overrides the live moderation rules
type ModerationRuleStore interface {
	Rules(ctx context.Context) (domain.ModerationRules, error)
	Store(ctx context.Context, rules domain.ModerationRules, ttl time.Duration) error
}

// ModerationHandler 모더레이션 규칙 관리 (moderator)
type ModerationHandler struct {
	store ModerationRuleStore
}

// NewModerationHandler creates a ModerationHandler
func NewModerationHandler(store ModerationRuleStore) *ModerationHandler {
	return &ModerationHandler{store: store}
}

type updateRulesRequest struct {
	domain.ModerationRules
	TTLSeconds int `json:"ttl_seconds" binding:"gte=0"`
}

// GetRules GET /moderation/rules
func (h *ModerationHandler) GetRules(c *gin.Context) {
	rules, err := h.store.Rules(c.Request.Context())
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, rules)
}

// UpdateRules PUT /moderation/rules
func (h *ModerationHandler) UpdateRules(c *gin.Context) {
	var req updateRulesRequest
	if !bindJSON(c, &req) {
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	if err := h.store.Store(c.Request.Context(), req.ModerationRules, ttl); err != nil {
		common.V2ErrorResponse(c, http.StatusServiceUnavailable, "rule override store unavailable", err)
		return
	}
	common.V2Success(c, req.ModerationRules)
}
