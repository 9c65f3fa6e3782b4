package handler

import (
	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ProfileHandler 사용자 환경설정 핸들러
type ProfileHandler struct {
	service service.ProfileService
}

// NewProfileHandler 환경설정 핸들러 생성
func NewProfileHandler(s service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: s}
}

// GetPreferences GET /me/preferences
func (h *ProfileHandler) GetPreferences(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, profile)
}

// UpdatePreferences PUT /me/preferences
func (h *ProfileHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.UpdatePreferencesRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.service.UpdatePreferences(c.Request.Context(), userID, &req)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, profile)
}
