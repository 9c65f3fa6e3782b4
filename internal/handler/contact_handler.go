package handler

import (
	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ContactHandler 연락 허용 핸들러
type ContactHandler struct {
	service service.ContactService
}

// NewContactHandler 연락 허용 핸들러 생성
func NewContactHandler(s service.ContactService) *ContactHandler {
	return &ContactHandler{service: s}
}

// Set PUT /requirements/:id/offers/:sellerId/contact
func (h *ContactHandler) Set(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.ContactRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.service.SetContactEnabled(c.Request.Context(), c.Param("id"), userID, c.Param("sellerId"), *req.Enabled)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, status)
}

// SetAll PUT /requirements/:id/contact
func (h *ContactHandler) SetAll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.ContactRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.SetContactEnabledForAll(c.Request.Context(), c.Param("id"), userID, *req.Enabled)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, result)
}

// Status GET /requirements/:id/offers/:sellerId/contact
func (h *ContactHandler) Status(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := h.service.Status(c.Request.Context(), c.Param("id"), c.Param("sellerId"), userID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, status)
}
