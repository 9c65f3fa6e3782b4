package handler

import (
	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/middleware"
	"github.com/bazaarhub/negotiation-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// RequirementHandler 구매 요청 핸들러
type RequirementHandler struct {
	service service.RequirementService
}

// NewRequirementHandler 구매 요청 핸들러 생성
func NewRequirementHandler(s service.RequirementService) *RequirementHandler {
	return &RequirementHandler{service: s}
}

// Create POST /requirements
func (h *RequirementHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.CreateRequirementRequest
	if !bindJSON(c, &req) {
		return
	}

	requirement, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Created(c, requirement)
}

// Get GET /requirements/:id
func (h *RequirementHandler) Get(c *gin.Context) {
	requirement, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, requirement)
}

// List GET /requirements?city=&category=&keyword=
func (h *RequirementHandler) List(c *gin.Context) {
	page, limit := pageParams(c)
	params := &domain.RequirementListParams{
		City:     c.Query("city"),
		Category: c.Query("category"),
		Keyword:  c.Query("keyword"),
		Page:     page,
		Limit:    limit,
	}

	items, meta, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2SuccessWithMeta(c, items, meta)
}

// ListMine GET /me/requirements
func (h *RequirementHandler) ListMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)

	items, meta, err := h.service.ListByBuyer(c.Request.Context(), userID, page, limit)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2SuccessWithMeta(c, items, meta)
}

// Update PATCH /requirements/:id
func (h *RequirementHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.UpdateRequirementRequest
	if !bindJSON(c, &req) {
		return
	}

	requirement, err := h.service.Update(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, requirement)
}

type removeRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// Remove DELETE /requirements/:id (owner or moderator)
func (h *RequirementHandler) Remove(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req removeRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	if err := h.service.Remove(c.Request.Context(), c.Param("id"), userID, middleware.IsModerator(c), req.Reason); err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, gin.H{"removed": true})
}
