package handler

import (
	"net/http"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// OfferHandler 견적 핸들러
type OfferHandler struct {
	service service.OfferService
}

// NewOfferHandler 견적 핸들러 생성
func NewOfferHandler(s service.OfferService) *OfferHandler {
	return &OfferHandler{service: s}
}

// Submit POST /requirements/:id/offers
// 같은 판매자의 재제출은 기존 견적을 갱신한다 (201 신규, 200 갱신)
func (h *OfferHandler) Submit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.SubmitOfferRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.Submit(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, common.V2Response{Success: true, Data: result})
}

// ListForRequirement GET /requirements/:id/offers
func (h *OfferHandler) ListForRequirement(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	offers, err := h.service.ListForRequirement(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, offers)
}

// ListMine GET /me/offers
func (h *OfferHandler) ListMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)

	offers, meta, err := h.service.ListMine(c.Request.Context(), userID, page, limit)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2SuccessWithMeta(c, offers, meta)
}

// View POST /offers/:id/view (buyer)
func (h *OfferHandler) View(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	offer, err := h.service.View(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, offer)
}

// Remove POST /offers/:id/remove (moderator)
func (h *OfferHandler) Remove(c *gin.Context) {
	var req domain.RemoveOfferRequest
	if !bindJSON(c, &req) {
		return
	}

	offer, err := h.service.Remove(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, offer)
}
