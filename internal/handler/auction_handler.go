package handler

import (
	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// AuctionHandler 역경매 핸들러
type AuctionHandler struct {
	service service.AuctionService
}

// NewAuctionHandler 역경매 핸들러 생성
func NewAuctionHandler(s service.AuctionService) *AuctionHandler {
	return &AuctionHandler{service: s}
}

// Start POST /requirements/:id/auction/start
func (h *AuctionHandler) Start(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.StartAuctionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	status, err := h.service.Start(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, status)
}

// Stop POST /requirements/:id/auction/stop
func (h *AuctionHandler) Stop(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := h.service.Stop(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, status)
}

// Status GET /requirements/:id/auction
func (h *AuctionHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, status)
}
