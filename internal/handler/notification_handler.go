package handler

import (
	"net/http"
	"strconv"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	service service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(s service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: s}
}

// GetUnreadCount GET /notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, domain.NotificationSummaryResponse{TotalUnread: count})
}

// GetNotifications GET /notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)

	result, err := h.service.List(c.Request.Context(), userID, page, limit)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, result)
}

// MarkAsRead POST /notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "Invalid notification ID", err)
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), userID, uint(id)); err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, gin.H{"read": true})
}

// MarkAllAsRead POST /notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	updated, err := h.service.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, gin.H{"updated": updated})
}
