package handler

import (
	"net/http"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/service"
	"github.com/bazaarhub/negotiation-backend/pkg/ginutil"
	"github.com/gin-gonic/gin"
)

const maxThreadPage = 100

// ChatHandler 채팅 핸들러
type ChatHandler struct {
	service service.ChatService
}

// NewChatHandler 채팅 핸들러 생성
func NewChatHandler(s service.ChatService) *ChatHandler {
	return &ChatHandler{service: s}
}

// Send POST /requirements/:id/chats/:sellerId/messages
func (h *ChatHandler) Send(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.service.Send(c.Request.Context(), c.Param("id"), c.Param("sellerId"), userID, &req)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Created(c, msg)
}

// List GET /requirements/:id/chats/:sellerId/messages?before=RFC3339&limit=
func (h *ChatHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			common.V2ErrorResponse(c, http.StatusBadRequest, "before must be RFC3339", err)
			return
		}
		before = &t
	}
	limit := min(ginutil.QueryPositiveInt(c, "limit", 50), maxThreadPage)

	messages, err := h.service.List(c.Request.Context(), c.Param("id"), c.Param("sellerId"), userID, before, limit)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, messages)
}

// AttachmentURL GET /requirements/:id/chats/:sellerId/messages/:messageId/attachments/:index
func (h *ChatHandler) AttachmentURL(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	index, valid := ginutil.ParamIndex(c, "index")
	if !valid {
		common.V2ErrorResponse(c, http.StatusBadRequest, "Invalid attachment index", nil)
		return
	}

	url, err := h.service.AttachmentURL(c.Request.Context(), c.Param("id"), c.Param("sellerId"), c.Param("messageId"), index, userID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.V2Success(c, url)
}
