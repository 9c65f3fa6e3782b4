package routes

import (
	"net/http"
	"time"

	"github.com/bazaarhub/negotiation-backend/internal/handler"
	"github.com/bazaarhub/negotiation-backend/internal/middleware"
	"github.com/bazaarhub/negotiation-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles every HTTP handler the router serves.
// WS and Moderation may be nil.
type Handlers struct {
	Requirement  *handler.RequirementHandler
	Offer        *handler.OfferHandler
	Auction      *handler.AuctionHandler
	Contact      *handler.ContactHandler
	Chat         *handler.ChatHandler
	Notification *handler.NotificationHandler
	Profile      *handler.ProfileHandler
	Moderation   *handler.ModerationHandler
	WS           *handler.WSHandler
}

// Setup configures all API routes
func Setup(router *gin.Engine, h *Handlers, jwtManager *jwt.Manager) {
	handler.RegisterValidators()

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "negotiation-backend",
			"time":    time.Now().Unix(),
		})
	})

	auth := middleware.JWTAuth(jwtManager)
	buyer := middleware.RequireRole(middleware.RoleBuyer)
	seller := middleware.RequireRole(middleware.RoleSeller)
	party := middleware.RequireRole(middleware.RoleBuyer, middleware.RoleSeller)

	if h.WS != nil {
		router.GET("/ws", auth, h.WS.Connect)
	}

	api := router.Group("/api/v1")

	// 구매 요청 (목록/상세는 공개)
	requirements := api.Group("/requirements")
	requirements.GET("", h.Requirement.List)
	requirements.GET("/:id", h.Requirement.Get)
	requirements.GET("/:id/auction", h.Auction.Status)
	requirements.POST("", auth, buyer, h.Requirement.Create)
	requirements.PATCH("/:id", auth, buyer, h.Requirement.Update)
	requirements.DELETE("/:id", auth, middleware.RequireRole(middleware.RoleBuyer, middleware.RoleModerator), h.Requirement.Remove)

	// 견적
	requirements.POST("/:id/offers", auth, seller, h.Offer.Submit)
	requirements.GET("/:id/offers", auth, h.Offer.ListForRequirement)

	// 역경매
	requirements.POST("/:id/auction/start", auth, buyer, h.Auction.Start)
	requirements.POST("/:id/auction/stop", auth, buyer, h.Auction.Stop)

	// 연락 허용
	requirements.PUT("/:id/contact", auth, buyer, h.Contact.SetAll)
	requirements.GET("/:id/offers/:sellerId/contact", auth, h.Contact.Status)
	requirements.PUT("/:id/offers/:sellerId/contact", auth, buyer, h.Contact.Set)

	// 채팅
	chats := requirements.Group("/:id/chats/:sellerId", auth)
	chats.GET("/messages", h.Chat.List)
	chats.POST("/messages", h.Chat.Send)
	chats.GET("/messages/:messageId/attachments/:index", h.Chat.AttachmentURL)

	offers := api.Group("/offers", auth)
	offers.POST("/:id/view", buyer, h.Offer.View)
	offers.POST("/:id/remove", middleware.RequireRole(middleware.RoleModerator), h.Offer.Remove)

	me := api.Group("/me", auth)
	me.GET("/requirements", buyer, h.Requirement.ListMine)
	me.GET("/offers", seller, h.Offer.ListMine)
	// 채팅 차단은 양쪽 모두 적용
	me.GET("/preferences", party, h.Profile.GetPreferences)
	me.PUT("/preferences", party, h.Profile.UpdatePreferences)

	notifications := api.Group("/notifications", auth)
	notifications.GET("", h.Notification.GetNotifications)
	notifications.GET("/unread-count", h.Notification.GetUnreadCount)
	notifications.POST("/read-all", h.Notification.MarkAllAsRead)
	notifications.POST("/:id/read", h.Notification.MarkAsRead)

	if h.Moderation != nil {
		moderation := api.Group("/moderation", auth, middleware.RequireRole(middleware.RoleModerator))
		moderation.GET("/rules", h.Moderation.GetRules)
		moderation.PUT("/rules", h.Moderation.UpdateRules)
	}
}
