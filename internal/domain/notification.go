package domain

import "time"

// NotificationType 알림 종류
type NotificationType string

const (
	NotifyNewOffer              NotificationType = "new_offer"
	NotifyRequirementUpdated    NotificationType = "requirement_updated"
	NotifyReverseAuctionInvoked NotificationType = "reverse_auction_invoked"
	NotifyReverseAuctionStopped NotificationType = "reverse_auction_stopped"
	NotifyNewMessage            NotificationType = "new_message"
	NotifyOfferViewed           NotificationType = "offer_viewed"
	NotifyContactEnabled        NotificationType = "contact_enabled"
)

// Notification represents a durable per-recipient notification (알림)
type Notification struct {
	ID            uint             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RecipientID   string           `gorm:"column:recipient_id;size:64;not null;index:idx_notifications_recipient_read" json:"recipient_id"`
	Type          NotificationType `gorm:"column:type;size:40;not null" json:"type"`
	Message       string           `gorm:"column:message;size:500" json:"message"`
	RequirementID *string          `gorm:"column:requirement_id;size:36;index" json:"requirement_id,omitempty"`
	FromUserID    *string          `gorm:"column:from_user_id;size:64" json:"from_user_id,omitempty"`
	IsRead        bool             `gorm:"column:is_read;default:false;index:idx_notifications_recipient_read" json:"is_read"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name
func (Notification) TableName() string {
	return "notifications"
}

// NotifyContext optional context attached to a notification
type NotifyContext struct {
	RequirementID string
	FromUserID    string
}

// NotificationSummaryResponse represents unread count response
type NotificationSummaryResponse struct {
	TotalUnread int64 `json:"total_unread"`
}

// NotificationListResponse represents notification list response
type NotificationListResponse struct {
	Items       []Notification `json:"items"`
	Total       int64          `json:"total"`
	UnreadCount int64          `json:"unread_count"`
	Page        int            `json:"page"`
	Limit       int            `json:"limit"`
	TotalPages  int            `json:"total_pages"`
}
