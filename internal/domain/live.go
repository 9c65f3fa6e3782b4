package domain

// 실시간 이벤트 종류
const (
	LiveEventNotification = "notification"
	LiveEventPriceMoved   = "price_moved"
	LiveEventNewMessage   = "new_message"
	LiveEventUnreadCount  = "unread_count"
)

// LiveEvent transient message on a user's live channel. Never persisted.
type LiveEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
