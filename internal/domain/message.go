package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Message 요청-판매자 채팅 메시지
type Message struct {
	ID            string                      `gorm:"column:id;primaryKey;size:36" json:"id"`
	RequirementID string                      `gorm:"column:requirement_id;size:36;not null;index:idx_messages_thread" json:"requirement_id"`
	SellerID      string                      `gorm:"column:seller_id;size:64;not null;index:idx_messages_thread" json:"seller_id"`
	SenderID      string                      `gorm:"column:sender_id;size:64;not null" json:"sender_id"`
	RecipientID   string                      `gorm:"column:recipient_id;size:64;not null" json:"recipient_id"`
	Body          string                      `gorm:"column:body;type:text" json:"body"`
	Attachments   datatypes.JSONSlice[string] `gorm:"column:attachments" json:"attachments"`
	Moderation    Moderation                  `gorm:"embedded;embeddedPrefix:moderation_" json:"moderation"`
	ReadAt        *time.Time                  `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt     time.Time                   `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

// SendMessageRequest represents a send message request
type SendMessageRequest struct {
	Body        string   `json:"body" binding:"required_without=Attachments,max=4000"`
	Attachments []string `json:"attachments" binding:"max=5"`
}

// AttachmentURL resolved attachment link
type AttachmentURL struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
