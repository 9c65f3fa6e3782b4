package domain

import "time"

// UserProfile 사용자별 협상 환경설정
type UserProfile struct {
	UserID         string    `gorm:"column:user_id;primaryKey;size:64" json:"user_id"`
	Email          string    `gorm:"column:email;size:255" json:"email,omitempty"`
	AutoEnableChat bool      `gorm:"column:auto_enable_chat;not null" json:"auto_enable_chat"`
	ChatDisabled   bool      `gorm:"column:chat_disabled;not null" json:"chat_disabled"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// UpdatePreferencesRequest nil 필드는 유지
type UpdatePreferencesRequest struct {
	Email          *string `json:"email" binding:"omitempty,email"`
	AutoEnableChat *bool   `json:"auto_enable_chat"`
	ChatDisabled   *bool   `json:"chat_disabled"`
}
