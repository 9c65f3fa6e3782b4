package domain

import "time"

// Moderation advisory flag recorded on free-text writes. Never blocks a write.
type Moderation struct {
	Flagged       bool       `gorm:"column:flagged;default:false" json:"flagged"`
	FlaggedAt     *time.Time `gorm:"column:flagged_at" json:"flagged_at,omitempty"`
	FlaggedReason string     `gorm:"column:flagged_reason;size:255" json:"flagged_reason,omitempty"`
}

// ModerationRules 모더레이션 규칙 (외부 관리자 설정)
type ModerationRules struct {
	Enabled    bool     `json:"enabled"`
	Keywords   []string `json:"keywords"`
	BlockPhone bool     `json:"block_phone"`
	BlockLinks bool     `json:"block_links"`
}
