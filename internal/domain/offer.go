package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Offer 판매자 견적. (requirement_id, seller_id) 당 한 행.
type Offer struct {
	ID            string          `gorm:"column:id;primaryKey;size:36" json:"id"`
	RequirementID string          `gorm:"column:requirement_id;size:36;not null;uniqueIndex:ux_offers_requirement_seller" json:"requirement_id"`
	SellerID      string          `gorm:"column:seller_id;size:64;not null;uniqueIndex:ux_offers_requirement_seller;index" json:"seller_id"`
	Price         decimal.Decimal `gorm:"column:price;type:decimal(14,2);not null" json:"price"`
	Message       string          `gorm:"column:message;type:text" json:"message"`
	DeliveryTime  string          `gorm:"column:delivery_time;size:100" json:"delivery_time"`
	PaymentTerms  string          `gorm:"column:payment_terms;size:255" json:"payment_terms"`

	Attachments datatypes.JSONSlice[string] `gorm:"column:attachments" json:"attachments"`

	ViewedByBuyer         bool       `gorm:"column:viewed_by_buyer;default:false" json:"viewed_by_buyer"`
	ViewedAt              *time.Time `gorm:"column:viewed_at" json:"viewed_at,omitempty"`
	ContactEnabledByBuyer bool       `gorm:"column:contact_enabled_by_buyer;default:false" json:"contact_enabled_by_buyer"`

	Moderation Moderation `gorm:"embedded;embeddedPrefix:moderation_" json:"moderation"`

	Removed       bool       `gorm:"column:is_removed;default:false;index" json:"removed"`
	RemovedReason string     `gorm:"column:removed_reason;size:255" json:"removed_reason,omitempty"`
	RemovedAt     *time.Time `gorm:"column:removed_at" json:"removed_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Offer) TableName() string {
	return "offers"
}

// FreeText returns the fields scanned by moderation
func (o *Offer) FreeText() []string {
	return []string{o.Message, o.DeliveryTime, o.PaymentTerms}
}

// SubmitOfferRequest 견적 제출 (재제출 시 덮어쓰기)
type SubmitOfferRequest struct {
	Price        decimal.Decimal `json:"price" binding:"required,price"`
	Message      string          `json:"message"`
	DeliveryTime string          `json:"delivery_time" binding:"max=100"`
	PaymentTerms string          `json:"payment_terms" binding:"max=255"`
	Attachments  []string        `json:"attachments" binding:"max=10"`
}

// RemoveOfferRequest 모더레이션 삭제
type RemoveOfferRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// ContactRequest 연락 허용 변경
type ContactRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ContactStatus 연락 허용 상태
type ContactStatus struct {
	RequirementID string `json:"requirement_id"`
	SellerID      string `json:"seller_id"`
	Enabled       bool   `json:"enabled"`
}

// BulkContactResult 일괄 변경 결과
type BulkContactResult struct {
	RequirementID string `json:"requirement_id"`
	Enabled       bool   `json:"enabled"`
	Updated       int64  `json:"updated"`
}

// SubmitOfferResult 제출 결과
type SubmitOfferResult struct {
	Offer       *Offer       `json:"offer"`
	Created     bool         `json:"created"`
	Requirement *Requirement `json:"requirement"`
}
