package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Requirement 구매자 요청 (견적 요청)
type Requirement struct {
	ID          string `gorm:"column:id;primaryKey;size:36" json:"id"`
	BuyerID     string `gorm:"column:buyer_id;size:64;not null;index" json:"buyer_id"`
	City        string `gorm:"column:city;size:100;index" json:"city"`
	Category    string `gorm:"column:category;size:100;index" json:"category"`
	ProductName string `gorm:"column:product_name;size:200;not null" json:"product_name"`
	BrandModel  string `gorm:"column:brand_model;size:200" json:"brand_model"`
	Quantity    int64  `gorm:"column:quantity;default:1" json:"quantity"`
	Unit        string `gorm:"column:unit;size:30" json:"unit"`
	Details     string `gorm:"column:details;type:text" json:"details"`

	ChatDisabled bool `gorm:"column:chat_disabled;default:false" json:"chat_disabled"`

	Auction            ReverseAuction      `gorm:"embedded;embeddedPrefix:auction_" json:"reverse_auction"`
	CurrentLowestPrice decimal.NullDecimal `gorm:"column:current_lowest_price;type:decimal(14,2)" json:"current_lowest_price"`
	Moderation         Moderation          `gorm:"embedded;embeddedPrefix:moderation_" json:"moderation"`

	// soft delete: offers keep pointing at the row
	Removed       bool       `gorm:"column:is_removed;default:false;index" json:"-"`
	RemovedReason string     `gorm:"column:removed_reason;size:255" json:"-"`
	RemovedAt     *time.Time `gorm:"column:removed_at" json:"-"`

	// optimistic concurrency for auction fields
	Version int64 `gorm:"column:version;not null;default:0" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Requirement) TableName() string {
	return "requirements"
}

// IsOwnedBy reports whether userID is the posting buyer
func (r *Requirement) IsOwnedBy(userID string) bool {
	return r.BuyerID == userID
}

// FreeText returns the fields scanned by moderation
func (r *Requirement) FreeText() []string {
	return []string{r.ProductName, r.BrandModel, r.Details}
}

// CreateRequirementRequest 요청 등록
type CreateRequirementRequest struct {
	City        string `json:"city" binding:"required,max=100"`
	Category    string `json:"category" binding:"required,max=100"`
	ProductName string `json:"product_name" binding:"required,max=200"`
	BrandModel  string `json:"brand_model" binding:"max=200"`
	Quantity    int64  `json:"quantity" binding:"omitempty,gte=1"`
	Unit        string `json:"unit" binding:"max=30"`
	Details     string `json:"details"`
}

// UpdateRequirementRequest 요청 수정 (nil 필드는 유지)
type UpdateRequirementRequest struct {
	City         *string `json:"city" binding:"omitempty,max=100"`
	Category     *string `json:"category" binding:"omitempty,max=100"`
	ProductName  *string `json:"product_name" binding:"omitempty,max=200"`
	BrandModel   *string `json:"brand_model" binding:"omitempty,max=200"`
	Quantity     *int64  `json:"quantity" binding:"omitempty,gte=1"`
	Unit         *string `json:"unit" binding:"omitempty,max=30"`
	Details      *string `json:"details"`
	ChatDisabled *bool   `json:"chat_disabled"`
}

// RequirementListParams 목록 조회 파라미터
type RequirementListParams struct {
	BuyerID  string
	City     string
	Category string
	Keyword  string
	Page     int
	Limit    int
}
