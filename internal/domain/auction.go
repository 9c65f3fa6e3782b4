package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionState 역경매 상태
type AuctionState string

const (
	AuctionInactive AuctionState = "inactive" // 시작 전
	AuctionActive   AuctionState = "active"   // 진행중
	AuctionClosed   AuctionState = "closed"   // 종료
)

// ReverseAuction is embedded on the requirement row (columns prefixed auction_).
// Only the auction state machine mutates it.
type ReverseAuction struct {
	Active      bool                `gorm:"column:active;default:false" json:"active"`
	LowestPrice decimal.NullDecimal `gorm:"column:lowest_price;type:decimal(14,2)" json:"lowest_price"`
	TargetPrice decimal.NullDecimal `gorm:"column:target_price;type:decimal(14,2)" json:"target_price"`
	StartedAt   *time.Time          `gorm:"column:started_at" json:"started_at,omitempty"`
	UpdatedAt   *time.Time          `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at,omitempty"`
	ClosedAt    *time.Time          `gorm:"column:closed_at" json:"closed_at,omitempty"`
}

// State derives the lifecycle state from the stored fields
func (a ReverseAuction) State() AuctionState {
	switch {
	case a.Active:
		return AuctionActive
	case a.ClosedAt != nil:
		return AuctionClosed
	default:
		return AuctionInactive
	}
}

// StartAuctionRequest 역경매 시작 요청
type StartAuctionRequest struct {
	TargetPrice   *decimal.Decimal `json:"target_price" binding:"omitempty,price"`
	StartingPrice *decimal.Decimal `json:"starting_price" binding:"omitempty,price"`
}

// AuctionStatus 역경매 상태 응답
type AuctionStatus struct {
	RequirementID      string              `json:"requirement_id"`
	State              AuctionState        `json:"state"`
	Auction            ReverseAuction      `json:"reverse_auction"`
	CurrentLowestPrice decimal.NullDecimal `json:"current_lowest_price"`
	LiveOffers         int64               `json:"live_offers"`
}

// PriceMovedPayload transient live event sent to the buyer
type PriceMovedPayload struct {
	RequirementID string          `json:"requirement_id"`
	LowestPrice   decimal.Decimal `json:"lowest_price"`
	OfferID       string          `json:"offer_id"`
	SellerID      string          `json:"seller_id"`
}
