package service

import (
	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ValidatePrice accepts any positive price while no auction is running.
// During an active auction the price must be strictly below the auction's
// lowest price. Callers pass the auction state read in the committing
// transaction.
func ValidatePrice(price decimal.Decimal, auction domain.ReverseAuction) error {
	if !price.IsPositive() {
		return common.NewValidationError("price", "must be greater than zero")
	}
	// decimal(14,2) 컬럼에서 반올림되면 최저가와 같아질 수 있음
	if !price.Equal(price.Round(2)) {
		return common.NewValidationError("price", "at most two decimal places")
	}
	if !auction.Active || !auction.LowestPrice.Valid {
		return nil
	}
	if price.LessThan(auction.LowestPrice.Decimal) {
		return nil
	}
	return &common.PriceNotCompetitiveError{CurrentLowest: auction.LowestPrice.Decimal}
}
