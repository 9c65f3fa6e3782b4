package common

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("concurrent update, retry")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")

	// Negotiation errors
	ErrInsufficientOffers  = errors.New("insufficient offers to start a reverse auction")
	ErrPriceNotCompetitive = errors.New("price is not below the current lowest price")
	ErrChatNotEnabled      = errors.New("chat is not enabled for this offer")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError reports a malformed field. errors.Is(err, ErrInvalidInput) holds.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes ValidationError match ErrInvalidInput
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError builds a ValidationError
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// PriceNotCompetitiveError carries the price a seller has to beat
type PriceNotCompetitiveError struct {
	CurrentLowest decimal.Decimal
}

func (e *PriceNotCompetitiveError) Error() string {
	return fmt.Sprintf("%s (current lowest %s)", ErrPriceNotCompetitive.Error(), e.CurrentLowest.String())
}

// Is makes PriceNotCompetitiveError match ErrPriceNotCompetitive
func (e *PriceNotCompetitiveError) Is(target error) bool {
	return target == ErrPriceNotCompetitive
}

// InsufficientOffersError carries the live offer count
type InsufficientOffersError struct {
	Live     int64
	Required int
}

func (e *InsufficientOffersError) Error() string {
	return fmt.Sprintf("%s: %d live, %d required", ErrInsufficientOffers.Error(), e.Live, e.Required)
}

// Is makes InsufficientOffersError match ErrInsufficientOffers
func (e *InsufficientOffersError) Is(target error) bool {
	return target == ErrInsufficientOffers
}
