package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// V2Response 표준 응답 형식
type V2Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *V2Meta     `json:"meta,omitempty"`
	Error   *V2Error    `json:"error,omitempty"`
}

// V2Meta 페이지네이션 메타
type V2Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// V2Error 에러 응답
type V2Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// NewV2Meta creates V2Meta with computed total_pages
func NewV2Meta(page, perPage int, total int64) *V2Meta {
	if perPage <= 0 {
		perPage = 1
	}
	totalPages := total / int64(perPage)
	if total%int64(perPage) > 0 {
		totalPages++
	}
	return &V2Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// V2Success returns a success response
func V2Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, V2Response{
		Success: true,
		Data:    data,
	})
}

// V2SuccessWithMeta returns a success response with pagination
func V2SuccessWithMeta(c *gin.Context, data interface{}, meta *V2Meta) {
	c.JSON(http.StatusOK, V2Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// V2Created returns a 201 Created response
func V2Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, V2Response{
		Success: true,
		Data:    data,
	})
}

// V2ErrorResponse returns an error response with a status-derived code
func V2ErrorResponse(c *gin.Context, status int, message string, err error) {
	v2Err := &V2Error{
		Code:    getErrorCode(status),
		Message: message,
	}
	if err != nil {
		v2Err.Details = err.Error()
	}
	c.JSON(status, V2Response{
		Success: false,
		Error:   v2Err,
	})
}

// WriteError maps a service error onto a typed, user-actionable response.
// Anything unrecognised becomes a 500 without leaking internals.
func WriteError(c *gin.Context, err error) {
	status, v2Err := classify(err)
	c.JSON(status, V2Response{Success: false, Error: v2Err})
}

func classify(err error) (int, *V2Error) {
	var priceErr *PriceNotCompetitiveError
	var offersErr *InsufficientOffersError
	var validationErr *ValidationError

	switch {
	case errors.As(err, &priceErr):
		return http.StatusConflict, &V2Error{
			Code:    "PRICE_NOT_COMPETITIVE",
			Message: "offer must be lower than the current lowest price",
			Details: gin.H{"current_lowest_price": priceErr.CurrentLowest},
		}
	case errors.As(err, &offersErr):
		return http.StatusConflict, &V2Error{
			Code:    "INSUFFICIENT_OFFERS",
			Message: "a reverse auction needs more live offers",
			Details: gin.H{"live_offers": offersErr.Live, "required": offersErr.Required},
		}
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, &V2Error{
			Code:    "VALIDATION_ERROR",
			Message: validationErr.Error(),
			Details: gin.H{"field": validationErr.Field},
		}
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, &V2Error{Code: "VALIDATION_ERROR", Message: err.Error()}
	case errors.Is(err, ErrChatNotEnabled):
		return http.StatusForbidden, &V2Error{Code: "CHAT_NOT_ENABLED", Message: "the buyer has not enabled contact for this offer"}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, &V2Error{Code: getErrorCode(http.StatusNotFound), Message: err.Error()}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, &V2Error{Code: getErrorCode(http.StatusForbidden), Message: "권한이 없습니다"}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, &V2Error{Code: getErrorCode(http.StatusUnauthorized), Message: "login required"}
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, &V2Error{Code: getErrorCode(http.StatusConflict), Message: err.Error()}
	default:
		return http.StatusInternalServerError, &V2Error{Code: getErrorCode(http.StatusInternalServerError), Message: "internal error"}
	}
}

// getErrorCode generates error code from HTTP status
func getErrorCode(status int) string {
	switch status {
	case 400:
		return "BAD_REQUEST"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 500:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "ERROR"
	}
}
