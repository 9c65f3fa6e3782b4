package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bazaarhub/negotiation-backend/internal/common"
	"github.com/bazaarhub/negotiation-backend/internal/middleware"
	"github.com/bazaarhub/negotiation-backend/pkg/ginutil"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

// pageParams reads ?page=&limit= with defaults
func pageParams(c *gin.Context) (int, int) {
	return ginutil.QueryPositiveInt(c, "page", defaultPage), ginutil.QueryPositiveInt(c, "limit", defaultLimit)
}

// currentUser aborts with 401 when the identity middleware did not run
func currentUser(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		common.V2ErrorResponse(c, http.StatusUnauthorized, "로그인이 필요합니다", nil)
		return "", false
	}
	return userID, true
}

// bindJSON writes a VALIDATION_ERROR on malformed bodies, same as the service layer
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		common.WriteError(c, bindingError(err))
		return false
	}
	return true
}

// bindingError names the first offending field
func bindingError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return common.NewValidationError(fe.Field(), fmt.Sprintf("failed %q rule", fe.Tag()))
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return common.NewValidationError(typeErr.Field, "wrong type")
	}
	return common.NewValidationError("", err.Error())
}
