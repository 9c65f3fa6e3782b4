package ginutil

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// QueryPositiveInt reads a positive integer query parameter.
// Missing, malformed or non-positive values give defaultValue.
func QueryPositiveInt(c *gin.Context, key string, defaultValue int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// ParamIndex parses a non-negative path index such as an attachment position
func ParamIndex(c *gin.Context, key string) (int, bool) {
	value, err := strconv.Atoi(c.Param(key))
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}
