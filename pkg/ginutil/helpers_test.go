package ginutil

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestQueryPositiveInt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"?limit=5", 5},
		{"?limit=0", 20},
		{"?limit=-3", 20},
		{"?limit=abc", 20},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)
		assert.Equal(t, tt.want, QueryPositiveInt(c, "limit", 20), tt.query)
	}
}

func TestParamIndex(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "index", Value: "2"}, {Key: "bad", Value: "-1"}}

	i, ok := ParamIndex(c, "index")
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = ParamIndex(c, "bad")
	assert.False(t, ok)
	_, ok = ParamIndex(c, "missing")
	assert.False(t, ok)
}
