package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimit_BlocksWithinWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handle := RateLimit(10 * time.Second)

	c1, _ := gin.CreateTestContext(httptest.NewRecorder())
	c1.Request = httptest.NewRequest("POST", "/api/v1/chats/c1/messages", nil)
	handle(c1)
	require.False(t, c1.IsAborted())

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest("POST", "/api/v1/chats/c1/messages", nil)
	handle(c2)
	require.True(t, c2.IsAborted())
}

func TestRateLimit_ZeroWindowDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handle := RateLimit(0)

	for i := 0; i < 3; i++ {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("POST", "/api/v1/chats/c1/messages", nil)
		handle(c)
		require.False(t, c.IsAborted())
	}
}

func TestRateLimit_SeparateUsersNotCoupled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handle := RateLimit(10 * time.Second)

	c1, _ := gin.CreateTestContext(httptest.NewRecorder())
	c1.Request = httptest.NewRequest("POST", "/api/v1/chats/c1/messages", nil)
	c1.Set(ContextUserIDKey, "user-a")
	handle(c1)
	require.False(t, c1.IsAborted())

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest("POST", "/api/v1/chats/c1/messages", nil)
	c2.Set(ContextUserIDKey, "user-b")
	handle(c2)
	require.False(t, c2.IsAborted())
}
