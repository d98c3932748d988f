package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLoginRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(LoginRateLimit(2, 200*time.Millisecond))
	router.POST("/login", func(c *gin.Context) {
		c.String(200, "ok")
	})

	doReq := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// third attempt from the same IP is rejected
	assert.Equal(t, 200, doReq("192.168.1.1").Code)
	assert.Equal(t, 200, doReq("192.168.1.1").Code)
	w := doReq("192.168.1.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "too many attempts")

	// other IPs are independent
	assert.Equal(t, 200, doReq("192.168.1.2").Code)
	assert.Equal(t, 200, doReq("192.168.1.2").Code)
}

func TestAttemptLimiter_Window(t *testing.T) {
	l := newAttemptLimiter(1, time.Minute)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, l.allow("10.0.0.1", start))
	assert.False(t, l.allow("10.0.0.1", start.Add(30*time.Second)))
	assert.True(t, l.allow("10.0.0.1", start.Add(61*time.Second)))

	l.sweep(start.Add(5 * time.Minute))
	assert.Empty(t, l.seen)
}

func TestAttemptLimiter_SweepsOnRequestPath(t *testing.T) {
	l := newAttemptLimiter(5, time.Second)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		l.allow(fmt.Sprintf("10.0.1.%d", i), start)
	}
	assert.Len(t, l.seen, 50)

	// within the sweep interval stale clients are kept
	l.allow("10.0.2.1", start.Add(30*time.Second))
	assert.Len(t, l.seen, 51)

	l.allow("10.0.2.2", start.Add(2*time.Minute))
	assert.Len(t, l.seen, 1)
	assert.Contains(t, l.seen, "10.0.2.2")
}

func TestLoginRateLimit_NoBackgroundGoroutine(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		LoginRateLimit(10, time.Minute)
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), before)
}
