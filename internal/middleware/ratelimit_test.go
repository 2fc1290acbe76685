package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestIPRateLimiter_BurstThenReject(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewIPRateLimiter(rate.Limit(0.001), 2)

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestIPRateLimiter_SeparateBucketsPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewIPRateLimiter(rate.Limit(0.001), 1)

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = "192.0.2.20:1234"
	r.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	// A different IP has its own allowance.
	second := httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = "192.0.2.21:1234"
	r.ServeHTTP(second, req)
	assert.Equal(t, http.StatusOK, second.Code)

	// The first IP is out of tokens.
	third := httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = "192.0.2.20:1234"
	r.ServeHTTP(third, req)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
}
