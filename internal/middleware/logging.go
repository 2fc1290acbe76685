package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pushp314/shortlink-backend/pkg/logger"
)

// Logging logs all incoming requests with timing
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		rawQuery := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		username := ""
		if user := CurrentUser(c); user != nil {
			username = user.Username
		}

		event := logger.Log.Info()
		if status >= 400 {
			event = logger.Log.Warn()
		}
		if status >= 500 {
			event = logger.Log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", rawQuery).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Str("user", username).
			Int("body_size", c.Writer.Size()).
			Msg("request")
	}
}
