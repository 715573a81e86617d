package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"notes-upload/internal/shared/telemetry"
)

// Context keys handlers may set for the request log.
const (
	UploadIDKey       = "uploadId"
	StepTransitionKey = "stepTransition"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		userID, _ := c.Get(userIDKey)
		uploadID, _ := c.Get(UploadIDKey)
		stepTransition := c.GetString(StepTransitionKey)

		telemetry.Info("request.complete", map[string]any{
			"request_id":      reqID,
			"method":          c.Request.Method,
			"path":            c.Request.URL.Path,
			"status":          status,
			"step_transition": stepTransition,
			"duration_ms":     float64(latency.Microseconds()) / 1000.0,
			"user_id":         userID,
			"upload_id":       uploadID,
			"client_ip":       c.ClientIP(),
			"user_agent":      c.Request.UserAgent(),
		})
	}
}
