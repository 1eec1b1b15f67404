package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request: route, user, status and duration.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start).Milliseconds()

		userID := ""
		if claims, ok := GetClaims(c); ok {
			userID = claims.UserID
		}

		args := []any{
			"method", method,
			"path", path,
			"status", status,
			"user_id", userID,
			"ip", c.ClientIP(),
			"duration_ms", duration,
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			slog.Error("request failed", args...)
		case status >= http.StatusBadRequest:
			slog.Warn("request rejected", args...)
		default:
			slog.Info("request ok", args...)
		}
	}
}

// Recovery converts panics into a 500 envelope instead of a dropped
// connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic recovered",
					"panic", r,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
				)
				abortError(c, http.StatusInternalServerError, "internal", "internal server error")
			}
		}()
		c.Next()
	}
}
