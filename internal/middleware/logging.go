package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/api"
	"go.uber.org/zap"
)

func requestFields(c *gin.Context) []zap.Field {
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("ip", c.ClientIP()),
	}
	if requestID := c.GetString(KeyRequestID); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	return fields
}

// RequestLoggingMiddleware logs every request once it completes.
// Successful requests to quietPaths, such as health checks, are logged at debug level.
func RequestLoggingMiddleware(logger *zap.Logger, quietPaths ...string) gin.HandlerFunc {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		query := c.Request.URL.RawQuery

		c.Next()

		// set by handlers once the body or query is bound
		userID := c.GetString(KeyUserID)
		if userID == "" {
			userID = "anonymous"
		}

		status := c.Writer.Status()
		fields := append(requestFields(c),
			zap.String("query", query),
			zap.String("user_id", userID),
			zap.Int("status", status),
			zap.Int("response_bytes", c.Writer.Size()),
			zap.Duration("duration", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Time("timestamp", start),
		)

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request rejected", fields...)
		case quiet[c.Request.URL.Path]:
			logger.Debug("Request completed", fields...)
		default:
			logger.Info("Request completed", fields...)
		}
	}
}

// ErrorLoggingMiddleware logs errors handlers attached with c.Error
func ErrorLoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			fields := append(requestFields(c),
				zap.Error(err.Err),
				zap.Uint64("error_type", uint64(err.Type)),
				zap.String("user_id", c.GetString(KeyUserID)),
				zap.Stack("stack_trace"),
			)
			logger.Error("Request error occurred", fields...)
		}
	}
}

// RecoveryMiddleware turns a panic into a 500 INTERNAL_ERROR response
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				fields := append(requestFields(c),
					zap.Any("panic", rec),
					zap.Stack("stack_trace"),
				)
				logger.Error("Panic recovered", fields...)

				c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{
					Code:    "INTERNAL_ERROR",
					Message: "Internal server error",
				})
			}
		}()

		c.Next()
	}
}
