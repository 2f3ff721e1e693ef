package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinMiddleware logs one entry per HTTP request. It also copies the request
// id set by the request-id middleware and the X-Merchant-ID header into the
// request context so downstream logs and SQL traces correlate.
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		requestID := c.GetString("request_id")

		ctx := c.Request.Context()
		if requestID != "" {
			ctx = ContextWithRequestID(ctx, requestID)
		}
		if merchantID := c.GetHeader("X-Merchant-ID"); merchantID != "" {
			ctx = ContextWithMerchantID(ctx, merchantID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		entry := For(ctx, base)
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("http request", fields...)
		case status >= http.StatusBadRequest:
			entry.Warn("http request", fields...)
		default:
			entry.Info("http request", fields...)
		}
	}
}

// Recovery converts panics into a 500 response and an error log entry
// instead of killing the worker goroutine.
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				For(c.Request.Context(), base).Error("panic recovered",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}
