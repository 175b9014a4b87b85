package middleware

import (
	"strings"
	"time"

	"ewsclient/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ClientRequestIDHeader       = "client-request-id"
	ReturnClientRequestIDHeader = "return-client-request-id"
	RequestIDHeader             = "request-id"
)

// AttachRequestID puts the caller's client-request-id, or a fresh one, on the
// request context and logs the outcome once the handler returns.
func AttachRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(ClientRequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		if strings.EqualFold(c.GetHeader(ReturnClientRequestIDHeader), "true") {
			c.Header(ClientRequestIDHeader, requestID)
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		logger.CtxInfo(ctx, "request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("response_bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
