package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wso2/financial-recommendation-api/internal/system/constants"
)

type correlationIDKey struct{}

// CorrelationIDMiddleware propagates or generates the request correlation id
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := extractCorrelationID(c)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Set(constants.CorrelationIDContextKey, correlationID)
		c.Header(constants.CorrelationIDHeaderName, correlationID)
		c.Request = c.Request.WithContext(WithCorrelationID(c.Request.Context(), correlationID))
		c.Next()
	}
}

// WithCorrelationID stores the correlation id on a context
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationIDFromContext returns the correlation id stored on ctx, if any
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return v
	}
	return ""
}

func extractCorrelationID(c *gin.Context) string {
	headers := []string{constants.CorrelationIDHeaderName, "X-Request-ID", "X-Trace-ID"}
	for _, header := range headers {
		if id := c.GetHeader(header); id != "" {
			return id
		}
	}
	return ""
}
