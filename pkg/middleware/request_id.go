package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rsierra/ex-maps/pkg/httpclient"
	"github.com/rsierra/ex-maps/pkg/logger"
)

const requestIDKey = "request_id"

// RequestID assigns each request an ID, taken from the X-Request-ID header
// when the caller sent a valid one, generated otherwise. The ID is stored
// on the gin context and the request context, and echoed in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(httpclient.RequestIDHeader)

		if requestID == "" || !isValidUUID(requestID) {
			requestID = uuid.New().String()
		}

		c.Set(requestIDKey, requestID)
		c.Request = c.Request.WithContext(
			logger.ContextWithRequestID(c.Request.Context(), requestID),
		)
		c.Header(httpclient.RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID returns the request ID stored on the gin context
func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(requestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
