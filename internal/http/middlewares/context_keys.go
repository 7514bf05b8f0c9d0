package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CtxRequestID = "request_id"
	CtxUserID    = "auth.userID"
)

func RequestIDFromContext(c *gin.Context) string {
	if v, ok := c.Get(CtxRequestID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return c.GetHeader(requestIDHeader)
}

// abortError writes the same error envelope as the handlers package.
func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":     message,
		"code":      code,
		"requestId": RequestIDFromContext(c),
	})
}

func abortUnauthorized(c *gin.Context, message string) {
	abortError(c, http.StatusUnauthorized, "unauthorized", message)
}
