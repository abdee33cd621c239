package middleware

import (
	"net/http"

	"webhook-service/services"

	"github.com/gin-gonic/gin"
)

const WebhookTokenHeader = "X-Webhook-Token"

// TokenAuth guards read-only routes with the webhook token. Unlike the
// webhook route itself, failures here are plain 401s.
func TokenAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !services.Authenticate(c.GetHeader(WebhookTokenHeader), token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": services.MsgUnauthorized})
			return
		}
		c.Next()
	}
}
