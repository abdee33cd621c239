package routes

import (
	"webhook-service/controllers"
	"webhook-service/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterWebhookRoutes sets up the webhook and payment status routes.
// limiter may be nil to disable rate limiting.
func RegisterWebhookRoutes(r *gin.Engine, wc *controllers.WebhookController, token string, limiter *middleware.RateLimiter) {
	webhook := r.Group("/webhook")
	if limiter != nil {
		webhook.Use(middleware.RateLimit(limiter))
	}
	// token is checked by the service so a bad token gets the webhook error shape
	webhook.POST("", wc.HandleWebhook)

	payments := r.Group("/payments")
	payments.Use(middleware.TokenAuth(token))
	payments.GET("/:transaction_id", wc.GetPaymentStatus)
}
