package controllers

import (
	"io"
	"net/http"

	"webhook-service/middleware"
	"webhook-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody caps the bytes read from a webhook request.
const maxWebhookBody = 64 << 10

// WebhookController handles HTTP requests for payment webhooks.
type WebhookController struct {
	webhookService services.PaymentWebhookService
	logger         *zap.Logger
}

// NewWebhookController creates a new WebhookController.
func NewWebhookController(svc services.PaymentWebhookService, logger *zap.Logger) *WebhookController {
	return &WebhookController{webhookService: svc, logger: logger}
}

// HandleWebhook handles POST /webhook
func (wc *WebhookController) HandleWebhook(ctx *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxWebhookBody))
	if err != nil {
		// an unreadable body is treated as an undecodable one
		wc.logger.Warn("Failed to read webhook body", zap.Error(err))
		body = nil
	}

	id, svcErr := wc.webhookService.HandleWebhook(ctx.Request.Context(), ctx.GetHeader(middleware.WebhookTokenHeader), body)
	if svcErr != nil {
		writeError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, id)
}

// GetPaymentStatus handles GET /payments/:transaction_id
func (wc *WebhookController) GetPaymentStatus(ctx *gin.Context) {
	id := ctx.Param("transaction_id")
	if id == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "transaction_id is required"})
		return
	}

	status, svcErr := wc.webhookService.PaymentStatus(ctx.Request.Context(), id)
	if svcErr != nil {
		writeError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"transaction_id": id, "status": status})
}

func writeError(ctx *gin.Context, svcErr *services.ServiceError) {
	resp := gin.H{"error": svcErr.Message}
	if svcErr.Status != "" {
		resp["status"] = svcErr.Status
	}
	ctx.JSON(svcErr.StatusCode, resp)
}
