package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
)

// maxWebhookBody caps webhook payloads at 64 KiB.
const maxWebhookBody = 65536

type WebhookHandler interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) *apperrors.ServiceError
}

type PaymentController struct {
	payments WebhookHandler
}

func NewPaymentController(payments WebhookHandler) *PaymentController {
	return &PaymentController{payments: payments}
}

// StripeWebhook receives and dispatches Stripe webhook events.
func (pc *PaymentController) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	if svcErr := pc.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
