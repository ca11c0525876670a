package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront-backend/services/payment-service/controllers"
)

// RegisterPaymentRoutes mounts the provider webhook. It is authenticated by signature, not token.
func RegisterPaymentRoutes(api *gin.RouterGroup, pc *controllers.PaymentController) {
	api.POST("/payments/webhook", pc.StripeWebhook)
}
