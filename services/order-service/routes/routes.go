package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
	"github.com/yashrajoria/storefront-backend/services/order-service/controllers"
)

// RegisterRoutes mounts checkout, customer order and admin order/dashboard routes.
func RegisterRoutes(
	api *gin.RouterGroup,
	authn *middleware.Authenticator,
	cc *controllers.CheckoutController,
	oc *controllers.OrderController,
	dc *controllers.DashboardController,
) {
	checkout := api.Group("/checkout", authn.AuthRequired())
	{
		checkout.POST("/quote", cc.Quote)
		checkout.POST("/place", cc.PlaceOrder)
	}

	orders := api.Group("/orders", authn.AuthRequired())
	{
		orders.GET("", oc.ListMine)
		orders.GET("/:id", oc.GetMine)
		orders.POST("/:id/cancel", oc.Cancel)
	}

	admin := api.Group("/admin", authn.AuthRequired(), middleware.AdminOnly())
	{
		admin.GET("/orders", oc.AdminList)
		admin.GET("/orders/:id", oc.AdminGet)
		admin.PUT("/orders/:id/status", oc.UpdateStatus)
		admin.GET("/dashboard", dc.Stats)
	}
}
