package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront-backend/services/cart-service/controllers"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
)

// RegisterRoutes mounts the cart under api. Every route requires a signed-in user.
func RegisterRoutes(api *gin.RouterGroup, authn *middleware.Authenticator, ctrl *controllers.CartController) {
	cart := api.Group("/cart", authn.AuthRequired())
	{
		cart.GET("", ctrl.GetCart)
		cart.GET("/count", ctrl.Count)
		cart.DELETE("", ctrl.Clear)

		cart.POST("/items", ctrl.AddItem)
		cart.POST("/items/batch", ctrl.AddMany)
		cart.PUT("/items/:id", ctrl.UpdateItem)
		cart.DELETE("/items/:id", ctrl.RemoveItem)

		cart.POST("/repeat/:order_id", ctrl.RepeatOrder)
	}
}
