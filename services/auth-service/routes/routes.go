package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront-backend/services/auth-service/controllers"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
)

// RegisterRoutes mounts account, address and admin user routes under api.
func RegisterRoutes(api *gin.RouterGroup, authn *middleware.Authenticator, ac *controllers.AuthController, addr *controllers.AddressController, uc *controllers.UserController) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", ac.Register)
		auth.POST("/login", ac.Login)
		auth.POST("/refresh", ac.Refresh)
		auth.POST("/logout", ac.Logout)
		auth.POST("/verify-email", ac.VerifyEmail)

		me := auth.Group("", authn.AuthRequired())
		me.GET("/me", ac.Me)
		me.PUT("/me", ac.UpdateProfile)
		me.PUT("/password", ac.ChangePassword)
	}

	addresses := api.Group("/addresses", authn.AuthRequired())
	{
		addresses.GET("", addr.List)
		addresses.POST("", addr.Create)
		addresses.PUT("/:id", addr.Update)
		addresses.DELETE("/:id", addr.Delete)
		addresses.PUT("/:id/default", addr.SetDefault)
	}

	admin := api.Group("/admin/users", authn.AuthRequired(), middleware.AdminOnly())
	{
		admin.GET("", uc.List)
		admin.PUT("/:id/role", uc.UpdateRole)
		admin.PUT("/:id/status", uc.UpdateStatus)
	}
}
