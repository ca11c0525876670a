package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
	"github.com/yashrajoria/storefront-backend/services/promotion-service/controllers"
)

// RegisterRoutes mounts public voucher routes and the admin voucher API.
func RegisterRoutes(api *gin.RouterGroup, authn *middleware.Authenticator, vc *controllers.VoucherController) {
	vouchers := api.Group("/vouchers")
	{
		vouchers.GET("", vc.ListAvailable)
		vouchers.POST("/validate", authn.OptionalAuth(), vc.ValidateVoucher)
	}

	admin := api.Group("/admin/vouchers", authn.AuthRequired(), middleware.AdminOnly())
	{
		admin.GET("", vc.ListVouchers)
		admin.POST("", vc.CreateVoucher)
		admin.GET("/:id", vc.GetVoucher)
		admin.PUT("/:id", vc.UpdateVoucher)
		admin.DELETE("/:id", vc.DeleteVoucher)
	}
}
