package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
	"github.com/yashrajoria/storefront-backend/services/notification-service/controllers"
)

func RegisterRoutes(api *gin.RouterGroup, authn *middleware.Authenticator, controller *controllers.NotificationController) {
	admin := api.Group("/admin/notifications", authn.AuthRequired(), middleware.AdminOnly())
	{
		admin.GET("", controller.GetNotificationLogs)
	}
}
