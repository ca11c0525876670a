package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/order-service/services"
)

type DashboardServiceAPI interface {
	Stats(ctx context.Context, preset, from, to string) (*services.DashboardStats, *apperrors.ServiceError)
}

type DashboardController struct {
	service DashboardServiceAPI
}

func NewDashboardController(service DashboardServiceAPI) *DashboardController {
	return &DashboardController{service: service}
}

// Stats handles GET /admin/dashboard?range=&from=&to=.
func (dc *DashboardController) Stats(c *gin.Context) {
	stats, svcErr := dc.service.Stats(c.Request.Context(), c.Query("range"), c.Query("from"), c.Query("to"))
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}
