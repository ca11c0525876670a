package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/pagination"
	"github.com/yashrajoria/storefront-backend/services/notification-service/models"
	"github.com/yashrajoria/storefront-backend/services/notification-service/services"
)

type NotificationController struct {
	notificationService services.NotificationService
}

func NewNotificationController(svc services.NotificationService) *NotificationController {
	return &NotificationController{notificationService: svc}
}

// GetNotificationLogs handles GET /admin/notifications.
func (nc *NotificationController) GetNotificationLogs(ctx *gin.Context) {
	filter := models.NotificationFilter{
		EventType: ctx.Query("event_type"),
		Status:    ctx.Query("status"),
	}
	if raw := ctx.Query("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		filter.UserID = &userID
	}

	page, limit := pagination.Parse(ctx)
	logs, total, svcErr := nc.notificationService.GetLogs(ctx.Request.Context(), filter, page, limit)
	if svcErr != nil {
		apperrors.Respond(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"data": logs,
		"meta": pagination.NewMeta(page, limit, total),
	})
}
