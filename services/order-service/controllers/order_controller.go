package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
	"github.com/yashrajoria/storefront-backend/services/common/pagination"
	"github.com/yashrajoria/storefront-backend/services/order-service/models"
	"github.com/yashrajoria/storefront-backend/services/order-service/services"
)

type OrderServiceAPI interface {
	ListMine(ctx context.Context, userID uuid.UUID, status string, page, limit int) ([]models.Order, int64, *apperrors.ServiceError)
	GetMine(ctx context.Context, userID, id uuid.UUID) (*models.Order, *apperrors.ServiceError)
	Cancel(ctx context.Context, userID, id uuid.UUID) (*models.Order, *apperrors.ServiceError)
	AdminList(ctx context.Context, q services.AdminOrderQuery, page, limit int) ([]models.Order, int64, *apperrors.ServiceError)
	AdminGet(ctx context.Context, id uuid.UUID) (*models.Order, *apperrors.ServiceError)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, *apperrors.ServiceError)
}

type OrderController struct {
	service OrderServiceAPI
}

func NewOrderController(service OrderServiceAPI) *OrderController {
	return &OrderController{service: service}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := middleware.GetUserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, false
	}
	return id, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid UUID format"})
		return uuid.Nil, false
	}
	return id, true
}

// ListMine handles GET /orders?status=&page=&limit=.
func (oc *OrderController) ListMine(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	page, limit := pagination.Parse(c)

	orders, total, svcErr := oc.service.ListMine(c.Request.Context(), uid, c.Query("status"), page, limit)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": orders,
		"meta": pagination.NewMeta(page, limit, total),
	})
}

func (oc *OrderController) GetMine(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	order, svcErr := oc.service.GetMine(c.Request.Context(), uid, id)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (oc *OrderController) Cancel(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	order, svcErr := oc.service.Cancel(c.Request.Context(), uid, id)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

// AdminList handles GET /admin/orders?status=&from=&to=&q=&page=&limit=.
func (oc *OrderController) AdminList(c *gin.Context) {
	page, limit := pagination.Parse(c)
	q := services.AdminOrderQuery{
		Status: c.Query("status"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Query:  c.Query("q"),
	}

	orders, total, svcErr := oc.service.AdminList(c.Request.Context(), q, page, limit)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": orders,
		"meta": pagination.NewMeta(page, limit, total),
	})
}

func (oc *OrderController) AdminGet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	order, svcErr := oc.service.AdminGet(c.Request.Context(), id)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (oc *OrderController) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(c, err)
		return
	}
	order, svcErr := oc.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}
