package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/cart-service/models"
	"github.com/yashrajoria/storefront-backend/services/cart-service/services"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
)

const IdempotencyHeader = "Idempotency-Key"

type CartServiceAPI interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, *apperrors.ServiceError)
	Count(ctx context.Context, userID uuid.UUID) (int64, *apperrors.ServiceError)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, *apperrors.ServiceError)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Cart, *apperrors.ServiceError)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, *apperrors.ServiceError)
	Clear(ctx context.Context, userID uuid.UUID) *apperrors.ServiceError
	AddMany(ctx context.Context, userID uuid.UUID, items []services.BatchItem, idempotencyKey string) (*services.BatchResult, *apperrors.ServiceError)
	RepeatOrder(ctx context.Context, userID, orderID uuid.UUID) (*services.BatchResult, *apperrors.ServiceError)
}

type CartController struct {
	service CartServiceAPI
}

func NewCartController(service CartServiceAPI) *CartController {
	return &CartController{service: service}
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"omitempty,min=1"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type batchRequest struct {
	Items []services.BatchItem `json:"items" binding:"required,dive"`
}

func userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := middleware.GetUserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, false
	}
	return id, true
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid UUID format"})
		return uuid.Nil, false
	}
	return id, true
}

func (ctrl *CartController) GetCart(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	cart, svcErr := ctrl.service.GetCart(c.Request.Context(), uid)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cart})
}

func (ctrl *CartController) Count(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	n, svcErr := ctrl.service.Count(c.Request.Context(), uid)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (ctrl *CartController) AddItem(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(c, err)
		return
	}
	item, svcErr := ctrl.service.AddItem(c.Request.Context(), uid, req.ProductID, req.Quantity)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Item added to cart", "data": item})
}

func (ctrl *CartController) UpdateItem(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(c, err)
		return
	}
	cart, svcErr := ctrl.service.UpdateQuantity(c.Request.Context(), uid, itemID, *req.Quantity)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cart})
}

func (ctrl *CartController) RemoveItem(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	cart, svcErr := ctrl.service.RemoveItem(c.Request.Context(), uid, itemID)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cart})
}

func (ctrl *CartController) Clear(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	if svcErr := ctrl.service.Clear(c.Request.Context(), uid); svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// AddMany responds 200 even when some items failed; the body lists them.
func (ctrl *CartController) AddMany(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(c, err)
		return
	}
	result, svcErr := ctrl.service.AddMany(c.Request.Context(), uid, req.Items, c.GetHeader(IdempotencyHeader))
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (ctrl *CartController) RepeatOrder(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "order_id")
	if !ok {
		return
	}
	result, svcErr := ctrl.service.RepeatOrder(c.Request.Context(), uid, orderID)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
