package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/order-service/services"
)

type CheckoutServiceAPI interface {
	Quote(ctx context.Context, userID uuid.UUID, voucherCode string) (*services.Quote, *apperrors.ServiceError)
	PlaceOrder(ctx context.Context, userID uuid.UUID, req services.PlaceOrderRequest) (*services.PlaceOrderResult, *apperrors.ServiceError)
}

type CheckoutController struct {
	service CheckoutServiceAPI
}

func NewCheckoutController(service CheckoutServiceAPI) *CheckoutController {
	return &CheckoutController{service: service}
}

type quoteRequest struct {
	VoucherCode string `json:"voucher_code"`
}

// Quote handles POST /checkout/quote. The body is optional.
func (cc *CheckoutController) Quote(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apperrors.BindError(c, err)
		return
	}

	quote, svcErr := cc.service.Quote(c.Request.Context(), uid, req.VoucherCode)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": quote})
}

// PlaceOrder handles POST /checkout/place.
func (cc *CheckoutController) PlaceOrder(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req services.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(c, err)
		return
	}

	result, svcErr := cc.service.PlaceOrder(c.Request.Context(), uid, req)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": result})
}
