package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
	"github.com/yashrajoria/storefront-backend/services/common/pagination"
	"github.com/yashrajoria/storefront-backend/services/promotion-service/models"
	"github.com/yashrajoria/storefront-backend/services/promotion-service/services"
)

// VoucherController handles HTTP requests for voucher operations.
type VoucherController struct {
	voucherService services.VoucherService
}

// NewVoucherController creates a new VoucherController.
func NewVoucherController(voucherService services.VoucherService) *VoucherController {
	return &VoucherController{voucherService: voucherService}
}

// ListAvailable handles GET /vouchers.
func (vc *VoucherController) ListAvailable(ctx *gin.Context) {
	vouchers, svcErr := vc.voucherService.ListAvailable(ctx.Request.Context())
	if svcErr != nil {
		apperrors.Respond(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": vouchers})
}

// ValidateVoucher handles POST /vouchers/validate. Guests are checked without per-user limits.
func (vc *VoucherController) ValidateVoucher(ctx *gin.Context) {
	var req models.ValidateVoucherRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(ctx, err)
		return
	}

	userID, _ := middleware.GetUserID(ctx)
	quote, svcErr := vc.voucherService.ValidateVoucher(ctx.Request.Context(), req.Code, req.Subtotal, userID)
	if svcErr != nil {
		apperrors.Respond(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"valid": true, "data": quote})
}

// CreateVoucher handles POST /admin/vouchers.
func (vc *VoucherController) CreateVoucher(ctx *gin.Context) {
	var req models.VoucherInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(ctx, err)
		return
	}

	voucher, svcErr := vc.voucherService.CreateVoucher(ctx.Request.Context(), &req)
	if svcErr != nil {
		apperrors.Respond(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"data": voucher})
}

// GetVoucher handles GET /admin/vouchers/:id.
func (vc *VoucherController) GetVoucher(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	voucher, svcErr := vc.voucherService.GetVoucher(ctx.Request.Context(), id)
	if svcErr != nil {
		apperrors.Respond(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": voucher})
}

// UpdateVoucher handles PUT /admin/vouchers/:id.
func (vc *VoucherController) UpdateVoucher(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	var req models.VoucherInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(ctx, err)
		return
	}

	voucher, svcErr := vc.voucherService.UpdateVoucher(ctx.Request.Context(), id, &req)
	if svcErr != nil {
		apperrors.Respond(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": voucher})
}

// DeleteVoucher handles DELETE /admin/vouchers/:id.
func (vc *VoucherController) DeleteVoucher(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	if svcErr := vc.voucherService.DeleteVoucher(ctx.Request.Context(), id); svcErr != nil {
		apperrors.Respond(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Voucher deleted"})
}

// ListVouchers handles GET /admin/vouchers?active=&page=&limit=.
func (vc *VoucherController) ListVouchers(ctx *gin.Context) {
	page, limit := pagination.Parse(ctx)

	var active *bool
	if raw := ctx.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "active must be true or false"})
			return
		}
		active = &v
	}

	vouchers, total, svcErr := vc.voucherService.ListVouchers(ctx.Request.Context(), active, page, limit)
	if svcErr != nil {
		apperrors.Respond(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": vouchers,
		"meta": pagination.NewMeta(page, limit, total),
	})
}

func parseID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid UUID format"})
		return uuid.Nil, false
	}
	return id, true
}
