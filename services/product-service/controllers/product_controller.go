package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
	"github.com/yashrajoria/storefront-backend/services/common/pagination"
	"github.com/yashrajoria/storefront-backend/services/product-service/models"
	"github.com/yashrajoria/storefront-backend/services/product-service/repository"
	"github.com/yashrajoria/storefront-backend/services/product-service/services"
	"go.uber.org/zap"
)

// ProductServiceAPI defines the interface for product service operations
type ProductServiceAPI interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter, page, limit int) ([]models.Product, int64, *apperrors.ServiceError)
	GetProduct(ctx context.Context, id uuid.UUID, includeUnpublished bool) (*models.Product, *apperrors.ServiceError)
	ListByCategory(ctx context.Context, perCategory int) ([]services.CategoryProducts, *apperrors.ServiceError)
	CreateProduct(ctx context.Context, in services.ProductInput) (*models.Product, *apperrors.ServiceError)
	UpdateProduct(ctx context.Context, id uuid.UUID, in services.ProductInput) (*models.Product, *apperrors.ServiceError)
	DeleteProduct(ctx context.Context, id uuid.UUID) *apperrors.ServiceError
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, *apperrors.ServiceError)
}

// CartQuantities reports how many of each product a user already has in their cart.
type CartQuantities interface {
	QuantitiesByProduct(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
}

type ProductController struct {
	service   ProductServiceAPI
	cache     *CacheManager
	validator *RequestValidator
	cart      CartQuantities
}

func NewProductController(service ProductServiceAPI, cache *CacheManager, cart CartQuantities) *ProductController {
	return &ProductController{
		service:   service,
		cache:     cache,
		validator: NewRequestValidator(),
		cart:      cart,
	}
}

type StockAdjustRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// GetProducts lists products. Responses are cached per filter; the caller's
// cart quantities are added after the cache lookup.
func (ctrl *ProductController) GetProducts(c *gin.Context) {
	page, limit := ctrl.validator.ParsePagination(c)
	filter, err := ctrl.validator.ParseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	list, hit := ctrl.cache.GetProductList(ctx, filter, page, limit)
	if !hit {
		products, total, svcErr := ctrl.service.ListProducts(ctx, filter, page, limit)
		if svcErr != nil {
			apperrors.Respond(c, svcErr)
			return
		}
		if products == nil {
			products = []models.Product{}
		}
		list = &ProductListPage{Products: products, Meta: pagination.NewMeta(page, limit, total)}
		ctrl.cache.SetProductListAsync(filter, page, limit, list)
	}

	products := make([]models.Product, len(list.Products))
	copy(products, list.Products)
	ctrl.annotateCart(c, products)

	c.JSON(http.StatusOK, gin.H{"data": products, "meta": list.Meta})
}

func (ctrl *ProductController) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	includeUnpublished := middleware.IsAdmin(c)
	ctx := c.Request.Context()

	product, hit := ctrl.cache.GetProduct(ctx, id)
	if hit && !product.Published && !includeUnpublished {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if !hit {
		var svcErr *apperrors.ServiceError
		product, svcErr = ctrl.service.GetProduct(ctx, id, includeUnpublished)
		if svcErr != nil {
			apperrors.Respond(c, svcErr)
			return
		}
		ctrl.cache.SetProductAsync(product)
	}

	single := []models.Product{*product}
	ctrl.annotateCart(c, single)
	c.JSON(http.StatusOK, gin.H{"data": single[0]})
}

// GetProductsByCategory returns the home page rows, `limit` products per category.
func (ctrl *ProductController) GetProductsByCategory(c *gin.Context) {
	perCategory, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPerCategory)))
	if err != nil || perCategory < 1 || perCategory > pagination.MaxLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	rows, svcErr := ctrl.service.ListByCategory(c.Request.Context(), perCategory)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	for i := range rows {
		ctrl.annotateCart(c, rows[i].Products)
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperrors.BindError(c, err)
		return
	}
	if err := ctrl.validator.Struct(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	product, svcErr := ctrl.service.CreateProduct(c.Request.Context(), in)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	ctrl.cache.Invalidate(c.Request.Context(), nil)
	c.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "data": product})
}

func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperrors.BindError(c, err)
		return
	}
	if err := ctrl.validator.Struct(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	product, svcErr := ctrl.service.UpdateProduct(c.Request.Context(), id, in)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	ctrl.cache.Invalidate(c.Request.Context(), &id)
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "data": product})
}

func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if svcErr := ctrl.service.DeleteProduct(c.Request.Context(), id); svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	ctrl.cache.Invalidate(c.Request.Context(), &id)
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (ctrl *ProductController) AdjustStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req StockAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(c, err)
		return
	}

	product, svcErr := ctrl.service.AdjustStock(c.Request.Context(), id, req.Delta)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	ctrl.cache.Invalidate(c.Request.Context(), &id)
	c.JSON(http.StatusOK, gin.H{"message": "Stock updated", "data": product})
}

// annotateCart fills CartQuantity for signed-in callers. Failures only cost the annotation.
func (ctrl *ProductController) annotateCart(c *gin.Context, products []models.Product) {
	if ctrl.cart == nil || len(products) == 0 {
		return
	}
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return
	}
	quantities, err := ctrl.cart.QuantitiesByProduct(c.Request.Context(), userID)
	if err != nil {
		zap.L().Warn("failed to load cart quantities", zap.Error(err), zap.String("user_id", userID.String()))
		return
	}
	for i := range products {
		products[i].CartQuantity = quantities[products[i].ID]
	}
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid UUID format"})
		return uuid.Nil, false
	}
	return id, true
}
