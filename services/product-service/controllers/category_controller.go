package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/product-service/models"
	"github.com/yashrajoria/storefront-backend/services/product-service/services"
)

// CategoryServiceAPI defines the interface for category service operations
type CategoryServiceAPI interface {
	ListCategories(ctx context.Context) ([]models.Category, *apperrors.ServiceError)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, *apperrors.ServiceError)
	CreateCategory(ctx context.Context, in services.CategoryInput) (*models.Category, *apperrors.ServiceError)
	UpdateCategory(ctx context.Context, id uuid.UUID, in services.CategoryInput) (*models.Category, *apperrors.ServiceError)
	DeleteCategory(ctx context.Context, id uuid.UUID) *apperrors.ServiceError
	ListSubCategories(ctx context.Context, categoryID *uuid.UUID) ([]models.SubCategory, *apperrors.ServiceError)
	CreateSubCategory(ctx context.Context, in services.SubCategoryInput) (*models.SubCategory, *apperrors.ServiceError)
	UpdateSubCategory(ctx context.Context, id uuid.UUID, in services.SubCategoryInput) (*models.SubCategory, *apperrors.ServiceError)
	DeleteSubCategory(ctx context.Context, id uuid.UUID) *apperrors.ServiceError
}

type CategoryController struct {
	service   CategoryServiceAPI
	cache     *CacheManager
	validator *RequestValidator
}

func NewCategoryController(s CategoryServiceAPI, cache *CacheManager) *CategoryController {
	return &CategoryController{service: s, cache: cache, validator: NewRequestValidator()}
}

func (ctrl *CategoryController) ListCategories(c *gin.Context) {
	categories, svcErr := ctrl.service.ListCategories(c.Request.Context())
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories})
}

func (ctrl *CategoryController) GetCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	category, svcErr := ctrl.service.GetCategory(c.Request.Context(), id)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": category})
}

func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	var req services.CategoryInput
	if !ctrl.bind(c, &req) {
		return
	}
	category, svcErr := ctrl.service.CreateCategory(c.Request.Context(), req)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category created successfully", "data": category})
}

func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.CategoryInput
	if !ctrl.bind(c, &req) {
		return
	}
	category, svcErr := ctrl.service.UpdateCategory(c.Request.Context(), id, req)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	ctrl.cache.Invalidate(c.Request.Context(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Category updated successfully", "data": category})
}

func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if svcErr := ctrl.service.DeleteCategory(c.Request.Context(), id); svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func (ctrl *CategoryController) ListSubCategories(c *gin.Context) {
	var categoryID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("category_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id format"})
			return
		}
		categoryID = &id
	}
	subs, svcErr := ctrl.service.ListSubCategories(c.Request.Context(), categoryID)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": subs})
}

func (ctrl *CategoryController) CreateSubCategory(c *gin.Context) {
	var req services.SubCategoryInput
	if !ctrl.bind(c, &req) {
		return
	}
	sub, svcErr := ctrl.service.CreateSubCategory(c.Request.Context(), req)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Subcategory created successfully", "data": sub})
}

func (ctrl *CategoryController) UpdateSubCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.SubCategoryInput
	if !ctrl.bind(c, &req) {
		return
	}
	sub, svcErr := ctrl.service.UpdateSubCategory(c.Request.Context(), id, req)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subcategory updated successfully", "data": sub})
}

func (ctrl *CategoryController) DeleteSubCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if svcErr := ctrl.service.DeleteSubCategory(c.Request.Context(), id); svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subcategory deleted successfully"})
}

func (ctrl *CategoryController) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return false
	}
	if err := ctrl.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return false
	}
	return true
}
