package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/product-service/models"
	"github.com/yashrajoria/storefront-backend/services/product-service/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultPerCategory is how many products each home-page category row shows.
const DefaultPerCategory = 8

// ProductInput is the writable part of a product.
type ProductInput struct {
	Name            string            `json:"name" validate:"required,max=200"`
	SKU             *string           `json:"sku" validate:"omitempty,max=64"`
	Description     string            `json:"description" validate:"max=5000"`
	Brand           string            `json:"brand" validate:"max=100"`
	Unit            string            `json:"unit" validate:"max=50"`
	Price           int64             `json:"price" validate:"gte=0"`
	DiscountPercent int               `json:"discount_percent" validate:"gte=0,lte=100"`
	Stock           int               `json:"stock" validate:"gte=0"`
	Images          []string          `json:"images" validate:"omitempty,dive,url"`
	CategoryID      uuid.UUID         `json:"category_id" validate:"required"`
	SubCategoryID   *uuid.UUID        `json:"sub_category_id"`
	IsFeatured      bool              `json:"is_featured"`
	Published       *bool             `json:"published"`
	MoreDetails     map[string]string `json:"more_details"`
}

// CategoryProducts is one row of the category-wise listing.
type CategoryProducts struct {
	Category models.Category  `json:"category"`
	Products []models.Product `json:"products"`
}

type ProductService struct {
	productRepo     *repository.ProductRepository
	categoryRepo    *repository.CategoryRepository
	subCategoryRepo *repository.SubCategoryRepository
}

func NewProductService(pr *repository.ProductRepository, cr *repository.CategoryRepository, sr *repository.SubCategoryRepository) *ProductService {
	return &ProductService{
		productRepo:     pr,
		categoryRepo:    cr,
		subCategoryRepo: sr,
	}
}

func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter, page, limit int) ([]models.Product, int64, *apperrors.ServiceError) {
	products, total, err := s.productRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to list products", err)
	}
	return products, total, nil
}

// GetProduct hides unpublished products unless includeUnpublished is set.
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID, includeUnpublished bool) (*models.Product, *apperrors.ServiceError) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, apperrors.Internal("failed to load product", err)
	}
	if !product.Published && !includeUnpublished {
		return nil, apperrors.NotFound("product not found")
	}
	return product, nil
}

// ListByCategory returns up to perCategory published products for every category that has any.
func (s *ProductService) ListByCategory(ctx context.Context, perCategory int) ([]CategoryProducts, *apperrors.ServiceError) {
	if perCategory <= 0 {
		perCategory = DefaultPerCategory
	}
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list categories", err)
	}

	rows := make([]CategoryProducts, 0, len(categories))
	for _, category := range categories {
		products, _, err := s.productRepo.List(ctx, repository.ProductFilter{
			CategoryIDs: []uuid.UUID{category.ID},
			Sort:        repository.SortCreatedAtDesc,
		}, 1, perCategory)
		if err != nil {
			return nil, apperrors.Internal("failed to list products", err)
		}
		if len(products) == 0 {
			continue
		}
		rows = append(rows, CategoryProducts{Category: category, Products: products})
	}
	return rows, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, *apperrors.ServiceError) {
	product := &models.Product{Published: true}
	if svcErr := s.apply(ctx, product, in); svcErr != nil {
		return nil, svcErr
	}
	if svcErr := s.checkSKU(ctx, product.SKU, uuid.Nil); svcErr != nil {
		return nil, svcErr
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, apperrors.Internal("failed to create product", err)
	}
	product.EffectivePrice = models.EffectivePrice(product.Price, product.DiscountPercent)
	zap.L().Info("product created", zap.String("product_id", product.ID.String()), zap.String("name", product.Name))
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*models.Product, *apperrors.ServiceError) {
	product, svcErr := s.GetProduct(ctx, id, true)
	if svcErr != nil {
		return nil, svcErr
	}
	if svcErr := s.apply(ctx, product, in); svcErr != nil {
		return nil, svcErr
	}
	if svcErr := s.checkSKU(ctx, product.SKU, product.ID); svcErr != nil {
		return nil, svcErr
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, apperrors.Internal("failed to update product", err)
	}
	product.EffectivePrice = models.EffectivePrice(product.Price, product.DiscountPercent)
	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) *apperrors.ServiceError {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("product not found")
		}
		return apperrors.Internal("failed to delete product", err)
	}
	zap.L().Info("product deleted", zap.String("product_id", id.String()))
	return nil
}

// AdjustStock adds delta (which may be negative) to the product's stock.
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, *apperrors.ServiceError) {
	if delta == 0 {
		return nil, apperrors.BadRequest("delta must not be zero")
	}
	if err := s.productRepo.AdjustStock(ctx, id, delta); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperrors.NotFound("product not found")
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, apperrors.Conflict("stock cannot go below zero")
		default:
			return nil, apperrors.Internal("failed to adjust stock", err)
		}
	}
	return s.GetProduct(ctx, id, true)
}

// apply copies in onto product after checking the category and subcategory references.
func (s *ProductService) apply(ctx context.Context, product *models.Product, in ProductInput) *apperrors.ServiceError {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperrors.BadRequest("name is required")
	}
	if in.Price < 0 {
		return apperrors.BadRequest("price must not be negative")
	}
	if in.DiscountPercent < 0 || in.DiscountPercent > 100 {
		return apperrors.BadRequest("discount_percent must be between 0 and 100")
	}
	if in.Stock < 0 {
		return apperrors.BadRequest("stock must not be negative")
	}

	if _, err := s.categoryRepo.FindByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.BadRequest("category not found")
		}
		return apperrors.Internal("failed to load category", err)
	}
	if in.SubCategoryID != nil {
		sub, err := s.subCategoryRepo.FindByID(ctx, *in.SubCategoryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.BadRequest("subcategory not found")
			}
			return apperrors.Internal("failed to load subcategory", err)
		}
		if sub.CategoryID != in.CategoryID {
			return apperrors.BadRequest("subcategory does not belong to category")
		}
	}

	product.Name = name
	product.Slug = models.Slugify(name)
	product.SKU = nil
	if in.SKU != nil && strings.TrimSpace(*in.SKU) != "" {
		sku := strings.ToUpper(strings.TrimSpace(*in.SKU))
		product.SKU = &sku
	}
	product.Description = strings.TrimSpace(in.Description)
	product.Brand = strings.TrimSpace(in.Brand)
	product.Unit = strings.TrimSpace(in.Unit)
	product.Price = in.Price
	product.DiscountPercent = in.DiscountPercent
	product.Stock = in.Stock
	product.Images = in.Images
	if product.Images == nil {
		product.Images = []string{}
	}
	product.CategoryID = in.CategoryID
	product.SubCategoryID = in.SubCategoryID
	product.IsFeatured = in.IsFeatured
	if in.Published != nil {
		product.Published = *in.Published
	}
	product.MoreDetails = in.MoreDetails
	return nil
}

func (s *ProductService) checkSKU(ctx context.Context, sku *string, self uuid.UUID) *apperrors.ServiceError {
	if sku == nil {
		return nil
	}
	existing, err := s.productRepo.FindBySKU(ctx, *sku)
	if err == nil && existing.ID != self {
		return apperrors.Conflict("product with this SKU already exists")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Internal("failed to check SKU", err)
	}
	return nil
}
