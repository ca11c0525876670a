package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/product-service/models"
	"github.com/yashrajoria/storefront-backend/services/product-service/repository"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Image string `json:"image" validate:"omitempty,url"`
}

type SubCategoryInput struct {
	Name       string    `json:"name" validate:"required,max=100"`
	Image      string    `json:"image" validate:"omitempty,url"`
	CategoryID uuid.UUID `json:"category_id" validate:"required"`
}

type CategoryService struct {
	categoryRepo    *repository.CategoryRepository
	subCategoryRepo *repository.SubCategoryRepository
	productRepo     *repository.ProductRepository
}

func NewCategoryService(cr *repository.CategoryRepository, sr *repository.SubCategoryRepository, pr *repository.ProductRepository) *CategoryService {
	return &CategoryService{categoryRepo: cr, subCategoryRepo: sr, productRepo: pr}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, *apperrors.ServiceError) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list categories", err)
	}
	return categories, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, *apperrors.ServiceError) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("category not found")
		}
		return nil, apperrors.Internal("failed to load category", err)
	}
	return category, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, *apperrors.ServiceError) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.BadRequest("name is required")
	}
	if svcErr := s.checkCategoryName(ctx, name, uuid.Nil); svcErr != nil {
		return nil, svcErr
	}

	category := &models.Category{Name: name, Image: strings.TrimSpace(in.Image)}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, apperrors.Internal("failed to create category", err)
	}
	return category, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*models.Category, *apperrors.ServiceError) {
	category, svcErr := s.GetCategory(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.BadRequest("name is required")
	}
	if svcErr := s.checkCategoryName(ctx, name, id); svcErr != nil {
		return nil, svcErr
	}

	category.Name = name
	category.Slug = models.Slugify(name)
	category.Image = strings.TrimSpace(in.Image)
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, apperrors.Internal("failed to update category", err)
	}
	return category, nil
}

// DeleteCategory refuses to delete a category still referenced by products or subcategories.
func (s *CategoryService) DeleteCategory(ctx context.Context, id uuid.UUID) *apperrors.ServiceError {
	if _, svcErr := s.GetCategory(ctx, id); svcErr != nil {
		return svcErr
	}
	products, err := s.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return apperrors.Internal("failed to check category products", err)
	}
	if products > 0 {
		return apperrors.Conflict("category has products")
	}
	subs, err := s.categoryRepo.CountSubCategories(ctx, id)
	if err != nil {
		return apperrors.Internal("failed to check subcategories", err)
	}
	if subs > 0 {
		return apperrors.Conflict("category has subcategories")
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("category not found")
		}
		return apperrors.Internal("failed to delete category", err)
	}
	return nil
}

func (s *CategoryService) ListSubCategories(ctx context.Context, categoryID *uuid.UUID) ([]models.SubCategory, *apperrors.ServiceError) {
	subs, err := s.subCategoryRepo.FindAll(ctx, categoryID)
	if err != nil {
		return nil, apperrors.Internal("failed to list subcategories", err)
	}
	return subs, nil
}

func (s *CategoryService) CreateSubCategory(ctx context.Context, in SubCategoryInput) (*models.SubCategory, *apperrors.ServiceError) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.BadRequest("name is required")
	}
	if _, svcErr := s.GetCategory(ctx, in.CategoryID); svcErr != nil {
		if svcErr.StatusCode == 404 {
			return nil, apperrors.BadRequest("category not found")
		}
		return nil, svcErr
	}
	if svcErr := s.checkSubCategoryName(ctx, in.CategoryID, name, uuid.Nil); svcErr != nil {
		return nil, svcErr
	}

	sub := &models.SubCategory{Name: name, Image: strings.TrimSpace(in.Image), CategoryID: in.CategoryID}
	if err := s.subCategoryRepo.Create(ctx, sub); err != nil {
		return nil, apperrors.Internal("failed to create subcategory", err)
	}
	return sub, nil
}

func (s *CategoryService) UpdateSubCategory(ctx context.Context, id uuid.UUID, in SubCategoryInput) (*models.SubCategory, *apperrors.ServiceError) {
	sub, err := s.subCategoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("subcategory not found")
		}
		return nil, apperrors.Internal("failed to load subcategory", err)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.BadRequest("name is required")
	}
	if _, svcErr := s.GetCategory(ctx, in.CategoryID); svcErr != nil {
		if svcErr.StatusCode == 404 {
			return nil, apperrors.BadRequest("category not found")
		}
		return nil, svcErr
	}
	if svcErr := s.checkSubCategoryName(ctx, in.CategoryID, name, id); svcErr != nil {
		return nil, svcErr
	}

	sub.Name = name
	sub.Slug = models.Slugify(name)
	sub.Image = strings.TrimSpace(in.Image)
	sub.CategoryID = in.CategoryID
	if err := s.subCategoryRepo.Update(ctx, sub); err != nil {
		return nil, apperrors.Internal("failed to update subcategory", err)
	}
	return sub, nil
}

func (s *CategoryService) DeleteSubCategory(ctx context.Context, id uuid.UUID) *apperrors.ServiceError {
	products, err := s.productRepo.CountBySubCategory(ctx, id)
	if err != nil {
		return apperrors.Internal("failed to check subcategory products", err)
	}
	if products > 0 {
		return apperrors.Conflict("subcategory has products")
	}
	if err := s.subCategoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("subcategory not found")
		}
		return apperrors.Internal("failed to delete subcategory", err)
	}
	return nil
}

func (s *CategoryService) checkCategoryName(ctx context.Context, name string, self uuid.UUID) *apperrors.ServiceError {
	existing, err := s.categoryRepo.FindByName(ctx, name)
	if err == nil && existing.ID != self {
		return apperrors.Conflict("category with this name already exists")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Internal("failed to check category name", err)
	}
	return nil
}

func (s *CategoryService) checkSubCategoryName(ctx context.Context, categoryID uuid.UUID, name string, self uuid.UUID) *apperrors.ServiceError {
	existing, err := s.subCategoryRepo.FindByName(ctx, categoryID, name)
	if err == nil && existing.ID != self {
		return apperrors.Conflict("subcategory with this name already exists")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Internal("failed to check subcategory name", err)
	}
	return nil
}
