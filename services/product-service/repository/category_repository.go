package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/product-service/models"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindAll returns every category ordered by name with its subcategory count filled in.
func (r *CategoryRepository) FindAll(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		CategoryID uuid.UUID
		Count      int64
	}
	err := r.db.WithContext(ctx).Model(&models.SubCategory{}).
		Select("category_id, COUNT(*) AS count").
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byID[c.CategoryID] = c.Count
	}
	for i := range categories {
		categories[i].SubCategoryCount = byID[categories[i].ID]
	}
	return categories, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Preload("SubCategories", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Where("id = ?", id).
		First(&category).Error
	if err == nil {
		category.SubCategoryCount = int64(len(category.SubCategories))
	}
	return &category, err
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(&category).Error
	return &category, err
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Omit("SubCategories").Save(category).Error
}

func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CategoryRepository) CountSubCategories(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.SubCategory{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

type SubCategoryRepository struct {
	db *gorm.DB
}

func NewSubCategoryRepository(db *gorm.DB) *SubCategoryRepository {
	return &SubCategoryRepository{db: db}
}

func (r *SubCategoryRepository) FindAll(ctx context.Context, categoryID *uuid.UUID) ([]models.SubCategory, error) {
	var subs []models.SubCategory
	q := r.db.WithContext(ctx)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	err := q.Order("name ASC").Find(&subs).Error
	return subs, err
}

func (r *SubCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.SubCategory, error) {
	var sub models.SubCategory
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	return &sub, err
}

func (r *SubCategoryRepository) FindByName(ctx context.Context, categoryID uuid.UUID, name string) (*models.SubCategory, error) {
	var sub models.SubCategory
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND LOWER(name) = ?", categoryID, strings.ToLower(strings.TrimSpace(name))).
		First(&sub).Error
	return &sub, err
}

func (r *SubCategoryRepository) Create(ctx context.Context, sub *models.SubCategory) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *SubCategoryRepository) Update(ctx context.Context, sub *models.SubCategory) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *SubCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SubCategory{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
