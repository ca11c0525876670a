package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/common/database"
	"github.com/yashrajoria/storefront-backend/services/common/pagination"
	"github.com/yashrajoria/storefront-backend/services/product-service/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// Supported sort values for product listings.
const (
	SortCreatedAtDesc = "created_at_desc"
	SortCreatedAtAsc  = "created_at_asc"
	SortPriceAsc      = "price_asc"
	SortPriceDesc     = "price_desc"
	SortNameAsc       = "name_asc"
	SortNameDesc      = "name_desc"
)

var sortClauses = map[string]string{
	SortCreatedAtDesc: "created_at DESC",
	SortCreatedAtAsc:  "created_at ASC",
	SortPriceAsc:      models.EffectivePriceSQL + " ASC",
	SortPriceDesc:     models.EffectivePriceSQL + " DESC",
	SortNameAsc:       "name ASC",
	SortNameDesc:      "name DESC",
}

// IsSupportedSort reports whether sort is a known listing order.
func IsSupportedSort(sort string) bool {
	_, ok := sortClauses[sort]
	return ok
}

// ProductFilter narrows product listings. Price bounds apply to the effective price.
type ProductFilter struct {
	CategoryIDs        []uuid.UUID
	SubCategoryID      *uuid.UUID
	Query              string
	MinPrice           *int64
	MaxPrice           *int64
	Featured           *bool
	InStock            *bool
	IncludeUnpublished bool
	Sort               string
}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

func (r *ProductRepository) applyFilter(q *gorm.DB, f ProductFilter) *gorm.DB {
	if len(f.CategoryIDs) > 0 {
		q = q.Where("category_id IN ?", f.CategoryIDs)
	}
	if f.SubCategoryID != nil {
		q = q.Where("sub_category_id = ?", *f.SubCategoryID)
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(brand) LIKE ?", like, like, like)
	}
	if f.MinPrice != nil {
		q = q.Where(models.EffectivePriceSQL+" >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where(models.EffectivePriceSQL+" <= ?", *f.MaxPrice)
	}
	if f.Featured != nil {
		q = q.Where("is_featured = ?", *f.Featured)
	}
	if f.InStock != nil {
		if *f.InStock {
			q = q.Where("stock > 0")
		} else {
			q = q.Where("stock <= 0")
		}
	}
	if !f.IncludeUnpublished {
		q = q.Where("published = ?", true)
	}
	return q
}

func (r *ProductRepository) List(ctx context.Context, f ProductFilter, page, limit int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	q := r.applyFilter(r.db.WithContext(ctx).Model(&models.Product{}), f)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := sortClauses[f.Sort]
	if !ok {
		order = sortClauses[SortCreatedAtDesc]
	}
	err := q.Order(order).Order("id").
		Offset(pagination.Offset(page, limit)).Limit(limit).
		Find(&products).Error
	return products, total, err
}

func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	return &product, err
}

// FindByIDs returns the products that exist among ids, in no particular order.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

// LockByIDs loads products for update. Row locks are only taken on Postgres.
func (r *ProductRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	q := r.db.WithContext(ctx)
	if database.IsPostgres(r.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Where("id IN ?", ids).Order("id").Find(&products).Error
	return products, err
}

func (r *ProductRepository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error
	return &product, err
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete performs a soft delete.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdjustStock adds delta to the stock. The update is refused when it would go negative.
func (r *ProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

func (r *ProductRepository) CountBySubCategory(ctx context.Context, subCategoryID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("sub_category_id = ?", subCategoryID).Count(&n).Error
	return n, err
}

// LowStock lists products whose stock is at or below threshold, lowest first.
func (r *ProductRepository) LowStock(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("stock <= ?", threshold).
		Order("stock ASC").Order("name ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}
