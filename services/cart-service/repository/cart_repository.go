package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/cart-service/models"
	"github.com/yashrajoria/storefront-backend/services/common/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *CartRepository) WithTx(tx *gorm.DB) *CartRepository {
	return &CartRepository{db: tx}
}

// ListByUser returns the user's lines, oldest first, with products preloaded.
// Soft-deleted products are not loaded, leaving Product nil.
func (r *CartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return r.listByUser(r.db.WithContext(ctx), userID)
}

// ListByUserForUpdate is ListByUser with the cart rows locked until the
// transaction ends, so a concurrent checkout of the same cart waits and then
// sees the lines already removed. Row locks are only taken on Postgres.
func (r *CartRepository) ListByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	q := r.db.WithContext(ctx)
	if database.IsPostgres(r.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.listByUser(q, userID)
}

func (r *CartRepository) listByUser(q *gorm.DB, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := q.
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").Order("id").
		Find(&items).Error
	return items, err
}

func (r *CartRepository) FindItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error
	return &item, err
}

func (r *CartRepository) FindByProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
	return &item, err
}

func (r *CartRepository) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit("Product").Create(item).Error
}

func (r *CartRepository) SetQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).Update("quantity", quantity).Error
}

func (r *CartRepository) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CartRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.CartItem{}).Error
}

func (r *CartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

// CountQuantity sums the quantities of every line in the cart.
func (r *CartRepository) CountQuantity(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, err
}

// QuantitiesByProduct maps product id to quantity for the user's cart.
func (r *CartRepository) QuantitiesByProduct(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		ProductID uuid.UUID
		Quantity  int
	}
	err := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Select("product_id, quantity").
		Where("user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Quantity
	}
	return out, nil
}
