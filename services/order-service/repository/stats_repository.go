package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/order-service/models"
	"gorm.io/gorm"
)

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// OrderPoint is the slice of an order the dashboard aggregates.
type OrderPoint struct {
	CreatedAt time.Time
	Total     int64
	Status    string
}

type TopProduct struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	Revenue   int64     `json:"revenue"`
}

// StatsRepository runs dashboard aggregates over [from, to).
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) CountByStatus(ctx context.Context, from, to time.Time) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, err
}

// Points returns one row per order in the range, oldest first.
func (r *StatsRepository) Points(ctx context.Context, from, to time.Time) ([]OrderPoint, error) {
	var rows []OrderPoint
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("created_at, total, status").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Scan(&rows).Error
	return rows, err
}

// TopProducts ranks products by units sold in non-cancelled orders.
func (r *StatsRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	var rows []TopProduct
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("oi.product_id, MAX(oi.name) AS name, SUM(oi.quantity) AS quantity, SUM(oi.line_total) AS revenue").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.created_at >= ? AND o.created_at < ? AND o.status <> ?", from, to, models.StatusCancelled).
		Group("oi.product_id").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
