package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/common/pagination"
	"github.com/yashrajoria/storefront-backend/services/order-service/models"
	"gorm.io/gorm"
)

// ErrStatusChanged is returned when a guarded status update matched no row.
var ErrStatusChanged = errors.New("order status changed concurrently")

// OrderFilter narrows order listings. Zero values are ignored.
type OrderFilter struct {
	UserID *uuid.UUID
	Status string
	From   *time.Time
	To     *time.Time
	Query  string
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter, page, limit int) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []string, fields map[string]interface{}) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	FindStaleOnline(ctx context.Context, before time.Time, limit int) ([]models.Order, error)
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: tx}
}

// Create inserts the order together with its items
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDAndUserID retrieves a specific order for a user
func (r *GormOrderRepository) FindByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("payment_intent_id = ?", intentID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// List retrieves orders newest first with pagination
func (r *GormOrderRepository) List(ctx context.Context, filter OrderFilter, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query = query.Where("LOWER(order_number) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Items").
		Offset(pagination.Offset(page, limit)).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// UpdateStatus applies fields only while the order is still in one of the from statuses.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *GormOrderRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindStaleOnline lists unpaid online orders created before the cutoff.
func (r *GormOrderRepository) FindStaleOnline(ctx context.Context, before time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND payment_method = ? AND payment_status IN ? AND created_at < ?",
			models.StatusPending, models.PaymentMethodOnline,
			[]string{models.PaymentPending, models.PaymentFailed}, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
