package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/common/pagination"
	"github.com/yashrajoria/storefront-backend/services/promotion-service/models"
	"gorm.io/gorm"
)

// ErrUsageLimitReached is returned when a conditional usage increment matched no row.
var ErrUsageLimitReached = errors.New("voucher usage limit reached")

// VoucherRepository defines the interface for voucher data access.
type VoucherRepository interface {
	WithTx(tx *gorm.DB) VoucherRepository
	Create(ctx context.Context, voucher *models.Voucher) error
	Update(ctx context.Context, voucher *models.Voucher) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
	FindByCode(ctx context.Context, code string) (*models.Voucher, error)
	CodeTaken(ctx context.Context, code string, exclude uuid.UUID) (bool, error)
	FindAll(ctx context.Context, active *bool, page, limit int) ([]models.Voucher, int64, error)
	FindRedeemable(ctx context.Context, now time.Time) ([]models.Voucher, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
	CountUserUsage(ctx context.Context, voucherID, userID uuid.UUID) (int64, error)
	CreateUsage(ctx context.Context, usage *models.VoucherUsage) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// GormVoucherRepository implements VoucherRepository using GORM.
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewGormVoucherRepository creates a new GormVoucherRepository.
func NewGormVoucherRepository(db *gorm.DB) VoucherRepository {
	return &GormVoucherRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *GormVoucherRepository) WithTx(tx *gorm.DB) VoucherRepository {
	return &GormVoucherRepository{db: tx}
}

// Create inserts a new voucher.
func (r *GormVoucherRepository) Create(ctx context.Context, voucher *models.Voucher) error {
	return r.db.WithContext(ctx).Create(voucher).Error
}

// Update saves every column of voucher.
func (r *GormVoucherRepository) Update(ctx context.Context, voucher *models.Voucher) error {
	return r.db.WithContext(ctx).Save(voucher).Error
}

// Delete soft-deletes a voucher.
func (r *GormVoucherRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Voucher{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID retrieves a voucher by id.
func (r *GormVoucherRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.db.WithContext(ctx).First(&voucher, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

// FindByCode retrieves a voucher by its code (case-insensitive), active or not.
func (r *GormVoucherRepository) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).
		Where("LOWER(code) = ?", strings.ToLower(strings.TrimSpace(code))).
		First(&voucher).Error
	if err != nil {
		return nil, err
	}
	return &voucher, nil
}

// CodeTaken reports whether another voucher, deleted ones included, uses code.
func (r *GormVoucherRepository) CodeTaken(ctx context.Context, code string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().
		Model(&models.Voucher{}).
		Where("LOWER(code) = ? AND id <> ?", strings.ToLower(code), exclude).
		Count(&count).Error
	return count > 0, err
}

// FindAll retrieves paginated vouchers, optionally filtered by active flag.
func (r *GormVoucherRepository) FindAll(ctx context.Context, active *bool, page, limit int) ([]models.Voucher, int64, error) {
	var vouchers []models.Voucher
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Voucher{})
	if active != nil {
		query = query.Where("active = ?", *active)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Offset(pagination.Offset(page, limit)).
		Limit(limit).
		Order("created_at DESC").
		Find(&vouchers).Error; err != nil {
		return nil, 0, err
	}

	return vouchers, total, nil
}

// FindRedeemable lists active vouchers inside their validity window with uses left.
func (r *GormVoucherRepository) FindRedeemable(ctx context.Context, now time.Time) ([]models.Voucher, error) {
	var vouchers []models.Voucher
	err := r.db.WithContext(ctx).
		Where("active = ? AND valid_from <= ? AND valid_to >= ?", true, now, now).
		Where("usage_limit = 0 OR used_count < usage_limit").
		Order("valid_to ASC").
		Find(&vouchers).Error
	return vouchers, err
}

// IncrementUsage bumps used_count only while the voucher still has uses left.
func (r *GormVoucherRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUsageLimitReached
	}
	return nil
}

// CountUserUsage counts how many times userID redeemed the voucher.
func (r *GormVoucherRepository) CountUserUsage(ctx context.Context, voucherID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VoucherUsage{}).
		Where("voucher_id = ? AND user_id = ?", voucherID, userID).
		Count(&count).Error
	return count, err
}

// CreateUsage records a redemption.
func (r *GormVoucherRepository) CreateUsage(ctx context.Context, usage *models.VoucherUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

// DeactivateExpired switches off active vouchers whose window closed before now.
func (r *GormVoucherRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("active = ? AND valid_to < ?", true, now).
		Update("active", false)
	return result.RowsAffected, result.Error
}
