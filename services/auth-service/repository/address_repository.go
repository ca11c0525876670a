package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/auth-service/models"
	"gorm.io/gorm"
)

type AddressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

// ListByUser returns the default address first, then newest first.
func (r *AddressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").Order("created_at DESC").
		Find(&addresses).Error
	return addresses, err
}

// FindForUser only returns addresses owned by userID.
func (r *AddressRepository) FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&address).Error
	return &address, err
}

func (r *AddressRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// Create inserts the address; a default address clears the flag on the user's others.
func (r *AddressRepository) Create(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if err := clearDefault(tx, address.UserID); err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
}

func (r *AddressRepository) Update(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if err := clearDefault(tx, address.UserID); err != nil {
				return err
			}
		}
		return tx.Save(address).Error
	})
}

func (r *AddressRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetDefault makes id the user's only default address.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearDefault(tx, userID); err != nil {
			return err
		}
		result := tx.Model(&models.Address{}).Where("id = ? AND user_id = ?", id, userID).Update("is_default", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func clearDefault(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}
