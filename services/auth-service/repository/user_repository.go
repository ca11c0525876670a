package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/auth-service/models"
	"gorm.io/gorm"
)

// IUserRepository is the persistence contract used by the auth and user services.
type IUserRepository interface {
	Transaction(ctx context.Context, fn func(txRepo IUserRepository) error) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	List(ctx context.Context, filter UserFilter, page, limit int) ([]models.User, int64, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	CreateRefreshToken(ctx context.Context, rt *models.RefreshToken) error
	GetRefreshTokenByTokenID(ctx context.Context, tokenID string) (*models.RefreshToken, error)
	RevokeRefreshTokenByTokenID(ctx context.Context, tokenID string) (bool, error)
	RevokeAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Query  string
	Role   string
	Status string
}

// Transaction runs fn with a repository bound to a single database transaction.
func (r *UserRepository) Transaction(ctx context.Context, fn func(txRepo IUserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUserRepository(tx))
	})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error
	return &user, err
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return &user, err
}

func (r *UserRepository) List(ctx context.Context, filter UserFilter, page, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	q := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&users).Error
	return users, total, err
}

func (r *UserRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&n).Error
	return n, err
}

// Refresh token storage
func (r *UserRepository) CreateRefreshToken(ctx context.Context, rt *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(rt).Error
}

func (r *UserRepository) GetRefreshTokenByTokenID(ctx context.Context, tokenID string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&rt).Error
	return &rt, err
}

// RevokeRefreshTokenByTokenID reports whether this call performed the revocation, so
// concurrent refreshes with the same token cannot both succeed.
func (r *UserRepository) RevokeRefreshTokenByTokenID(ctx context.Context, tokenID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_id = ? AND revoked = ?", tokenID, false).
		Update("revoked", true)
	return result.RowsAffected == 1, result.Error
}

func (r *UserRepository) RevokeAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).Where("user_id = ?", userID).Update("revoked", true).Error
}
