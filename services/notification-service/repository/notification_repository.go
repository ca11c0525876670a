package repository

import (
	"context"

	"github.com/yashrajoria/storefront-backend/services/common/pagination"
	"github.com/yashrajoria/storefront-backend/services/notification-service/models"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	SaveLog(ctx context.Context, log *models.NotificationLog) error
	GetLogs(ctx context.Context, filter models.NotificationFilter, page, limit int) ([]models.NotificationLog, int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) SaveLog(ctx context.Context, log *models.NotificationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetLogs returns attempts newest first.
func (r *notificationRepository) GetLogs(ctx context.Context, filter models.NotificationFilter, page, limit int) ([]models.NotificationLog, int64, error) {
	var logs []models.NotificationLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.NotificationLog{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(pagination.Offset(page, limit)).
		Find(&logs).Error
	return logs, total, err
}
