package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ChannelEmail = "email"

	StatusSent   = "sent"
	StatusFailed = "failed"
)

// NotificationLog records one delivery attempt.
type NotificationLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   string    `gorm:"type:varchar(64);index" json:"event_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Recipient string    `gorm:"type:varchar(255);not null" json:"recipient"`
	EventType string    `gorm:"type:varchar(64);not null;index" json:"event_type"`
	Channel   string    `gorm:"type:varchar(20);not null" json:"channel"`
	Subject   string    `gorm:"type:varchar(255)" json:"subject"`
	Status    string    `gorm:"type:varchar(20);not null;index" json:"status"`
	Attempt   int       `gorm:"not null" json:"attempt"`
	MessageID string    `gorm:"type:varchar(128)" json:"message_id,omitempty"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (l *NotificationLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type NotificationFilter struct {
	UserID    *uuid.UUID
	EventType string
	Status    string
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&NotificationLog{})
}
