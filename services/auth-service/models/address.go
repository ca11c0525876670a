package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AddressTypeShipping = "shipping"
	AddressTypeBilling  = "billing"
)

type Address struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	FullName   string         `gorm:"not null" json:"full_name"`
	Line1      string         `gorm:"not null" json:"line1"`
	Line2      string         `json:"line2,omitempty"`
	City       string         `gorm:"not null" json:"city"`
	State      string         `gorm:"not null" json:"state"`
	PostalCode string         `gorm:"not null" json:"postal_code"`
	Country    string         `gorm:"not null" json:"country"`
	Mobile     string         `gorm:"size:20" json:"mobile"`
	Type       string         `gorm:"type:varchar(20);default:'shipping'" json:"type"`
	IsDefault  bool           `gorm:"default:false" json:"is_default"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Type == "" {
		a.Type = AddressTypeShipping
	}
	return nil
}

// Migrate function for auto migration
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &RefreshToken{}, &Address{})
}
