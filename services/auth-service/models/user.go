package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// User model
type User struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email                 string         `gorm:"uniqueIndex;not null" json:"email"`
	Password              string         `gorm:"not null" json:"-"`
	Name                  string         `gorm:"not null" json:"name"`
	Mobile                string         `gorm:"size:20" json:"mobile,omitempty"`
	Avatar                string         `json:"avatar,omitempty"`
	EmailVerified         bool           `gorm:"default:false" json:"email_verified"`
	VerificationCode      string         `gorm:"size:6" json:"-"`
	VerificationExpiresAt *time.Time     `json:"-"`
	Role                  string         `gorm:"type:varchar(50);default:'user';index" json:"role"`
	Status                string         `gorm:"type:varchar(20);default:'active'" json:"status"`
	LastLoginAt           *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt             time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return nil
}

// RefreshToken model stores issued refresh tokens for rotation and revocation
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TokenID   string    `gorm:"uniqueIndex;not null"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Revoked   bool      `gorm:"default:false"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (rt *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	return nil
}
