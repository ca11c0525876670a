package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Payment tracks one provider payment attempt for an order. Amount is in minor units.
type Payment struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID          uuid.UUID  `gorm:"type:uuid;index;not null" json:"order_id"`
	UserID           uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	Amount           int64      `gorm:"not null" json:"amount"`
	Currency         string     `gorm:"type:varchar(10);not null" json:"currency"`
	Status           string     `gorm:"type:varchar(20);not null" json:"status"`
	ProviderIntentID *string    `gorm:"type:varchar(255);uniqueIndex" json:"provider_intent_id,omitempty"`
	FailureReason    string     `gorm:"type:varchar(500)" json:"failure_reason,omitempty"`
	SucceededAt      *time.Time `json:"succeeded_at,omitempty"`
	FailedAt         *time.Time `json:"failed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsTerminal reports whether webhooks may no longer change the payment. A
// failed intent can still be confirmed by a retry with the same client secret.
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusSucceeded
}

// Accepts reports whether a webhook moving the payment to status should be applied.
func (p *Payment) Accepts(status string) bool {
	return !p.IsTerminal() && p.Status != status
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Payment{})
}
