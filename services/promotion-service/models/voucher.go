package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoucherType represents the kind of discount a voucher provides.
type VoucherType string

const (
	VoucherTypePercentage VoucherType = "percentage"
	VoucherTypeFixed      VoucherType = "fixed"
)

// Voucher is a discount code redeemable at checkout.
// Money fields are minor currency units; Value is a percent for percentage vouchers.
type Voucher struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Code          string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Description   string         `json:"description"`
	Type          VoucherType    `gorm:"type:varchar(20);not null" json:"type"`
	Value         float64        `gorm:"not null" json:"value"`
	MaxDiscount   int64          `gorm:"not null;default:0" json:"max_discount"`    // 0 = no cap
	MinOrderValue int64          `gorm:"not null;default:0" json:"min_order_value"` // minimum subtotal
	UsageLimit    int            `gorm:"not null;default:0" json:"usage_limit"`     // 0 = unlimited
	UsedCount     int            `gorm:"not null;default:0" json:"used_count"`
	PerUserLimit  int            `gorm:"not null;default:0" json:"per_user_limit"` // 0 = unlimited
	ValidFrom     time.Time      `gorm:"not null" json:"valid_from"`
	ValidTo       time.Time      `gorm:"not null;index" json:"valid_to"`
	Active        bool           `gorm:"not null" json:"active"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Voucher) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// CalculateDiscount returns the discount for subtotal. It never exceeds subtotal.
func (v *Voucher) CalculateDiscount(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	var discount int64
	switch v.Type {
	case VoucherTypePercentage:
		discount = int64(math.Round(float64(subtotal) * v.Value / 100))
		if v.MaxDiscount > 0 && discount > v.MaxDiscount {
			discount = v.MaxDiscount
		}
	case VoucherTypeFixed:
		discount = int64(math.Round(v.Value))
	}
	return min(max(discount, 0), subtotal)
}

// UsageExhausted reports whether a limited voucher has no redemptions left.
func (v *Voucher) UsageExhausted() bool {
	return v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit
}

// VoucherUsage records one redemption.
type VoucherUsage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VoucherID uuid.UUID `gorm:"type:uuid;not null;index:idx_voucher_usage_user" json:"voucher_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_voucher_usage_user" json:"user_id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Discount  int64     `gorm:"not null" json:"discount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (u *VoucherUsage) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// VoucherInput is the admin payload for creating or replacing a voucher.
type VoucherInput struct {
	Code          string      `json:"code" binding:"required,min=3,max=64"`
	Description   string      `json:"description" binding:"max=255"`
	Type          VoucherType `json:"type" binding:"required,oneof=percentage fixed"`
	Value         float64     `json:"value" binding:"required,gt=0"`
	MaxDiscount   int64       `json:"max_discount" binding:"gte=0"`
	MinOrderValue int64       `json:"min_order_value" binding:"gte=0"`
	UsageLimit    int         `json:"usage_limit" binding:"gte=0"`
	PerUserLimit  int         `json:"per_user_limit" binding:"gte=0"`
	ValidFrom     time.Time   `json:"valid_from" binding:"required"`
	ValidTo       time.Time   `json:"valid_to" binding:"required"`
	Active        *bool       `json:"active"`
}

// ValidateVoucherRequest checks a code against an order subtotal.
type ValidateVoucherRequest struct {
	Code     string `json:"code" binding:"required"`
	Subtotal int64  `json:"subtotal" binding:"gte=0"`
}

// VoucherQuote is the outcome of a successful validation.
type VoucherQuote struct {
	VoucherID uuid.UUID   `json:"-"`
	Code      string      `json:"code"`
	Type      VoucherType `json:"type"`
	Value     float64     `json:"value"`
	Discount  int64       `json:"discount"`
	Subtotal  int64       `json:"subtotal"`
	Total     int64       `json:"total"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Voucher{}, &VoucherUsage{})
}
