package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product prices are stored in minor currency units.
type Product struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string            `gorm:"not null;index" json:"name"`
	Slug            string            `gorm:"index" json:"slug"`
	SKU             *string           `gorm:"uniqueIndex" json:"sku,omitempty"`
	Description     string            `gorm:"type:text" json:"description"`
	Brand           string            `json:"brand,omitempty"`
	Unit            string            `json:"unit,omitempty"`
	Price           int64             `gorm:"not null" json:"price"`
	DiscountPercent int               `gorm:"not null;default:0" json:"discount_percent"`
	Stock           int               `gorm:"not null;default:0" json:"stock"`
	Images          []string          `gorm:"serializer:json" json:"images"`
	CategoryID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"category_id"`
	SubCategoryID   *uuid.UUID        `gorm:"type:uuid;index" json:"sub_category_id,omitempty"`
	IsFeatured      bool              `gorm:"default:false;index" json:"is_featured"`
	Published       bool              `gorm:"not null" json:"published"`
	MoreDetails     map[string]string `gorm:"serializer:json" json:"more_details,omitempty"`
	EffectivePrice  int64             `gorm:"-" json:"effective_price"`
	CartQuantity    int               `gorm:"-" json:"cart_quantity,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	return nil
}

func (p *Product) AfterFind(tx *gorm.DB) error {
	p.EffectivePrice = EffectivePrice(p.Price, p.DiscountPercent)
	return nil
}

// EffectivePrice applies a whole-number percentage discount, rounding the discount half up.
func EffectivePrice(price int64, discountPercent int) int64 {
	if discountPercent <= 0 {
		return price
	}
	if discountPercent >= 100 {
		return 0
	}
	return price - (price*int64(discountPercent)+50)/100
}

// EffectivePriceSQL mirrors EffectivePrice for filtering and sorting in SQL.
const EffectivePriceSQL = "(price - (price * discount_percent + 50) / 100)"

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Category{}, &SubCategory{}, &Product{})
}
