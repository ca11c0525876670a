package models

import (
	"time"

	"github.com/google/uuid"
	productmodels "github.com/yashrajoria/storefront-backend/services/product-service/models"
	"gorm.io/gorm"
)

// CartItem is one product line in a user's cart.
type CartItem struct {
	ID        uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int                    `gorm:"not null" json:"quantity"`
	Product   *productmodels.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	UnitPrice int64                  `gorm:"-" json:"unit_price"`
	LineTotal int64                  `gorm:"-" json:"line_total"`
	CreatedAt time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Summary totals a cart. Amounts are in minor units.
type Summary struct {
	ItemCount     int   `json:"item_count"`
	Subtotal      int64 `json:"subtotal"`
	OriginalTotal int64 `json:"original_total"`
	Savings       int64 `json:"savings"`
}

type Cart struct {
	Items   []CartItem `json:"items"`
	Summary Summary    `json:"summary"`
}

// Summarize prices every line at its product's effective price and totals the cart.
// Lines without a loaded product are skipped.
func Summarize(items []CartItem) Summary {
	var s Summary
	for i := range items {
		p := items[i].Product
		if p == nil {
			continue
		}
		unit := productmodels.EffectivePrice(p.Price, p.DiscountPercent)
		items[i].UnitPrice = unit
		items[i].LineTotal = unit * int64(items[i].Quantity)

		s.ItemCount += items[i].Quantity
		s.Subtotal += items[i].LineTotal
		s.OriginalTotal += p.Price * int64(items[i].Quantity)
	}
	s.Savings = s.OriginalTotal - s.Subtotal
	return s
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&CartItem{})
}
