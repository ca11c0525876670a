package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

const (
	PaymentMethodCOD    = "cod"
	PaymentMethodOnline = "online"
)

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

var transitions = map[string][]string{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

// CanTransition reports whether an admin may move an order from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ShippingAddress is the address as it was when the order was placed.
type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Mobile     string `json:"mobile,omitempty"`
}

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	AddressID       uuid.UUID       `gorm:"type:uuid" json:"address_id"`
	ShippingAddress ShippingAddress `gorm:"serializer:json" json:"shipping_address"`
	Subtotal        int64           `gorm:"not null" json:"subtotal"`
	Discount        int64           `gorm:"not null" json:"discount"`
	Total           int64           `gorm:"not null" json:"total"`
	Currency        string          `gorm:"type:varchar(10);not null" json:"currency"`
	VoucherCode     string          `gorm:"type:varchar(64)" json:"voucher_code,omitempty"`
	PaymentMethod   string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus   string          `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	PaymentIntentID *string         `gorm:"type:varchar(255);index" json:"payment_intent_id,omitempty"`
	Status          string          `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes           string          `gorm:"type:varchar(500)" json:"notes,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = NewOrderNumber(time.Now(), o.ID)
	}
	return nil
}

// NewOrderNumber formats ORD-YYYYMMDD-HHMMSS-xxxxxxxx.
func NewOrderNumber(at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("ORD-%s-%s", at.UTC().Format("20060102-150405"), strings.ToUpper(id.String()[:8]))
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Name      string    `gorm:"not null" json:"name"`
	Image     string    `json:"image,omitempty"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	LineTotal int64     `gorm:"not null" json:"line_total"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Order{}, &OrderItem{})
}
