package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is the immutable per-line snapshot within an order. Price is
// final (post-discount); OriginalPrice and DiscountAmount preserve what was
// applied at checkout time.
type OrderItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	SKU            string          `gorm:"column:sku;not null"`
	ProductName    string          `gorm:"column:product_name;not null"`
	Size           string          `gorm:"column:size;not null"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	OriginalPrice  decimal.Decimal `gorm:"column:original_price;type:numeric(10,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(10,2);not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	Image          *string         `gorm:"column:image"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
