package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultSizeName holds stock for products without explicit size variants.
// It is an implementation convenience, never surfaced as a customer choice.
const DefaultSizeName = "Default"

// ProductSize is one size variant of a product, carrying its own price and
// stock counter. Stock never goes negative; it is decremented only inside a
// checkout transaction that re-validates availability under lock.
type ProductSize struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_product_size_name"`
	Name      string          `gorm:"column:name;not null;uniqueIndex:idx_product_size_name"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Image     *string         `gorm:"column:image"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// IsDefault reports whether the row is the synthetic stock holder.
func (s ProductSize) IsDefault() bool {
	return s.Name == DefaultSizeName
}
