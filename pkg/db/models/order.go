package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ovenbird/bakery-backend/pkg/enums"
	"github.com/ovenbird/bakery-backend/pkg/types"
)

// Order is the frozen result of a checkout. The address and every money
// figure are snapshots; later product, price or discount changes never
// touch an existing order.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	CustomerName   string               `gorm:"column:customer_name;not null"`
	Address        types.Address        `gorm:"column:address;type:jsonb"`
	ShippingMethod enums.ShippingMethod `gorm:"column:shipping_method;not null"`
	PaymentMethod  string               `gorm:"column:payment_method;not null"`
	Status         enums.OrderStatus    `gorm:"column:status;not null;default:'processing'"`
	Subtotal       decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TotalDiscount  decimal.Decimal      `gorm:"column:total_discount;type:numeric(12,2);not null"`
	Tax            decimal.Decimal      `gorm:"column:tax;type:numeric(12,2);not null"`
	ShippingFee    decimal.Decimal      `gorm:"column:shipping_fee;type:numeric(12,2);not null"`
	Total          decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	Items          []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
