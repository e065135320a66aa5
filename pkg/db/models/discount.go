package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ovenbird/bakery-backend/pkg/enums"
)

// Discount applies either to a single product or to a whole category
// subtree (via the ancestor walk at resolution time). Exactly one of
// ProductID/CategoryID must be set; the migration backs this with a
// CHECK constraint.
type Discount struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     *uuid.UUID         `gorm:"column:product_id;type:uuid;index"`
	CategoryID    *uuid.UUID         `gorm:"column:category_id;type:uuid;index"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue decimal.Decimal    `gorm:"column:discount_value;type:numeric(10,2);not null"`
	StartDate     *time.Time         `gorm:"column:start_date"`
	EndDate       *time.Time         `gorm:"column:end_date"`
	Active        bool               `gorm:"column:active;not null;default:true"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// CurrentlyActive reports whether the discount applies at the given instant:
// active flag set and now inside the optional [start, end] window.
func (d Discount) CurrentlyActive(now time.Time) bool {
	if !d.Active {
		return false
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}
