package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the canonical catalog listing. SKU is derived from the name,
// the category ancestry and the id; it is regenerated whenever the name or
// category changes.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SKU         string          `gorm:"column:sku;not null;uniqueIndex"`
	Name        string          `gorm:"column:name;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Image       *string         `gorm:"column:image"`
	Description *string         `gorm:"column:description"`
	CategoryID  *uuid.UUID      `gorm:"column:category_id;type:uuid;index"`
	IsListed    bool            `gorm:"column:is_listed;not null;default:true"`
	Sizes       []ProductSize   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
