package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductAssociation counts how often two SKUs were bought together.
// The pair key is symmetric: SKUA < SKUB lexicographically, so (A,B) and
// (B,A) collapse into one counter.
type ProductAssociation struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SKUA      string    `gorm:"column:sku_a;not null;uniqueIndex:idx_association_pair"`
	SKUB      string    `gorm:"column:sku_b;not null;uniqueIndex:idx_association_pair"`
	Count     int       `gorm:"column:count;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
