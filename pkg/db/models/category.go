package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is one node of the catalog forest. ParentID is a nullable
// self-reference; acyclicity is enforced at write time by the catalog service.
type Category struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	Slug      string     `gorm:"column:slug;not null;uniqueIndex"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	Image     *string    `gorm:"column:image"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
