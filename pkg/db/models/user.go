package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ovenbird/bakery-backend/pkg/enums"
	"github.com/ovenbird/bakery-backend/pkg/types"
)

// User is a storefront customer or back-office admin. The cart and
// favourites are persisted as JSON snapshots, merged with the guest copy
// at login.
type User struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Email        string               `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string               `gorm:"column:password_hash;not null"`
	Name         string               `gorm:"column:name;not null"`
	Role         enums.UserRole       `gorm:"column:role;not null;default:'customer'"`
	Address      types.Address        `gorm:"column:address;type:jsonb"`
	Cart         types.CartItems      `gorm:"column:cart;type:jsonb"`
	Favourites   types.FavouriteItems `gorm:"column:favourites;type:jsonb"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
