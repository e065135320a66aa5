package models

import "time"

// StoreSetting is one key/value storefront setting (tax rate, shipping fee).
type StoreSetting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
