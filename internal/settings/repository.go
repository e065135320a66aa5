package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
)

// Repository persists store settings rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find loads one setting by key.
func (r *Repository) Find(ctx context.Context, key string) (*models.StoreSetting, error) {
	var setting models.StoreSetting
	if err := r.db.WithContext(ctx).First(&setting, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// List returns every setting ordered by key.
func (r *Repository) List(ctx context.Context) ([]models.StoreSetting, error) {
	var rows []models.StoreSetting
	err := r.db.WithContext(ctx).Order("key ASC").Find(&rows).Error
	return rows, err
}

// Upsert inserts or replaces a setting value.
func (r *Repository) Upsert(ctx context.Context, setting *models.StoreSetting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(setting).Error
}
