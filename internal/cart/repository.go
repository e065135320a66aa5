package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/types"
)

// Repository reads and writes the cart and favourites snapshots stored on
// the user row.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// LoadCart returns the user's persisted cart.
func (r *Repository) LoadCart(ctx context.Context, userID uuid.UUID) (types.CartItems, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("cart").First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	if user.Cart == nil {
		return types.CartItems{}, nil
	}
	return user.Cart, nil
}

// SaveCart replaces the user's persisted cart wholesale.
func (r *Repository) SaveCart(ctx context.Context, userID uuid.UUID, items types.CartItems) error {
	if items == nil {
		items = types.CartItems{}
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("cart", items).
		Error
}

// LoadFavourites returns the user's persisted favourites.
func (r *Repository) LoadFavourites(ctx context.Context, userID uuid.UUID) (types.FavouriteItems, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("favourites").First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	if user.Favourites == nil {
		return types.FavouriteItems{}, nil
	}
	return user.Favourites, nil
}

// SaveFavourites replaces the user's persisted favourites wholesale.
func (r *Repository) SaveFavourites(ctx context.Context, userID uuid.UUID, items types.FavouriteItems) error {
	if items == nil {
		items = types.FavouriteItems{}
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("favourites", items).
		Error
}
