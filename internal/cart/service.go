package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
	pkgerrors "github.com/ovenbird/bakery-backend/pkg/errors"
	"github.com/ovenbird/bakery-backend/pkg/logger"
	"github.com/ovenbird/bakery-backend/pkg/types"
)

// Owner identifies whose cart a request operates on: an authenticated user
// (persisted on the user row) or a guest session (kept in Redis).
type Owner struct {
	UserID    *uuid.UUID
	SessionID string
}

func (o Owner) valid() bool {
	return o.UserID != nil || o.SessionID != ""
}

// AddItemInput adds one product line to a cart.
type AddItemInput struct {
	SKU          string
	SelectedSize *string
	Quantity     int
}

// Service manages carts and favourites for guests and users, and merges the
// guest copy into the user copy at login.
type Service interface {
	Cart(ctx context.Context, owner Owner) (types.CartItems, error)
	ReplaceCart(ctx context.Context, owner Owner, items types.CartItems) (types.CartItems, error)
	AddItem(ctx context.Context, owner Owner, input AddItemInput) (types.CartItems, error)
	UpdateQuantity(ctx context.Context, owner Owner, sku string, selectedSize *string, quantity int) (types.CartItems, error)
	RemoveItem(ctx context.Context, owner Owner, sku string, selectedSize *string) (types.CartItems, error)
	ClearCart(ctx context.Context, owner Owner) error

	Favourites(ctx context.Context, owner Owner) (types.FavouriteItems, error)
	ReplaceFavourites(ctx context.Context, owner Owner, items types.FavouriteItems) (types.FavouriteItems, error)
	ToggleFavourite(ctx context.Context, owner Owner, sku string) (types.FavouriteItems, error)

	MergeOnLogin(ctx context.Context, userID uuid.UUID, sessionID string) error
}

type productLoader interface {
	FindProductBySKU(ctx context.Context, sku string) (*models.Product, error)
}

type service struct {
	repo     *Repository
	guests   *GuestStore
	products productLoader
	logg     *logger.Logger
}

// NewService wires the cart service.
func NewService(repo *Repository, guests *GuestStore, products productLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if guests == nil {
		return nil, fmt.Errorf("guest store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, guests: guests, products: products, logg: logg}, nil
}

func (s *service) Cart(ctx context.Context, owner Owner) (types.CartItems, error) {
	return s.loadCart(ctx, owner)
}

// ReplaceCart swaps the stored cart wholesale with the client copy. Every
// line is re-read from the catalog: unknown products are dropped, advisory
// price/stock/image fields are refreshed, and quantities re-clamped.
func (s *service) ReplaceCart(ctx context.Context, owner Owner, items types.CartItems) (types.CartItems, error) {
	if !owner.valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no cart owner")
	}

	next := make(types.CartItems, 0, len(items))
	for _, item := range items {
		line, err := s.buildLine(ctx, AddItemInput{
			SKU:          item.SKU,
			SelectedSize: item.SelectedSize,
			Quantity:     item.Quantity,
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		if line.Quantity == 0 {
			continue
		}
		next = append(next, *line)
	}

	if err := s.saveCart(ctx, owner, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *service) AddItem(ctx context.Context, owner Owner, input AddItemInput) (types.CartItems, error) {
	if !owner.valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no cart owner")
	}
	if input.Quantity <= 0 {
		input.Quantity = 1
	}

	line, err := s.buildLine(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", input.SKU))
		}
		return nil, err
	}

	items, err := s.loadCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	updated := false
	for i, existing := range items {
		if existing.Key() != line.Key() {
			continue
		}
		existing.Quantity = clampQuantity(existing.Quantity+input.Quantity, line.Stock)
		existing.Price = line.Price
		existing.Stock = line.Stock
		existing.Image = line.Image
		items[i] = existing
		updated = true
		break
	}
	if !updated && line.Quantity > 0 {
		items = append(items, *line)
	}

	next := make(types.CartItems, 0, len(items))
	for _, item := range items {
		if item.Quantity > 0 {
			next = append(next, item)
		}
	}

	if err := s.saveCart(ctx, owner, next); err != nil {
		return nil, err
	}
	return next, nil
}

// UpdateQuantity sets the quantity of one line, clamped to [1, stock]. A
// requested quantity of zero or less removes the line.
func (s *service) UpdateQuantity(ctx context.Context, owner Owner, sku string, selectedSize *string, quantity int) (types.CartItems, error) {
	if !owner.valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no cart owner")
	}

	items, err := s.loadCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	key := (types.CartItem{SKU: sku, SelectedSize: selectedSize}).Key()
	next := make(types.CartItems, 0, len(items))
	for _, item := range items {
		if item.Key() != key {
			next = append(next, item)
			continue
		}
		clamped := clampQuantity(quantity, item.Stock)
		if clamped == 0 {
			continue
		}
		item.Quantity = clamped
		next = append(next, item)
	}

	if err := s.saveCart(ctx, owner, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, sku string, selectedSize *string) (types.CartItems, error) {
	return s.UpdateQuantity(ctx, owner, sku, selectedSize, 0)
}

func (s *service) ClearCart(ctx context.Context, owner Owner) error {
	if !owner.valid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no cart owner")
	}
	return s.saveCart(ctx, owner, types.CartItems{})
}

func (s *service) Favourites(ctx context.Context, owner Owner) (types.FavouriteItems, error) {
	return s.loadFavourites(ctx, owner)
}

func (s *service) ReplaceFavourites(ctx context.Context, owner Owner, items types.FavouriteItems) (types.FavouriteItems, error) {
	if !owner.valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no favourites owner")
	}
	if items == nil {
		items = types.FavouriteItems{}
	}
	if err := s.saveFavourites(ctx, owner, items); err != nil {
		return nil, err
	}
	return items, nil
}

// ToggleFavourite flips the presence of a sku: present removes it, absent
// adds it with fresh catalog data.
func (s *service) ToggleFavourite(ctx context.Context, owner Owner, sku string) (types.FavouriteItems, error) {
	if !owner.valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no favourites owner")
	}

	items, err := s.loadFavourites(ctx, owner)
	if err != nil {
		return nil, err
	}

	next := make(types.FavouriteItems, 0, len(items))
	removed := false
	for _, item := range items {
		if item.SKU == sku {
			removed = true
			continue
		}
		next = append(next, item)
	}

	if !removed {
		product, err := s.products.FindProductBySKU(ctx, sku)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", sku))
			}
			return nil, err
		}
		next = append(next, types.FavouriteItem{
			SKU:   product.SKU,
			Name:  product.Name,
			Image: product.Image,
			Price: product.Price,
		})
	}

	if err := s.saveFavourites(ctx, owner, next); err != nil {
		return nil, err
	}
	return next, nil
}

// MergeOnLogin folds the guest session's cart and favourites into the
// user's persisted copies and clears the guest keys. Re-running after the
// guest copy is cleared merges empty sets, so a double submit is harmless.
func (s *service) MergeOnLogin(ctx context.Context, userID uuid.UUID, sessionID string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required for merge")
	}
	if sessionID == "" {
		return nil
	}

	guestCart, err := s.guests.Cart(ctx, sessionID)
	if err != nil {
		return err
	}
	guestFavourites, err := s.guests.Favourites(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(guestCart) == 0 && len(guestFavourites) == 0 {
		return nil
	}

	serverCart, err := s.repo.LoadCart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.SaveCart(ctx, userID, MergeCarts(serverCart, guestCart)); err != nil {
		return err
	}

	serverFavourites, err := s.repo.LoadFavourites(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.SaveFavourites(ctx, userID, MergeFavourites(serverFavourites, guestFavourites)); err != nil {
		return err
	}

	if err := s.guests.Clear(ctx, sessionID); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("cart: clear guest session %s: %v", sessionID, err))
	}
	return nil
}

// buildLine resolves the authoritative line for a sku/size pair: name,
// price, stock and image come from the catalog, never from the client.
func (s *service) buildLine(ctx context.Context, input AddItemInput) (*types.CartItem, error) {
	product, err := s.products.FindProductBySKU(ctx, input.SKU)
	if err != nil {
		return nil, err
	}

	sizeName := models.DefaultSizeName
	if input.SelectedSize != nil && *input.SelectedSize != "" {
		sizeName = *input.SelectedSize
	}

	var size *models.ProductSize
	for i := range product.Sizes {
		if product.Sizes[i].Name == sizeName {
			size = &product.Sizes[i]
			break
		}
	}
	if size == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("product %s has no size %q", input.SKU, sizeName))
	}

	image := size.Image
	if image == nil {
		image = product.Image
	}

	return &types.CartItem{
		SKU:          product.SKU,
		Name:         product.Name,
		Image:        image,
		Price:        size.Price,
		Stock:        size.Stock,
		SelectedSize: input.SelectedSize,
		Quantity:     clampQuantity(input.Quantity, size.Stock),
	}, nil
}

func (s *service) loadCart(ctx context.Context, owner Owner) (types.CartItems, error) {
	if owner.UserID != nil {
		return s.repo.LoadCart(ctx, *owner.UserID)
	}
	if owner.SessionID != "" {
		return s.guests.Cart(ctx, owner.SessionID)
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no cart owner")
}

func (s *service) saveCart(ctx context.Context, owner Owner, items types.CartItems) error {
	if owner.UserID != nil {
		return s.repo.SaveCart(ctx, *owner.UserID, items)
	}
	return s.guests.SaveCart(ctx, owner.SessionID, items)
}

func (s *service) loadFavourites(ctx context.Context, owner Owner) (types.FavouriteItems, error) {
	if owner.UserID != nil {
		return s.repo.LoadFavourites(ctx, *owner.UserID)
	}
	if owner.SessionID != "" {
		return s.guests.Favourites(ctx, owner.SessionID)
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no favourites owner")
}

func (s *service) saveFavourites(ctx context.Context, owner Owner, items types.FavouriteItems) error {
	if owner.UserID != nil {
		return s.repo.SaveFavourites(ctx, *owner.UserID, items)
	}
	return s.guests.SaveFavourites(ctx, owner.SessionID, items)
}
