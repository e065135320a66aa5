package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CartItem is one storefront cart line. Identity is the composite
// (sku, selected_size); the same product in two sizes is two lines.
// Price, stock and image are advisory client hints; checkout re-reads
// all of them from the catalog.
type CartItem struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Image        *string         `json:"image"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	SelectedSize *string         `json:"selectedSize"`
	Quantity     int             `json:"quantity"`
}

// Key returns the merge/update identity of the line.
func (c CartItem) Key() string {
	size := ""
	if c.SelectedSize != nil {
		size = *c.SelectedSize
	}
	return c.SKU + "\x00" + size
}

// SizeName returns the selected size or the empty string.
func (c CartItem) SizeName() string {
	if c.SelectedSize == nil {
		return ""
	}
	return *c.SelectedSize
}

// CartItems is the JSON column holding a user's persisted cart.
type CartItems []CartItem

// Value marshals the cart for storage.
func (c CartItems) Value() (driver.Value, error) {
	if c == nil {
		c = CartItems{}
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("cart items: marshal: %w", err)
	}
	return string(raw), nil
}

// Scan decodes the stored JSON payload.
func (c *CartItems) Scan(value interface{}) error {
	if value == nil {
		*c = CartItems{}
		return nil
	}
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("cart items: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*c = CartItems{}
		return nil
	}
	return json.Unmarshal(raw, c)
}

// FavouriteItem is one saved product. Identity is the sku alone; favourites
// carry no size or quantity dimension.
type FavouriteItem struct {
	SKU   string          `json:"sku"`
	Name  string          `json:"name"`
	Image *string         `json:"image"`
	Price decimal.Decimal `json:"price"`
}

// FavouriteItems is the JSON column holding a user's favourites.
type FavouriteItems []FavouriteItem

// Value marshals the favourites for storage.
func (f FavouriteItems) Value() (driver.Value, error) {
	if f == nil {
		f = FavouriteItems{}
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("favourite items: marshal: %w", err)
	}
	return string(raw), nil
}

// Scan decodes the stored JSON payload.
func (f *FavouriteItems) Scan(value interface{}) error {
	if value == nil {
		*f = FavouriteItems{}
		return nil
	}
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("favourite items: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*f = FavouriteItems{}
		return nil
	}
	return json.Unmarshal(raw, f)
}
