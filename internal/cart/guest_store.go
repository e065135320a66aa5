package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ovenbird/bakery-backend/pkg/redis"
	"github.com/ovenbird/bakery-backend/pkg/types"
)

// GuestStore keeps unauthenticated carts and favourites in Redis, keyed by
// the browser session id. Entries expire after the configured TTL so
// abandoned guest sessions clean themselves up.
type GuestStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGuestStore wires the guest session store.
func NewGuestStore(client *redis.Client, ttl time.Duration) (*GuestStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("guest cart ttl must be positive")
	}
	return &GuestStore{client: client, ttl: ttl}, nil
}

// Cart returns the guest cart, empty when the session has none.
func (g *GuestStore) Cart(ctx context.Context, sessionID string) (types.CartItems, error) {
	raw, err := g.client.Get(ctx, g.client.GuestCartKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return types.CartItems{}, nil
		}
		return nil, err
	}
	var items types.CartItems
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode guest cart: %w", err)
	}
	return items, nil
}

// SaveCart replaces the guest cart wholesale and refreshes the TTL.
func (g *GuestStore) SaveCart(ctx context.Context, sessionID string, items types.CartItems) error {
	if items == nil {
		items = types.CartItems{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}
	return g.client.Set(ctx, g.client.GuestCartKey(sessionID), raw, g.ttl)
}

// Favourites returns the guest favourites, empty when the session has none.
func (g *GuestStore) Favourites(ctx context.Context, sessionID string) (types.FavouriteItems, error) {
	raw, err := g.client.Get(ctx, g.client.GuestFavouritesKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return types.FavouriteItems{}, nil
		}
		return nil, err
	}
	var items types.FavouriteItems
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode guest favourites: %w", err)
	}
	return items, nil
}

// SaveFavourites replaces the guest favourites wholesale and refreshes the TTL.
func (g *GuestStore) SaveFavourites(ctx context.Context, sessionID string, items types.FavouriteItems) error {
	if items == nil {
		items = types.FavouriteItems{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode guest favourites: %w", err)
	}
	return g.client.Set(ctx, g.client.GuestFavouritesKey(sessionID), raw, g.ttl)
}

// Clear drops both guest keys for the session, typically after a login merge.
func (g *GuestStore) Clear(ctx context.Context, sessionID string) error {
	return g.client.Del(ctx, g.client.GuestCartKey(sessionID), g.client.GuestFavouritesKey(sessionID))
}
