package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ovenbird/bakery-backend/internal/catalog"
	"github.com/ovenbird/bakery-backend/pkg/db/models"
)

type discountLister interface {
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Discount, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Discount, error)
}

type categoryLister interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// Resolver finds the single discount that applies to a product at a given
// instant. Product-scoped discounts win; otherwise the category ancestor
// chain is walked closest-first. Multiple discounts are never merged.
type Resolver struct {
	discounts  discountLister
	categories categoryLister
	now        func() time.Time
}

// NewResolver wires a resolver over the discount and category stores.
func NewResolver(discounts discountLister, categories categoryLister) (*Resolver, error) {
	if discounts == nil {
		return nil, fmt.Errorf("discount lister required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category lister required")
	}
	return &Resolver{
		discounts:  discounts,
		categories: categories,
		now:        time.Now,
	}, nil
}

// Resolve returns the winning discount or nil when none applies. The
// ancestor walk is bounded by the chain helper's visited set, so malformed
// parent data cannot loop the read path.
func (r *Resolver) Resolve(ctx context.Context, productID uuid.UUID, categoryID *uuid.UUID) (*models.Discount, error) {
	now := r.now()

	productScoped, err := r.discounts.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if winner := firstActive(productScoped, now); winner != nil {
		return winner, nil
	}

	if categoryID == nil {
		return nil, nil
	}

	categories, err := r.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, ancestor := range catalog.AncestorChain(categories, *categoryID) {
		categoryScoped, err := r.discounts.ListByCategory(ctx, ancestor.ID)
		if err != nil {
			return nil, err
		}
		if winner := firstActive(categoryScoped, now); winner != nil {
			return winner, nil
		}
	}
	return nil, nil
}

// firstActive picks the first currently-active row. Rows arrive newest
// first, so ties fall to the most recently created discount.
func firstActive(discounts []models.Discount, now time.Time) *models.Discount {
	for i := range discounts {
		if discounts[i].CurrentlyActive(now) {
			return &discounts[i]
		}
	}
	return nil
}
