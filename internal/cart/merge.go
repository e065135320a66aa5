package cart

import (
	"github.com/ovenbird/bakery-backend/pkg/types"
)

// MergeCarts reconciles the authenticated server cart with a guest copy at
// login. The server cart is the base; a guest line with a matching
// (sku, selected size) key adds its quantity, clamped to the server line's
// stock ceiling, and an unknown key is appended as-is. Running the merge
// again with an empty guest cart is a no-op.
func MergeCarts(server, local types.CartItems) types.CartItems {
	merged := make(types.CartItems, len(server))
	copy(merged, server)

	indexByKey := make(map[string]int, len(merged))
	for i, item := range merged {
		indexByKey[item.Key()] = i
	}

	for _, item := range local {
		if i, ok := indexByKey[item.Key()]; ok {
			base := merged[i]
			base.Quantity = clampQuantity(base.Quantity+item.Quantity, base.Stock)
			merged[i] = base
			continue
		}
		next := item
		next.Quantity = clampQuantity(next.Quantity, next.Stock)
		if next.Quantity == 0 {
			continue
		}
		indexByKey[next.Key()] = len(merged)
		merged = append(merged, next)
	}

	result := make(types.CartItems, 0, len(merged))
	for _, item := range merged {
		if item.Quantity > 0 {
			result = append(result, item)
		}
	}
	return result
}

// MergeFavourites folds the guest favourites into the server set. Identity
// is the sku alone; a guest entry overwrites a server entry with the same
// sku (last writer wins, nothing to sum).
func MergeFavourites(server, local types.FavouriteItems) types.FavouriteItems {
	merged := make(types.FavouriteItems, len(server))
	copy(merged, server)

	indexBySKU := make(map[string]int, len(merged))
	for i, item := range merged {
		indexBySKU[item.SKU] = i
	}

	for _, item := range local {
		if i, ok := indexBySKU[item.SKU]; ok {
			merged[i] = item
			continue
		}
		indexBySKU[item.SKU] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

// clampQuantity bounds a requested quantity to [1, stock]. Zero means the
// line should be dropped.
func clampQuantity(quantity, stock int) int {
	if quantity <= 0 || stock <= 0 {
		return 0
	}
	if quantity > stock {
		return stock
	}
	return quantity
}
