package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenbird/bakery-backend/pkg/types"
)

func line(sku string, size *string, quantity, stock int) types.CartItem {
	return types.CartItem{
		SKU:          sku,
		Name:         sku,
		Price:        decimal.NewFromInt(10),
		Stock:        stock,
		SelectedSize: size,
		Quantity:     quantity,
	}
}

func strPtr(v string) *string {
	return &v
}

func TestMergeCartsSumsAndClampsSharedKeys(t *testing.T) {
	t.Parallel()

	server := types.CartItems{line("A", strPtr("Large"), 3, 5)}
	local := types.CartItems{line("A", strPtr("Large"), 4, 99)}

	merged := MergeCarts(server, local)

	require.Len(t, merged, 1)
	assert.Equal(t, 5, merged[0].Quantity, "sum clamped to the server stock ceiling")
}

func TestMergeCartsKeepsSizeVariantsDistinct(t *testing.T) {
	t.Parallel()

	server := types.CartItems{line("A", strPtr("Large"), 2, 10)}
	local := types.CartItems{line("A", strPtr("Small"), 1, 10), line("A", nil, 1, 10)}

	merged := MergeCarts(server, local)

	require.Len(t, merged, 3, "same sku with different sizes stays distinct")
}

func TestMergeCartsIdempotent(t *testing.T) {
	t.Parallel()

	server := types.CartItems{line("A", nil, 2, 10), line("B", strPtr("Small"), 1, 3)}
	local := types.CartItems{line("A", nil, 5, 10), line("C", nil, 2, 4)}

	once := MergeCarts(server, local)
	again := MergeCarts(once, nil)

	assert.Equal(t, once, again)
}

func TestMergeCartsAddsNewKeysAsIs(t *testing.T) {
	t.Parallel()

	merged := MergeCarts(nil, types.CartItems{line("B", nil, 2, 6)})

	require.Len(t, merged, 1)
	assert.Equal(t, "B", merged[0].SKU)
	assert.Equal(t, 2, merged[0].Quantity)
}

func TestMergeCartsDropsUnstockedNewLines(t *testing.T) {
	t.Parallel()

	merged := MergeCarts(nil, types.CartItems{line("B", nil, 2, 0)})

	assert.Empty(t, merged)
}

func TestMergeFavouritesLastWriterWins(t *testing.T) {
	t.Parallel()

	server := types.FavouriteItems{
		{SKU: "A", Name: "Server A", Price: decimal.NewFromInt(10)},
		{SKU: "B", Name: "Server B", Price: decimal.NewFromInt(20)},
	}
	local := types.FavouriteItems{
		{SKU: "A", Name: "Local A", Price: decimal.NewFromInt(12)},
		{SKU: "C", Name: "Local C", Price: decimal.NewFromInt(30)},
	}

	merged := MergeFavourites(server, local)

	require.Len(t, merged, 3)
	bySKU := map[string]types.FavouriteItem{}
	for _, item := range merged {
		bySKU[item.SKU] = item
	}
	assert.Equal(t, "Local A", bySKU["A"].Name)
	assert.Equal(t, "Server B", bySKU["B"].Name)
	assert.Equal(t, "Local C", bySKU["C"].Name)
}

func TestClampQuantityBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, clampQuantity(0, 10))
	assert.Equal(t, 0, clampQuantity(-3, 10))
	assert.Equal(t, 1, clampQuantity(1, 10))
	assert.Equal(t, 10, clampQuantity(15, 10))
	assert.Equal(t, 0, clampQuantity(2, 0))
}
