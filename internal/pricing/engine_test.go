package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
)

func TestApplyDiscountPercent(t *testing.T) {
	t.Parallel()

	discount := &models.Discount{
		ID:            uuid.New(),
		DiscountType:  enums.DiscountTypePercent,
		DiscountValue: decimal.NewFromInt(25),
	}

	breakdown := ApplyDiscount(decimal.NewFromInt(180), discount)

	assert.True(t, breakdown.DiscountAmount.Equal(decimal.NewFromInt(45)), breakdown.DiscountAmount.String())
	assert.True(t, breakdown.FinalPrice.Equal(decimal.NewFromInt(135)), breakdown.FinalPrice.String())
	require.NotNil(t, breakdown.DiscountID)
	assert.Equal(t, discount.ID.String(), *breakdown.DiscountID)
}

func TestApplyDiscountFixed(t *testing.T) {
	t.Parallel()

	discount := &models.Discount{
		ID:            uuid.New(),
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(30),
	}

	breakdown := ApplyDiscount(decimal.NewFromInt(100), discount)

	assert.True(t, breakdown.DiscountAmount.Equal(decimal.NewFromInt(30)))
	assert.True(t, breakdown.FinalPrice.Equal(decimal.NewFromInt(70)))
}

func TestApplyDiscountClampsToZero(t *testing.T) {
	t.Parallel()

	discount := &models.Discount{
		ID:            uuid.New(),
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(500),
	}

	breakdown := ApplyDiscount(decimal.NewFromInt(180), discount)

	assert.True(t, breakdown.FinalPrice.IsZero(), "final price never negative")
	assert.True(t, breakdown.DiscountAmount.Equal(decimal.NewFromInt(180)))
}

func TestApplyDiscountNilKeepsStableShape(t *testing.T) {
	t.Parallel()

	breakdown := ApplyDiscount(decimal.NewFromInt(42), nil)

	assert.True(t, breakdown.OriginalPrice.Equal(decimal.NewFromInt(42)))
	assert.True(t, breakdown.FinalPrice.Equal(decimal.NewFromInt(42)))
	assert.True(t, breakdown.DiscountAmount.IsZero())
	assert.Nil(t, breakdown.DiscountID)
}

func TestQuoteSizesAppliesDiscountPerSize(t *testing.T) {
	t.Parallel()

	discount := &models.Discount{
		ID:            uuid.New(),
		DiscountType:  enums.DiscountTypePercent,
		DiscountValue: decimal.NewFromInt(10),
	}
	sizes := []models.ProductSize{
		{Name: "Small", Price: decimal.NewFromInt(40)},
		{Name: "Large", Price: decimal.NewFromInt(70)},
	}

	quotes := QuoteSizes(sizes, discount)

	require.Len(t, quotes, 2)
	assert.True(t, quotes[0].Breakdown.FinalPrice.Equal(decimal.NewFromInt(36)))
	assert.True(t, quotes[1].Breakdown.FinalPrice.Equal(decimal.NewFromInt(63)))
}
