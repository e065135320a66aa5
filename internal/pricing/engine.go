package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
)

var oneHundred = decimal.NewFromInt(100)

// Breakdown is the stable pricing shape callers rely on: zero-valued
// discount fields when nothing applies, never omitted.
type Breakdown struct {
	OriginalPrice  decimal.Decimal `json:"original_price"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DiscountID     *string         `json:"discount_id"`
}

// ApplyDiscount computes the discounted price for a base amount. The
// discount amount is clamped to the base so the final price never goes
// negative. A nil discount yields the base price with zero discount fields.
func ApplyDiscount(base decimal.Decimal, discount *models.Discount) Breakdown {
	breakdown := Breakdown{
		OriginalPrice:  base,
		FinalPrice:     base,
		DiscountAmount: decimal.Zero,
	}
	if discount == nil {
		return breakdown
	}

	var amount decimal.Decimal
	switch discount.DiscountType {
	case enums.DiscountTypePercent:
		amount = base.Mul(discount.DiscountValue).Div(oneHundred)
	case enums.DiscountTypeFixed:
		amount = discount.DiscountValue
	default:
		return breakdown
	}

	if amount.GreaterThan(base) {
		amount = base
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	id := discount.ID.String()
	breakdown.DiscountAmount = amount
	breakdown.FinalPrice = base.Sub(amount)
	breakdown.DiscountID = &id
	return breakdown
}

// SizeQuote pairs one size variant with its computed pricing.
type SizeQuote struct {
	Size      models.ProductSize `json:"size"`
	Breakdown Breakdown          `json:"pricing"`
}

// QuoteSizes applies the same resolved discount independently to each size's
// own base price. Sizes never inherit the product-level price.
func QuoteSizes(sizes []models.ProductSize, discount *models.Discount) []SizeQuote {
	quotes := make([]SizeQuote, 0, len(sizes))
	for _, size := range sizes {
		quotes = append(quotes, SizeQuote{
			Size:      size,
			Breakdown: ApplyDiscount(size.Price, discount),
		})
	}
	return quotes
}
