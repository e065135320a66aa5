package enums

// DiscountType determines how a discount value is applied to a base price.
type DiscountType string

const (
	// DiscountTypePercent applies value as a percentage of the base price.
	DiscountTypePercent DiscountType = "percent"
	// DiscountTypeFixed subtracts value directly from the base price.
	DiscountTypeFixed DiscountType = "fixed"
)

// IsValid reports whether the discount type is known.
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercent || t == DiscountTypeFixed
}
