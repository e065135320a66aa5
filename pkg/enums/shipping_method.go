package enums

// ShippingMethod selects how an order reaches the customer.
type ShippingMethod string

const (
	// ShippingMethodDelivery incurs the configured shipping fee.
	ShippingMethodDelivery ShippingMethod = "delivery"
	// ShippingMethodPickup is free.
	ShippingMethodPickup ShippingMethod = "pickup"
)

// IsValid reports whether the shipping method is known.
func (m ShippingMethod) IsValid() bool {
	return m == ShippingMethodDelivery || m == ShippingMethodPickup
}
