package enums

// OrderStatus tracks the order lifecycle state machine.
type OrderStatus string

const (
	// OrderStatusProcessing is the initial state after checkout.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped indicates the order left the bakery.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered is terminal; set by the customer confirming receipt or by an admin.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled is terminal.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid reports whether the status is a known lifecycle state.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo encodes the allowed lifecycle edges:
// processing -> shipped -> delivered, with cancellation possible from
// processing and shipped. Everything else is rejected.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusProcessing:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered || next == OrderStatusCancelled
	}
	return false
}
