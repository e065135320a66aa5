package enums

// UserRole separates back-office staff from storefront customers.
type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleCustomer UserRole = "customer"
)

// IsValid reports whether the role is known.
func (r UserRole) IsValid() bool {
	return r == UserRoleAdmin || r == UserRoleCustomer
}
