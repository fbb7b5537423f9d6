package auth

// Role is the coarse permission level carried in the access token.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Principal is the authenticated caller. Core operations take it as an
// explicit argument instead of reading request state.
type Principal struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the principal has administrator rights.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Owns reports whether the principal is the given customer.
func (p Principal) Owns(customerID string) bool {
	return p.ID != "" && p.ID == customerID
}
