package domain

// Role is the role of an authenticated caller.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the principal has the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAct reports whether the principal may act on a resource owned by customerID.
func (p Principal) CanAct(customerID string) bool {
	return p.IsAdmin() || (p.ID != "" && p.ID == customerID)
}
