package crm

// UserRole is the account-level role of a user
type UserRole string

const (
	// RoleSalesRep is the default role: sees and edits only deals/tasks they own
	RoleSalesRep UserRole = "sales_rep"
	// RoleAdmin has full access to every resource inside its own account.
	// Admin is account scoped, never global.
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleSalesRep, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role grants the account wide bypass
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{RoleSalesRep, RoleAdmin}
}

// ParseRole safely parses a string into a UserRole, rejecting anything
// outside the fixed enum
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
