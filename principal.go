package crm

import "github.com/google/uuid"

// Principal is the resolved, trusted identity + role + account context for one
// request. It is never persisted; every request re-derives it from the local
// store so stale or forged role claims cannot leak into authorization.
type Principal struct {
	UserID    uuid.UUID
	AccountID uuid.UUID
	Role      UserRole
}

// IsZero reports whether the principal was never resolved
func (p Principal) IsZero() bool {
	return p.UserID == uuid.Nil
}

// IsAdmin reports whether the principal carries the account admin role
func (p Principal) IsAdmin() bool {
	return p.Role.IsAdmin()
}

// SubjectClaims carries the identity attributes we accept from a verified
// external token. Role and account are deliberately absent: they come from
// the local user store only.
type SubjectClaims struct {
	Subject string
	Name    string
	Email   string
}
