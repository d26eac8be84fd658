package booking

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the enumerated role an authenticated identity carries. It is
// resolved once by the auth layer and never re-derived from raw strings
// downstream.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleProvider   Role = "PROVIDER"
	RoleCustomer   Role = "CUSTOMER"
)

// IsAdmin returns true for admin and super-admin roles.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// ParseRole converts a string to a Role, returning an error if unrecognized.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleProvider, RoleCustomer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("invalid role: %s", s)
	}
}

// Actor is the authenticated identity attempting an operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}
