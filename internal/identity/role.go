package identity

import (
	"fmt"
	"strings"
)

// Role is the closed set of tenant-side roles. All capability checks are
// driven off this enumeration; handlers never compare raw strings.
type Role string

const (
	// RoleOwner is the tenant principal with full capability.
	RoleOwner Role = "owner"
	// RoleManager manages actors and approves operational records.
	RoleManager Role = "manager"
	// RoleSales works leads and pricing within granted capabilities.
	RoleSales Role = "sales"
	// RoleStaff is field staff limited to their own records.
	RoleStaff Role = "staff"
)

// Roles lists every defined role in privilege order, broadest first.
func Roles() []Role {
	return []Role{RoleOwner, RoleManager, RoleSales, RoleStaff}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleSales, RoleStaff:
		return true
	}
	return false
}

// ParseRole normalizes and validates a role supplied on the wire.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
	return role, nil
}
