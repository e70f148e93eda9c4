package authz

import "errors"

// Every gate failure maps to exactly one of these sentinels so the HTTP
// layer can translate them without inspecting messages.
var (
	ErrUnauthenticated = errors.New("authz: unauthenticated")
	ErrUnassigned      = errors.New("authz: forbidden: unassigned")
	ErrDeactivated     = errors.New("authz: forbidden: deactivated")
	ErrForbiddenRole   = errors.New("authz: forbidden: role")
	ErrForbiddenScope  = errors.New("authz: forbidden: cross-tenant access")
	ErrNotOwner        = errors.New("authz: forbidden: not owner")
)
