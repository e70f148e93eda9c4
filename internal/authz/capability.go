package authz

import (
	"strings"

	"motordesk.io/internal/identity"
)

// Capability is a named operation checked by the gate.
type Capability string

const (
	CapManageActors   Capability = "manage-actors"
	CapViewFinancials Capability = "view-financials"
	CapApproveCosts   Capability = "approve-costs"
	CapEditPrices     Capability = "edit-prices"
	CapManageLeads    Capability = "manage-leads"
	CapViewReports    Capability = "view-reports"
)

// matrix is the single declarative source of truth for role authorization.
// Handlers consult the gate; they never re-implement role logic. Adding a
// role or capability means editing this table and nothing else.
var matrix = map[Capability][]identity.Role{
	CapManageActors:   {identity.RoleOwner, identity.RoleManager},
	CapViewFinancials: {identity.RoleOwner, identity.RoleManager},
	CapApproveCosts:   {identity.RoleOwner, identity.RoleManager},
	CapEditPrices:     {identity.RoleOwner, identity.RoleManager, identity.RoleSales},
	CapManageLeads:    {identity.RoleOwner, identity.RoleManager, identity.RoleSales},
	CapViewReports:    {identity.RoleOwner, identity.RoleManager, identity.RoleSales, identity.RoleStaff},
}

// broadRoles may access any actor's data within their own tenant. Everyone
// else is limited to their own record.
var broadRoles = map[identity.Role]struct{}{
	identity.RoleOwner:   {},
	identity.RoleManager: {},
}

// Capabilities lists every defined capability in stable order.
func Capabilities() []Capability {
	return []Capability{
		CapManageActors,
		CapViewFinancials,
		CapApproveCosts,
		CapEditPrices,
		CapManageLeads,
		CapViewReports,
	}
}

// Known reports whether key names a defined capability.
func Known(key string) bool {
	_, ok := matrix[Capability(key)]
	return ok
}

// ParseCapability validates a capability key supplied on the wire.
func ParseCapability(raw string) (Capability, bool) {
	key := Capability(strings.TrimSpace(strings.ToLower(raw)))
	_, ok := matrix[key]
	return key, ok
}

// RolesFor returns the statically configured set of roles permitted for the
// capability. The returned slice is a copy.
func RolesFor(capability Capability) []identity.Role {
	roles := matrix[capability]
	return append([]identity.Role(nil), roles...)
}

// RoleAllows reports whether the role's baseline includes the capability.
// Per-actor overrides are layered on by the gate, never here.
func RoleAllows(role identity.Role, capability Capability) bool {
	for _, r := range matrix[capability] {
		if r == role {
			return true
		}
	}
	return false
}
