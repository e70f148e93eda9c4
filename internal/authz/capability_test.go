package authz

import (
	"testing"

	"motordesk.io/internal/identity"
)

func TestMatrixBaselines(t *testing.T) {
	cases := []struct {
		role       identity.Role
		capability Capability
		want       bool
	}{
		{identity.RoleOwner, CapManageActors, true},
		{identity.RoleManager, CapViewFinancials, true},
		{identity.RoleSales, CapManageActors, false},
		{identity.RoleSales, CapEditPrices, true},
		{identity.RoleSales, CapApproveCosts, false},
		{identity.RoleStaff, CapViewReports, true},
		{identity.RoleStaff, CapManageLeads, false},
		{identity.RoleStaff, CapViewFinancials, false},
	}
	for _, tc := range cases {
		if got := RoleAllows(tc.role, tc.capability); got != tc.want {
			t.Errorf("RoleAllows(%s, %s) = %v, want %v", tc.role, tc.capability, got, tc.want)
		}
	}
}

func TestParseCapability(t *testing.T) {
	if capability, ok := ParseCapability("  Manage-Actors "); !ok || capability != CapManageActors {
		t.Fatalf("expected manage-actors, got %q ok=%v", capability, ok)
	}
	if _, ok := ParseCapability("launch-rockets"); ok {
		t.Fatal("unknown capability accepted")
	}
}

func TestRolesForReturnsCopy(t *testing.T) {
	roles := RolesFor(CapManageActors)
	roles[0] = identity.RoleStaff
	if RoleAllows(identity.RoleStaff, CapManageActors) {
		t.Fatal("mutating RolesFor result changed the matrix")
	}
}

func TestEveryCapabilityHasRoles(t *testing.T) {
	for _, capability := range Capabilities() {
		if len(RolesFor(capability)) == 0 {
			t.Errorf("capability %s has no roles", capability)
		}
		if !Known(string(capability)) {
			t.Errorf("capability %s not known", capability)
		}
	}
}
