package authz

import "motordesk.io/internal/identity"

// AssertSameTenant fails when an entity's tenant differs from the actor's.
// It must run before any read or write touching a tenant-scoped entity.
func AssertSameTenant(entityTenantID, actorTenantID string) error {
	if entityTenantID == "" || actorTenantID == "" || entityTenantID != actorTenantID {
		return ErrForbiddenScope
	}
	return nil
}

// AssertOwnership fails when an entity scoped to an individual actor is
// touched by anyone else.
func AssertOwnership(entityOwnerID, actorID string) error {
	if entityOwnerID == "" || actorID == "" || entityOwnerID != actorID {
		return ErrNotOwner
	}
	return nil
}

// CanAccessActorData reports whether a requester may read another actor's
// record within the same tenant. Broad management roles reach any actor;
// narrow roles reach only themselves. The broad set is table-driven: adding
// a role only requires updating broadRoles.
func CanAccessActorData(requesterRole identity.Role, requesterID, targetID string) bool {
	if requesterID == targetID {
		return true
	}
	_, broad := broadRoles[requesterRole]
	return broad
}
