package authz

import (
	"context"

	"motordesk.io/internal/identity"
)

// Decision records how a gate outcome was reached. It carries enough
// structured data for an external audit logger to reconstruct the grant as
// base-role or override.
type Decision struct {
	ActorID     string
	TenantID    string
	Capability  Capability
	Role        identity.Role
	ViaOverride bool
	Allowed     bool
}

// Gate authorizes named operations against the static capability matrix.
// It re-resolves the actor from the store on every call; nothing about the
// decision is cached in the credential.
type Gate struct {
	resolver *Resolver
}

func NewGate(resolver *Resolver) *Gate {
	return &Gate{resolver: resolver}
}

// Require resolves the session and checks the capability. Overrides are
// consulted only after the base-role check fails, so a grant is always
// attributable to either the role baseline or a named override. Overrides
// can only grant capabilities the matrix already defines; they never widen
// the capability set itself.
func (g *Gate) Require(ctx context.Context, sess *identity.Session, capability Capability) (Context, Decision, error) {
	rc, err := g.resolver.Resolve(ctx, sess)
	if err != nil {
		return Context{}, Decision{Capability: capability}, err
	}
	dec := Decision{
		ActorID:    rc.ActorID,
		TenantID:   rc.TenantID,
		Capability: capability,
		Role:       rc.Role,
	}
	if RoleAllows(rc.Role, capability) {
		dec.Allowed = true
		return rc, dec, nil
	}
	if Known(string(capability)) && rc.HasOverride(capability) {
		dec.Allowed = true
		dec.ViaOverride = true
		return rc, dec, nil
	}
	return Context{}, dec, ErrForbiddenRole
}
