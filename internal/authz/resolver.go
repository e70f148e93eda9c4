package authz

import (
	"context"
	"errors"
	"fmt"

	"motordesk.io/internal/identity"
)

// Resolver turns an authenticated session into a fresh, store-verified
// request context. It performs no authentication itself; the session must
// already have been validated by the session layer.
//
// The resolver never reads tenant or role data out of the session token.
// Token claims can outlive store-side role changes and revocations, so the
// store record keyed by actor id is the only authority consulted.
type Resolver struct {
	store identity.Store
}

func NewResolver(store identity.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve fetches the actor referenced by the session and verifies it is
// assigned and active. Failures are terminal for the request; none retried.
func (r *Resolver) Resolve(ctx context.Context, sess *identity.Session) (Context, error) {
	if sess == nil || sess.Kind != identity.KindActor {
		return Context{}, ErrUnauthenticated
	}
	actor, err := r.store.Actors(ctx).Find(ctx, sess.SubjectID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return Context{}, fmt.Errorf("%w: actor %s", identity.ErrNotFound, sess.SubjectID)
		}
		// Fail closed: an unreachable store is an authorization failure,
		// never an implicit allow.
		return Context{}, err
	}
	if actor.TenantID == "" {
		return Context{}, ErrUnassigned
	}
	if !actor.Active {
		return Context{}, ErrDeactivated
	}
	return Context{
		ActorID:   actor.ID,
		TenantID:  actor.TenantID,
		Role:      actor.Role,
		Overrides: append([]string(nil), actor.Overrides...),
		Email:     actor.Email,
		Name:      actor.Name,
		SessionID: sess.ID,
	}, nil
}
