package authz

import (
	"context"

	"motordesk.io/internal/identity"
)

// Context is the store-verified identity bundle attached to a request.
// Every field is re-fetched from the identity store on each request; nothing
// here originates from a session token's claims.
type Context struct {
	ActorID   string
	TenantID  string
	Role      identity.Role
	Overrides []string
	Email     string
	Name      string
	SessionID string
}

// HasOverride reports whether the resolved actor carries the named
// capability override.
func (c Context) HasOverride(capability Capability) bool {
	for _, o := range c.Overrides {
		if o == string(capability) {
			return true
		}
	}
	return false
}

type resolvedContextKey struct{}

// WithResolved attaches the resolved request context for downstream handlers.
func WithResolved(ctx context.Context, rc Context) context.Context {
	return context.WithValue(ctx, resolvedContextKey{}, &rc)
}

// ResolvedFromContext extracts the resolved request context.
func ResolvedFromContext(ctx context.Context) (Context, bool) {
	if ctx == nil {
		return Context{}, false
	}
	v, ok := ctx.Value(resolvedContextKey{}).(*Context)
	if !ok || v == nil {
		return Context{}, false
	}
	return *v, true
}
