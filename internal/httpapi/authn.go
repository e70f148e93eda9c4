package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"motordesk.io/internal/audit"
	"motordesk.io/internal/authz"
	"motordesk.io/internal/identity"
	"motordesk.io/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

// actorSession authenticates the tenant bearer token and returns the live
// session row. Authentication only; resolution happens in the gate.
func (a *API) actorSession(r *http.Request) (*identity.Session, error) {
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		return nil, authz.ErrUnauthenticated
	}
	return a.sessions.AuthenticateActor(r.Context(), token)
}

// resolveActor authenticates and resolves the caller without requiring a
// capability. Used by read paths that gate on scope rather than role.
func (a *API) resolveActor(w http.ResponseWriter, r *http.Request) (authz.Context, bool) {
	sess, err := a.actorSession(r)
	if err != nil {
		writeAuthError(w, r, err)
		return authz.Context{}, false
	}
	rc, err := a.resolver.Resolve(r.Context(), sess)
	if err != nil {
		writeAuthError(w, r, err)
		return authz.Context{}, false
	}
	return rc, true
}

// requireCapability authenticates the caller, re-resolves the actor from
// the store, and checks the capability against the static matrix. Every
// decision is audit-logged with enough structure to reconstruct the grant.
func (a *API) requireCapability(w http.ResponseWriter, r *http.Request, capability authz.Capability) (authz.Context, bool) {
	sess, err := a.actorSession(r)
	if err != nil {
		writeAuthError(w, r, err)
		return authz.Context{}, false
	}
	rc, dec, err := a.gate.Require(r.Context(), sess, capability)
	audit.LogDecision(audit.WithRequestID(r.Context(), w.Header().Get(requestIDHeader)), dec)
	if err != nil {
		writeAuthError(w, r, err)
		return authz.Context{}, false
	}
	return rc, true
}

// requireAdmin authenticates an administrator session. The session Kind
// discriminant is enforced down in the session layer; a tenant token never
// reaches the handler.
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) (*identity.Administrator, *identity.Session, bool) {
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		writeAuthError(w, r, authz.ErrUnauthenticated)
		return nil, nil, false
	}
	adm, sess, err := a.admin.Authenticate(r.Context(), token)
	if err != nil {
		obs.ObserveDenial("admin_unauthenticated")
		writeAuthError(w, r, err)
		return nil, nil, false
	}
	return adm, sess, true
}
