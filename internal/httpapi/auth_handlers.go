package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"motordesk.io/internal/admin"
	"motordesk.io/internal/audit"
	"motordesk.io/internal/identity"
)

type actorLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type actorLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ActorID   string    `json:"actor_id"`
	TenantID  string    `json:"tenant_id"`
	Role      string    `json:"role"`
}

// handleActorLogin authenticates a tenant actor with email+password and
// issues a session token. Shares the lockout ledger with the administrator
// login path so abuse signal accumulates across both.
func (a *API) handleActorLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	origin := clientIP(r)
	if err := a.loginLedger.Attempt(origin); err != nil {
		writeAuthError(w, r, err)
		return
	}

	var req actorLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.loginLedger.Forgive(origin)
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		a.loginLedger.Forgive(origin)
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	actor, err := a.store.Actors(r.Context()).FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			writeAuthError(w, r, admin.ErrInvalidCredentials)
			return
		}
		a.loginLedger.Forgive(origin)
		writeAuthError(w, r, err)
		return
	}
	if !actor.Active || identity.VerifyPassword(actor.PasswordHash, req.Password) != nil {
		writeAuthError(w, r, admin.ErrInvalidCredentials)
		return
	}
	a.loginLedger.Reset(origin)

	token, sess, err := a.sessions.IssueActor(r.Context(), actor)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.actor.login", map[string]any{
		"actor_id":  actor.ID,
		"tenant_id": actor.TenantID,
	})
	writeJSON(w, http.StatusOK, actorLoginResponse{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		ActorID:   actor.ID,
		TenantID:  actor.TenantID,
		Role:      string(actor.Role),
	})
}

// handleActorLogout revokes the presented session.
func (a *API) handleActorLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	sess, err := a.actorSession(r)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	if err := a.sessions.Revoke(r.Context(), sess.ID); err != nil {
		writeAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.actor.logout", map[string]any{
		"actor_id": sess.SubjectID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
