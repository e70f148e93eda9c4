package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"motordesk.io/internal/audit"
	"motordesk.io/internal/authz"
	"motordesk.io/internal/identity"
)

type createActorRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type updateActorRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Role   *string `json:"role"`
	Active *bool   `json:"active"`
}

type setOverridesRequest struct {
	Overrides []string `json:"overrides"`
}

func (a *API) handleActors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listActors(w, r)
	case http.MethodPost:
		a.createActor(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listActors(w http.ResponseWriter, r *http.Request) {
	rc, ok := a.requireCapability(w, r, authz.CapManageActors)
	if !ok {
		return
	}
	actors, err := a.store.Actors(r.Context()).ListByTenant(r.Context(), rc.TenantID)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actors": actors})
}

// createActor provisions an actor in the requester's own tenant. The tenant
// binding is taken from the resolved context, never from the request body.
func (a *API) createActor(w http.ResponseWriter, r *http.Request) {
	rc, ok := a.requireCapability(w, r, authz.CapManageActors)
	if !ok {
		return
	}
	var req createActorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || !strings.Contains(email, "@") || name == "" {
		writeError(w, r, http.StatusBadRequest, "valid email and name are required")
		return
	}
	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	actor := &identity.Actor{
		TenantID:     rc.TenantID,
		Email:        email,
		Name:         name,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         role,
		Active:       true,
		PasswordHash: hash,
	}
	if err := a.store.Actors(r.Context()).Create(r.Context(), actor); err != nil {
		writeAuthError(w, r, err)
		return
	}
	ctx := authz.WithResolved(r.Context(), rc)
	_ = audit.LogEvent(ctx, "actor.create", map[string]any{
		"created_id": actor.ID,
		"role":       string(actor.Role),
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/actors/%s", actor.ID))
	writeJSON(w, http.StatusCreated, actor)
}

func (a *API) handleActorScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/actors/")
	path = strings.Trim(path, "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		a.handleActor(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "overrides":
		a.handleActorOverrides(w, r, parts[0])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleActor(w http.ResponseWriter, r *http.Request, actorID string) {
	switch r.Method {
	case http.MethodGet:
		a.getActor(w, r, actorID)
	case http.MethodPatch:
		a.updateActor(w, r, actorID)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) getActor(w http.ResponseWriter, r *http.Request, actorID string) {
	rc, ok := a.resolveActor(w, r)
	if !ok {
		return
	}
	target, err := a.fetchTenantActor(w, r, rc, actorID)
	if err != nil {
		return
	}
	if !authz.CanAccessActorData(rc.Role, rc.ActorID, target.ID) {
		writeAuthError(w, r, authz.ErrNotOwner)
		return
	}
	writeJSON(w, http.StatusOK, target)
}

func (a *API) updateActor(w http.ResponseWriter, r *http.Request, actorID string) {
	rc, ok := a.requireCapability(w, r, authz.CapManageActors)
	if !ok {
		return
	}
	target, err := a.fetchTenantActor(w, r, rc, actorID)
	if err != nil {
		return
	}
	var req updateActorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, r, http.StatusBadRequest, "name is required")
			return
		}
		target.Name = name
	}
	if req.Phone != nil {
		target.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Role != nil {
		role, err := identity.ParseRole(*req.Role)
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		target.Role = role
	}
	if req.Active != nil {
		target.Active = *req.Active
	}
	if err := a.store.Actors(r.Context()).Update(r.Context(), target); err != nil {
		writeAuthError(w, r, err)
		return
	}
	if req.Active != nil && !*req.Active {
		// Revoke live sessions so the flip takes effect before the next
		// resolver pass even lands.
		_ = a.sessions.RevokeSubject(r.Context(), identity.KindActor, target.ID)
	}
	ctx := authz.WithResolved(r.Context(), rc)
	_ = audit.LogEvent(ctx, "actor.update", map[string]any{
		"target_id": target.ID,
		"role":      string(target.Role),
		"active":    target.Active,
	})
	writeJSON(w, http.StatusOK, target)
}

// handleActorOverrides replaces an actor's capability override set.
// Overrides may only grant capabilities the matrix already defines; the
// role table remains the authoritative floor and overrides never revoke it.
func (a *API) handleActorOverrides(w http.ResponseWriter, r *http.Request, actorID string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	rc, ok := a.requireCapability(w, r, authz.CapManageActors)
	if !ok {
		return
	}
	target, err := a.fetchTenantActor(w, r, rc, actorID)
	if err != nil {
		return
	}
	var req setOverridesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	overrides := make([]string, 0, len(req.Overrides))
	seen := make(map[string]struct{}, len(req.Overrides))
	for _, raw := range req.Overrides {
		capability, ok := authz.ParseCapability(raw)
		if !ok {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown capability %q", raw))
			return
		}
		if _, dup := seen[string(capability)]; dup {
			continue
		}
		seen[string(capability)] = struct{}{}
		overrides = append(overrides, string(capability))
	}
	target.Overrides = overrides
	if err := a.store.Actors(r.Context()).Update(r.Context(), target); err != nil {
		writeAuthError(w, r, err)
		return
	}
	ctx := authz.WithResolved(r.Context(), rc)
	_ = audit.LogEvent(ctx, "actor.overrides.set", map[string]any{
		"target_id": target.ID,
		"overrides": overrides,
	})
	writeJSON(w, http.StatusOK, target)
}

// fetchTenantActor loads an actor and enforces tenant scope. A record in
// another tenant is reported as not-found, indistinguishable from a missing
// one, so existence never leaks across the boundary.
func (a *API) fetchTenantActor(w http.ResponseWriter, r *http.Request, rc authz.Context, actorID string) (*identity.Actor, error) {
	target, err := a.store.Actors(r.Context()).Find(r.Context(), actorID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not found")
		} else {
			writeAuthError(w, r, err)
		}
		return nil, err
	}
	if err := authz.AssertSameTenant(target.TenantID, rc.TenantID); err != nil {
		writeError(w, r, http.StatusNotFound, "not found")
		return nil, err
	}
	return target, nil
}
