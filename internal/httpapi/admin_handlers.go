package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"motordesk.io/internal/admin"
	"motordesk.io/internal/audit"
	"motordesk.io/internal/obs"
	"motordesk.io/internal/ratelimit"
)

const setupTokenHeader = "X-Setup-Token"

type adminSetupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type adminLoginRequest struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createAdminRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Master   bool   `json:"master"`
}

type setAdminActiveRequest struct {
	Active *bool `json:"active"`
}

type adminProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type adminPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// handleAdminSetup creates the first administrator while the credential
// table is empty, gated by the out-of-band setup token.
func (a *API) handleAdminSetup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req adminSetupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.admin.Bootstrap(r.Context(), clientIP(r),
		r.Header.Get(setupTokenHeader), req.Email, req.Name, req.Password)
	if err != nil {
		var locked *ratelimit.LockedError
		if errors.As(err, &locked) {
			obs.ObserveLockout("setup")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(locked.RetryAfter.Seconds())+1))
			writeError(w, r, http.StatusTooManyRequests, locked.Error())
			return
		}
		writeAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.setup", map[string]any{
		"admin_id": created.ID,
		"master":   created.Master,
	})
	writeJSON(w, http.StatusCreated, created)
}

// handleAdminLogin accepts either an opaque bearer token or an
// email+password pair; both paths share the same lockout ledger and the
// same generic failure message.
func (a *API) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req adminLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	token, adm, err := a.admin.Login(r.Context(), clientIP(r), admin.LoginRequest{
		Token:    req.Token,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.login", map[string]any{
		"admin_id": adm.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"token":         token,
		"administrator": adm,
	})
}

func (a *API) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	_, sess, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	if err := a.admin.Logout(r.Context(), sess); err != nil {
		writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleAdministrators(w http.ResponseWriter, r *http.Request) {
	adm, _, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		admins, err := a.admin.List(r.Context(), adm)
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"administrators": admins})
	case http.MethodPost:
		var req createAdminRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		created, token, err := a.admin.Create(r.Context(), adm, req.Email, req.Name, req.Password, req.Master)
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "admin.create", map[string]any{
			"admin_id":   adm.ID,
			"created_id": created.ID,
			"master":     created.Master,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/admin/administrators/%s", created.ID))
		writeJSON(w, http.StatusCreated, map[string]any{
			"administrator": created,
			"token":         token,
		})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAdministratorScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/admin/administrators/")
	path = strings.Trim(path, "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		a.setAdministratorActive(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "token":
		a.regenerateAdministratorToken(w, r, parts[0])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) setAdministratorActive(w http.ResponseWriter, r *http.Request, targetID string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	adm, _, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	var req setAdminActiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Active == nil {
		writeError(w, r, http.StatusBadRequest, "active is required")
		return
	}
	target, err := a.admin.SetActive(r.Context(), adm, targetID, *req.Active)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.set_active", map[string]any{
		"admin_id":  adm.ID,
		"target_id": target.ID,
		"active":    target.Active,
	})
	writeJSON(w, http.StatusOK, target)
}

func (a *API) regenerateAdministratorToken(w http.ResponseWriter, r *http.Request, targetID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	adm, _, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	token, err := a.admin.RegenerateToken(r.Context(), adm, targetID)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.token.regenerate", map[string]any{
		"admin_id":  adm.ID,
		"target_id": targetID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

func (a *API) handleAdminProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	adm, _, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	var req adminProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.admin.UpdateProfile(r.Context(), adm, admin.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleAdminPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	adm, _, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	var req adminPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.admin.ChangePassword(r.Context(), adm, req.CurrentPassword, req.NewPassword); err != nil {
		writeAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.password.change", map[string]any{
		"admin_id": adm.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
