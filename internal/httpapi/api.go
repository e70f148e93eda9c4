package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"motordesk.io/internal/admin"
	"motordesk.io/internal/authz"
	"motordesk.io/internal/identity"
	"motordesk.io/internal/obs"
	"motordesk.io/internal/ratelimit"
	"motordesk.io/internal/session"
)

// ReadyProbe reports readiness, pinging the database when one is attached.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps carries the services the HTTP layer fronts.
type Deps struct {
	Store       identity.Store
	Sessions    *session.Service
	Admin       *admin.Service
	LoginLedger *ratelimit.Ledger

	// Per-client request throttle. Zero values fall back to defaults.
	RateBurst  int
	RatePerSec int
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	store       identity.Store
	resolver    *authz.Resolver
	gate        *authz.Gate
	sessions    *session.Service
	admin       *admin.Service
	loginLedger *ratelimit.Ledger

	rateBurst  int
	ratePerSec int
}

func New(rp ReadyProbe, version string, deps Deps) *API {
	resolver := authz.NewResolver(deps.Store)
	a := &API{
		mux:         http.NewServeMux(),
		readyProbe:  rp,
		version:     version,
		store:       deps.Store,
		resolver:    resolver,
		gate:        authz.NewGate(resolver),
		sessions:    deps.Sessions,
		admin:       deps.Admin,
		loginLedger: deps.LoginLedger,
		rateBurst:   deps.RateBurst,
		ratePerSec:  deps.RatePerSec,
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 20
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 10
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// tenant surface
	a.mux.HandleFunc("/v1/auth/login", a.handleActorLogin)
	a.mux.HandleFunc("/v1/auth/logout", a.handleActorLogout)
	a.mux.HandleFunc("/v1/actors", a.handleActors)
	a.mux.HandleFunc("/v1/actors/", a.handleActorScoped)

	// administrator surface
	a.mux.HandleFunc("/v1/admin/setup", a.handleAdminSetup)
	a.mux.HandleFunc("/v1/admin/login", a.handleAdminLogin)
	a.mux.HandleFunc("/v1/admin/logout", a.handleAdminLogout)
	a.mux.HandleFunc("/v1/admin/administrators", a.handleAdministrators)
	a.mux.HandleFunc("/v1/admin/administrators/", a.handleAdministratorScoped)
	a.mux.HandleFunc("/v1/admin/profile", a.handleAdminProfile)
	a.mux.HandleFunc("/v1/admin/password", a.handleAdminPassword)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- health handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "motordesk-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "motordesk-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error":      msg,
		"request_id": w.Header().Get(requestIDHeader),
	})
}

// writeAuthError maps the failure taxonomy onto status codes. Cross-tenant
// scope failures are reported as not-found so callers cannot probe for the
// existence of another tenant's records.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var locked *ratelimit.LockedError
	switch {
	case errors.As(err, &locked):
		obs.ObserveLockout("login")
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(locked.RetryAfter.Seconds())+1))
		writeError(w, r, http.StatusTooManyRequests, locked.Error())
	case errors.Is(err, ratelimit.ErrLocked):
		obs.ObserveLockout("login")
		writeError(w, r, http.StatusTooManyRequests, "too many attempts")
	case errors.Is(err, authz.ErrUnauthenticated), errors.Is(err, session.ErrInvalidSession):
		obs.ObserveDenial("unauthenticated")
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, admin.ErrInvalidCredentials):
		obs.ObserveDenial("invalid_credentials")
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, authz.ErrDeactivated):
		obs.ObserveDenial("deactivated")
		writeError(w, r, http.StatusForbidden, "account deactivated")
	case errors.Is(err, authz.ErrUnassigned):
		obs.ObserveDenial("unassigned")
		writeError(w, r, http.StatusForbidden, "no tenant assignment")
	case errors.Is(err, authz.ErrForbiddenRole):
		obs.ObserveDenial("role")
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, authz.ErrForbiddenScope), errors.Is(err, authz.ErrNotOwner):
		obs.ObserveDenial("scope")
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, admin.ErrSelfDeactivation):
		writeError(w, r, http.StatusForbidden, "administrators may not deactivate themselves")
	case errors.Is(err, admin.ErrSetupClosed):
		writeError(w, r, http.StatusConflict, "setup already completed")
	case errors.Is(err, identity.ErrConflict):
		writeError(w, r, http.StatusConflict, "already exists")
	case errors.Is(err, identity.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, identity.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, strings.TrimPrefix(err.Error(), "identity: "))
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
