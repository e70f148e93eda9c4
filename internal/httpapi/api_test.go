package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"motordesk.io/internal/admin"
	"motordesk.io/internal/identity"
	"motordesk.io/internal/ratelimit"
	"motordesk.io/internal/session"
)

const testSetupToken = "install-secret"

type testEnv struct {
	api      *API
	handler  http.Handler
	store    identity.Store
	sessions *session.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := identity.NewInMemory()
	sessions, err := session.NewService(store, "test-signing-secret")
	if err != nil {
		t.Fatalf("session.NewService: %v", err)
	}
	loginLedger := ratelimit.NewLedger(5, 15*time.Minute)
	adminSvc, err := admin.NewService(admin.Config{
		Store:       store,
		Sessions:    sessions,
		LoginLedger: loginLedger,
		SetupLedger: ratelimit.NewLedger(3, 30*time.Minute),
		SetupToken:  testSetupToken,
	})
	if err != nil {
		t.Fatalf("admin.NewService: %v", err)
	}
	api := New(ReadyProbe{}, "test", Deps{
		Store:       store,
		Sessions:    sessions,
		Admin:       adminSvc,
		LoginLedger: loginLedger,
		RateBurst:   1000,
		RatePerSec:  1000,
	})
	return &testEnv{api: api, handler: api.Handler(), store: store, sessions: sessions}
}

// seedActor creates an actor whose password is its email's local part plus
// "-password".
func (e *testEnv) seedActor(t *testing.T, tenantID, email string, role identity.Role, overrides ...string) *identity.Actor {
	t.Helper()
	hash, err := identity.HashPassword(passwordFor(email))
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	a := &identity.Actor{
		TenantID:     tenantID,
		Email:        email,
		Name:         "Test Actor",
		Role:         role,
		Overrides:    overrides,
		Active:       true,
		PasswordHash: hash,
	}
	if err := e.store.Actors(context.Background()).Create(context.Background(), a); err != nil {
		t.Fatalf("seed actor: %v", err)
	}
	return a
}

func passwordFor(email string) string {
	for i := range email {
		if email[i] == '@' {
			return email[:i] + "-password"
		}
	}
	return email + "-password"
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) loginActor(t *testing.T, email string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": passwordFor(email),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("actor login: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
}

func TestHealthAndInfo(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz", "/v1/info"} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
	}

	rec := env.do(t, http.MethodGet, "/no/such/route", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route = %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("error response missing request id")
	}
}

func TestUnauthenticatedRequests(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/actors", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("missing WWW-Authenticate challenge")
	}

	rec = env.do(t, http.MethodGet, "/v1/actors", "not-a-real-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token = %d", rec.Code)
	}
}
