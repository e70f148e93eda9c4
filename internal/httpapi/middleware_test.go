package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDGenerated(t *testing.T) {
	var inner http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequestID(inner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("no request id assigned")
	}

	// a caller-provided id is echoed back untouched
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "caller-id-1")
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "caller-id-1" {
		t.Fatalf("request id rewritten: %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestRateLimitPerClient(t *testing.T) {
	h := RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), 2, 1)

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/info", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if send("203.0.113.1") != http.StatusOK || send("203.0.113.1") != http.StatusOK {
		t.Fatal("burst requests rejected")
	}
	if got := send("203.0.113.1"); got != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past burst, got %d", got)
	}
	// a different client has its own bucket
	if got := send("203.0.113.2"); got != http.StatusOK {
		t.Fatalf("fresh client throttled: %d", got)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4242"
	if got := clientIP(req); got != "192.0.2.7" {
		t.Fatalf("clientIP = %q", got)
	}

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	if got := clientIP(req); got != "198.51.100.1" {
		t.Fatalf("clientIP with XFF = %q", got)
	}
}
