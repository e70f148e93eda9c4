package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                      "/",
		"/metrics":                              "/metrics",
		"/v1/actors/01HZX3":                     "/v1/actors/:id",
		"/v1/actors/01HZX3/overrides":           "/v1/actors/:id/overrides",
		"/v1/admin/administrators/01HZX3":       "/v1/admin/administrators/:id",
		"/v1/admin/administrators/01HZX3/token": "/v1/admin/administrators/:id/token",
		"/v1/admin/login":                       "/v1/admin/login",
		"/v1/actors?limit=10":                   "/v1/actors",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
