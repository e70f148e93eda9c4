package identity

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		got, err := ParseRole(string(r))
		if err != nil || got != r {
			t.Fatalf("ParseRole(%s) = %s, %v", r, got, err)
		}
	}
	if got, err := ParseRole(" Manager "); err != nil || got != RoleManager {
		t.Fatalf("ParseRole with whitespace: %s, %v", got, err)
	}
	if _, err := ParseRole("superuser"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown role accepted: %v", err)
	}
	if Role("superuser").Valid() {
		t.Fatal("arbitrary role valid")
	}
}
