package identity

import "time"

// Actor represents a human user bound to exactly one tenant.
//
// TenantID is assigned at creation and never changes afterwards; it is the
// sole authority for tenant-scoped queries. Session tokens may carry a
// tenant or role snapshot, but nothing in this module reads it back.
type Actor struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	Overrides    []string  `json:"overrides,omitempty"`
	Active       bool      `json:"active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Administrator represents a platform operator. Administrators live outside
// any tenant and are managed only through the admin trust boundary.
type Administrator struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	TokenHash    string     `json:"-"`
	Master       bool       `json:"master"`
	Active       bool       `json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SessionKind discriminates the two trust domains sharing the session store.
type SessionKind string

const (
	KindActor SessionKind = "actor"
	KindAdmin SessionKind = "admin"
)

// Session is a server-held record referencing either an actor or an
// administrator. The Kind field is mandatory; gates must check it explicitly
// rather than inferring the domain from which fields happen to be set.
type Session struct {
	ID        string      `json:"id"`
	Kind      SessionKind `json:"kind"`
	SubjectID string      `json:"subject_id"`
	TokenHash string      `json:"-"`
	ExpiresAt time.Time   `json:"expires_at"`
	CreatedAt time.Time   `json:"created_at"`
	Revoked   bool        `json:"revoked"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// HasOverride reports whether the actor carries the named capability override.
func (a *Actor) HasOverride(key string) bool {
	for _, o := range a.Overrides {
		if o == key {
			return true
		}
	}
	return false
}
