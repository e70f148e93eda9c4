package identity

import "context"

// Store describes persistence operations required by the authorization core.
type Store interface {
	Actors(ctx context.Context) ActorStore
	Administrators(ctx context.Context) AdministratorStore
	Sessions(ctx context.Context) SessionStore
}

// ActorStore manages tenant actors.
//
// Update never touches TenantID; once assigned the tenant binding is
// immutable. Actors are deactivated with SetActive, never deleted.
type ActorStore interface {
	Create(ctx context.Context, a *Actor) error
	Find(ctx context.Context, id string) (*Actor, error)
	FindByEmail(ctx context.Context, email string) (*Actor, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*Actor, error)
	Update(ctx context.Context, a *Actor) error
}

// AdministratorStore manages platform operator credentials.
type AdministratorStore interface {
	Create(ctx context.Context, a *Administrator) error
	Find(ctx context.Context, id string) (*Administrator, error)
	FindByEmail(ctx context.Context, email string) (*Administrator, error)
	FindByTokenHash(ctx context.Context, hash string) (*Administrator, error)
	List(ctx context.Context) ([]*Administrator, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, a *Administrator) error
}

// SessionStore manages server-held sessions for both trust domains.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	Find(ctx context.Context, id string) (*Session, error)
	Revoke(ctx context.Context, id string) error
	RevokeBySubject(ctx context.Context, kind SessionKind, subjectID string) error
}
