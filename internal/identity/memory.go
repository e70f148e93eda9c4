package identity

import (
	"context"
	"sync"
	"time"

	"motordesk.io/internal/ids"
)

var _ Store = (*InMemory)(nil)

// InMemory implements Store with in-process concurrency safety. Used for
// tests and DSN-less development runs; production deployments use PGStore.
type InMemory struct {
	mu       sync.RWMutex
	actors   map[string]*Actor
	admins   map[string]*Administrator
	sessions map[string]*Session
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		actors:   make(map[string]*Actor),
		admins:   make(map[string]*Administrator),
		sessions: make(map[string]*Session),
	}
}

func (s *InMemory) Actors(context.Context) ActorStore                 { return (*memActors)(s) }
func (s *InMemory) Administrators(context.Context) AdministratorStore { return (*memAdmins)(s) }
func (s *InMemory) Sessions(context.Context) SessionStore             { return (*memSessions)(s) }

// Actors ---------------------------------------------------------------------
type memActors InMemory

func (s *memActors) Create(_ context.Context, a *Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = ids.New()
	}
	if _, ok := s.actors[a.ID]; ok {
		return ErrConflict
	}
	for _, existing := range s.actors {
		if existing.Email == a.Email {
			return ErrConflict
		}
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	s.actors[a.ID] = copyActor(a)
	return nil
}

func (s *memActors) Find(_ context.Context, id string) (*Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyActor(a), nil
}

func (s *memActors) FindByEmail(_ context.Context, email string) (*Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.actors {
		if a.Email == email {
			return copyActor(a), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memActors) ListByTenant(_ context.Context, tenantID string) ([]*Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Actor
	for _, a := range s.actors {
		if a.TenantID == tenantID {
			out = append(out, copyActor(a))
		}
	}
	return out, nil
}

func (s *memActors) Update(_ context.Context, a *Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.actors[a.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range s.actors {
		if id != a.ID && other.Email == a.Email {
			return ErrConflict
		}
	}
	updated := copyActor(a)
	updated.TenantID = existing.TenantID // immutable
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	s.actors[a.ID] = updated
	return nil
}

func copyActor(a *Actor) *Actor {
	out := *a
	if a.Overrides != nil {
		out.Overrides = append([]string(nil), a.Overrides...)
	}
	return &out
}

// Administrators -------------------------------------------------------------
type memAdmins InMemory

func (s *memAdmins) Create(_ context.Context, a *Administrator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = ids.New()
	}
	if _, ok := s.admins[a.ID]; ok {
		return ErrConflict
	}
	for _, existing := range s.admins {
		if existing.Email == a.Email {
			return ErrConflict
		}
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	s.admins[a.ID] = copyAdministrator(a)
	return nil
}

func (s *memAdmins) Find(_ context.Context, id string) (*Administrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAdministrator(a), nil
}

func (s *memAdmins) FindByEmail(_ context.Context, email string) (*Administrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if a.Email == email {
			return copyAdministrator(a), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memAdmins) FindByTokenHash(_ context.Context, hash string) (*Administrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if hash == "" {
		return nil, ErrNotFound
	}
	for _, a := range s.admins {
		if a.TokenHash == hash {
			return copyAdministrator(a), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memAdmins) List(_ context.Context) ([]*Administrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Administrator, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, copyAdministrator(a))
	}
	return out, nil
}

func (s *memAdmins) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.admins), nil
}

func (s *memAdmins) Update(_ context.Context, a *Administrator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.admins[a.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range s.admins {
		if id != a.ID && other.Email == a.Email {
			return ErrConflict
		}
	}
	updated := copyAdministrator(a)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	s.admins[a.ID] = updated
	return nil
}

func copyAdministrator(a *Administrator) *Administrator {
	out := *a
	if a.LastLoginAt != nil {
		ts := *a.LastLoginAt
		out.LastLoginAt = &ts
	}
	return &out
}

// Sessions -------------------------------------------------------------------
type memSessions InMemory

func (s *memSessions) Create(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ID == "" {
		sess.ID = ids.New()
	}
	if _, ok := s.sessions[sess.ID]; ok {
		return ErrConflict
	}
	sess.CreatedAt = time.Now().UTC()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *memSessions) Find(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *memSessions) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.Revoked = true
	}
	return nil
}

func (s *memSessions) RevokeBySubject(_ context.Context, kind SessionKind, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.Kind == kind && sess.SubjectID == subjectID {
			sess.Revoked = true
		}
	}
	return nil
}
