// Package admin implements the platform-operator trust boundary. It is an
// identity space entirely disjoint from tenant actors: its own credential
// table, its own session kind, and its own lockout ledgers.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"motordesk.io/internal/authz"
	"motordesk.io/internal/identity"
	"motordesk.io/internal/ratelimit"
	"motordesk.io/internal/session"
)

var (
	// ErrInvalidCredentials is returned for every login failure regardless
	// of which credential was wrong, to avoid account enumeration.
	ErrInvalidCredentials = errors.New("admin: invalid credentials")
	// ErrSetupClosed is returned once an administrator already exists.
	ErrSetupClosed = errors.New("admin: setup already completed")
	// ErrSelfDeactivation guards the last-master foot-gun.
	ErrSelfDeactivation = errors.New("admin: administrators may not deactivate themselves")
)

// Service manages administrator credentials and sessions.
//
// The login and setup ledgers are injected, not global: both credential
// entry points share the login ledger's abuse signal while setup keeps its
// stricter thresholds because it gates irreversible account creation.
type Service struct {
	store       identity.Store
	sessions    *session.Service
	loginLedger *ratelimit.Ledger
	setupLedger *ratelimit.Ledger
	setupToken  string
	now         func() time.Time
}

// Config wires the service dependencies.
type Config struct {
	Store       identity.Store
	Sessions    *session.Service
	LoginLedger *ratelimit.Ledger
	SetupLedger *ratelimit.Ledger
	SetupToken  string
	Clock       func() time.Time
}

// NewService constructs the administrator service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("admin: store is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("admin: session service is required")
	}
	if cfg.LoginLedger == nil || cfg.SetupLedger == nil {
		return nil, errors.New("admin: lockout ledgers are required")
	}
	svc := &Service{
		store:       cfg.Store,
		sessions:    cfg.Sessions,
		loginLedger: cfg.LoginLedger,
		setupLedger: cfg.SetupLedger,
		setupToken:  strings.TrimSpace(cfg.SetupToken),
		now:         cfg.Clock,
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// Bootstrap creates the first administrator while the credential table is
// empty, gated by the server-held setup token. The first administrator
// created this way is always master; there is no other way to obtain the
// initial master credential.
func (s *Service) Bootstrap(ctx context.Context, origin, setupToken, email, name, password string) (*identity.Administrator, error) {
	if err := s.setupLedger.Attempt(origin); err != nil {
		return nil, err
	}
	if s.setupToken == "" ||
		subtle.ConstantTimeCompare([]byte(s.setupToken), []byte(strings.TrimSpace(setupToken))) != 1 {
		return nil, ErrInvalidCredentials
	}
	count, err := s.store.Administrators(ctx).Count(ctx)
	if err != nil {
		s.setupLedger.Forgive(origin)
		return nil, err
	}
	if count > 0 {
		return nil, ErrSetupClosed
	}
	admin, err := s.newAdministrator(email, name, password, true)
	if err != nil {
		s.setupLedger.Forgive(origin)
		return nil, err
	}
	if err := s.store.Administrators(ctx).Create(ctx, admin); err != nil {
		s.setupLedger.Forgive(origin)
		return nil, err
	}
	s.setupLedger.Reset(origin)
	return admin, nil
}

// LoginRequest carries either an opaque bearer token or an email+password
// pair; exactly one path is used per attempt.
type LoginRequest struct {
	Token    string
	Email    string
	Password string
}

// Login authenticates an administrator and issues a fresh session token.
// Both credential paths funnel through the same lockout ledger, and every
// failure returns the same generic error.
func (s *Service) Login(ctx context.Context, origin string, req LoginRequest) (string, *identity.Administrator, error) {
	if err := s.loginLedger.Attempt(origin); err != nil {
		return "", nil, err
	}
	admin, err := s.authenticate(ctx, req)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			s.loginLedger.Forgive(origin)
		}
		return "", nil, err
	}
	s.loginLedger.Reset(origin)

	ts := s.now().UTC()
	admin.LastLoginAt = &ts
	if err := s.store.Administrators(ctx).Update(ctx, admin); err != nil {
		return "", nil, err
	}
	token, _, err := s.sessions.IssueAdmin(ctx, admin.ID)
	if err != nil {
		return "", nil, err
	}
	return token, admin, nil
}

func (s *Service) authenticate(ctx context.Context, req LoginRequest) (*identity.Administrator, error) {
	admins := s.store.Administrators(ctx)

	if token := strings.TrimSpace(req.Token); token != "" {
		admin, err := admins.FindByTokenHash(ctx, identity.HashToken(token))
		if err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				return nil, ErrInvalidCredentials
			}
			return nil, err
		}
		if !admin.Active {
			return nil, ErrInvalidCredentials
		}
		return admin, nil
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}
	admin, err := admins.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !admin.Active {
		return nil, ErrInvalidCredentials
	}
	if err := identity.VerifyPassword(admin.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}

// Authenticate validates an administrator session token and re-fetches the
// credential from the store. The session's Kind discriminant is enforced by
// the session layer; deactivation takes effect on the very next request.
func (s *Service) Authenticate(ctx context.Context, token string) (*identity.Administrator, *identity.Session, error) {
	sess, err := s.sessions.AuthenticateAdmin(ctx, token)
	if err != nil {
		return nil, nil, authz.ErrUnauthenticated
	}
	admin, err := s.store.Administrators(ctx).Find(ctx, sess.SubjectID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, nil, authz.ErrUnauthenticated
		}
		return nil, nil, err
	}
	if !admin.Active {
		return nil, nil, authz.ErrDeactivated
	}
	return admin, sess, nil
}

// Logout revokes the presented session.
func (s *Service) Logout(ctx context.Context, sess *identity.Session) error {
	return s.sessions.Revoke(ctx, sess.ID)
}

// List returns all administrators. Master only.
func (s *Service) List(ctx context.Context, by *identity.Administrator) ([]*identity.Administrator, error) {
	if !by.Master {
		return nil, authz.ErrForbiddenRole
	}
	return s.store.Administrators(ctx).List(ctx)
}

// Create provisions a new administrator and returns it with its initial
// bearer token. Master only.
func (s *Service) Create(ctx context.Context, by *identity.Administrator, email, name, password string, master bool) (*identity.Administrator, string, error) {
	if !by.Master {
		return nil, "", authz.ErrForbiddenRole
	}
	admin, err := s.newAdministrator(email, name, password, master)
	if err != nil {
		return nil, "", err
	}
	token, err := identity.NewOpaqueToken()
	if err != nil {
		return nil, "", err
	}
	admin.TokenHash = identity.HashToken(token)
	if err := s.store.Administrators(ctx).Create(ctx, admin); err != nil {
		return nil, "", err
	}
	return admin, token, nil
}

// SetActive toggles another administrator's active flag. Master only, and
// never against oneself. Deactivation revokes the target's live sessions.
func (s *Service) SetActive(ctx context.Context, by *identity.Administrator, targetID string, active bool) (*identity.Administrator, error) {
	if !by.Master {
		return nil, authz.ErrForbiddenRole
	}
	if targetID == by.ID && !active {
		return nil, ErrSelfDeactivation
	}
	admins := s.store.Administrators(ctx)
	target, err := admins.Find(ctx, targetID)
	if err != nil {
		return nil, err
	}
	target.Active = active
	if err := admins.Update(ctx, target); err != nil {
		return nil, err
	}
	if !active {
		if err := s.sessions.RevokeSubject(ctx, identity.KindAdmin, target.ID); err != nil {
			return nil, err
		}
	}
	return target, nil
}

// RegenerateToken replaces an administrator's opaque bearer token without
// touching the password. Any administrator may rotate their own token;
// rotating someone else's requires master.
func (s *Service) RegenerateToken(ctx context.Context, by *identity.Administrator, targetID string) (string, error) {
	if targetID != by.ID && !by.Master {
		return "", authz.ErrForbiddenRole
	}
	admins := s.store.Administrators(ctx)
	target, err := admins.Find(ctx, targetID)
	if err != nil {
		return "", err
	}
	token, err := identity.NewOpaqueToken()
	if err != nil {
		return "", err
	}
	target.TokenHash = identity.HashToken(token)
	if err := admins.Update(ctx, target); err != nil {
		return "", err
	}
	return token, nil
}

// ProfileUpdate carries optional self-service profile changes.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// UpdateProfile applies name/email changes to the caller's own credential.
// No re-authentication is required beyond the live session.
func (s *Service) UpdateProfile(ctx context.Context, by *identity.Administrator, upd ProfileUpdate) (*identity.Administrator, error) {
	admins := s.store.Administrators(ctx)
	admin, err := admins.Find(ctx, by.ID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", identity.ErrInvalidInput)
		}
		admin.Name = name
	}
	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: valid email is required", identity.ErrInvalidInput)
		}
		admin.Email = email
	}
	if err := admins.Update(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// ChangePassword replaces the caller's password after re-verifying the
// current one.
func (s *Service) ChangePassword(ctx context.Context, by *identity.Administrator, current, next string) error {
	admins := s.store.Administrators(ctx)
	admin, err := admins.Find(ctx, by.ID)
	if err != nil {
		return err
	}
	if err := identity.VerifyPassword(admin.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := identity.HashPassword(next)
	if err != nil {
		return err
	}
	admin.PasswordHash = hash
	return admins.Update(ctx, admin)
}

func (s *Service) newAdministrator(email, name, password string, master bool) (*identity.Administrator, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", identity.ErrInvalidInput)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", identity.ErrInvalidInput)
	}
	hash, err := identity.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &identity.Administrator{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Master:       master,
		Active:       true,
	}, nil
}
