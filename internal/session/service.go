// Package session issues and validates credentials for both trust domains
// over the shared server-held session store. Tenant sessions are HS256 JWTs
// whose jti references a session row; administrator sessions are opaque
// id.secret tokens with only the secret's hash at rest. A credential of one
// kind never satisfies the other kind's check.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"motordesk.io/internal/identity"
	"motordesk.io/internal/ids"
)

const (
	defaultActorTTL = 12 * time.Hour
	defaultAdminTTL = 8 * time.Hour
)

// ErrInvalidSession indicates the presented credential failed validation.
var ErrInvalidSession = errors.New("session: invalid session")

// ActorClaims are the JWT claims embedded in tenant session tokens.
//
// Role and TenantID are point-in-time snapshots for client display only.
// The authorization core never reads them back; the resolver re-fetches
// both from the store on every request.
type ActorClaims struct {
	Role     string `json:"role,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// Service issues and validates sessions.
type Service struct {
	store    identity.Store
	secret   []byte
	issuer   string
	actorTTL time.Duration
	adminTTL time.Duration
	now      func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithActorTTL configures tenant session lifetime.
func WithActorTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.actorTTL = ttl
		}
	}
}

// WithAdminTTL configures administrator session lifetime.
func WithAdminTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.adminTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service signing tenant tokens with secret.
func NewService(store identity.Store, secret string, opts ...Option) (*Service, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("session: signing secret is required")
	}
	svc := &Service{
		store:    store,
		secret:   []byte(secret),
		issuer:   "motordesk",
		actorTTL: defaultActorTTL,
		adminTTL: defaultAdminTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// IssueActor creates a tenant session row and returns its signed token.
// The session id is always freshly generated; ids are never reused across
// logins, defeating fixation.
func (s *Service) IssueActor(ctx context.Context, actor *identity.Actor) (string, *identity.Session, error) {
	now := s.now().UTC()
	sess := &identity.Session{
		ID:        ids.New(),
		Kind:      identity.KindActor,
		SubjectID: actor.ID,
		ExpiresAt: now.Add(s.actorTTL),
	}
	if err := s.store.Sessions(ctx).Create(ctx, sess); err != nil {
		return "", nil, err
	}
	claims := ActorClaims{
		Role:     string(actor.Role),
		TenantID: actor.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			ID:        sess.ID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, sess, nil
}

// AuthenticateActor validates a tenant token and returns the live session
// row. Only the subject and session id are taken from the claims.
func (s *Service) AuthenticateActor(ctx context.Context, token string) (*identity.Session, error) {
	claims, err := s.parseActorToken(token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	sess, err := s.store.Sessions(ctx).Find(ctx, claims.ID)
	if err != nil {
		return nil, ErrInvalidSession
	}
	if sess.Kind != identity.KindActor || sess.Revoked || sess.Expired(s.now()) {
		return nil, ErrInvalidSession
	}
	if sess.SubjectID != claims.Subject {
		return nil, ErrInvalidSession
	}
	return sess, nil
}

func (s *Service) parseActorToken(token string) (*ActorClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidSession
	}
	parsed, err := jwt.ParseWithClaims(token, &ActorClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidSession
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidSession
	}
	claims, ok := parsed.Claims.(*ActorClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.ID) == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// IssueAdmin creates an administrator session row and returns an opaque
// id.secret token. Only the secret's hash is stored.
func (s *Service) IssueAdmin(ctx context.Context, adminID string) (string, *identity.Session, error) {
	secret, err := identity.NewOpaqueToken()
	if err != nil {
		return "", nil, err
	}
	now := s.now().UTC()
	sess := &identity.Session{
		ID:        ids.New(),
		Kind:      identity.KindAdmin,
		SubjectID: adminID,
		TokenHash: identity.HashToken(secret),
		ExpiresAt: now.Add(s.adminTTL),
	}
	if err := s.store.Sessions(ctx).Create(ctx, sess); err != nil {
		return "", nil, err
	}
	return sess.ID + "." + secret, sess, nil
}

// AuthenticateAdmin validates an opaque administrator token. The Kind
// discriminant is checked explicitly; an actor session row with a colliding
// id never passes.
func (s *Service) AuthenticateAdmin(ctx context.Context, token string) (*identity.Session, error) {
	id, secret, err := splitAdminToken(token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	sess, err := s.store.Sessions(ctx).Find(ctx, id)
	if err != nil {
		return nil, ErrInvalidSession
	}
	if sess.Kind != identity.KindAdmin || sess.Revoked || sess.Expired(s.now()) {
		return nil, ErrInvalidSession
	}
	if !identity.VerifyTokenHash(sess.TokenHash, secret) {
		return nil, ErrInvalidSession
	}
	return sess, nil
}

// Revoke marks a session unusable.
func (s *Service) Revoke(ctx context.Context, sessionID string) error {
	return s.store.Sessions(ctx).Revoke(ctx, sessionID)
}

// RevokeSubject revokes every session of one kind for a subject. Used when
// deactivating an account.
func (s *Service) RevokeSubject(ctx context.Context, kind identity.SessionKind, subjectID string) error {
	return s.store.Sessions(ctx).RevokeBySubject(ctx, kind, subjectID)
}

func splitAdminToken(raw string) (id, secret string, err error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("invalid token format")
	}
	return parts[0], parts[1], nil
}
