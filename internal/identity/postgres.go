package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"motordesk.io/internal/ids"
)

const pgErrUniqueViolation = "23505"

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Actors(context.Context) ActorStore { return &actorStore{db: s.db} }
func (s *PGStore) Administrators(context.Context) AdministratorStore {
	return &adminStore{db: s.db}
}
func (s *PGStore) Sessions(context.Context) SessionStore { return &sessionStore{db: s.db} }

// Actor store ---------------------------------------------------------------
type actorStore struct{ db *sql.DB }

const actorColumns = `id, tenant_id, email, name, phone, role, overrides, active, password_hash, created_at, updated_at`

func (s *actorStore) Create(ctx context.Context, a *Actor) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	overrides, _ := json.Marshal(a.Overrides)
	_, err := s.db.ExecContext(ctx,
		`insert into actors(id, tenant_id, email, name, phone, role, overrides, active, password_hash)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.TenantID, a.Email, a.Name, a.Phone, string(a.Role), overrides, a.Active, a.PasswordHash,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *actorStore) Find(ctx context.Context, id string) (*Actor, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+actorColumns+` from actors where id=$1`, id)
	return scanActor(row)
}

func (s *actorStore) FindByEmail(ctx context.Context, email string) (*Actor, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+actorColumns+` from actors where email=$1`, email)
	return scanActor(row)
}

func (s *actorStore) ListByTenant(ctx context.Context, tenantID string) ([]*Actor, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+actorColumns+` from actors where tenant_id=$1 order by created_at`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actors []*Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		actors = append(actors, a)
	}
	return actors, rows.Err()
}

// Update persists mutable actor fields. tenant_id is deliberately absent
// from the statement: the tenant binding is immutable.
func (s *actorStore) Update(ctx context.Context, a *Actor) error {
	overrides, _ := json.Marshal(a.Overrides)
	res, err := s.db.ExecContext(ctx,
		`update actors set email=$2, name=$3, phone=$4, role=$5, overrides=$6, active=$7, password_hash=$8, updated_at=now()
		 where id=$1`,
		a.ID, a.Email, a.Name, a.Phone, string(a.Role), overrides, a.Active, a.PasswordHash,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (*Actor, error) {
	var (
		a         Actor
		role      string
		overrides []byte
	)
	err := row.Scan(&a.ID, &a.TenantID, &a.Email, &a.Name, &a.Phone, &role, &overrides,
		&a.Active, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Role = Role(role)
	_ = json.Unmarshal(overrides, &a.Overrides)
	return &a, nil
}

// Administrator store -------------------------------------------------------
type adminStore struct{ db *sql.DB }

const adminColumns = `id, email, name, password_hash, token_hash, master, active, last_login_at, created_at, updated_at`

func (s *adminStore) Create(ctx context.Context, a *Administrator) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into administrators(id, email, name, password_hash, token_hash, master, active)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.Email, a.Name, a.PasswordHash, a.TokenHash, a.Master, a.Active,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *adminStore) Find(ctx context.Context, id string) (*Administrator, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+adminColumns+` from administrators where id=$1`, id)
	return scanAdministrator(row)
}

func (s *adminStore) FindByEmail(ctx context.Context, email string) (*Administrator, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+adminColumns+` from administrators where email=$1`, email)
	return scanAdministrator(row)
}

func (s *adminStore) FindByTokenHash(ctx context.Context, hash string) (*Administrator, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+adminColumns+` from administrators where token_hash=$1`, hash)
	return scanAdministrator(row)
}

func (s *adminStore) List(ctx context.Context) ([]*Administrator, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+adminColumns+` from administrators order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []*Administrator
	for rows.Next() {
		a, err := scanAdministrator(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

func (s *adminStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `select count(*) from administrators`).Scan(&n)
	return n, err
}

func (s *adminStore) Update(ctx context.Context, a *Administrator) error {
	res, err := s.db.ExecContext(ctx,
		`update administrators set email=$2, name=$3, password_hash=$4, token_hash=$5, master=$6, active=$7, last_login_at=$8, updated_at=now()
		 where id=$1`,
		a.ID, a.Email, a.Name, a.PasswordHash, a.TokenHash, a.Master, a.Active, a.LastLoginAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

func scanAdministrator(row rowScanner) (*Administrator, error) {
	var a Administrator
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.TokenHash,
		&a.Master, &a.Active, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Session store -------------------------------------------------------------
type sessionStore struct{ db *sql.DB }

func (s *sessionStore) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into sessions(id, kind, subject_id, token_hash, expires_at)
		 values($1,$2,$3,$4,$5)`,
		sess.ID, string(sess.Kind), sess.SubjectID, sess.TokenHash, sess.ExpiresAt,
	)
	return err
}

func (s *sessionStore) Find(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, kind, subject_id, token_hash, expires_at, created_at, revoked from sessions where id=$1`, id)
	var (
		sess Session
		kind string
	)
	err := row.Scan(&sess.ID, &kind, &sess.SubjectID, &sess.TokenHash,
		&sess.ExpiresAt, &sess.CreatedAt, &sess.Revoked)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sess.Kind = SessionKind(kind)
	return &sess, nil
}

func (s *sessionStore) Revoke(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `update sessions set revoked=true where id=$1`, id)
	return err
}

func (s *sessionStore) RevokeBySubject(ctx context.Context, kind SessionKind, subjectID string) error {
	_, err := s.db.ExecContext(ctx,
		`update sessions set revoked=true where kind=$1 and subject_id=$2`, string(kind), subjectID)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
