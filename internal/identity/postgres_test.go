package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func newMockStore(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPGStore(db), mock
}

func TestActorFindScansOverrides(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "email", "name", "phone", "role", "overrides",
		"active", "password_hash", "created_at", "updated_at",
	}).AddRow("a1", "t1", "s@dealer.example", "Sam", "", "sales",
		[]byte(`["view-financials"]`), true, "hash", now, now)
	mock.ExpectQuery("select .* from actors where id=").WithArgs("a1").WillReturnRows(rows)

	a, err := store.Actors(context.Background()).Find(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if a.Role != RoleSales || len(a.Overrides) != 1 || a.Overrides[0] != "view-financials" {
		t.Fatalf("bad scan: %+v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestActorFindNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("select .* from actors where id=").WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Actors(context.Background()).Find(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActorCreateConflict(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("insert into actors").
		WithArgs(sqlmock.AnyArg(), "t1", "dup@dealer.example", "Dup", "", "staff",
			sqlmock.AnyArg(), true, "hash").
		WillReturnError(&pgconn.PgError{
			Code:           pgErrUniqueViolation,
			Message:        "duplicate key value violates unique constraint",
			ConstraintName: "actors_email_key",
		})

	err := store.Actors(context.Background()).Create(context.Background(), &Actor{
		TenantID: "t1", Email: "dup@dealer.example", Name: "Dup",
		Role: RoleStaff, Active: true, PasswordHash: "hash",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

// Conflict classification keys on the driver's typed error, never on the
// message text, so an unrelated error that merely mentions a duplicate key
// stays an infrastructure error.
func TestUniqueViolationRequiresDriverError(t *testing.T) {
	if isUniqueViolation(errors.New(`read value "duplicate key" from client`)) {
		t.Fatal("plain error text misclassified as unique violation")
	}
	if isUniqueViolation(errors.New("timeout after 23505ms")) {
		t.Fatal("error text containing the code misclassified as unique violation")
	}
	wrapped := fmt.Errorf("insert actor: %w", &pgconn.PgError{Code: pgErrUniqueViolation})
	if !isUniqueViolation(wrapped) {
		t.Fatal("wrapped driver error not recognized as unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation misclassified as unique violation")
	}
}

// The update statement never touches tenant_id.
func TestActorUpdateOmitsTenant(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`update actors set email=\$2, name=\$3, phone=\$4, role=\$5, overrides=\$6, active=\$7, password_hash=\$8, updated_at=now\(\)`).
		WithArgs("a1", "s@dealer.example", "Sam", "", "sales", sqlmock.AnyArg(), true, "hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Actors(context.Background()).Update(context.Background(), &Actor{
		ID: "a1", TenantID: "evil-new-tenant", Email: "s@dealer.example", Name: "Sam",
		Role: RoleSales, Active: true, PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestActorUpdateMissingRow(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("update actors set").
		WithArgs("ghost", "g@dealer.example", "", "", "staff", sqlmock.AnyArg(), false, "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Actors(context.Background()).Update(context.Background(), &Actor{
		ID: "ghost", Email: "g@dealer.example", Role: RoleStaff,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRevokeBySubject(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("update sessions set revoked=true where kind=").
		WithArgs("actor", "a1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := store.Sessions(context.Background()).RevokeBySubject(context.Background(), KindActor, "a1")
	if err != nil {
		t.Fatalf("RevokeBySubject: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAdministratorCount(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("select count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := store.Administrators(context.Background()).Count(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}
