package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInMemoryActorLifecycle(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	a := &Actor{TenantID: "t1", Email: "s@dealer.example", Name: "Sam", Role: RoleSales, Active: true}
	if err := store.Actors(ctx).Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID == "" {
		t.Fatal("no id assigned")
	}

	got, err := store.Actors(ctx).FindByEmail(ctx, "s@dealer.example")
	if err != nil || got.ID != a.ID {
		t.Fatalf("FindByEmail: %+v, %v", got, err)
	}

	// returned records are copies; mutating them must not leak into the store
	got.Name = "Mallory"
	again, _ := store.Actors(ctx).Find(ctx, a.ID)
	if again.Name != "Sam" {
		t.Fatal("store record mutated through a read copy")
	}
}

func TestInMemoryDuplicateEmail(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	if err := store.Actors(ctx).Create(ctx, &Actor{TenantID: "t1", Email: "d@dealer.example", Role: RoleStaff}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := store.Actors(ctx).Create(ctx, &Actor{TenantID: "t2", Email: "d@dealer.example", Role: RoleStaff})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestInMemoryUpdateKeepsTenant(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	a := &Actor{TenantID: "t1", Email: "s@dealer.example", Role: RoleSales, Active: true}
	if err := store.Actors(ctx).Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	a.TenantID = "t2"
	a.Name = "Renamed"
	if err := store.Actors(ctx).Update(ctx, a); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := store.Actors(ctx).Find(ctx, a.ID)
	if got.TenantID != "t1" {
		t.Fatalf("tenant binding changed to %q", got.TenantID)
	}
	if got.Name != "Renamed" {
		t.Fatal("legitimate field update lost")
	}
}

func TestInMemoryListByTenant(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	for _, email := range []string{"a@d.example", "b@d.example"} {
		if err := store.Actors(ctx).Create(ctx, &Actor{TenantID: "t1", Email: email, Role: RoleStaff}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := store.Actors(ctx).Create(ctx, &Actor{TenantID: "t2", Email: "c@d.example", Role: RoleStaff}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := store.Actors(ctx).ListByTenant(ctx, "t1")
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByTenant: %d, %v", len(list), err)
	}
}

func TestInMemoryRevokeBySubjectMatchesKind(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	sessions := []*Session{
		{ID: "s1", Kind: KindActor, SubjectID: "x", ExpiresAt: exp},
		{ID: "s2", Kind: KindAdmin, SubjectID: "x", ExpiresAt: exp},
	}
	for _, s := range sessions {
		if err := store.Sessions(ctx).Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := store.Sessions(ctx).RevokeBySubject(ctx, KindActor, "x"); err != nil {
		t.Fatalf("RevokeBySubject: %v", err)
	}

	s1, _ := store.Sessions(ctx).Find(ctx, "s1")
	s2, _ := store.Sessions(ctx).Find(ctx, "s2")
	if !s1.Revoked {
		t.Fatal("actor session survived revocation")
	}
	if s2.Revoked {
		t.Fatal("admin session revoked by actor-kind sweep")
	}
}
