package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

type testRole string

const (
	roleOwner   testRole = "owner"
	roleSponsor testRole = "sponsor"
)

func (r testRole) IsValid() bool  { return r == roleOwner || r == roleSponsor }
func (r testRole) String() string { return string(r) }

func TestRoleSet_Assign(t *testing.T) {
	t.Parallel()

	alice := uuid.New()
	var s RoleSet[testRole]

	if err := s.Assign(roleOwner, alice); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if !s.Has(roleOwner, alice) {
		t.Error("Has(owner, alice) = false after Assign")
	}

	err := s.Assign(roleOwner, alice)
	if !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf("second Assign() error = %v, want ErrAlreadyAssigned", err)
	}
	if !errors.Is(err, ErrInvariant) {
		t.Error("ErrAlreadyAssigned should be an invariant violation")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	if err := s.Assign("janitor", alice); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("Assign(unknown role) error = %v, want ErrInvalidRole", err)
	}
}

func TestRoleSet_Remove(t *testing.T) {
	t.Parallel()

	alice := uuid.New()
	var s RoleSet[testRole]

	if err := s.Remove(roleOwner, alice); !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("Remove() on empty set error = %v, want ErrNotAssigned", err)
	}

	_ = s.Assign(roleOwner, alice)
	if err := s.Remove(roleOwner, alice); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if s.Has(roleOwner, alice) || s.Len() != 0 {
		t.Error("assignment still present after Remove")
	}
}

func TestRoleSet_Update(t *testing.T) {
	t.Parallel()

	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	s, err := NewRoleSet(map[testRole][]uuid.UUID{
		roleOwner:   {alice},
		roleSponsor: {bob},
	})
	if err != nil {
		t.Fatalf("NewRoleSet() error = %v", err)
	}

	same := map[testRole][]uuid.UUID{roleOwner: {alice}, roleSponsor: {bob}}
	if err := s.Update(same); !errors.Is(err, ErrNoRoleChanges) {
		t.Fatalf("Update(identical) error = %v, want ErrNoRoleChanges", err)
	}
	if !errors.Is(s.Update(same), ErrNoChanges) {
		t.Error("ErrNoRoleChanges should unwrap to ErrNoChanges")
	}

	next := map[testRole][]uuid.UUID{roleOwner: {carol}, roleSponsor: {bob, alice}}
	if err := s.Update(next); err != nil {
		t.Fatalf("Update(different) error = %v", err)
	}

	if s.Has(roleOwner, alice) {
		t.Error("old owner assignment should be gone")
	}
	if !s.Has(roleOwner, carol) || !s.Has(roleSponsor, alice) || !s.Has(roleSponsor, bob) {
		t.Errorf("assignments = %v, want exactly the new mapping", s.Map())
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}

	if err := s.Update(next); !errors.Is(err, ErrNoRoleChanges) {
		t.Errorf("repeated Update() error = %v, want ErrNoRoleChanges", err)
	}
}

func TestRoleSet_UpdateClearsAll(t *testing.T) {
	t.Parallel()

	var s RoleSet[testRole]
	_ = s.Assign(roleOwner, uuid.New())

	if err := s.Update(map[testRole][]uuid.UUID{}); err != nil {
		t.Fatalf("Update(empty) error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestRoleSet_UpdateRejectsUnknownRoleAtomically(t *testing.T) {
	t.Parallel()

	alice := uuid.New()
	var s RoleSet[testRole]
	_ = s.Assign(roleOwner, alice)

	err := s.Update(map[testRole][]uuid.UUID{roleSponsor: {alice}, "janitor": {alice}})
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("Update() error = %v, want ErrInvalidRole", err)
	}
	if !s.Has(roleOwner, alice) || s.Len() != 1 {
		t.Error("failed Update must not modify the set")
	}
}

func TestNewRoleSet_InvalidRole(t *testing.T) {
	t.Parallel()

	_, err := NewRoleSet(map[testRole][]uuid.UUID{"janitor": {uuid.New()}})
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("NewRoleSet() error = %v, want ErrInvalidRole", err)
	}
}
