package domain

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
)

// Role rules shared by every aggregate that tracks role assignments.
var (
	ErrAlreadyAssigned   = NewRule(ErrInvariant, "AlreadyAssigned")
	ErrNotAssigned       = NewRule(ErrInvariant, "NotAssigned")
	ErrInvalidRole       = NewRule(ErrValidation, "InvalidRole")
	ErrNoRoleChanges     = NewRule(ErrNoChanges, "NoChanges")
	ErrReadOnlyAggregate = NewRule(ErrInvariant, "ReadOnlyAggregate")
)

// Role is a closed, per-aggregate enumeration of responsibilities.
type Role interface {
	comparable
	IsValid() bool
	String() string
}

// RoleSet maps roles to the set of people holding them. The zero value is an
// empty, usable set. A RoleSet is not safe for concurrent use.
type RoleSet[R Role] struct {
	assignments map[R]map[uuid.UUID]struct{}
}

// NewRoleSet builds a set from an initial mapping, rejecting unknown roles.
func NewRoleSet[R Role](initial map[R][]uuid.UUID) (RoleSet[R], error) {
	var s RoleSet[R]
	for role, people := range initial {
		if !role.IsValid() {
			return RoleSet[R]{}, ErrInvalidRole.Violationf("Role %q is not a valid role.", role.String())
		}
		for _, id := range people {
			s.add(role, id)
		}
	}
	return s, nil
}

// Assign gives role to person. It fails with ErrAlreadyAssigned when the pair
// already exists.
func (s *RoleSet[R]) Assign(role R, person uuid.UUID) error {
	if !role.IsValid() {
		return ErrInvalidRole.Violationf("Role %q is not a valid role.", role.String())
	}
	if s.Has(role, person) {
		return ErrAlreadyAssigned.Violationf("The person is already assigned to the %s role.", role.String())
	}
	s.add(role, person)
	return nil
}

// Remove takes role away from person. It fails with ErrNotAssigned when the
// pair does not exist.
func (s *RoleSet[R]) Remove(role R, person uuid.UUID) error {
	if !role.IsValid() {
		return ErrInvalidRole.Violationf("Role %q is not a valid role.", role.String())
	}
	if !s.Has(role, person) {
		return ErrNotAssigned.Violationf("The person is not assigned to the %s role.", role.String())
	}
	s.remove(role, person)
	return nil
}

// Update replaces every assignment with updated. The difference against the
// current assignments is computed first; an empty difference fails with
// ErrNoRoleChanges and leaves the set untouched.
func (s *RoleSet[R]) Update(updated map[R][]uuid.UUID) error {
	for role := range updated {
		if !role.IsValid() {
			return ErrInvalidRole.Violationf("Role %q is not a valid role.", role.String())
		}
	}

	type pair struct {
		role   R
		person uuid.UUID
	}
	var additions, removals []pair

	want := make(map[R]map[uuid.UUID]struct{}, len(updated))
	for role, people := range updated {
		for _, id := range people {
			if want[role] == nil {
				want[role] = make(map[uuid.UUID]struct{})
			}
			want[role][id] = struct{}{}
			if !s.Has(role, id) {
				additions = append(additions, pair{role, id})
			}
		}
	}
	for role, people := range s.assignments {
		for id := range people {
			if _, ok := want[role][id]; !ok {
				removals = append(removals, pair{role, id})
			}
		}
	}

	if len(additions) == 0 && len(removals) == 0 {
		return ErrNoRoleChanges.Violation("No changes were made to the roles.")
	}
	for _, p := range removals {
		s.remove(p.role, p.person)
	}
	for _, p := range additions {
		s.add(p.role, p.person)
	}
	return nil
}

// Has reports whether person holds role.
func (s *RoleSet[R]) Has(role R, person uuid.UUID) bool {
	_, ok := s.assignments[role][person]
	return ok
}

// People returns the holders of role sorted by id.
func (s *RoleSet[R]) People(role R) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s.assignments[role]))
	for id := range s.assignments[role] {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return out
}

// Map returns a copy of all assignments.
func (s *RoleSet[R]) Map() map[R][]uuid.UUID {
	out := make(map[R][]uuid.UUID, len(s.assignments))
	for role := range s.assignments {
		out[role] = s.People(role)
	}
	return out
}

// Len returns the number of (role, person) pairs.
func (s *RoleSet[R]) Len() int {
	n := 0
	for _, people := range s.assignments {
		n += len(people)
	}
	return n
}

func (s *RoleSet[R]) add(role R, person uuid.UUID) {
	if s.assignments == nil {
		s.assignments = make(map[R]map[uuid.UUID]struct{})
	}
	if s.assignments[role] == nil {
		s.assignments[role] = make(map[uuid.UUID]struct{})
	}
	s.assignments[role][person] = struct{}{}
}

func (s *RoleSet[R]) remove(role R, person uuid.UUID) {
	delete(s.assignments[role], person)
	if len(s.assignments[role]) == 0 {
		delete(s.assignments, role)
	}
}
