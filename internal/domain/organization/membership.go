package organization

import (
	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

// Membership rules.
var (
	ErrSelfMembership        = domain.NewRule(domain.ErrValidation, "SelfMembership")
	ErrInactiveMember        = domain.NewRule(domain.ErrInvariant, "InactiveMember")
	ErrOverlappingMembership = domain.NewRule(domain.ErrInvariant, "OverlappingMembership")
	ErrMembershipCycle       = domain.NewRule(domain.ErrInvariant, "MembershipCycle")
	ErrMembershipNotFound    = domain.NewRule(domain.ErrNotFound, "MembershipNotFound")
	ErrTargetMismatch        = domain.NewRule(domain.ErrValidation, "TargetMismatch")
)

// Membership is a directed, time-bounded edge from a child hierarchy member
// (the source) to the team of teams it belongs to (the target). Memberships
// are owned and mutated by the source aggregate.
type Membership struct {
	id        uuid.UUID
	sourceID  uuid.UUID
	targetID  uuid.UUID
	dateRange domain.DateRange
}

// NewMembership creates a membership with a fresh id. A member can never be
// its own parent.
func NewMembership(sourceID, targetID uuid.UUID, dateRange domain.DateRange) (Membership, error) {
	return RehydrateMembership(uuid.New(), sourceID, targetID, dateRange)
}

// RehydrateMembership rebuilds a persisted membership.
func RehydrateMembership(id, sourceID, targetID uuid.UUID, dateRange domain.DateRange) (Membership, error) {
	if sourceID == targetID {
		return Membership{}, ErrSelfMembership.Violation("A team cannot be a member of itself.")
	}
	return Membership{id: id, sourceID: sourceID, targetID: targetID, dateRange: dateRange}, nil
}

// ID returns the membership id.
func (m Membership) ID() uuid.UUID { return m.id }

// SourceID returns the child member id.
func (m Membership) SourceID() uuid.UUID { return m.sourceID }

// TargetID returns the parent team of teams id.
func (m Membership) TargetID() uuid.UUID { return m.targetID }

// DateRange returns the period the membership is in effect.
func (m Membership) DateRange() domain.DateRange { return m.dateRange }
