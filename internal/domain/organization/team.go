package organization

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

const (
	maxNameLength        = 128
	maxDescriptionLength = 1024
)

// MemberKind distinguishes the two kinds of hierarchy member.
type MemberKind string

const (
	KindTeam        MemberKind = "team"
	KindTeamOfTeams MemberKind = "team_of_teams"
)

// IsValid returns true if the kind is one of the defined constants.
func (k MemberKind) IsValid() bool {
	switch k {
	case KindTeam, KindTeamOfTeams:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (k MemberKind) String() string {
	return string(k)
}

// HierarchyMember is anything that can take part in a membership: a Team or
// a TeamOfTeams.
type HierarchyMember interface {
	ID() uuid.UUID
	Kind() MemberKind
	IsActive() bool
	ParentMemberships() []Membership
}

// Member is the full behavior shared by Team and TeamOfTeams. Repositories
// and services work with it when the concrete kind does not matter.
type Member interface {
	HierarchyMember
	Key() int
	Code() TeamCode
	Name() string
	Description() string
	Snapshot() Snapshot
	ParentOn(date time.Time) (uuid.UUID, bool)
	ParentDuring(period domain.DateRange) (uuid.UUID, bool)
	Update(details TeamDetails, now time.Time) ([]domain.Event, error)
	Activate(now time.Time) []domain.Event
	Deactivate(now time.Time) []domain.Event
	AddMembership(target *TeamOfTeams, dateRange domain.DateRange, now time.Time) (Membership, []domain.Event, error)
	UpdateMembership(membershipID uuid.UUID, dateRange domain.DateRange, target *TeamOfTeams, now time.Time) ([]domain.Event, error)
	RemoveMembership(membershipID uuid.UUID, target *TeamOfTeams, now time.Time) ([]domain.Event, error)
}

// Compile-time checks that both aggregates are members.
var (
	_ Member = (*Team)(nil)
	_ Member = (*TeamOfTeams)(nil)
)

// Team is a delivery team. It can belong to at most one team of teams at a
// time.
type Team struct {
	member
}

// TeamOfTeams groups teams (and other teams of teams) into a larger unit.
type TeamOfTeams struct {
	member
}

// TeamDetails carries the editable attributes of a hierarchy member.
type TeamDetails struct {
	Code        string
	Name        string
	Description string
}

// NewTeam creates an active team.
func NewTeam(key int, details TeamDetails, now time.Time) (*Team, []domain.Event, error) {
	m, err := newMember(KindTeam, key, details)
	if err != nil {
		return nil, nil, err
	}
	t := &Team{member: m}
	return t, []domain.Event{t.event(t.kind.events().created, now).With("code", t.code.String())}, nil
}

// NewTeamOfTeams creates an active team of teams.
func NewTeamOfTeams(key int, details TeamDetails, now time.Time) (*TeamOfTeams, []domain.Event, error) {
	m, err := newMember(KindTeamOfTeams, key, details)
	if err != nil {
		return nil, nil, err
	}
	t := &TeamOfTeams{member: m}
	return t, []domain.Event{t.event(t.kind.events().created, now).With("code", t.code.String())}, nil
}

// Snapshot is the persisted state of a hierarchy member.
type Snapshot struct {
	ID          uuid.UUID
	Key         int
	Code        string
	Name        string
	Description string
	Active      bool
	Memberships []Membership
}

// RehydrateTeam rebuilds a team from persisted state without emitting events.
func RehydrateTeam(s Snapshot) (*Team, error) {
	m, err := rehydrateMember(KindTeam, s)
	if err != nil {
		return nil, err
	}
	return &Team{member: m}, nil
}

// RehydrateTeamOfTeams rebuilds a team of teams from persisted state.
func RehydrateTeamOfTeams(s Snapshot) (*TeamOfTeams, error) {
	m, err := rehydrateMember(KindTeamOfTeams, s)
	if err != nil {
		return nil, err
	}
	return &TeamOfTeams{member: m}, nil
}

// member holds the state and behavior shared by Team and TeamOfTeams.
type member struct {
	id          uuid.UUID
	key         int
	kind        MemberKind
	code        TeamCode
	name        string
	description string
	active      bool
	memberships []Membership
}

func newMember(kind MemberKind, key int, details TeamDetails) (member, error) {
	code, err := validateDetails(key, details)
	if err != nil {
		return member{}, err
	}
	return member{
		id:          uuid.New(),
		key:         key,
		kind:        kind,
		code:        code,
		name:        strings.TrimSpace(details.Name),
		description: strings.TrimSpace(details.Description),
		active:      true,
	}, nil
}

func rehydrateMember(kind MemberKind, s Snapshot) (member, error) {
	code, err := validateDetails(s.Key, TeamDetails{Code: s.Code, Name: s.Name, Description: s.Description})
	if err != nil {
		return member{}, err
	}
	for _, ms := range s.Memberships {
		if ms.sourceID != s.ID {
			return member{}, fmt.Errorf("membership %s does not belong to %s: %w", ms.id, s.ID, domain.ErrValidation)
		}
	}
	return member{
		id:          s.ID,
		key:         s.Key,
		kind:        kind,
		code:        code,
		name:        strings.TrimSpace(s.Name),
		description: strings.TrimSpace(s.Description),
		active:      s.Active,
		memberships: slices.Clone(s.Memberships),
	}, nil
}

// validateDetails checks every field and returns the normalized code.
func validateDetails(key int, details TeamDetails) (TeamCode, error) {
	fields := make(map[string]string)

	if key <= 0 {
		fields["key"] = fmt.Sprintf("must be positive, got %d", key)
	}
	code, err := NewTeamCode(details.Code)
	if err != nil {
		fields["code"] = err.Error()
	}
	name := strings.TrimSpace(details.Name)
	switch {
	case name == "":
		fields["name"] = domain.MsgRequired
	case len(name) > maxNameLength:
		fields["name"] = fmt.Sprintf("must be at most %d characters", maxNameLength)
	}
	if len(strings.TrimSpace(details.Description)) > maxDescriptionLength {
		fields["description"] = fmt.Sprintf("must be at most %d characters", maxDescriptionLength)
	}

	if len(fields) > 0 {
		return "", &domain.ValidationError{Fields: fields}
	}
	return code, nil
}

// ID returns the member id.
func (m *member) ID() uuid.UUID { return m.id }

// Key returns the sequential display number.
func (m *member) Key() int { return m.key }

// Kind reports whether this is a team or a team of teams.
func (m *member) Kind() MemberKind { return m.kind }

// Code returns the short team code.
func (m *member) Code() TeamCode { return m.code }

// Name returns the display name.
func (m *member) Name() string { return m.name }

// Description returns the free-text description.
func (m *member) Description() string { return m.description }

// IsActive reports whether the member is active.
func (m *member) IsActive() bool { return m.active }

// ParentMemberships returns a copy of the member's parent memberships.
func (m *member) ParentMemberships() []Membership { return slices.Clone(m.memberships) }

// Snapshot returns the persistable state of the member.
func (m *member) Snapshot() Snapshot {
	return Snapshot{
		ID:          m.id,
		Key:         m.key,
		Code:        m.code.String(),
		Name:        m.name,
		Description: m.description,
		Active:      m.active,
		Memberships: slices.Clone(m.memberships),
	}
}

// ParentOn returns the id of the team of teams the member belongs to on date.
func (m *member) ParentOn(date time.Time) (uuid.UUID, bool) {
	for _, ms := range m.memberships {
		if ms.dateRange.Includes(date) {
			return ms.targetID, true
		}
	}
	return uuid.Nil, false
}

// ParentDuring returns the id of the team of teams the member belongs to for
// the whole of period. An open period only matches a current membership.
func (m *member) ParentDuring(period domain.DateRange) (uuid.UUID, bool) {
	for _, ms := range m.memberships {
		if ms.dateRange.Contains(period, domain.MembershipInclude) {
			return ms.targetID, true
		}
	}
	return uuid.Nil, false
}

// Update replaces the editable details.
func (m *member) Update(details TeamDetails, now time.Time) ([]domain.Event, error) {
	code, err := validateDetails(m.key, details)
	if err != nil {
		return nil, err
	}
	m.code = code
	m.name = strings.TrimSpace(details.Name)
	m.description = strings.TrimSpace(details.Description)
	return []domain.Event{m.event(m.kind.events().updated, now)}, nil
}

// Activate marks the member active. It is a no-op, returning no events, when
// the member is already active.
func (m *member) Activate(now time.Time) []domain.Event {
	if m.active {
		return nil
	}
	m.active = true
	return []domain.Event{m.event(m.kind.events().activated, now)}
}

// Deactivate marks the member inactive. It is a no-op, returning no events,
// when the member is already inactive.
func (m *member) Deactivate(now time.Time) []domain.Event {
	if !m.active {
		return nil
	}
	m.active = false
	return []domain.Event{m.event(m.kind.events().deactivated, now)}
}

// AddMembership makes the member a child of target for dateRange. Both sides
// must be active, and the new membership may not overlap an existing one.
func (m *member) AddMembership(target *TeamOfTeams, dateRange domain.DateRange, now time.Time) (Membership, []domain.Event, error) {
	if err := m.requireActive(target); err != nil {
		return Membership{}, nil, err
	}
	ms, err := NewMembership(m.id, target.ID(), dateRange)
	if err != nil {
		return Membership{}, nil, err
	}
	if err := m.checkOverlap(uuid.Nil, dateRange); err != nil {
		return Membership{}, nil, err
	}
	for _, parent := range target.memberships {
		if parent.targetID == m.id {
			return Membership{}, nil, ErrMembershipCycle.Violationf(
				"%s is already a member of %s.", target.name, m.name)
		}
	}

	m.memberships = append(m.memberships, ms)
	e := m.event(m.kind.events().membershipAdded, now).About(ms.id).
		With("target_id", target.ID().String()).
		With("date_range", dateRange.String())
	return ms, []domain.Event{e}, nil
}

// UpdateMembership changes the date range of an existing membership. The
// active state of both sides is re-checked.
func (m *member) UpdateMembership(membershipID uuid.UUID, dateRange domain.DateRange, target *TeamOfTeams, now time.Time) ([]domain.Event, error) {
	if err := m.requireActive(target); err != nil {
		return nil, err
	}
	i, err := m.findMembership(membershipID, target)
	if err != nil {
		return nil, err
	}
	if err := m.checkOverlap(membershipID, dateRange); err != nil {
		return nil, err
	}

	m.memberships[i].dateRange = dateRange
	e := m.event(m.kind.events().membershipUpdated, now).About(membershipID).
		With("date_range", dateRange.String())
	return []domain.Event{e}, nil
}

// RemoveMembership deletes a membership. The active state of both sides is
// re-checked.
func (m *member) RemoveMembership(membershipID uuid.UUID, target *TeamOfTeams, now time.Time) ([]domain.Event, error) {
	if err := m.requireActive(target); err != nil {
		return nil, err
	}
	i, err := m.findMembership(membershipID, target)
	if err != nil {
		return nil, err
	}

	m.memberships = slices.Delete(m.memberships, i, i+1)
	e := m.event(m.kind.events().membershipRemoved, now).About(membershipID).
		With("target_id", target.ID().String())
	return []domain.Event{e}, nil
}

func (m *member) requireActive(target *TeamOfTeams) error {
	if target == nil {
		return ErrTargetMismatch.Violation("A parent team of teams is required.")
	}
	if !m.active {
		return ErrInactiveMember.Violationf("Memberships can only be managed for active teams; %s is inactive.", m.name)
	}
	if !target.IsActive() {
		return ErrInactiveMember.Violationf("Memberships can only be managed for active teams; %s is inactive.", target.name)
	}
	return nil
}

func (m *member) findMembership(membershipID uuid.UUID, target *TeamOfTeams) (int, error) {
	i := slices.IndexFunc(m.memberships, func(ms Membership) bool { return ms.id == membershipID })
	if i < 0 {
		return -1, ErrMembershipNotFound.Violationf("Membership %s was not found.", membershipID)
	}
	if m.memberships[i].targetID != target.ID() {
		return -1, ErrTargetMismatch.Violationf("Membership %s does not belong to %s.", membershipID, target.name)
	}
	return i, nil
}

func (m *member) checkOverlap(except uuid.UUID, dateRange domain.DateRange) error {
	for _, ms := range m.memberships {
		if ms.id != except && ms.dateRange.Overlaps(dateRange) {
			return ErrOverlappingMembership.Violationf(
				"%s already has a membership for %s that overlaps %s.", m.name, ms.dateRange, dateRange)
		}
	}
	return nil
}

func (m *member) event(t domain.EventType, now time.Time) domain.Event {
	return domain.NewEvent(t, m.id, now)
}
