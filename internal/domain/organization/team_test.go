package organization

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

var now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func mustTeam(t *testing.T, key int, code string) *Team {
	t.Helper()
	team, _, err := NewTeam(key, TeamDetails{Code: code, Name: "Team " + code}, now)
	if err != nil {
		t.Fatalf("NewTeam() error = %v", err)
	}
	return team
}

func mustTeamOfTeams(t *testing.T, key int, code string) *TeamOfTeams {
	t.Helper()
	tot, _, err := NewTeamOfTeams(key, TeamDetails{Code: code, Name: "ART " + code}, now)
	if err != nil {
		t.Fatalf("NewTeamOfTeams() error = %v", err)
	}
	return tot
}

func requireRule(t *testing.T, err error, rule *domain.Rule) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %s", rule.Name())
	}
	if !errors.Is(err, rule) {
		t.Fatalf("error = %v (%s), want %s", err, domain.RuleName(err), rule.Name())
	}
}

func TestNewTeamCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    TeamCode
		wantErr bool
	}{
		{raw: "plat", want: "PLAT"},
		{raw: "  ab12 ", want: "AB12"},
		{raw: "A", wantErr: true},
		{raw: "ABCDEFGHIJK", wantErr: true},
		{raw: "AB-1", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, err := NewTeamCode(tt.raw)
			if tt.wantErr {
				requireRule(t, err, ErrInvalidCode)
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("NewTeamCode(%q) = %q, %v; want %q", tt.raw, got, err, tt.want)
			}
		})
	}
}

func TestNewTeam(t *testing.T) {
	t.Parallel()

	team, events, err := NewTeam(7, TeamDetails{Code: " core ", Name: " Core Team ", Description: "Platform"}, now)
	if err != nil {
		t.Fatalf("NewTeam() error = %v", err)
	}
	if team.Code() != "CORE" || team.Name() != "Core Team" || team.Key() != 7 {
		t.Errorf("team = %q/%q/%d, want CORE/Core Team/7", team.Code(), team.Name(), team.Key())
	}
	if !team.IsActive() {
		t.Error("new team should be active")
	}
	if team.Kind() != KindTeam {
		t.Errorf("Kind() = %q, want team", team.Kind())
	}
	if len(events) != 1 || events[0].Type != EventTeamCreated || events[0].AggregateID != team.ID() {
		t.Errorf("events = %+v, want one team.created", events)
	}
}

func TestNewTeam_Validation(t *testing.T) {
	t.Parallel()

	_, _, err := NewTeam(0, TeamDetails{Code: "x", Name: "  "}, now)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	for _, field := range []string{"key", "code", "name"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("Fields missing %q: %v", field, verr.Fields)
		}
	}
}

func TestTeam_Update(t *testing.T) {
	t.Parallel()

	team := mustTeam(t, 1, "CORE")
	events, err := team.Update(TeamDetails{Code: "core2", Name: "Core Two"}, now)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if team.Code() != "CORE2" || team.Name() != "Core Two" {
		t.Errorf("after Update: %q/%q", team.Code(), team.Name())
	}
	if len(events) != 1 || events[0].Type != EventTeamUpdated {
		t.Errorf("events = %+v, want team.updated", events)
	}

	if _, err := team.Update(TeamDetails{Code: "CORE", Name: ""}, now); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Update(empty name) error = %v, want validation error", err)
	}
	if team.Name() != "Core Two" {
		t.Error("failed Update must not change the team")
	}
}

func TestTeam_ActivationIsIdempotent(t *testing.T) {
	t.Parallel()

	team := mustTeam(t, 1, "CORE")

	if events := team.Activate(now); len(events) != 0 {
		t.Errorf("Activate() on active team emitted %d events, want 0", len(events))
	}

	events := team.Deactivate(now)
	if len(events) != 1 || events[0].Type != EventTeamDeactivated {
		t.Fatalf("Deactivate() events = %+v, want team.deactivated", events)
	}
	if team.IsActive() {
		t.Fatal("IsActive() = true after Deactivate")
	}
	if events := team.Deactivate(now); len(events) != 0 {
		t.Errorf("second Deactivate() emitted %d events, want 0", len(events))
	}

	events = team.Activate(now)
	if len(events) != 1 || events[0].Type != EventTeamActivated {
		t.Errorf("Activate() events = %+v, want team.activated", events)
	}
}

func TestTeamOfTeams_EventsUseOwnPrefix(t *testing.T) {
	t.Parallel()

	tot := mustTeamOfTeams(t, 1, "ART")
	events := tot.Deactivate(now)
	if len(events) != 1 || events[0].Type != EventTeamOfTeamsDeactivated {
		t.Errorf("events = %+v, want team_of_teams.deactivated", events)
	}
}

func TestNewMembership_SelfIsRejected(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	ranges := []domain.DateRange{
		domain.OpenDateRange(now),
		domain.MustDateRange(now, now.AddDate(0, 1, 0)),
	}
	for _, r := range ranges {
		_, err := NewMembership(id, id, r)
		requireRule(t, err, ErrSelfMembership)
	}
}

func TestAddMembership(t *testing.T) {
	t.Parallel()

	team := mustTeam(t, 1, "CORE")
	art := mustTeamOfTeams(t, 2, "ART")

	ms, events, err := team.AddMembership(art, domain.OpenDateRange(domain.Date(2024, 1, 1)), now)
	if err != nil {
		t.Fatalf("AddMembership() error = %v", err)
	}
	if ms.SourceID() != team.ID() || ms.TargetID() != art.ID() {
		t.Errorf("membership = %s -> %s, want %s -> %s", ms.SourceID(), ms.TargetID(), team.ID(), art.ID())
	}
	if len(team.ParentMemberships()) != 1 {
		t.Errorf("ParentMemberships() len = %d, want 1", len(team.ParentMemberships()))
	}
	if len(events) != 1 || events[0].Type != EventTeamMembershipAdded || events[0].SubjectID != ms.ID() {
		t.Errorf("events = %+v, want team.membership_added about %s", events, ms.ID())
	}
	if parent, ok := team.ParentOn(domain.Date(2030, 1, 1)); !ok || parent != art.ID() {
		t.Errorf("ParentOn() = %s, %v; want %s", parent, ok, art.ID())
	}
}

func TestAddMembership_RequiresActiveMembers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		deactivate func(*Team, *TeamOfTeams)
	}{
		{name: "inactive source", deactivate: func(tm *Team, _ *TeamOfTeams) { tm.Deactivate(now) }},
		{name: "inactive target", deactivate: func(_ *Team, tot *TeamOfTeams) { tot.Deactivate(now) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			team := mustTeam(t, 1, "CORE")
			art := mustTeamOfTeams(t, 2, "ART")
			tt.deactivate(team, art)

			_, events, err := team.AddMembership(art, domain.OpenDateRange(now), now)
			requireRule(t, err, ErrInactiveMember)
			if len(team.ParentMemberships()) != 0 {
				t.Errorf("membership count = %d, want 0", len(team.ParentMemberships()))
			}
			if events != nil {
				t.Errorf("events = %+v, want none", events)
			}
		})
	}
}

func TestAddMembership_Overlap(t *testing.T) {
	t.Parallel()

	team := mustTeam(t, 1, "CORE")
	art1 := mustTeamOfTeams(t, 2, "ART1")
	art2 := mustTeamOfTeams(t, 3, "ART2")

	first := domain.MustDateRange(domain.Date(2024, 1, 1), domain.Date(2024, 6, 30))
	if _, _, err := team.AddMembership(art1, first, now); err != nil {
		t.Fatalf("first AddMembership() error = %v", err)
	}

	_, _, err := team.AddMembership(art2, domain.OpenDateRange(domain.Date(2024, 6, 30)), now)
	requireRule(t, err, ErrOverlappingMembership)

	if _, _, err := team.AddMembership(art2, domain.OpenDateRange(domain.Date(2024, 7, 1)), now); err != nil {
		t.Fatalf("adjacent AddMembership() error = %v", err)
	}
	if parent, _ := team.ParentOn(domain.Date(2024, 7, 1)); parent != art2.ID() {
		t.Errorf("ParentOn(2024-07-01) = %s, want %s", parent, art2.ID())
	}
}

func TestMember_ParentDuring(t *testing.T) {
	t.Parallel()

	team := mustTeam(t, 1, "CORE")
	art1 := mustTeamOfTeams(t, 2, "ART1")
	art2 := mustTeamOfTeams(t, 3, "ART2")
	first := domain.MustDateRange(domain.Date(2024, 1, 1), domain.Date(2024, 6, 30))
	if _, _, err := team.AddMembership(art1, first, now); err != nil {
		t.Fatalf("AddMembership(art1) error = %v", err)
	}
	if _, _, err := team.AddMembership(art2, domain.OpenDateRange(domain.Date(2024, 7, 1)), now); err != nil {
		t.Fatalf("AddMembership(art2) error = %v", err)
	}

	tests := []struct {
		name   string
		period domain.DateRange
		want   uuid.UUID
		wantOK bool
	}{
		{"inside closed membership", domain.MustDateRange(domain.Date(2024, 2, 1), domain.Date(2024, 3, 31)), art1.ID(), true},
		{"spans both memberships", domain.MustDateRange(domain.Date(2024, 6, 1), domain.Date(2024, 7, 31)), uuid.Nil, false},
		{"open period from closed membership", domain.OpenDateRange(domain.Date(2024, 3, 1)), uuid.Nil, false},
		{"open period inside current membership", domain.OpenDateRange(domain.Date(2024, 8, 1)), art2.ID(), true},
		{"closed period inside current membership", domain.MustDateRange(domain.Date(2025, 1, 1), domain.Date(2025, 12, 31)), art2.ID(), true},
		{"before any membership", domain.MustDateRange(domain.Date(2023, 12, 1), domain.Date(2024, 1, 31)), uuid.Nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := team.ParentDuring(tt.period)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParentDuring(%s) = %s, %v; want %s, %v", tt.period, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAddMembership_DirectCycle(t *testing.T) {
	t.Parallel()

	parent := mustTeamOfTeams(t, 1, "PARENT")
	child := mustTeamOfTeams(t, 2, "CHILD")

	if _, _, err := child.AddMembership(parent, domain.OpenDateRange(now), now); err != nil {
		t.Fatalf("AddMembership() error = %v", err)
	}

	_, _, err := parent.AddMembership(child, domain.OpenDateRange(now), now)
	requireRule(t, err, ErrMembershipCycle)
}

func TestUpdateMembership(t *testing.T) {
	t.Parallel()

	team := mustTeam(t, 1, "CORE")
	art := mustTeamOfTeams(t, 2, "ART")
	ms, _, err := team.AddMembership(art, domain.OpenDateRange(domain.Date(2024, 1, 1)), now)
	if err != nil {
		t.Fatalf("AddMembership() error = %v", err)
	}

	closed := domain.MustDateRange(domain.Date(2024, 1, 1), domain.Date(2024, 3, 31))
	events, err := team.UpdateMembership(ms.ID(), closed, art, now)
	if err != nil {
		t.Fatalf("UpdateMembership() error = %v", err)
	}
	if got := team.ParentMemberships()[0].DateRange(); !got.Equal(closed) {
		t.Errorf("DateRange() = %s, want %s", got, closed)
	}
	if len(events) != 1 || events[0].Type != EventTeamMembershipUpdated {
		t.Errorf("events = %+v, want team.membership_updated", events)
	}

	_, err = team.UpdateMembership(uuid.New(), closed, art, now)
	requireRule(t, err, ErrMembershipNotFound)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Error("ErrMembershipNotFound should be a not-found error")
	}

	other := mustTeamOfTeams(t, 3, "OTHER")
	_, err = team.UpdateMembership(ms.ID(), closed, other, now)
	requireRule(t, err, ErrTargetMismatch)
}

func TestUpdateMembership_RechecksActiveState(t *testing.T) {
	t.Parallel()

	team := mustTeam(t, 1, "CORE")
	art := mustTeamOfTeams(t, 2, "ART")
	original := domain.OpenDateRange(domain.Date(2024, 1, 1))
	ms, _, _ := team.AddMembership(art, original, now)

	art.Deactivate(now)

	_, err := team.UpdateMembership(ms.ID(), domain.OpenDateRange(domain.Date(2024, 2, 1)), art, now)
	requireRule(t, err, ErrInactiveMember)
	if got := team.ParentMemberships()[0].DateRange(); !got.Equal(original) {
		t.Errorf("DateRange() = %s, want unchanged %s", got, original)
	}
}

func TestRemoveMembership(t *testing.T) {
	t.Parallel()

	team := mustTeam(t, 1, "CORE")
	art := mustTeamOfTeams(t, 2, "ART")
	ms, _, _ := team.AddMembership(art, domain.OpenDateRange(now), now)

	team.Deactivate(now)
	_, err := team.RemoveMembership(ms.ID(), art, now)
	requireRule(t, err, ErrInactiveMember)
	team.Activate(now)

	_, err = team.RemoveMembership(uuid.New(), art, now)
	requireRule(t, err, ErrMembershipNotFound)

	events, err := team.RemoveMembership(ms.ID(), art, now)
	if err != nil {
		t.Fatalf("RemoveMembership() error = %v", err)
	}
	if len(team.ParentMemberships()) != 0 {
		t.Error("membership still present after RemoveMembership")
	}
	if len(events) != 1 || events[0].Type != EventTeamMembershipRemoved {
		t.Errorf("events = %+v, want team.membership_removed", events)
	}
}

func TestRehydrateTeam(t *testing.T) {
	t.Parallel()

	id, parent := uuid.New(), uuid.New()
	ms, err := RehydrateMembership(uuid.New(), id, parent, domain.OpenDateRange(domain.Date(2024, 1, 1)))
	if err != nil {
		t.Fatalf("RehydrateMembership() error = %v", err)
	}

	team, err := RehydrateTeam(Snapshot{ID: id, Key: 3, Code: "ops", Name: "Ops", Active: false, Memberships: []Membership{ms}})
	if err != nil {
		t.Fatalf("RehydrateTeam() error = %v", err)
	}
	if team.ID() != id || team.IsActive() || team.Code() != "OPS" {
		t.Errorf("rehydrated team = %+v", team.Snapshot())
	}

	foreign, _ := RehydrateMembership(uuid.New(), uuid.New(), parent, domain.OpenDateRange(now))
	if _, err := RehydrateTeam(Snapshot{ID: id, Key: 3, Code: "OPS", Name: "Ops", Memberships: []Membership{foreign}}); err == nil {
		t.Error("RehydrateTeam() with a foreign membership should fail")
	}
}
