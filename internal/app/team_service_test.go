package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/domain/organization"
)

func createMember(t *testing.T, svc *TeamService, kind organization.MemberKind, code string) organization.Member {
	t.Helper()
	m, err := svc.CreateTeam(context.Background(), kind, organization.TeamDetails{Code: code, Name: "Team " + code})
	require.NoError(t, err)
	return m
}

func TestTeamService_CreateTeam(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.teams()

	team := createMember(t, svc, organization.KindTeam, "core")
	tot := createMember(t, svc, organization.KindTeamOfTeams, "art")

	assert.Equal(t, 1, team.Key())
	assert.Equal(t, 2, tot.Key())
	assert.Equal(t, "CORE", team.Code().String())
	assert.IsType(t, &organization.TeamOfTeams{}, tot)
	assert.Equal(t, []domain.EventType{organization.EventTeamCreated, organization.EventTeamOfTeamsCreated}, f.eventTypes())

	got, err := svc.GetTeam(context.Background(), team.ID())
	require.NoError(t, err)
	assert.True(t, got.IsActive())
}

func TestTeamService_CreateTeam_Invalid(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.teams()
	ctx := context.Background()

	_, err := svc.CreateTeam(ctx, "squad", organization.TeamDetails{Code: "AB", Name: "Squad"})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateTeam(ctx, organization.KindTeam, organization.TeamDetails{Code: "a", Name: "Short"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "code")
	assert.Empty(t, f.eventTypes())
}

func TestTeamService_GetTeam_NotFound(t *testing.T) {
	t.Parallel()

	_, err := newFixture(t).teams().GetTeam(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTeamService_UpdateTeam(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.teams()
	team := createMember(t, svc, organization.KindTeam, "CORE")

	updated, err := svc.UpdateTeam(context.Background(), team.ID(),
		organization.TeamDetails{Code: "PLAT", Name: "Platform", Description: "Shared services"})
	require.NoError(t, err)
	assert.Equal(t, "PLAT", updated.Code().String())

	got, err := svc.GetTeam(context.Background(), team.ID())
	require.NoError(t, err)
	assert.Equal(t, "Platform", got.Name())
	assert.Equal(t, "Shared services", got.Description())
}

func TestTeamService_SetTeamActive_RepeatIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.teams()
	ctx := context.Background()
	team := createMember(t, svc, organization.KindTeam, "CORE")

	_, err := svc.SetTeamActive(ctx, team.ID(), false)
	require.NoError(t, err)
	_, err = svc.SetTeamActive(ctx, team.ID(), false)
	require.NoError(t, err)

	got, err := svc.GetTeam(ctx, team.ID())
	require.NoError(t, err)
	assert.False(t, got.IsActive())
	assert.Equal(t, []domain.EventType{organization.EventTeamCreated, organization.EventTeamDeactivated}, f.eventTypes())
}

func TestTeamService_Memberships(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.teams()
	ctx := context.Background()
	team := createMember(t, svc, organization.KindTeam, "CORE")
	art := createMember(t, svc, organization.KindTeamOfTeams, "ART")

	ms, err := svc.AddMembership(ctx, team.ID(), art.ID(),
		domain.MustDateRange(domain.Date(2024, 1, 1), domain.Date(2024, 6, 30)))
	require.NoError(t, err)

	got, err := svc.GetTeam(ctx, team.ID())
	require.NoError(t, err)
	parent, ok := got.ParentOn(domain.Date(2024, 3, 1))
	require.True(t, ok)
	assert.Equal(t, art.ID(), parent)

	require.NoError(t, svc.UpdateMembership(ctx, team.ID(), ms.ID(), domain.OpenDateRange(domain.Date(2024, 2, 1))))
	got, err = svc.GetTeam(ctx, team.ID())
	require.NoError(t, err)
	_, ok = got.ParentOn(domain.Date(2024, 1, 15))
	assert.False(t, ok, "membership should start in February after the update")

	require.NoError(t, svc.RemoveMembership(ctx, team.ID(), ms.ID()))
	got, err = svc.GetTeam(ctx, team.ID())
	require.NoError(t, err)
	assert.Empty(t, got.ParentMemberships())

	assert.Equal(t, []domain.EventType{
		organization.EventTeamCreated,
		organization.EventTeamOfTeamsCreated,
		organization.EventTeamMembershipAdded,
		organization.EventTeamMembershipUpdated,
		organization.EventTeamMembershipRemoved,
	}, f.eventTypes())
}

func TestTeamService_AddMembership_Rejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.teams()
	ctx := context.Background()
	team := createMember(t, svc, organization.KindTeam, "CORE")
	other := createMember(t, svc, organization.KindTeam, "EDGE")
	art := createMember(t, svc, organization.KindTeamOfTeams, "ART")
	year := domain.MustDateRange(domain.Date(2024, 1, 1), domain.Date(2024, 12, 31))

	t.Run("target is a team", func(t *testing.T) {
		_, err := svc.AddMembership(ctx, team.ID(), other.ID(), year)
		require.ErrorIs(t, err, organization.ErrTargetMismatch)
	})

	t.Run("self", func(t *testing.T) {
		_, err := svc.AddMembership(ctx, art.ID(), art.ID(), year)
		require.ErrorIs(t, err, organization.ErrSelfMembership)
	})

	t.Run("inactive target", func(t *testing.T) {
		_, err := svc.SetTeamActive(ctx, art.ID(), false)
		require.NoError(t, err)

		_, err = svc.AddMembership(ctx, team.ID(), art.ID(), year)
		require.ErrorIs(t, err, organization.ErrInactiveMember)

		got, err := svc.GetTeam(ctx, team.ID())
		require.NoError(t, err)
		assert.Empty(t, got.ParentMemberships())
	})
}

func TestTeamService_UpdateMembership_Unknown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.teams()
	team := createMember(t, svc, organization.KindTeam, "CORE")

	err := svc.UpdateMembership(context.Background(), team.ID(), uuid.New(), domain.OpenDateRange(domain.Date(2024, 1, 1)))
	require.ErrorIs(t, err, organization.ErrMembershipNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.RemoveMembership(context.Background(), team.ID(), uuid.New())
	require.ErrorIs(t, err, organization.ErrMembershipNotFound)
}

func TestTeamService_OperatingModels(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.teams()
	ctx := context.Background()
	team := createMember(t, svc, organization.KindTeam, "CORE")

	first, err := svc.CreateOperatingModel(ctx, team.ID(), domain.Date(2024, 1, 1), "", "")
	require.NoError(t, err)
	assert.Equal(t, organization.MethodologyScrum, first.Methodology())
	assert.Equal(t, organization.SizingStoryPoints, first.SizingMethod())

	second, err := svc.CreateOperatingModel(ctx, team.ID(), domain.Date(2024, 3, 1),
		organization.MethodologyKanban, organization.SizingCount)
	require.NoError(t, err)
	assert.True(t, second.IsCurrent())

	models, err := svc.OperatingModels(ctx, team.ID())
	require.NoError(t, err)
	require.Len(t, models, 2)
	end, ok := models[0].DateRange().End()
	require.True(t, ok)
	assert.Equal(t, domain.Date(2024, 2, 29), end)
	assert.Equal(t, second.ID(), models[1].ID())

	_, err = svc.CreateOperatingModel(ctx, team.ID(), domain.Date(2024, 2, 1), "", "")
	require.ErrorIs(t, err, organization.ErrInvalidStartDate)

	assert.Equal(t, []domain.EventType{
		organization.EventTeamCreated,
		organization.EventOperatingModelStarted,
		organization.EventOperatingModelStarted,
	}, f.eventTypes())
}

func TestTeamService_OperatingModels_UnknownTeam(t *testing.T) {
	t.Parallel()

	svc := newFixture(t).teams()

	_, err := svc.CreateOperatingModel(context.Background(), uuid.New(), domain.Date(2024, 1, 1), "", "")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.OperatingModels(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
