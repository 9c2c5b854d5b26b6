package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/domain/strategy"
	"github.com/orgplan/orgplan/internal/ports"
)

func testInitiativeDetails() strategy.Details {
	return strategy.Details{
		Name:     "Grow customer loyalty",
		Timeline: domain.MustDateRange(domain.Date(2024, 1, 1), domain.Date(2024, 12, 31)),
	}
}

func npsKpi() strategy.KpiDetails {
	return strategy.KpiDetails{
		Name:        "NPS",
		TargetValue: 50,
		Unit:        strategy.UnitNumber,
		Direction:   strategy.DirectionIncrease,
	}
}

func createInitiative(t *testing.T, svc *InitiativeService) *strategy.Initiative {
	t.Helper()
	in, err := svc.CreateInitiative(context.Background(), testInitiativeDetails())
	require.NoError(t, err)
	return in
}

func TestInitiativeService_CreateInitiative(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.initiatives()

	first := createInitiative(t, svc)
	second := createInitiative(t, svc)
	assert.Equal(t, 1, first.Key())
	assert.Equal(t, 2, second.Key())
	assert.Equal(t, strategy.StatusProposed, first.Status())

	_, err := svc.CreateInitiative(context.Background(), strategy.Details{Name: "No dates"})
	require.ErrorIs(t, err, domain.ErrValidation)

	got, err := svc.GetInitiative(context.Background(), first.ID())
	require.NoError(t, err)
	assert.Equal(t, "Grow customer loyalty", got.Name())
}

func TestInitiativeService_GetInitiative_NotFound(t *testing.T) {
	t.Parallel()

	_, err := newFixture(t).initiatives().GetInitiative(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInitiativeService_Transition(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.initiatives()
	ctx := context.Background()
	in := createInitiative(t, svc)

	for _, step := range []ports.InitiativeTransition{
		ports.TransitionApprove,
		ports.TransitionActivate,
		ports.TransitionPause,
		ports.TransitionResume,
		ports.TransitionComplete,
	} {
		_, err := svc.Transition(ctx, in.ID(), step)
		require.NoError(t, err, "transition %s", step)
	}

	got, err := svc.GetInitiative(ctx, in.ID())
	require.NoError(t, err)
	assert.Equal(t, strategy.StatusCompleted, got.Status())

	_, err = svc.Transition(ctx, in.ID(), ports.TransitionCancel)
	require.ErrorIs(t, err, strategy.ErrInvalidTransition)

	assert.Equal(t, []domain.EventType{
		strategy.EventInitiativeCreated,
		strategy.EventInitiativeApproved,
		strategy.EventInitiativeActivated,
		strategy.EventInitiativePaused,
		strategy.EventInitiativeResumed,
		strategy.EventInitiativeCompleted,
	}, f.eventTypes())
}

func TestInitiativeService_Transition_Invalid(t *testing.T) {
	t.Parallel()

	svc := newFixture(t).initiatives()
	ctx := context.Background()
	in := createInitiative(t, svc)

	_, err := svc.Transition(ctx, in.ID(), "launch")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "transition")

	_, err = svc.Transition(ctx, in.ID(), ports.TransitionActivate)
	require.ErrorIs(t, err, strategy.ErrInvalidTransition)
}

func TestInitiativeService_UpdateInitiative(t *testing.T) {
	t.Parallel()

	svc := newFixture(t).initiatives()
	ctx := context.Background()
	in := createInitiative(t, svc)

	details := testInitiativeDetails()
	details.Name = "Grow loyalty"
	details.Description = "Repeat purchases"
	updated, err := svc.UpdateInitiative(ctx, in.ID(), details)
	require.NoError(t, err)
	assert.Equal(t, "Grow loyalty", updated.Name())

	sponsor := uuid.New()
	updated, err = svc.UpdateInitiativeRoles(ctx, in.ID(), map[strategy.Role][]uuid.UUID{
		strategy.RoleSponsor: {sponsor},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{sponsor}, updated.Roles()[strategy.RoleSponsor])
}

func TestInitiativeService_Kpis(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.initiatives()
	ctx := context.Background()
	in := createInitiative(t, svc)

	kpi, err := svc.AddKpi(ctx, in.ID(), npsKpi())
	require.NoError(t, err)

	details := npsKpi()
	details.TargetValue = 60
	updated, err := svc.UpdateKpi(ctx, in.ID(), kpi.ID(), details)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, updated.TargetValue(), 0)

	_, err = svc.UpdateKpi(ctx, in.ID(), uuid.New(), details)
	require.ErrorIs(t, err, strategy.ErrKpiNotFound)

	require.NoError(t, svc.RemoveKpi(ctx, in.ID(), kpi.ID()))
	got, err := svc.GetInitiative(ctx, in.ID())
	require.NoError(t, err)
	assert.Empty(t, got.Kpis())

	assert.Equal(t, []domain.EventType{
		strategy.EventInitiativeCreated,
		strategy.EventKpiAdded,
		strategy.EventKpiUpdated,
		strategy.EventKpiRemoved,
	}, f.eventTypes())
}

func TestInitiativeService_Checkpoints(t *testing.T) {
	t.Parallel()

	svc := newFixture(t).initiatives()
	ctx := context.Background()
	in := createInitiative(t, svc)
	kpi, err := svc.AddKpi(ctx, in.ID(), npsKpi())
	require.NoError(t, err)

	c, err := svc.AddCheckpoint(ctx, in.ID(), kpi.ID(), 30, domain.Date(2024, 6, 30), "Mid-year")
	require.NoError(t, err)

	_, err = svc.AddCheckpoint(ctx, in.ID(), kpi.ID(), 70, domain.Date(2025, 3, 31), "Next year")
	require.ErrorIs(t, err, strategy.ErrCheckpointOutsideTimeline)

	_, err = svc.AddCheckpoint(ctx, in.ID(), kpi.ID(), 40, domain.Date(2024, 9, 30), " ")
	require.ErrorIs(t, err, domain.ErrValidation)

	got, err := svc.GetInitiative(ctx, in.ID())
	require.NoError(t, err)
	gotKpi, ok := got.Kpi(kpi.ID())
	require.True(t, ok)
	require.Len(t, gotKpi.Checkpoints(), 1)
	assert.Equal(t, c.ID, gotKpi.Checkpoints()[0].ID)

	require.NoError(t, svc.RemoveCheckpoint(ctx, in.ID(), kpi.ID(), c.ID))
	err = svc.RemoveCheckpoint(ctx, in.ID(), kpi.ID(), c.ID)
	require.ErrorIs(t, err, strategy.ErrCheckpointNotFound)
}

func TestInitiativeService_Measurements(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.initiatives()
	ctx := context.Background()
	in := createInitiative(t, svc)
	kpi, err := svc.AddKpi(ctx, in.ID(), npsKpi())
	require.NoError(t, err)
	analyst := uuid.New()

	t.Run("future measurement", func(t *testing.T) {
		_, err := svc.AddMeasurement(ctx, in.ID(), kpi.ID(), 40, testNow.AddDate(0, 0, 1), analyst, "")
		require.ErrorIs(t, err, strategy.ErrFutureMeasurement)
	})

	t.Run("latest measurement drives the actual value", func(t *testing.T) {
		_, err := svc.AddMeasurement(ctx, in.ID(), kpi.ID(), 42, domain.Date(2024, 2, 1), analyst, "survey")
		require.NoError(t, err)
		latest, err := svc.AddMeasurement(ctx, in.ID(), kpi.ID(), 55, domain.Date(2024, 2, 15), analyst, "")
		require.NoError(t, err)

		got, err := svc.GetInitiative(ctx, in.ID())
		require.NoError(t, err)
		gotKpi, _ := got.Kpi(kpi.ID())
		actual, ok := gotKpi.ActualValue()
		require.True(t, ok)
		assert.InDelta(t, 55.0, actual, 0)
		assert.True(t, gotKpi.TargetMet())

		require.NoError(t, svc.RemoveMeasurement(ctx, in.ID(), kpi.ID(), latest.ID))
		got, err = svc.GetInitiative(ctx, in.ID())
		require.NoError(t, err)
		gotKpi, _ = got.Kpi(kpi.ID())
		actual, _ = gotKpi.ActualValue()
		assert.InDelta(t, 42.0, actual, 0)
		assert.False(t, gotKpi.TargetMet())
	})

	t.Run("unknown measurement", func(t *testing.T) {
		err := svc.RemoveMeasurement(ctx, in.ID(), kpi.ID(), uuid.New())
		require.ErrorIs(t, err, strategy.ErrMeasurementNotFound)
	})
}

func TestInitiativeService_ClosedIsReadOnly(t *testing.T) {
	t.Parallel()

	svc := newFixture(t).initiatives()
	ctx := context.Background()
	in := createInitiative(t, svc)
	kpi, err := svc.AddKpi(ctx, in.ID(), npsKpi())
	require.NoError(t, err)

	_, err = svc.Transition(ctx, in.ID(), ports.TransitionCancel)
	require.NoError(t, err)

	_, err = svc.AddKpi(ctx, in.ID(), npsKpi())
	require.ErrorIs(t, err, domain.ErrReadOnlyAggregate)
	_, err = svc.AddMeasurement(ctx, in.ID(), kpi.ID(), 10, domain.Date(2024, 2, 1), uuid.New(), "")
	require.ErrorIs(t, err, domain.ErrReadOnlyAggregate)
	err = svc.RemoveKpi(ctx, in.ID(), kpi.ID())
	require.ErrorIs(t, err, domain.ErrReadOnlyAggregate)
}
