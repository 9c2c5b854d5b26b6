package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appctx "github.com/orgplan/orgplan/internal/app/context"
	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/domain/strategy"
	"github.com/orgplan/orgplan/internal/ports"
)

// Compile-time check that InitiativeService implements ports.InitiativeService.
var _ ports.InitiativeService = (*InitiativeService)(nil)

// InitiativeService implements ports.InitiativeService.
type InitiativeService struct {
	runner
	initiatives ports.InitiativeRepository
}

// NewInitiativeService creates an InitiativeService.
func NewInitiativeService(initiatives ports.InitiativeRepository, deps Deps) *InitiativeService {
	return &InitiativeService{runner: newRunner(deps), initiatives: initiatives}
}

func initiativeKey(id uuid.UUID) string { return "initiative:" + id.String() }

// change loads an initiative, applies fn and stages the save.
func (s *InitiativeService) change(ctx context.Context, o operation, id uuid.UUID, fn func(in *strategy.Initiative, now time.Time) ([]domain.Event, error)) (*strategy.Initiative, error) {
	o.attrs = append([]any{slog.String("initiative_id", id.String())}, o.attrs...)

	var in *strategy.Initiative
	err := s.command(ctx, o, func(rc *appctx.RequestContext, now time.Time) error {
		loaded, err := appctx.GetOrFetch(rc, initiativeKey(id), func(ctx context.Context) (ports.Loaded[*strategy.Initiative], error) {
			return s.initiatives.GetInitiative(ctx, id)
		})
		if err != nil {
			return err
		}
		in = loaded.Aggregate
		events, err := fn(in, now)
		if err != nil {
			return err
		}
		return stage(rc, initiativeKey(id), loaded, s.initiatives.SaveInitiative(loaded), events)
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// CreateInitiative creates a proposed initiative with the next key.
func (s *InitiativeService) CreateInitiative(ctx context.Context, details strategy.Details) (*strategy.Initiative, error) {
	var created *strategy.Initiative
	err := s.command(ctx, op("CreateInitiative", "creating initiative", slog.String("name", details.Name)),
		func(rc *appctx.RequestContext, now time.Time) error {
			key, err := s.initiatives.NextInitiativeKey(rc)
			if err != nil {
				return err
			}
			var events []domain.Event
			if created, events, err = strategy.NewInitiative(key, details, now); err != nil {
				return err
			}
			loaded := ports.Loaded[*strategy.Initiative]{Aggregate: created}
			return stage(rc, initiativeKey(created.ID()), loaded, s.initiatives.SaveInitiative(loaded), events)
		})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetInitiative returns an initiative with its KPIs.
func (s *InitiativeService) GetInitiative(ctx context.Context, id uuid.UUID) (*strategy.Initiative, error) {
	var in *strategy.Initiative
	err := s.query(ctx, op("GetInitiative", "fetching initiative", slog.String("initiative_id", id.String())),
		func(ctx context.Context) error {
			loaded, err := s.initiatives.GetInitiative(ctx, id)
			in = loaded.Aggregate
			return err
		})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// UpdateInitiative replaces name, description and timeline.
func (s *InitiativeService) UpdateInitiative(ctx context.Context, id uuid.UUID, details strategy.Details) (*strategy.Initiative, error) {
	return s.change(ctx, op("UpdateInitiative", "updating initiative"), id,
		func(in *strategy.Initiative, now time.Time) ([]domain.Event, error) {
			return in.Update(details, now)
		})
}

// Transition applies one lifecycle step.
func (s *InitiativeService) Transition(ctx context.Context, id uuid.UUID, transition ports.InitiativeTransition) (*strategy.Initiative, error) {
	return s.change(ctx, op("TransitionInitiative", "transitioning initiative",
		slog.String("transition", string(transition))), id,
		func(in *strategy.Initiative, now time.Time) ([]domain.Event, error) {
			switch transition {
			case ports.TransitionApprove:
				return in.Approve(now)
			case ports.TransitionActivate:
				return in.Activate(now)
			case ports.TransitionPause:
				return in.Pause(now)
			case ports.TransitionResume:
				return in.Resume(now)
			case ports.TransitionComplete:
				return in.Complete(now)
			case ports.TransitionCancel:
				return in.Cancel(now)
			default:
				return nil, &domain.ValidationError{Fields: map[string]string{
					"transition": fmt.Sprintf("invalid: %q", transition),
				}}
			}
		})
}

// UpdateInitiativeRoles replaces every role assignment.
func (s *InitiativeService) UpdateInitiativeRoles(ctx context.Context, id uuid.UUID, roles map[strategy.Role][]uuid.UUID) (*strategy.Initiative, error) {
	return s.change(ctx, op("UpdateInitiativeRoles", "updating initiative roles"), id,
		func(in *strategy.Initiative, now time.Time) ([]domain.Event, error) {
			return in.UpdateRoles(roles, now)
		})
}

// AddKpi creates a KPI on the initiative.
func (s *InitiativeService) AddKpi(ctx context.Context, id uuid.UUID, details strategy.KpiDetails) (*strategy.Kpi, error) {
	var kpi *strategy.Kpi
	_, err := s.change(ctx, op("AddKpi", "adding kpi", slog.String("name", details.Name)), id,
		func(in *strategy.Initiative, now time.Time) ([]domain.Event, error) {
			var (
				events []domain.Event
				err    error
			)
			kpi, events, err = in.AddKpi(details, now)
			return events, err
		})
	if err != nil {
		return nil, err
	}
	return kpi, nil
}

// UpdateKpi replaces a KPI's details.
func (s *InitiativeService) UpdateKpi(ctx context.Context, id, kpiID uuid.UUID, details strategy.KpiDetails) (*strategy.Kpi, error) {
	in, err := s.change(ctx, op("UpdateKpi", "updating kpi", slog.String("kpi_id", kpiID.String())), id,
		func(in *strategy.Initiative, now time.Time) ([]domain.Event, error) {
			return in.UpdateKpi(kpiID, details, now)
		})
	if err != nil {
		return nil, err
	}
	kpi, _ := in.Kpi(kpiID)
	return kpi, nil
}

// RemoveKpi deletes a KPI with its checkpoints and measurements.
func (s *InitiativeService) RemoveKpi(ctx context.Context, id, kpiID uuid.UUID) error {
	_, err := s.change(ctx, op("RemoveKpi", "removing kpi", slog.String("kpi_id", kpiID.String())), id,
		func(in *strategy.Initiative, now time.Time) ([]domain.Event, error) {
			return in.RemoveKpi(kpiID, now)
		})
	return err
}

// AddCheckpoint plans a checkpoint inside the initiative timeline.
func (s *InitiativeService) AddCheckpoint(ctx context.Context, id, kpiID uuid.UUID, target float64, date time.Time, label string) (strategy.Checkpoint, error) {
	var c strategy.Checkpoint
	_, err := s.change(ctx, op("AddCheckpoint", "adding checkpoint",
		slog.String("kpi_id", kpiID.String()), slog.String("date", domain.FormatDate(date))), id,
		func(in *strategy.Initiative, now time.Time) ([]domain.Event, error) {
			var err error
			if c, err = strategy.NewCheckpoint(kpiID, target, date, label); err != nil {
				return nil, err
			}
			return in.AddCheckpoint(c, now)
		})
	if err != nil {
		return strategy.Checkpoint{}, err
	}
	return c, nil
}

// RemoveCheckpoint deletes a checkpoint from a KPI.
func (s *InitiativeService) RemoveCheckpoint(ctx context.Context, id, kpiID, checkpointID uuid.UUID) error {
	_, err := s.change(ctx, op("RemoveCheckpoint", "removing checkpoint",
		slog.String("kpi_id", kpiID.String()), slog.String("checkpoint_id", checkpointID.String())), id,
		func(in *strategy.Initiative, now time.Time) ([]domain.Event, error) {
			return in.RemoveCheckpoint(kpiID, checkpointID, now)
		})
	return err
}

// AddMeasurement records an actual KPI value. The note is never logged.
func (s *InitiativeService) AddMeasurement(ctx context.Context, id, kpiID uuid.UUID, value float64, measuredAt time.Time, measuredBy uuid.UUID, note string) (strategy.Measurement, error) {
	var m strategy.Measurement
	_, err := s.change(ctx, op("AddMeasurement", "adding measurement",
		slog.String("kpi_id", kpiID.String()), slog.Time("measured_at", measuredAt)), id,
		func(in *strategy.Initiative, now time.Time) ([]domain.Event, error) {
			var err error
			if m, err = strategy.NewMeasurement(kpiID, value, measuredAt, measuredBy, note, now); err != nil {
				return nil, err
			}
			return in.AddMeasurement(m, now)
		})
	if err != nil {
		return strategy.Measurement{}, err
	}
	return m, nil
}

// RemoveMeasurement deletes a measurement from a KPI.
func (s *InitiativeService) RemoveMeasurement(ctx context.Context, id, kpiID, measurementID uuid.UUID) error {
	_, err := s.change(ctx, op("RemoveMeasurement", "removing measurement",
		slog.String("kpi_id", kpiID.String()), slog.String("measurement_id", measurementID.String())), id,
		func(in *strategy.Initiative, now time.Time) ([]domain.Event, error) {
			return in.RemoveMeasurement(kpiID, measurementID, now)
		})
	return err
}
