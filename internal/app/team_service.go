package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appctx "github.com/orgplan/orgplan/internal/app/context"
	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/domain/organization"
	"github.com/orgplan/orgplan/internal/platform/config"
	"github.com/orgplan/orgplan/internal/ports"
)

// Compile-time check that TeamService implements ports.TeamService.
var _ ports.TeamService = (*TeamService)(nil)

// TeamService implements ports.TeamService on top of a TeamRepository.
type TeamService struct {
	runner
	teams    ports.TeamRepository
	planning config.PlanningConfig
}

// NewTeamService creates a TeamService. Planning supplies the default way of
// working for new operating models.
func NewTeamService(teams ports.TeamRepository, planning config.PlanningConfig, deps Deps) *TeamService {
	return &TeamService{runner: newRunner(deps), teams: teams, planning: planning}
}

func memberKey(id uuid.UUID) string { return "member:" + id.String() }

func (s *TeamService) loadMember(rc *appctx.RequestContext, id uuid.UUID) (ports.Loaded[organization.Member], error) {
	return appctx.GetOrFetch(rc, memberKey(id), func(ctx context.Context) (ports.Loaded[organization.Member], error) {
		return s.teams.GetMember(ctx, id)
	})
}

// loadTarget loads a member that must be a team of teams.
func (s *TeamService) loadTarget(rc *appctx.RequestContext, id uuid.UUID) (*organization.TeamOfTeams, error) {
	loaded, err := s.loadMember(rc, id)
	if err != nil {
		return nil, err
	}
	target, ok := loaded.Aggregate.(*organization.TeamOfTeams)
	if !ok {
		return nil, organization.ErrTargetMismatch.Violationf(
			"%s is a team and cannot have members; only a team of teams can.", loaded.Aggregate.Name())
	}
	return target, nil
}

func (s *TeamService) saveMember(rc *appctx.RequestContext, loaded ports.Loaded[organization.Member], events []domain.Event) error {
	return stage(rc, memberKey(loaded.Aggregate.ID()), loaded, s.teams.SaveMember(loaded), events)
}

// CreateTeam creates an active team or team of teams.
func (s *TeamService) CreateTeam(ctx context.Context, kind organization.MemberKind, details organization.TeamDetails) (organization.Member, error) {
	var created organization.Member
	err := s.command(ctx, op("CreateTeam", "creating team",
		slog.String("kind", kind.String()), slog.String("code", details.Code)),
		func(rc *appctx.RequestContext, now time.Time) error {
			if !kind.IsValid() {
				return &domain.ValidationError{Fields: map[string]string{"kind": fmt.Sprintf("invalid: %q", kind)}}
			}
			key, err := s.teams.NextTeamKey(rc)
			if err != nil {
				return err
			}

			var events []domain.Event
			if kind == organization.KindTeamOfTeams {
				created, events, err = organization.NewTeamOfTeams(key, details, now)
			} else {
				created, events, err = organization.NewTeam(key, details, now)
			}
			if err != nil {
				return err
			}
			return s.saveMember(rc, ports.Loaded[organization.Member]{Aggregate: created}, events)
		})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetTeam returns a team or team of teams.
func (s *TeamService) GetTeam(ctx context.Context, id uuid.UUID) (organization.Member, error) {
	var m organization.Member
	err := s.query(ctx, op("GetTeam", "fetching team", slog.String("team_id", id.String())),
		func(ctx context.Context) error {
			loaded, err := s.teams.GetMember(ctx, id)
			m = loaded.Aggregate
			return err
		})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateTeam replaces code, name and description.
func (s *TeamService) UpdateTeam(ctx context.Context, id uuid.UUID, details organization.TeamDetails) (organization.Member, error) {
	var m organization.Member
	err := s.command(ctx, op("UpdateTeam", "updating team", slog.String("team_id", id.String())),
		func(rc *appctx.RequestContext, now time.Time) error {
			loaded, err := s.loadMember(rc, id)
			if err != nil {
				return err
			}
			m = loaded.Aggregate
			events, err := m.Update(details, now)
			if err != nil {
				return err
			}
			return s.saveMember(rc, loaded, events)
		})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SetTeamActive activates or deactivates a member.
func (s *TeamService) SetTeamActive(ctx context.Context, id uuid.UUID, active bool) (organization.Member, error) {
	var m organization.Member
	err := s.command(ctx, op("SetTeamActive", "changing team activity",
		slog.String("team_id", id.String()), slog.Bool("active", active)),
		func(rc *appctx.RequestContext, now time.Time) error {
			loaded, err := s.loadMember(rc, id)
			if err != nil {
				return err
			}
			m = loaded.Aggregate
			var events []domain.Event
			if active {
				events = m.Activate(now)
			} else {
				events = m.Deactivate(now)
			}
			return s.saveMember(rc, loaded, events)
		})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// AddMembership makes source a child of target for dateRange.
func (s *TeamService) AddMembership(ctx context.Context, sourceID, targetID uuid.UUID, dateRange domain.DateRange) (organization.Membership, error) {
	var ms organization.Membership
	err := s.command(ctx, op("AddMembership", "adding membership",
		slog.String("team_id", sourceID.String()),
		slog.String("target_id", targetID.String()),
		slog.String("date_range", dateRange.String())),
		func(rc *appctx.RequestContext, now time.Time) error {
			source, err := s.loadMember(rc, sourceID)
			if err != nil {
				return err
			}
			target, err := s.loadTarget(rc, targetID)
			if err != nil {
				return err
			}
			var events []domain.Event
			ms, events, err = source.Aggregate.AddMembership(target, dateRange, now)
			if err != nil {
				return err
			}
			return s.saveMember(rc, source, events)
		})
	if err != nil {
		return organization.Membership{}, err
	}
	return ms, nil
}

// UpdateMembership changes the date range of one of source's memberships.
func (s *TeamService) UpdateMembership(ctx context.Context, sourceID, membershipID uuid.UUID, dateRange domain.DateRange) error {
	return s.command(ctx, op("UpdateMembership", "updating membership",
		slog.String("team_id", sourceID.String()),
		slog.String("membership_id", membershipID.String()),
		slog.String("date_range", dateRange.String())),
		func(rc *appctx.RequestContext, now time.Time) error {
			source, target, err := s.loadMembershipSides(rc, sourceID, membershipID)
			if err != nil {
				return err
			}
			events, err := source.Aggregate.UpdateMembership(membershipID, dateRange, target, now)
			if err != nil {
				return err
			}
			return s.saveMember(rc, source, events)
		})
}

// RemoveMembership deletes one of source's memberships.
func (s *TeamService) RemoveMembership(ctx context.Context, sourceID, membershipID uuid.UUID) error {
	return s.command(ctx, op("RemoveMembership", "removing membership",
		slog.String("team_id", sourceID.String()),
		slog.String("membership_id", membershipID.String())),
		func(rc *appctx.RequestContext, now time.Time) error {
			source, target, err := s.loadMembershipSides(rc, sourceID, membershipID)
			if err != nil {
				return err
			}
			events, err := source.Aggregate.RemoveMembership(membershipID, target, now)
			if err != nil {
				return err
			}
			return s.saveMember(rc, source, events)
		})
}

// loadMembershipSides loads the source and the team of teams a membership
// points at.
func (s *TeamService) loadMembershipSides(rc *appctx.RequestContext, sourceID, membershipID uuid.UUID) (ports.Loaded[organization.Member], *organization.TeamOfTeams, error) {
	source, err := s.loadMember(rc, sourceID)
	if err != nil {
		return source, nil, err
	}

	targetID := uuid.Nil
	for _, ms := range source.Aggregate.ParentMemberships() {
		if ms.ID() == membershipID {
			targetID = ms.TargetID()
			break
		}
	}
	if targetID == uuid.Nil {
		return source, nil, organization.ErrMembershipNotFound.Violationf("Membership %s was not found.", membershipID)
	}

	target, err := s.loadTarget(rc, targetID)
	if err != nil {
		return source, nil, err
	}
	return source, target, nil
}

// CreateOperatingModel starts a new current operating model for teamID and
// closes the one it replaces.
func (s *TeamService) CreateOperatingModel(ctx context.Context, teamID uuid.UUID, start time.Time, methodology organization.Methodology, sizing organization.SizingMethod) (*organization.OperatingModel, error) {
	if methodology == "" {
		methodology = organization.Methodology(s.planning.DefaultMethodology)
	}
	if sizing == "" {
		sizing = organization.SizingMethod(s.planning.DefaultSizingMethod)
	}

	var model *organization.OperatingModel
	err := s.command(ctx, op("CreateOperatingModel", "creating operating model",
		slog.String("team_id", teamID.String()),
		slog.String("start", domain.FormatDate(start)),
		slog.String("methodology", methodology.String()),
		slog.String("sizing_method", sizing.String())),
		func(rc *appctx.RequestContext, now time.Time) error {
			if _, err := s.loadMember(rc, teamID); err != nil {
				return err
			}

			latest, err := s.teams.LatestOperatingModel(rc, teamID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			wasCurrent := latest.Aggregate != nil && latest.Aggregate.IsCurrent()

			model, err = organization.NewOperatingModel(teamID, start, methodology, sizing, latest.Aggregate)
			if err != nil {
				return err
			}

			if wasCurrent {
				if err := rc.Stage("operating_model:"+latest.Aggregate.ID().String(), latest,
					s.teams.SaveOperatingModel(latest)); err != nil {
					return err
				}
			}
			created := ports.Loaded[*organization.OperatingModel]{Aggregate: model}
			return stage(rc, "operating_model:"+model.ID().String(), created,
				s.teams.SaveOperatingModel(created), domain.Events(model.StartedEvent(now)))
		})
	if err != nil {
		return nil, err
	}
	return model, nil
}

// OperatingModels returns the operating model history of a team, oldest
// first.
func (s *TeamService) OperatingModels(ctx context.Context, teamID uuid.UUID) ([]*organization.OperatingModel, error) {
	var models []*organization.OperatingModel
	err := s.query(ctx, op("OperatingModels", "listing operating models", slog.String("team_id", teamID.String())),
		func(ctx context.Context) error {
			if _, err := s.teams.GetMember(ctx, teamID); err != nil {
				return err
			}
			var err error
			models, err = s.teams.OperatingModels(ctx, teamID)
			return err
		})
	if err != nil {
		return nil, err
	}
	return models, nil
}
