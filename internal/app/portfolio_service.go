package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appctx "github.com/orgplan/orgplan/internal/app/context"
	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/domain/portfolio"
	"github.com/orgplan/orgplan/internal/platform/config"
	"github.com/orgplan/orgplan/internal/ports"
)

// Compile-time check that PortfolioService implements ports.PortfolioService.
var _ ports.PortfolioService = (*PortfolioService)(nil)

// PortfolioService implements ports.PortfolioService. Programs, projects and
// tasks live inside the portfolio aggregate, so every use case loads and
// saves exactly one portfolio.
type PortfolioService struct {
	runner
	portfolios ports.PortfolioRepository
	planning   config.PlanningConfig
}

// NewPortfolioService creates a PortfolioService. Planning supplies the task
// depth limit applied to every loaded project.
func NewPortfolioService(portfolios ports.PortfolioRepository, planning config.PlanningConfig, deps Deps) *PortfolioService {
	return &PortfolioService{runner: newRunner(deps), portfolios: portfolios, planning: planning}
}

func portfolioKey(id uuid.UUID) string { return "portfolio:" + id.String() }

func (s *PortfolioService) load(rc *appctx.RequestContext, id uuid.UUID) (ports.Loaded[*portfolio.Portfolio], error) {
	return appctx.GetOrFetch(rc, portfolioKey(id), func(ctx context.Context) (ports.Loaded[*portfolio.Portfolio], error) {
		loaded, err := s.portfolios.GetPortfolio(ctx, id)
		if err != nil {
			return loaded, err
		}
		s.applyLimits(loaded.Aggregate)
		return loaded, nil
	})
}

func (s *PortfolioService) applyLimits(p *portfolio.Portfolio) {
	for _, pr := range p.Projects() {
		pr.Tasks().SetMaxDepth(s.planning.MaxTaskDepth)
	}
}

// change loads a portfolio, applies fn and stages the save.
func (s *PortfolioService) change(rc *appctx.RequestContext, id uuid.UUID, fn func(p *portfolio.Portfolio) ([]domain.Event, error)) (*portfolio.Portfolio, error) {
	loaded, err := s.load(rc, id)
	if err != nil {
		return nil, err
	}
	events, err := fn(loaded.Aggregate)
	if err != nil {
		return nil, err
	}
	return loaded.Aggregate, stage(rc, portfolioKey(id), loaded, s.portfolios.SavePortfolio(loaded), events)
}

// changeProgram is change for one program of the portfolio.
func (s *PortfolioService) changeProgram(rc *appctx.RequestContext, portfolioID, programID uuid.UUID, fn func(prog *portfolio.Program) ([]domain.Event, error)) (*portfolio.Program, error) {
	var prog *portfolio.Program
	_, err := s.change(rc, portfolioID, func(p *portfolio.Portfolio) ([]domain.Event, error) {
		var (
			events []domain.Event
			err    error
		)
		prog, events, err = p.EditProgram(programID, fn)
		return events, err
	})
	return prog, err
}

// changeProject is change for one project of the portfolio.
func (s *PortfolioService) changeProject(rc *appctx.RequestContext, portfolioID, projectID uuid.UUID, fn func(proj *portfolio.Project) ([]domain.Event, error)) (*portfolio.Project, error) {
	var proj *portfolio.Project
	_, err := s.change(rc, portfolioID, func(p *portfolio.Portfolio) ([]domain.Event, error) {
		var (
			events []domain.Event
			err    error
		)
		proj, events, err = p.EditProject(projectID, fn)
		return events, err
	})
	return proj, err
}

// CreatePortfolio creates a proposed portfolio with the next key.
func (s *PortfolioService) CreatePortfolio(ctx context.Context, details portfolio.Details) (*portfolio.Portfolio, error) {
	var created *portfolio.Portfolio
	err := s.command(ctx, op("CreatePortfolio", "creating portfolio", slog.String("name", details.Name)),
		func(rc *appctx.RequestContext, now time.Time) error {
			key, err := s.portfolios.NextPortfolioKey(rc)
			if err != nil {
				return err
			}
			var events []domain.Event
			if created, events, err = portfolio.NewPortfolio(key, details, now); err != nil {
				return err
			}
			loaded := ports.Loaded[*portfolio.Portfolio]{Aggregate: created}
			return stage(rc, portfolioKey(created.ID()), loaded, s.portfolios.SavePortfolio(loaded), events)
		})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetPortfolio returns a portfolio with its programs, projects and tasks.
func (s *PortfolioService) GetPortfolio(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error) {
	var p *portfolio.Portfolio
	err := s.query(ctx, op("GetPortfolio", "fetching portfolio", slog.String("portfolio_id", id.String())),
		func(ctx context.Context) error {
			loaded, err := s.portfolios.GetPortfolio(ctx, id)
			if err != nil {
				return err
			}
			p = loaded.Aggregate
			s.applyLimits(p)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// portfolioCommand runs one portfolio-level transition.
func (s *PortfolioService) portfolioCommand(ctx context.Context, name, msg string, id uuid.UUID, fn func(p *portfolio.Portfolio, now time.Time) ([]domain.Event, error)) (*portfolio.Portfolio, error) {
	var p *portfolio.Portfolio
	err := s.command(ctx, op(name, msg, slog.String("portfolio_id", id.String())),
		func(rc *appctx.RequestContext, now time.Time) error {
			var err error
			p, err = s.change(rc, id, func(p *portfolio.Portfolio) ([]domain.Event, error) {
				return fn(p, now)
			})
			return err
		})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ActivatePortfolio starts a proposed portfolio on start.
func (s *PortfolioService) ActivatePortfolio(ctx context.Context, id uuid.UUID, start time.Time) (*portfolio.Portfolio, error) {
	return s.portfolioCommand(ctx, "ActivatePortfolio", "activating portfolio", id,
		func(p *portfolio.Portfolio, now time.Time) ([]domain.Event, error) {
			return p.Activate(start, now)
		})
}

// PausePortfolio puts an active portfolio on hold.
func (s *PortfolioService) PausePortfolio(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error) {
	return s.portfolioCommand(ctx, "PausePortfolio", "pausing portfolio", id,
		func(p *portfolio.Portfolio, now time.Time) ([]domain.Event, error) {
			return p.Pause(now)
		})
}

// ResumePortfolio reactivates a portfolio that is on hold.
func (s *PortfolioService) ResumePortfolio(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error) {
	return s.portfolioCommand(ctx, "ResumePortfolio", "resuming portfolio", id,
		func(p *portfolio.Portfolio, now time.Time) ([]domain.Event, error) {
			return p.Resume(now)
		})
}

// ClosePortfolio ends a portfolio on end once all its work is closed.
func (s *PortfolioService) ClosePortfolio(ctx context.Context, id uuid.UUID, end time.Time) (*portfolio.Portfolio, error) {
	return s.portfolioCommand(ctx, "ClosePortfolio", "closing portfolio", id,
		func(p *portfolio.Portfolio, now time.Time) ([]domain.Event, error) {
			return p.Close(end, now)
		})
}

// ArchivePortfolio retires a closed portfolio.
func (s *PortfolioService) ArchivePortfolio(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error) {
	return s.portfolioCommand(ctx, "ArchivePortfolio", "archiving portfolio", id,
		func(p *portfolio.Portfolio, now time.Time) ([]domain.Event, error) {
			return p.Archive(now)
		})
}

// UpdatePortfolioRoles replaces every portfolio role assignment.
func (s *PortfolioService) UpdatePortfolioRoles(ctx context.Context, id uuid.UUID, roles map[portfolio.PortfolioRole][]uuid.UUID) (*portfolio.Portfolio, error) {
	return s.portfolioCommand(ctx, "UpdatePortfolioRoles", "updating portfolio roles", id,
		func(p *portfolio.Portfolio, now time.Time) ([]domain.Event, error) {
			return p.UpdateRoles(roles, now)
		})
}

// CreateProgram adds a proposed program to a portfolio.
func (s *PortfolioService) CreateProgram(ctx context.Context, portfolioID uuid.UUID, details portfolio.Details) (*portfolio.Program, error) {
	var prog *portfolio.Program
	err := s.command(ctx, op("CreateProgram", "creating program",
		slog.String("portfolio_id", portfolioID.String()), slog.String("name", details.Name)),
		func(rc *appctx.RequestContext, now time.Time) error {
			_, err := s.change(rc, portfolioID, func(p *portfolio.Portfolio) ([]domain.Event, error) {
				var (
					events []domain.Event
					err    error
				)
				prog, events, err = p.CreateProgram(details, now)
				return events, err
			})
			return err
		})
	if err != nil {
		return nil, err
	}
	return prog, nil
}

// programCommand runs one program-level change.
func (s *PortfolioService) programCommand(ctx context.Context, name, msg string, portfolioID, programID uuid.UUID, fn func(prog *portfolio.Program, now time.Time) ([]domain.Event, error)) (*portfolio.Program, error) {
	var prog *portfolio.Program
	err := s.command(ctx, op(name, msg,
		slog.String("portfolio_id", portfolioID.String()), slog.String("program_id", programID.String())),
		func(rc *appctx.RequestContext, now time.Time) error {
			var err error
			prog, err = s.changeProgram(rc, portfolioID, programID, func(prog *portfolio.Program) ([]domain.Event, error) {
				return fn(prog, now)
			})
			return err
		})
	if err != nil {
		return nil, err
	}
	return prog, nil
}

// ActivateProgram starts a proposed program on start.
func (s *PortfolioService) ActivateProgram(ctx context.Context, portfolioID, programID uuid.UUID, start time.Time) (*portfolio.Program, error) {
	return s.programCommand(ctx, "ActivateProgram", "activating program", portfolioID, programID,
		func(prog *portfolio.Program, now time.Time) ([]domain.Event, error) {
			return prog.Activate(start, now)
		})
}

// CompleteProgram finishes an active program on end.
func (s *PortfolioService) CompleteProgram(ctx context.Context, portfolioID, programID uuid.UUID, end time.Time) (*portfolio.Program, error) {
	return s.programCommand(ctx, "CompleteProgram", "completing program", portfolioID, programID,
		func(prog *portfolio.Program, now time.Time) ([]domain.Event, error) {
			return prog.Complete(end, now)
		})
}

// CancelProgram stops an active program on end.
func (s *PortfolioService) CancelProgram(ctx context.Context, portfolioID, programID uuid.UUID, end time.Time) (*portfolio.Program, error) {
	return s.programCommand(ctx, "CancelProgram", "cancelling program", portfolioID, programID,
		func(prog *portfolio.Program, now time.Time) ([]domain.Event, error) {
			return prog.Cancel(end, now)
		})
}

// UpdateProgramRoles replaces every program role assignment.
func (s *PortfolioService) UpdateProgramRoles(ctx context.Context, portfolioID, programID uuid.UUID, roles map[portfolio.ProgramRole][]uuid.UUID) (*portfolio.Program, error) {
	return s.programCommand(ctx, "UpdateProgramRoles", "updating program roles", portfolioID, programID,
		func(prog *portfolio.Program, now time.Time) ([]domain.Event, error) {
			return prog.UpdateRoles(roles, now)
		})
}

// CreateProject adds a proposed project, optionally inside programID.
func (s *PortfolioService) CreateProject(ctx context.Context, portfolioID uuid.UUID, key string, details portfolio.Details, programID *uuid.UUID) (*portfolio.Project, error) {
	var proj *portfolio.Project
	err := s.command(ctx, op("CreateProject", "creating project",
		slog.String("portfolio_id", portfolioID.String()), slog.String("key", key)),
		func(rc *appctx.RequestContext, now time.Time) error {
			_, err := s.change(rc, portfolioID, func(p *portfolio.Portfolio) ([]domain.Event, error) {
				prog, err := s.resolveProgram(rc, p, programID)
				if err != nil {
					return nil, err
				}
				var events []domain.Event
				if proj, events, err = p.CreateProject(key, details, prog, now); err != nil {
					return nil, err
				}
				proj.Tasks().SetMaxDepth(s.planning.MaxTaskDepth)
				return events, nil
			})
			return err
		})
	if err != nil {
		return nil, err
	}
	return proj, nil
}

// ChangeProjectProgram moves a project into programID, or out of its program
// when programID is nil.
func (s *PortfolioService) ChangeProjectProgram(ctx context.Context, portfolioID, projectID uuid.UUID, programID *uuid.UUID) (*portfolio.Project, error) {
	var proj *portfolio.Project
	err := s.command(ctx, op("ChangeProjectProgram", "changing project program",
		slog.String("portfolio_id", portfolioID.String()), slog.String("project_id", projectID.String())),
		func(rc *appctx.RequestContext, now time.Time) error {
			_, err := s.change(rc, portfolioID, func(p *portfolio.Portfolio) ([]domain.Event, error) {
				prog, err := s.resolveProgram(rc, p, programID)
				if err != nil {
					return nil, err
				}
				events, err := p.ChangeProjectProgram(projectID, prog, now)
				if err != nil {
					return nil, err
				}
				proj, _ = p.Project(projectID)
				return events, nil
			})
			return err
		})
	if err != nil {
		return nil, err
	}
	return proj, nil
}

// resolveProgram looks up an optional program, first in p and then in
// whichever portfolio owns it, so the domain can reject a program of another
// portfolio with WrongPortfolio.
func (s *PortfolioService) resolveProgram(rc *appctx.RequestContext, p *portfolio.Portfolio, programID *uuid.UUID) (*portfolio.Program, error) {
	if programID == nil {
		return nil, nil
	}
	if prog, ok := p.Program(*programID); ok {
		return prog, nil
	}
	owner, err := s.portfolios.FindPortfolioByProgram(rc, *programID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, portfolio.ErrProgramNotFound.Violationf("Program %s was not found.", *programID)
	}
	if err != nil {
		return nil, err
	}
	prog, ok := owner.Aggregate.Program(*programID)
	if !ok {
		return nil, portfolio.ErrProgramNotFound.Violationf("Program %s was not found.", *programID)
	}
	return prog, nil
}

// projectCommand runs one project-level change.
func (s *PortfolioService) projectCommand(ctx context.Context, name, msg string, portfolioID, projectID uuid.UUID, fn func(proj *portfolio.Project, now time.Time) ([]domain.Event, error)) (*portfolio.Project, error) {
	var proj *portfolio.Project
	err := s.command(ctx, op(name, msg,
		slog.String("portfolio_id", portfolioID.String()), slog.String("project_id", projectID.String())),
		func(rc *appctx.RequestContext, now time.Time) error {
			var err error
			proj, err = s.changeProject(rc, portfolioID, projectID, func(proj *portfolio.Project) ([]domain.Event, error) {
				return fn(proj, now)
			})
			return err
		})
	if err != nil {
		return nil, err
	}
	return proj, nil
}

// UpdateProject replaces a project's name and description.
func (s *PortfolioService) UpdateProject(ctx context.Context, portfolioID, projectID uuid.UUID, details portfolio.Details) (*portfolio.Project, error) {
	return s.projectCommand(ctx, "UpdateProject", "updating project", portfolioID, projectID,
		func(proj *portfolio.Project, now time.Time) ([]domain.Event, error) {
			return proj.Update(details, now)
		})
}

// UpdateProjectTimeline sets or, with a nil timeline, clears the planned
// dates.
func (s *PortfolioService) UpdateProjectTimeline(ctx context.Context, portfolioID, projectID uuid.UUID, timeline *domain.DateRange) (*portfolio.Project, error) {
	return s.projectCommand(ctx, "UpdateProjectTimeline", "updating project timeline", portfolioID, projectID,
		func(proj *portfolio.Project, now time.Time) ([]domain.Event, error) {
			return proj.UpdateTimeline(timeline, now)
		})
}

// ActivateProject starts a proposed project that has a timeline.
func (s *PortfolioService) ActivateProject(ctx context.Context, portfolioID, projectID uuid.UUID) (*portfolio.Project, error) {
	return s.projectCommand(ctx, "ActivateProject", "activating project", portfolioID, projectID,
		func(proj *portfolio.Project, now time.Time) ([]domain.Event, error) {
			return proj.Activate(now)
		})
}

// CompleteProject finishes an active project.
func (s *PortfolioService) CompleteProject(ctx context.Context, portfolioID, projectID uuid.UUID) (*portfolio.Project, error) {
	return s.projectCommand(ctx, "CompleteProject", "completing project", portfolioID, projectID,
		func(proj *portfolio.Project, now time.Time) ([]domain.Event, error) {
			return proj.Complete(now)
		})
}

// CancelProject stops a proposed or active project.
func (s *PortfolioService) CancelProject(ctx context.Context, portfolioID, projectID uuid.UUID) (*portfolio.Project, error) {
	return s.projectCommand(ctx, "CancelProject", "cancelling project", portfolioID, projectID,
		func(proj *portfolio.Project, now time.Time) ([]domain.Event, error) {
			return proj.Cancel(now)
		})
}

// AssignProjectRole gives role to person.
func (s *PortfolioService) AssignProjectRole(ctx context.Context, portfolioID, projectID uuid.UUID, role portfolio.ProjectRole, person uuid.UUID) (*portfolio.Project, error) {
	return s.projectCommand(ctx, "AssignProjectRole", "assigning project role", portfolioID, projectID,
		func(proj *portfolio.Project, now time.Time) ([]domain.Event, error) {
			return proj.AssignRole(role, person, now)
		})
}

// RemoveProjectRole takes role away from person.
func (s *PortfolioService) RemoveProjectRole(ctx context.Context, portfolioID, projectID uuid.UUID, role portfolio.ProjectRole, person uuid.UUID) (*portfolio.Project, error) {
	return s.projectCommand(ctx, "RemoveProjectRole", "removing project role", portfolioID, projectID,
		func(proj *portfolio.Project, now time.Time) ([]domain.Event, error) {
			return proj.RemoveRole(role, person, now)
		})
}

// AddTask creates a task under parentID, or a root task for uuid.Nil.
func (s *PortfolioService) AddTask(ctx context.Context, portfolioID, projectID, parentID uuid.UUID, name string, order int) (*portfolio.Task, error) {
	var task *portfolio.Task
	_, err := s.projectCommand(ctx, "AddTask", "adding task", portfolioID, projectID,
		func(proj *portfolio.Project, now time.Time) ([]domain.Event, error) {
			var (
				events []domain.Event
				err    error
			)
			task, events, err = proj.AddTask(parentID, name, order, now)
			return events, err
		})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ChangeTaskOrder repositions a task among its siblings.
func (s *PortfolioService) ChangeTaskOrder(ctx context.Context, portfolioID, projectID, taskID uuid.UUID, order int) error {
	_, err := s.projectCommand(ctx, "ChangeTaskOrder", "reordering task", portfolioID, projectID,
		func(proj *portfolio.Project, now time.Time) ([]domain.Event, error) {
			return proj.ChangeTaskOrder(taskID, order, now)
		})
	return err
}

// ChangeTaskParent moves a task and its subtree under newParentID.
func (s *PortfolioService) ChangeTaskParent(ctx context.Context, portfolioID, projectID, taskID, newParentID uuid.UUID, order int) error {
	_, err := s.projectCommand(ctx, "ChangeTaskParent", "moving task", portfolioID, projectID,
		func(proj *portfolio.Project, now time.Time) ([]domain.Event, error) {
			return proj.ChangeTaskParent(taskID, newParentID, order, now)
		})
	return err
}

// RemoveTask deletes a leaf task.
func (s *PortfolioService) RemoveTask(ctx context.Context, portfolioID, projectID, taskID uuid.UUID) error {
	_, err := s.projectCommand(ctx, "RemoveTask", "removing task", portfolioID, projectID,
		func(proj *portfolio.Project, now time.Time) ([]domain.Event, error) {
			return proj.RemoveTask(taskID, now)
		})
	return err
}
