package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/domain/organization"
	"github.com/orgplan/orgplan/internal/domain/portfolio"
	"github.com/orgplan/orgplan/internal/domain/strategy"
)

// TeamService defines the use cases of the organization hierarchy.
// Implemented by the application layer.
type TeamService interface {
	// CreateTeam creates an active team or team of teams with the next key.
	// Returns domain.ErrValidation if the kind or details are invalid.
	CreateTeam(ctx context.Context, kind organization.MemberKind, details organization.TeamDetails) (organization.Member, error)

	// GetTeam returns domain.ErrNotFound if no member has the id.
	GetTeam(ctx context.Context, id uuid.UUID) (organization.Member, error)

	UpdateTeam(ctx context.Context, id uuid.UUID, details organization.TeamDetails) (organization.Member, error)

	// SetTeamActive activates or deactivates a member. Repeating the current
	// state is a no-op.
	SetTeamActive(ctx context.Context, id uuid.UUID, active bool) (organization.Member, error)

	// AddMembership makes source a child of the team of teams target.
	AddMembership(ctx context.Context, sourceID, targetID uuid.UUID, dateRange domain.DateRange) (organization.Membership, error)

	UpdateMembership(ctx context.Context, sourceID, membershipID uuid.UUID, dateRange domain.DateRange) error

	RemoveMembership(ctx context.Context, sourceID, membershipID uuid.UUID) error

	// CreateOperatingModel starts a new current operating model for a team,
	// closing the previous current one. Empty methodology or sizing fall back
	// to the configured defaults.
	CreateOperatingModel(ctx context.Context, teamID uuid.UUID, start time.Time, methodology organization.Methodology, sizing organization.SizingMethod) (*organization.OperatingModel, error)

	// OperatingModels returns the operating model history of a team.
	OperatingModels(ctx context.Context, teamID uuid.UUID) ([]*organization.OperatingModel, error)
}

// PortfolioService defines the use cases of portfolios, programs, projects
// and project tasks. Programs and projects are addressed through the
// portfolio that owns them.
type PortfolioService interface {
	CreatePortfolio(ctx context.Context, details portfolio.Details) (*portfolio.Portfolio, error)
	GetPortfolio(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error)
	ActivatePortfolio(ctx context.Context, id uuid.UUID, start time.Time) (*portfolio.Portfolio, error)
	PausePortfolio(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error)
	ResumePortfolio(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error)
	ClosePortfolio(ctx context.Context, id uuid.UUID, end time.Time) (*portfolio.Portfolio, error)
	ArchivePortfolio(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error)
	UpdatePortfolioRoles(ctx context.Context, id uuid.UUID, roles map[portfolio.PortfolioRole][]uuid.UUID) (*portfolio.Portfolio, error)

	CreateProgram(ctx context.Context, portfolioID uuid.UUID, details portfolio.Details) (*portfolio.Program, error)
	ActivateProgram(ctx context.Context, portfolioID, programID uuid.UUID, start time.Time) (*portfolio.Program, error)
	CompleteProgram(ctx context.Context, portfolioID, programID uuid.UUID, end time.Time) (*portfolio.Program, error)
	CancelProgram(ctx context.Context, portfolioID, programID uuid.UUID, end time.Time) (*portfolio.Program, error)
	UpdateProgramRoles(ctx context.Context, portfolioID, programID uuid.UUID, roles map[portfolio.ProgramRole][]uuid.UUID) (*portfolio.Program, error)

	// CreateProject adds a project to the portfolio, optionally inside a
	// program of the same portfolio.
	CreateProject(ctx context.Context, portfolioID uuid.UUID, key string, details portfolio.Details, programID *uuid.UUID) (*portfolio.Project, error)

	// ChangeProjectProgram moves a project into programID, or out of its
	// program when programID is nil.
	ChangeProjectProgram(ctx context.Context, portfolioID, projectID uuid.UUID, programID *uuid.UUID) (*portfolio.Project, error)

	UpdateProject(ctx context.Context, portfolioID, projectID uuid.UUID, details portfolio.Details) (*portfolio.Project, error)
	UpdateProjectTimeline(ctx context.Context, portfolioID, projectID uuid.UUID, timeline *domain.DateRange) (*portfolio.Project, error)
	ActivateProject(ctx context.Context, portfolioID, projectID uuid.UUID) (*portfolio.Project, error)
	CompleteProject(ctx context.Context, portfolioID, projectID uuid.UUID) (*portfolio.Project, error)
	CancelProject(ctx context.Context, portfolioID, projectID uuid.UUID) (*portfolio.Project, error)
	AssignProjectRole(ctx context.Context, portfolioID, projectID uuid.UUID, role portfolio.ProjectRole, person uuid.UUID) (*portfolio.Project, error)
	RemoveProjectRole(ctx context.Context, portfolioID, projectID uuid.UUID, role portfolio.ProjectRole, person uuid.UUID) (*portfolio.Project, error)

	// AddTask creates a task under parentID, or a root task when parentID is
	// uuid.Nil.
	AddTask(ctx context.Context, portfolioID, projectID, parentID uuid.UUID, name string, order int) (*portfolio.Task, error)
	ChangeTaskOrder(ctx context.Context, portfolioID, projectID, taskID uuid.UUID, order int) error

	// ChangeTaskParent moves a task under newParentID, or to the root when
	// newParentID is uuid.Nil.
	ChangeTaskParent(ctx context.Context, portfolioID, projectID, taskID, newParentID uuid.UUID, order int) error
	RemoveTask(ctx context.Context, portfolioID, projectID, taskID uuid.UUID) error
}

// InitiativeTransition names a lifecycle step of a strategic initiative.
type InitiativeTransition string

const (
	TransitionApprove  InitiativeTransition = "approve"
	TransitionActivate InitiativeTransition = "activate"
	TransitionPause    InitiativeTransition = "pause"
	TransitionResume   InitiativeTransition = "resume"
	TransitionComplete InitiativeTransition = "complete"
	TransitionCancel   InitiativeTransition = "cancel"
)

// IsValid returns true if the transition is one of the defined constants.
func (t InitiativeTransition) IsValid() bool {
	switch t {
	case TransitionApprove, TransitionActivate, TransitionPause,
		TransitionResume, TransitionComplete, TransitionCancel:
		return true
	default:
		return false
	}
}

// InitiativeService defines the use cases of strategic initiatives and their
// KPIs.
type InitiativeService interface {
	CreateInitiative(ctx context.Context, details strategy.Details) (*strategy.Initiative, error)
	GetInitiative(ctx context.Context, id uuid.UUID) (*strategy.Initiative, error)
	UpdateInitiative(ctx context.Context, id uuid.UUID, details strategy.Details) (*strategy.Initiative, error)

	// Transition applies a lifecycle step. Returns domain.ErrValidation for an
	// unknown transition.
	Transition(ctx context.Context, id uuid.UUID, transition InitiativeTransition) (*strategy.Initiative, error)
	UpdateInitiativeRoles(ctx context.Context, id uuid.UUID, roles map[strategy.Role][]uuid.UUID) (*strategy.Initiative, error)

	AddKpi(ctx context.Context, id uuid.UUID, details strategy.KpiDetails) (*strategy.Kpi, error)
	UpdateKpi(ctx context.Context, id, kpiID uuid.UUID, details strategy.KpiDetails) (*strategy.Kpi, error)
	RemoveKpi(ctx context.Context, id, kpiID uuid.UUID) error

	AddCheckpoint(ctx context.Context, id, kpiID uuid.UUID, target float64, date time.Time, label string) (strategy.Checkpoint, error)
	RemoveCheckpoint(ctx context.Context, id, kpiID, checkpointID uuid.UUID) error

	// AddMeasurement records an actual value. Measurements dated in the
	// future are rejected.
	AddMeasurement(ctx context.Context, id, kpiID uuid.UUID, value float64, measuredAt time.Time, measuredBy uuid.UUID, note string) (strategy.Measurement, error)
	RemoveMeasurement(ctx context.Context, id, kpiID, measurementID uuid.UUID) error
}
