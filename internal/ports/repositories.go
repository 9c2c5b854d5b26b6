package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/domain/organization"
	"github.com/orgplan/orgplan/internal/domain/portfolio"
	"github.com/orgplan/orgplan/internal/domain/strategy"
)

// Loaded pairs an aggregate with the version it was read at. A zero Version
// marks an aggregate that has never been saved.
type Loaded[T any] struct {
	Aggregate T
	Version   int64
}

// TeamRepository persists teams, teams of teams and their operating models.
//
// Save methods do not write immediately. They return a domain.Action that the
// unit of work executes on commit; Execute fails with domain.ErrConflict when
// the stored version no longer matches the loaded one.
type TeamRepository interface {
	// NextTeamKey allocates the next sequential key shared by both member kinds.
	NextTeamKey(ctx context.Context) (int, error)

	// GetMember returns a team or team of teams.
	// Returns domain.ErrNotFound if no member has the id.
	GetMember(ctx context.Context, id uuid.UUID) (Loaded[organization.Member], error)

	// SaveMember returns the write for a member.
	SaveMember(m Loaded[organization.Member]) domain.Action

	// LatestOperatingModel returns the most recently started operating model
	// of a team. Returns domain.ErrNotFound if the team has none.
	LatestOperatingModel(ctx context.Context, teamID uuid.UUID) (Loaded[*organization.OperatingModel], error)

	// OperatingModels returns every operating model of a team ordered by start.
	OperatingModels(ctx context.Context, teamID uuid.UUID) ([]*organization.OperatingModel, error)

	// SaveOperatingModel returns the write for an operating model.
	SaveOperatingModel(m Loaded[*organization.OperatingModel]) domain.Action
}

// PortfolioRepository persists portfolios together with their programs,
// projects and tasks.
type PortfolioRepository interface {
	NextPortfolioKey(ctx context.Context) (int, error)

	// GetPortfolio returns domain.ErrNotFound if no portfolio has the id.
	GetPortfolio(ctx context.Context, id uuid.UUID) (Loaded[*portfolio.Portfolio], error)

	// FindPortfolioByProgram returns the portfolio that owns a program.
	// Returns domain.ErrNotFound if no portfolio has the program.
	FindPortfolioByProgram(ctx context.Context, programID uuid.UUID) (Loaded[*portfolio.Portfolio], error)

	SavePortfolio(p Loaded[*portfolio.Portfolio]) domain.Action
}

// InitiativeRepository persists strategic initiatives with their KPIs.
type InitiativeRepository interface {
	NextInitiativeKey(ctx context.Context) (int, error)

	// GetInitiative returns domain.ErrNotFound if no initiative has the id.
	GetInitiative(ctx context.Context, id uuid.UUID) (Loaded[*strategy.Initiative], error)

	SaveInitiative(in Loaded[*strategy.Initiative]) domain.Action
}
