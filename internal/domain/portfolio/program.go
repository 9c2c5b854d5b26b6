package portfolio

import (
	"time"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

// Program groups related projects of one portfolio under a shared timeline.
// Programs are created and owned by their Portfolio.
type Program struct {
	id          uuid.UUID
	portfolioID uuid.UUID
	details     Details
	status      WorkStatus
	timeline    domain.DateRange
	roles       domain.RoleSet[ProgramRole]
	projects    []*Project
}

// ProgramSnapshot is the persisted state of a program. A zero Timeline means
// the program has no dates yet.
type ProgramSnapshot struct {
	ID          uuid.UUID
	PortfolioID uuid.UUID
	Name        string
	Description string
	Status      WorkStatus
	Timeline    domain.DateRange
	Roles       map[ProgramRole][]uuid.UUID
}

func newProgram(portfolioID uuid.UUID, details Details) (*Program, error) {
	d, err := details.normalize()
	if err != nil {
		return nil, err
	}
	return &Program{id: uuid.New(), portfolioID: portfolioID, details: d, status: StatusProposed}, nil
}

func rehydrateProgram(s ProgramSnapshot) (*Program, error) {
	d, err := Details{Name: s.Name, Description: s.Description}.normalize()
	if err != nil {
		return nil, err
	}
	if !s.Status.IsValid() {
		return nil, &domain.ValidationError{Fields: map[string]string{"status": "invalid: " + s.Status.String()}}
	}
	roles, err := domain.NewRoleSet(s.Roles)
	if err != nil {
		return nil, err
	}
	return &Program{
		id:          s.ID,
		portfolioID: s.PortfolioID,
		details:     d,
		status:      s.Status,
		timeline:    s.Timeline,
		roles:       roles,
	}, nil
}

// ID returns the program identifier.
func (p *Program) ID() uuid.UUID { return p.id }

// PortfolioID returns the id of the owning portfolio.
func (p *Program) PortfolioID() uuid.UUID { return p.portfolioID }

// Name returns the program name.
func (p *Program) Name() string { return p.details.Name }

// Description returns the program description.
func (p *Program) Description() string { return p.details.Description }

// Status returns the program lifecycle status.
func (p *Program) Status() WorkStatus { return p.status }

// Timeline returns the program dates, or false before activation.
func (p *Program) Timeline() (domain.DateRange, bool) { return p.timeline, !p.timeline.IsZero() }

// ProjectIDs returns the ids of the program's projects.
func (p *Program) ProjectIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.projects))
	for _, pr := range p.projects {
		ids = append(ids, pr.id)
	}
	return ids
}

// Roles returns a copy of the role assignments.
func (p *Program) Roles() map[ProgramRole][]uuid.UUID { return p.roles.Map() }

// AcceptsProjects reports whether new projects may join the program.
func (p *Program) AcceptsProjects() bool {
	return p.status == StatusProposed || p.status == StatusActive
}

// Snapshot returns the persistable state of the program.
func (p *Program) Snapshot() ProgramSnapshot {
	return ProgramSnapshot{
		ID:          p.id,
		PortfolioID: p.portfolioID,
		Name:        p.details.Name,
		Description: p.details.Description,
		Status:      p.status,
		Timeline:    p.timeline,
		Roles:       p.roles.Map(),
	}
}

// Activate starts a proposed program on start.
func (p *Program) Activate(start, now time.Time) ([]domain.Event, error) {
	if p.status != StatusProposed {
		return nil, ErrInvalidTransition.Violation("Only proposed programs can be activated.")
	}
	p.status = StatusActive
	p.timeline = domain.OpenDateRange(start)
	return domain.Events(p.event(EventProgramActivated, now).With("start", domain.FormatDate(start))), nil
}

// Complete finishes an active program on end. Every project must be closed.
func (p *Program) Complete(end, now time.Time) ([]domain.Event, error) {
	if p.status != StatusActive {
		return nil, ErrInvalidTransition.Violation("Only active programs can be completed.")
	}
	return p.close(StatusCompleted, EventProgramCompleted, end, now)
}

// Cancel stops an active program on end. Every project must be closed.
func (p *Program) Cancel(end, now time.Time) ([]domain.Event, error) {
	if p.status != StatusActive {
		return nil, ErrInvalidTransition.Violation("Only active programs can be cancelled.")
	}
	return p.close(StatusCancelled, EventProgramCancelled, end, now)
}

func (p *Program) close(status WorkStatus, t domain.EventType, end, now time.Time) ([]domain.Event, error) {
	for _, pr := range p.projects {
		if !pr.status.IsClosed() {
			return nil, ErrOpenProjects.Violation("All projects must be completed or cancelled before the program can be closed.")
		}
	}
	timeline, err := closeRange(p.timeline, end)
	if err != nil {
		return nil, err
	}
	p.status = status
	p.timeline = timeline
	return domain.Events(p.event(t, now).With("end", domain.FormatDate(end))), nil
}

// AssignRole gives role to person.
func (p *Program) AssignRole(role ProgramRole, person uuid.UUID, now time.Time) ([]domain.Event, error) {
	return roleChange(p.status.IsClosed(), p.details.Name, EventProgramRolesUpdated, p.id, now, func() error {
		return p.roles.Assign(role, person)
	})
}

// RemoveRole takes role away from person.
func (p *Program) RemoveRole(role ProgramRole, person uuid.UUID, now time.Time) ([]domain.Event, error) {
	return roleChange(p.status.IsClosed(), p.details.Name, EventProgramRolesUpdated, p.id, now, func() error {
		return p.roles.Remove(role, person)
	})
}

// UpdateRoles replaces every role assignment.
func (p *Program) UpdateRoles(roles map[ProgramRole][]uuid.UUID, now time.Time) ([]domain.Event, error) {
	return roleChange(p.status.IsClosed(), p.details.Name, EventProgramRolesUpdated, p.id, now, func() error {
		return p.roles.Update(roles)
	})
}

func (p *Program) event(t domain.EventType, now time.Time) domain.Event {
	return domain.NewEvent(t, p.id, now).With("portfolio_id", p.portfolioID.String())
}
