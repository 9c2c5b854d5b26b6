package portfolio

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

// Portfolio is the aggregate root for a body of planned work. It owns its
// programs and projects and enforces every rule that spans them.
type Portfolio struct {
	id       uuid.UUID
	key      int
	details  Details
	status   PortfolioStatus
	timeline domain.DateRange
	roles    domain.RoleSet[PortfolioRole]
	programs []*Program
	projects []*Project
}

// PortfolioSnapshot is the persisted state of a portfolio and its children.
type PortfolioSnapshot struct {
	ID          uuid.UUID
	Key         int
	Name        string
	Description string
	Status      PortfolioStatus
	Timeline    domain.DateRange
	Roles       map[PortfolioRole][]uuid.UUID
	Programs    []ProgramSnapshot
	Projects    []ProjectSnapshot
}

// NewPortfolio creates a proposed portfolio.
func NewPortfolio(key int, details Details, now time.Time) (*Portfolio, []domain.Event, error) {
	if key <= 0 {
		return nil, nil, &domain.ValidationError{Fields: map[string]string{"key": fmt.Sprintf("must be positive, got %d", key)}}
	}
	d, err := details.normalize()
	if err != nil {
		return nil, nil, err
	}
	p := &Portfolio{id: uuid.New(), key: key, details: d, status: PortfolioProposed}
	return p, domain.Events(p.event(EventPortfolioCreated, now).With("name", d.Name)), nil
}

// RehydratePortfolio rebuilds a portfolio, its programs and its projects from
// persisted state without emitting events.
func RehydratePortfolio(s PortfolioSnapshot) (*Portfolio, error) {
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
	p := &Portfolio{id: s.ID, key: s.Key, details: d, status: s.Status, timeline: s.Timeline, roles: roles}

	for _, ps := range s.Programs {
		if ps.PortfolioID != s.ID {
			return nil, fmt.Errorf("program %s belongs to portfolio %s: %w", ps.ID, ps.PortfolioID, domain.ErrValidation)
		}
		prog, err := rehydrateProgram(ps)
		if err != nil {
			return nil, fmt.Errorf("program %s: %w", ps.ID, err)
		}
		p.programs = append(p.programs, prog)
	}
	for _, ps := range s.Projects {
		if ps.PortfolioID != s.ID {
			return nil, fmt.Errorf("project %s belongs to portfolio %s: %w", ps.ID, ps.PortfolioID, domain.ErrValidation)
		}
		proj, err := rehydrateProject(ps)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", ps.ID, err)
		}
		if programID, ok := proj.ProgramID(); ok {
			prog, found := p.Program(programID)
			if !found {
				return nil, fmt.Errorf("project %s references unknown program %s: %w", ps.ID, programID, domain.ErrValidation)
			}
			prog.projects = append(prog.projects, proj)
		}
		p.projects = append(p.projects, proj)
	}
	return p, nil
}

// ID returns the portfolio identifier.
func (p *Portfolio) ID() uuid.UUID { return p.id }

// Key returns the organization-scoped portfolio number.
func (p *Portfolio) Key() int { return p.key }

// Name returns the portfolio name.
func (p *Portfolio) Name() string { return p.details.Name }

// Description returns the portfolio description.
func (p *Portfolio) Description() string { return p.details.Description }

// Status returns the portfolio lifecycle status.
func (p *Portfolio) Status() PortfolioStatus { return p.status }

// Timeline returns the portfolio dates, or false before activation.
func (p *Portfolio) Timeline() (domain.DateRange, bool) { return p.timeline, !p.timeline.IsZero() }

// Roles returns a copy of the role assignments.
func (p *Portfolio) Roles() map[PortfolioRole][]uuid.UUID { return p.roles.Map() }

// Programs returns the portfolio's programs in creation order.
func (p *Portfolio) Programs() []*Program { return slices.Clone(p.programs) }

// Projects returns the portfolio's projects in creation order.
func (p *Portfolio) Projects() []*Project { return slices.Clone(p.projects) }

// ProjectsWithin returns the projects whose timeline falls inside period. A
// project without an end date counts when it starts inside period. Projects
// without a timeline are skipped.
func (p *Portfolio) ProjectsWithin(period domain.DateRange) []*Project {
	var out []*Project
	for _, pr := range p.projects {
		if !pr.timeline.IsZero() && period.Contains(pr.timeline, domain.TimelineInclude) {
			out = append(out, pr)
		}
	}
	return out
}

// Program returns the owned program with id.
func (p *Portfolio) Program(id uuid.UUID) (*Program, bool) {
	i := slices.IndexFunc(p.programs, func(pr *Program) bool { return pr.id == id })
	if i < 0 {
		return nil, false
	}
	return p.programs[i], true
}

// Project returns the owned project with id.
func (p *Portfolio) Project(id uuid.UUID) (*Project, bool) {
	i := slices.IndexFunc(p.projects, func(pr *Project) bool { return pr.id == id })
	if i < 0 {
		return nil, false
	}
	return p.projects[i], true
}

// Snapshot returns the persistable state of the portfolio and its children.
func (p *Portfolio) Snapshot() PortfolioSnapshot {
	s := PortfolioSnapshot{
		ID:          p.id,
		Key:         p.key,
		Name:        p.details.Name,
		Description: p.details.Description,
		Status:      p.status,
		Timeline:    p.timeline,
		Roles:       p.roles.Map(),
	}
	for _, pr := range p.programs {
		s.Programs = append(s.Programs, pr.Snapshot())
	}
	for _, pr := range p.projects {
		s.Projects = append(s.Projects, pr.Snapshot())
	}
	return s
}

// Activate starts a proposed portfolio on start.
func (p *Portfolio) Activate(start, now time.Time) ([]domain.Event, error) {
	if p.status != PortfolioProposed {
		return nil, ErrInvalidTransition.Violation("Only proposed portfolios can be activated.")
	}
	p.status = PortfolioActive
	p.timeline = domain.OpenDateRange(start)
	return domain.Events(p.event(EventPortfolioActivated, now).With("start", domain.FormatDate(start))), nil
}

// Pause puts an active portfolio on hold.
func (p *Portfolio) Pause(now time.Time) ([]domain.Event, error) {
	if p.status != PortfolioActive {
		return nil, ErrInvalidTransition.Violation("Only active portfolios can be put on hold.")
	}
	p.status = PortfolioOnHold
	return domain.Events(p.event(EventPortfolioPaused, now)), nil
}

// Resume reactivates a portfolio that is on hold.
func (p *Portfolio) Resume(now time.Time) ([]domain.Event, error) {
	if p.status != PortfolioOnHold {
		return nil, ErrInvalidTransition.Violation("Only portfolios on hold can be resumed.")
	}
	p.status = PortfolioActive
	return domain.Events(p.event(EventPortfolioResumed, now)), nil
}

// Close ends an active or on-hold portfolio on end. Every program and project
// must be completed or cancelled first.
func (p *Portfolio) Close(end, now time.Time) ([]domain.Event, error) {
	if p.status != PortfolioActive && p.status != PortfolioOnHold {
		return nil, ErrInvalidTransition.Violation("Only active or on hold portfolios can be closed.")
	}
	for _, pr := range p.projects {
		if !pr.status.IsClosed() {
			return nil, ErrOpenChildren.Violation("All projects must be completed or cancelled before the portfolio can be closed.")
		}
	}
	for _, pr := range p.programs {
		if !pr.status.IsClosed() {
			return nil, ErrOpenChildren.Violation("All programs must be completed or cancelled before the portfolio can be closed.")
		}
	}
	timeline, err := closeRange(p.timeline, end)
	if err != nil {
		return nil, err
	}
	p.status = PortfolioClosed
	p.timeline = timeline
	return domain.Events(p.event(EventPortfolioClosed, now).With("end", domain.FormatDate(end))), nil
}

// Archive retires a closed portfolio. Archived portfolios are read-only.
func (p *Portfolio) Archive(now time.Time) ([]domain.Event, error) {
	if p.status != PortfolioClosed {
		return nil, ErrInvalidTransition.Violation("Only closed portfolios can be archived.")
	}
	p.status = PortfolioArchived
	return domain.Events(p.event(EventPortfolioArchived, now)), nil
}

// CreateProgram adds a proposed program to the portfolio.
func (p *Portfolio) CreateProgram(details Details, now time.Time) (*Program, []domain.Event, error) {
	if err := p.requireWritable(); err != nil {
		return nil, nil, err
	}
	prog, err := newProgram(p.id, details)
	if err != nil {
		return nil, nil, err
	}
	p.programs = append(p.programs, prog)
	e := p.event(EventPortfolioProgramCreated, now).About(prog.id).With("name", prog.Name())
	return prog, domain.Events(e), nil
}

// CreateProject adds a proposed project to the portfolio. When program is
// non-nil the project joins it; the program must belong to this portfolio and
// still accept projects.
func (p *Portfolio) CreateProject(key string, details Details, program *Program, now time.Time) (*Project, []domain.Event, error) {
	if err := p.requireWritable(); err != nil {
		return nil, nil, err
	}
	pk, err := NewProjectKey(key)
	if err != nil {
		return nil, nil, err
	}
	if slices.ContainsFunc(p.projects, func(pr *Project) bool { return pr.key == pk }) {
		return nil, nil, ErrDuplicateKey.Violationf("A project with key %s already exists.", pk)
	}
	var owned *Program
	if program != nil {
		if owned, err = p.ownedProgram(program); err != nil {
			return nil, nil, err
		}
		if !owned.AcceptsProjects() {
			return nil, nil, ErrProgramNotAcceptingProjects.Violationf(
				"The program %s is %s and cannot accept new projects.", owned.Name(), owned.status)
		}
	}

	proj, err := newProject(p.id, pk, details)
	if err != nil {
		return nil, nil, err
	}
	e := p.event(EventPortfolioProjectCreated, now).About(proj.id).With("key", pk.String())
	if owned != nil {
		proj.programID = owned.id
		owned.projects = append(owned.projects, proj)
		e = e.With("program_id", owned.id.String())
	}
	p.projects = append(p.projects, proj)
	return proj, domain.Events(e), nil
}

// ChangeProjectProgram moves a project into program, or out of its current
// program when program is nil. Both program collections and the project's
// back-reference are updated together.
func (p *Portfolio) ChangeProjectProgram(projectID uuid.UUID, program *Program, now time.Time) ([]domain.Event, error) {
	if err := p.requireWritable(); err != nil {
		return nil, err
	}
	proj, ok := p.Project(projectID)
	if !ok {
		return nil, ErrProjectNotFound.Violationf("Project %s was not found in portfolio %s.", projectID, p.details.Name)
	}

	var target *Program
	if program == nil {
		if proj.programID == uuid.Nil {
			return nil, ErrNoProgram.Violation("The project is not assigned to a program.")
		}
	} else {
		if program.id == proj.programID {
			return nil, ErrAlreadyAssociated.Violationf("The project is already associated with program %s.", program.Name())
		}
		var err error
		if target, err = p.ownedProgram(program); err != nil {
			return nil, err
		}
		if !target.AcceptsProjects() {
			return nil, ErrProgramNotAcceptingProjects.Violationf(
				"The program %s is %s and cannot accept new projects.", target.Name(), target.status)
		}
	}

	if old, ok := p.Program(proj.programID); ok {
		old.projects = slices.DeleteFunc(old.projects, func(pr *Project) bool { return pr.id == proj.id })
	}
	proj.programID = uuid.Nil
	e := p.event(EventProjectProgramChanged, now).About(proj.id)
	if target != nil {
		proj.programID = target.id
		target.projects = append(target.projects, proj)
		e = e.With("program_id", target.id.String())
	}
	return domain.Events(e), nil
}

// AssignRole gives role to person.
func (p *Portfolio) AssignRole(role PortfolioRole, person uuid.UUID, now time.Time) ([]domain.Event, error) {
	return roleChange(p.status.IsReadOnly(), p.details.Name, EventPortfolioRolesUpdated, p.id, now, func() error {
		return p.roles.Assign(role, person)
	})
}

// RemoveRole takes role away from person.
func (p *Portfolio) RemoveRole(role PortfolioRole, person uuid.UUID, now time.Time) ([]domain.Event, error) {
	return roleChange(p.status.IsReadOnly(), p.details.Name, EventPortfolioRolesUpdated, p.id, now, func() error {
		return p.roles.Remove(role, person)
	})
}

// UpdateRoles replaces every role assignment.
func (p *Portfolio) UpdateRoles(roles map[PortfolioRole][]uuid.UUID, now time.Time) ([]domain.Event, error) {
	return roleChange(p.status.IsReadOnly(), p.details.Name, EventPortfolioRolesUpdated, p.id, now, func() error {
		return p.roles.Update(roles)
	})
}

// EditProgram applies edit to one program. Programs of a closed or archived
// portfolio cannot change.
func (p *Portfolio) EditProgram(id uuid.UUID, edit func(*Program) ([]domain.Event, error)) (*Program, []domain.Event, error) {
	if err := p.requireWritable(); err != nil {
		return nil, nil, err
	}
	prog, ok := p.Program(id)
	if !ok {
		return nil, nil, ErrProgramNotFound.Violationf("Program %s was not found in portfolio %s.", id, p.details.Name)
	}
	events, err := edit(prog)
	if err != nil {
		return nil, nil, err
	}
	return prog, events, nil
}

// EditProject applies edit to one project. Projects of a closed or archived
// portfolio cannot change.
func (p *Portfolio) EditProject(id uuid.UUID, edit func(*Project) ([]domain.Event, error)) (*Project, []domain.Event, error) {
	if err := p.requireWritable(); err != nil {
		return nil, nil, err
	}
	proj, ok := p.Project(id)
	if !ok {
		return nil, nil, ErrProjectNotFound.Violationf("Project %s was not found in portfolio %s.", id, p.details.Name)
	}
	events, err := edit(proj)
	if err != nil {
		return nil, nil, err
	}
	return proj, events, nil
}

// ownedProgram resolves a program loaded by the caller to the instance owned
// by this portfolio.
func (p *Portfolio) ownedProgram(program *Program) (*Program, error) {
	if program.portfolioID != p.id {
		return nil, ErrWrongPortfolio.Violationf(
			"The program %s does not belong to portfolio %s.", program.Name(), p.details.Name)
	}
	owned, ok := p.Program(program.id)
	if !ok {
		return nil, ErrProgramNotFound.Violationf("Program %s was not found in portfolio %s.", program.id, p.details.Name)
	}
	return owned, nil
}

func (p *Portfolio) requireWritable() error {
	if p.status.IsReadOnly() {
		return domain.ErrReadOnlyAggregate.Violationf("Portfolio %s is %s and cannot be changed.", p.details.Name, p.status)
	}
	return nil
}

func (p *Portfolio) event(t domain.EventType, now time.Time) domain.Event {
	return domain.NewEvent(t, p.id, now)
}
