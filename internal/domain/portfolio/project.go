package portfolio

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

// Project is a unit of planned work inside a portfolio, optionally grouped
// under one of the portfolio's programs. Projects are created and owned by
// their Portfolio.
type Project struct {
	id          uuid.UUID
	key         ProjectKey
	portfolioID uuid.UUID
	programID   uuid.UUID
	details     Details
	status      WorkStatus
	timeline    domain.DateRange
	roles       domain.RoleSet[ProjectRole]
	tasks       *TaskTree
}

// ProjectSnapshot is the persisted state of a project. ProgramID is uuid.Nil
// and Timeline is zero when unset.
type ProjectSnapshot struct {
	ID          uuid.UUID
	Key         string
	PortfolioID uuid.UUID
	ProgramID   uuid.UUID
	Name        string
	Description string
	Status      WorkStatus
	Timeline    domain.DateRange
	Roles       map[ProjectRole][]uuid.UUID
	Tasks       []TaskSnapshot
}

func newProject(portfolioID uuid.UUID, key ProjectKey, details Details) (*Project, error) {
	d, err := details.normalize()
	if err != nil {
		return nil, err
	}
	return &Project{
		id:          uuid.New(),
		key:         key,
		portfolioID: portfolioID,
		details:     d,
		status:      StatusProposed,
		tasks:       newTaskTree(key),
	}, nil
}

func rehydrateProject(s ProjectSnapshot) (*Project, error) {
	key, err := NewProjectKey(s.Key)
	if err != nil {
		return nil, err
	}
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
	tasks, err := rehydrateTaskTree(key, s.Tasks)
	if err != nil {
		return nil, err
	}
	return &Project{
		id:          s.ID,
		key:         key,
		portfolioID: s.PortfolioID,
		programID:   s.ProgramID,
		details:     d,
		status:      s.Status,
		timeline:    s.Timeline,
		roles:       roles,
		tasks:       tasks,
	}, nil
}

// ID returns the project identifier.
func (p *Project) ID() uuid.UUID { return p.id }

// Key returns the human-readable project key.
func (p *Project) Key() ProjectKey { return p.key }

// PortfolioID returns the id of the owning portfolio.
func (p *Project) PortfolioID() uuid.UUID { return p.portfolioID }

// Name returns the project name.
func (p *Project) Name() string { return p.details.Name }

// Description returns the project description.
func (p *Project) Description() string { return p.details.Description }

// Status returns the project lifecycle status.
func (p *Project) Status() WorkStatus { return p.status }

// ProgramID returns the program the project belongs to, if any.
func (p *Project) ProgramID() (uuid.UUID, bool) { return p.programID, p.programID != uuid.Nil }

// Timeline returns the planned dates, if set.
func (p *Project) Timeline() (domain.DateRange, bool) { return p.timeline, !p.timeline.IsZero() }

// Roles returns a copy of the role assignments.
func (p *Project) Roles() map[ProjectRole][]uuid.UUID { return p.roles.Map() }

// Tasks exposes the task hierarchy for reads. Mutations go through the

// Project so that they emit events.
func (p *Project) Tasks() *TaskTree { return p.tasks }

// Snapshot returns the persistable state of the project.
func (p *Project) Snapshot() ProjectSnapshot {
	return ProjectSnapshot{
		ID:          p.id,
		Key:         p.key.String(),
		PortfolioID: p.portfolioID,
		ProgramID:   p.programID,
		Name:        p.details.Name,
		Description: p.details.Description,
		Status:      p.status,
		Timeline:    p.timeline,
		Roles:       p.roles.Map(),
		Tasks:       p.tasks.Snapshot(),
	}
}

// Update replaces the project's name and description.
func (p *Project) Update(details Details, now time.Time) ([]domain.Event, error) {
	if err := p.requireOpen(); err != nil {
		return nil, err
	}
	d, err := details.normalize()
	if err != nil {
		return nil, err
	}
	p.details = d
	return domain.Events(p.event(EventProjectUpdated, now)), nil
}

// Activate starts a proposed project. The project must have a timeline.
func (p *Project) Activate(now time.Time) ([]domain.Event, error) {
	if p.status != StatusProposed {
		return nil, ErrInvalidTransition.Violation("Only proposed projects can be activated.")
	}
	if p.timeline.IsZero() {
		return nil, ErrMissingDates.Violation("A project must have a start and end date to be activated.")
	}
	p.status = StatusActive
	return domain.Events(p.event(EventProjectActivated, now)), nil
}

// UpdateTimeline sets or clears the planned dates. Active and completed
// projects must keep a timeline.
func (p *Project) UpdateTimeline(timeline *domain.DateRange, now time.Time) ([]domain.Event, error) {
	if timeline == nil {
		if p.status == StatusActive || p.status == StatusCompleted {
			return nil, ErrMissingDates.Violation("Active and completed projects must have a start and end date.")
		}
		p.timeline = domain.DateRange{}
		return domain.Events(p.event(EventProjectTimelineUpdated, now)), nil
	}
	p.timeline = *timeline
	return domain.Events(p.event(EventProjectTimelineUpdated, now).With("timeline", timeline.String())), nil
}

// Complete finishes an active project.
func (p *Project) Complete(now time.Time) ([]domain.Event, error) {
	if p.status != StatusActive {
		return nil, ErrInvalidTransition.Violation("Only active projects can be completed.")
	}
	p.status = StatusCompleted
	return domain.Events(p.event(EventProjectCompleted, now)), nil
}

// Cancel stops a proposed or active project.
func (p *Project) Cancel(now time.Time) ([]domain.Event, error) {
	if p.status.IsClosed() {
		return nil, ErrAlreadyClosed.Violationf("The project is already %s.", p.status)
	}
	p.status = StatusCancelled
	return domain.Events(p.event(EventProjectCancelled, now)), nil
}

// AssignRole gives role to person.
func (p *Project) AssignRole(role ProjectRole, person uuid.UUID, now time.Time) ([]domain.Event, error) {
	return roleChange(p.status.IsClosed(), p.details.Name, EventProjectRolesUpdated, p.id, now, func() error {
		return p.roles.Assign(role, person)
	})
}

// RemoveRole takes role away from person.
func (p *Project) RemoveRole(role ProjectRole, person uuid.UUID, now time.Time) ([]domain.Event, error) {
	return roleChange(p.status.IsClosed(), p.details.Name, EventProjectRolesUpdated, p.id, now, func() error {
		return p.roles.Remove(role, person)
	})
}

// UpdateRoles replaces every role assignment.
func (p *Project) UpdateRoles(roles map[ProjectRole][]uuid.UUID, now time.Time) ([]domain.Event, error) {
	return roleChange(p.status.IsClosed(), p.details.Name, EventProjectRolesUpdated, p.id, now, func() error {
		return p.roles.Update(roles)
	})
}

// AddTask creates a task under parentID, or a root task when parentID is
// uuid.Nil.
func (p *Project) AddTask(parentID uuid.UUID, name string, order int, now time.Time) (*Task, []domain.Event, error) {
	if err := p.requireOpen(); err != nil {
		return nil, nil, err
	}
	var (
		t   *Task
		err error
	)
	if parentID == uuid.Nil {
		t, err = p.tasks.AddTask(name, order)
	} else {
		t, err = p.tasks.AddChild(parentID, name, order)
	}
	if err != nil {
		return nil, nil, err
	}
	return t, domain.Events(p.taskEvent(EventTaskCreated, t, now).With("key", t.key)), nil
}

// ChangeTaskOrder repositions a task among its siblings.
func (p *Project) ChangeTaskOrder(taskID uuid.UUID, order int, now time.Time) ([]domain.Event, error) {
	if err := p.requireOpen(); err != nil {
		return nil, err
	}
	if err := p.tasks.ChangeOrder(taskID, order); err != nil {
		return nil, err
	}
	t, _ := p.tasks.Task(taskID)
	return domain.Events(p.taskEvent(EventTaskReordered, t, now)), nil
}

// ChangeTaskParent moves a task under newParentID (uuid.Nil for root level).
func (p *Project) ChangeTaskParent(taskID, newParentID uuid.UUID, order int, now time.Time) ([]domain.Event, error) {
	if err := p.requireOpen(); err != nil {
		return nil, err
	}
	if err := p.tasks.ChangeParent(taskID, newParentID, order); err != nil {
		return nil, err
	}
	t, _ := p.tasks.Task(taskID)
	return domain.Events(p.taskEvent(EventTaskMoved, t, now).With("parent_id", newParentID.String())), nil
}

// RemoveTask deletes a task that has no children.
func (p *Project) RemoveTask(taskID uuid.UUID, now time.Time) ([]domain.Event, error) {
	if err := p.requireOpen(); err != nil {
		return nil, err
	}
	t, ok := p.tasks.Task(taskID)
	if !ok {
		return nil, ErrTaskNotFound.Violationf("Task %s was not found.", taskID)
	}
	if err := p.tasks.RemoveTask(taskID); err != nil {
		return nil, err
	}
	return domain.Events(p.taskEvent(EventTaskRemoved, t, now).With("key", t.key)), nil
}

func (p *Project) requireOpen() error {
	if p.status.IsClosed() {
		return domain.ErrReadOnlyAggregate.Violationf("Project %s is %s and cannot be changed.", p.key, p.status)
	}
	return nil
}

func (p *Project) event(t domain.EventType, now time.Time) domain.Event {
	return domain.NewEvent(t, p.id, now).With("key", p.key.String())
}

func (p *Project) taskEvent(t domain.EventType, task *Task, now time.Time) domain.Event {
	return domain.NewEvent(t, p.id, now).About(task.id).
		With("order", strconv.Itoa(task.order))
}
