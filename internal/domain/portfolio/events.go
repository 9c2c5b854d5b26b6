package portfolio

import "github.com/orgplan/orgplan/internal/domain"

// Portfolio events.
const (
	EventPortfolioCreated        domain.EventType = "portfolio.created"
	EventPortfolioActivated      domain.EventType = "portfolio.activated"
	EventPortfolioPaused         domain.EventType = "portfolio.paused"
	EventPortfolioResumed        domain.EventType = "portfolio.resumed"
	EventPortfolioClosed         domain.EventType = "portfolio.closed"
	EventPortfolioArchived       domain.EventType = "portfolio.archived"
	EventPortfolioRolesUpdated   domain.EventType = "portfolio.roles_updated"
	EventProjectProgramChanged   domain.EventType = "portfolio.project_program_changed"
	EventPortfolioProgramCreated domain.EventType = "portfolio.program_created"
	EventPortfolioProjectCreated domain.EventType = "portfolio.project_created"
)

// Program events.
const (
	EventProgramActivated    domain.EventType = "program.activated"
	EventProgramCompleted    domain.EventType = "program.completed"
	EventProgramCancelled    domain.EventType = "program.cancelled"
	EventProgramRolesUpdated domain.EventType = "program.roles_updated"
)

// Project events.
const (
	EventProjectUpdated         domain.EventType = "project.updated"
	EventProjectActivated       domain.EventType = "project.activated"
	EventProjectTimelineUpdated domain.EventType = "project.timeline_updated"
	EventProjectCompleted       domain.EventType = "project.completed"
	EventProjectCancelled       domain.EventType = "project.cancelled"
	EventProjectRolesUpdated    domain.EventType = "project.roles_updated"
	EventTaskCreated            domain.EventType = "project.task_created"
	EventTaskReordered          domain.EventType = "project.task_reordered"
	EventTaskMoved              domain.EventType = "project.task_moved"
	EventTaskRemoved            domain.EventType = "project.task_removed"
)
