package portfolio

import "github.com/orgplan/orgplan/internal/domain"

// Lifecycle rules.
var (
	ErrInvalidTransition           = domain.NewRule(domain.ErrInvariant, "InvalidStatusTransition")
	ErrOpenChildren                = domain.NewRule(domain.ErrInvariant, "OpenChildren")
	ErrOpenProjects                = domain.NewRule(domain.ErrInvariant, "OpenProjects")
	ErrInvalidDateRange            = domain.NewRule(domain.ErrValidation, "InvalidDateRange")
	ErrMissingDates                = domain.NewRule(domain.ErrValidation, "MissingDates")
	ErrAlreadyClosed               = domain.NewRule(domain.ErrInvariant, "AlreadyClosed")
	ErrWrongPortfolio              = domain.NewRule(domain.ErrInvariant, "WrongPortfolio")
	ErrProgramNotAcceptingProjects = domain.NewRule(domain.ErrInvariant, "ProgramNotAcceptingProjects")
	ErrAlreadyAssociated           = domain.NewRule(domain.ErrInvariant, "AlreadyAssociated")
	ErrNoProgram                   = domain.NewRule(domain.ErrInvariant, "NotAssigned")
	ErrDuplicateKey                = domain.NewRule(domain.ErrValidation, "DuplicateKey")
	ErrInvalidKey                  = domain.NewRule(domain.ErrValidation, "InvalidKey")
	ErrProgramNotFound             = domain.NewRule(domain.ErrNotFound, "ProgramNotFound")
	ErrProjectNotFound             = domain.NewRule(domain.ErrNotFound, "ProjectNotFound")
)

// Task hierarchy rules.
var (
	ErrInvalidOrder     = domain.NewRule(domain.ErrValidation, "InvalidOrder")
	ErrSelfParent       = domain.NewRule(domain.ErrInvariant, "SelfParent")
	ErrDescendantCycle  = domain.NewRule(domain.ErrInvariant, "DescendantCycle")
	ErrHasChildren      = domain.NewRule(domain.ErrInvariant, "HasChildren")
	ErrMaxDepthExceeded = domain.NewRule(domain.ErrInvariant, "MaxDepthExceeded")
	ErrTaskNotFound     = domain.NewRule(domain.ErrNotFound, "TaskNotFound")
)
