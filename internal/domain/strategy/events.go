package strategy

import "github.com/orgplan/orgplan/internal/domain"

const (
	EventInitiativeCreated      domain.EventType = "strategic_initiative.created"
	EventInitiativeUpdated      domain.EventType = "strategic_initiative.updated"
	EventInitiativeApproved     domain.EventType = "strategic_initiative.approved"
	EventInitiativeActivated    domain.EventType = "strategic_initiative.activated"
	EventInitiativePaused       domain.EventType = "strategic_initiative.paused"
	EventInitiativeResumed      domain.EventType = "strategic_initiative.resumed"
	EventInitiativeCompleted    domain.EventType = "strategic_initiative.completed"
	EventInitiativeCancelled    domain.EventType = "strategic_initiative.cancelled"
	EventInitiativeRolesUpdated domain.EventType = "strategic_initiative.roles_updated"

	EventKpiAdded           domain.EventType = "strategic_initiative.kpi_added"
	EventKpiUpdated         domain.EventType = "strategic_initiative.kpi_updated"
	EventKpiRemoved         domain.EventType = "strategic_initiative.kpi_removed"
	EventCheckpointAdded    domain.EventType = "strategic_initiative.kpi_checkpoint_added"
	EventCheckpointRemoved  domain.EventType = "strategic_initiative.kpi_checkpoint_removed"
	EventMeasurementAdded   domain.EventType = "strategic_initiative.kpi_measurement_added"
	EventMeasurementRemoved domain.EventType = "strategic_initiative.kpi_measurement_removed"
)
