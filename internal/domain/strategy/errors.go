package strategy

import "github.com/orgplan/orgplan/internal/domain"

var (
	ErrInvalidTransition         = domain.NewRule(domain.ErrInvariant, "InvalidStatusTransition")
	ErrFutureMeasurement         = domain.NewRule(domain.ErrInvariant, "FutureMeasurement")
	ErrKpiMismatch               = domain.NewRule(domain.ErrValidation, "KpiMismatch")
	ErrCheckpointOutsideTimeline = domain.NewRule(domain.ErrInvariant, "CheckpointOutsideTimeline")
	ErrKpiNotFound               = domain.NewRule(domain.ErrNotFound, "KpiNotFound")
	ErrCheckpointNotFound        = domain.NewRule(domain.ErrNotFound, "CheckpointNotFound")
	ErrMeasurementNotFound       = domain.NewRule(domain.ErrNotFound, "MeasurementNotFound")
)
