package organization

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

// Operating model rules.
var (
	ErrInvalidStartDate = domain.NewRule(domain.ErrInvariant, "InvalidStartDate")
	ErrTeamMismatch     = domain.NewRule(domain.ErrValidation, "TeamMismatch")
)

// Methodology is the delivery framework a team follows.
type Methodology string

const (
	MethodologyScrum  Methodology = "scrum"
	MethodologyKanban Methodology = "kanban"
)

// IsValid returns true if the methodology is one of the defined constants.
func (m Methodology) IsValid() bool {
	switch m {
	case MethodologyScrum, MethodologyKanban:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (m Methodology) String() string {
	return string(m)
}

// SizingMethod is how a team estimates work.
type SizingMethod string

const (
	SizingStoryPoints SizingMethod = "story_points"
	SizingCount       SizingMethod = "count"
)

// IsValid returns true if the sizing method is one of the defined constants.
func (s SizingMethod) IsValid() bool {
	switch s {
	case SizingStoryPoints, SizingCount:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (s SizingMethod) String() string {
	return string(s)
}

// OperatingModel is one time slice of a team's way of working. A team has at
// most one current (open-ended) operating model.
type OperatingModel struct {
	id           uuid.UUID
	teamID       uuid.UUID
	dateRange    domain.DateRange
	methodology  Methodology
	sizingMethod SizingMethod
}

// NewOperatingModel starts a new current operating model for teamID on start.
//
// When current is still open, start must be after current's start; current
// is then closed on the day before start. A current model that is already
// closed is left untouched.
func NewOperatingModel(teamID uuid.UUID, start time.Time, methodology Methodology, sizing SizingMethod, current *OperatingModel) (*OperatingModel, error) {
	if err := validateWayOfWorking(methodology, sizing); err != nil {
		return nil, err
	}
	start = domain.DateOf(start)

	if current != nil && current.IsCurrent() {
		if current.teamID != teamID {
			return nil, ErrTeamMismatch.Violation("The current operating model belongs to a different team.")
		}
		if !start.After(current.dateRange.Start()) {
			return nil, ErrInvalidStartDate.Violationf(
				"The start date %s must be after the start date of the current operating model (%s).",
				domain.FormatDate(start), domain.FormatDate(current.dateRange.Start()))
		}
		if err := current.Close(domain.PreviousDay(start)); err != nil {
			return nil, err
		}
	}

	return &OperatingModel{
		id:           uuid.New(),
		teamID:       teamID,
		dateRange:    domain.OpenDateRange(start),
		methodology:  methodology,
		sizingMethod: sizing,
	}, nil
}

// RehydrateOperatingModel rebuilds a persisted operating model.
func RehydrateOperatingModel(id, teamID uuid.UUID, dateRange domain.DateRange, methodology Methodology, sizing SizingMethod) (*OperatingModel, error) {
	if err := validateWayOfWorking(methodology, sizing); err != nil {
		return nil, err
	}
	return &OperatingModel{
		id:           id,
		teamID:       teamID,
		dateRange:    dateRange,
		methodology:  methodology,
		sizingMethod: sizing,
	}, nil
}

// ID returns the operating model id.
func (o *OperatingModel) ID() uuid.UUID { return o.id }

// TeamID returns the owning team.
func (o *OperatingModel) TeamID() uuid.UUID { return o.teamID }

// DateRange returns the period the model applies to.
func (o *OperatingModel) DateRange() domain.DateRange { return o.dateRange }

// Methodology returns the delivery framework.
func (o *OperatingModel) Methodology() Methodology { return o.methodology }

// SizingMethod returns the estimation method.
func (o *OperatingModel) SizingMethod() SizingMethod { return o.sizingMethod }

// IsCurrent reports whether the model is open-ended.
func (o *OperatingModel) IsCurrent() bool { return o.dateRange.IsCurrent() }

// StartedEvent reports the model as the team's new way of working.
func (o *OperatingModel) StartedEvent(now time.Time) domain.Event {
	return domain.NewEvent(EventOperatingModelStarted, o.teamID, now).About(o.id).
		With("start", domain.FormatDate(o.dateRange.Start())).
		With("methodology", o.methodology.String()).
		With("sizing_method", o.sizingMethod.String())
}

// Update replaces the methodology and sizing method.
func (o *OperatingModel) Update(methodology Methodology, sizing SizingMethod) error {
	if err := validateWayOfWorking(methodology, sizing); err != nil {
		return err
	}
	o.methodology = methodology
	o.sizingMethod = sizing
	return nil
}

// Close ends the model on end.
func (o *OperatingModel) Close(end time.Time) error {
	r, err := o.dateRange.EndAt(end)
	if err != nil {
		return err
	}
	o.dateRange = r
	return nil
}

func validateWayOfWorking(methodology Methodology, sizing SizingMethod) error {
	fields := make(map[string]string)
	if !methodology.IsValid() {
		fields["methodology"] = fmt.Sprintf("invalid: %q", methodology)
	}
	if !sizing.IsValid() {
		fields["sizing_method"] = fmt.Sprintf("invalid: %q", sizing)
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
