package strategy

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

const (
	maxNameLength        = 128
	maxDescriptionLength = 2048
)

// Details carries the editable attributes of an initiative.
type Details struct {
	Name        string
	Description string
	Timeline    domain.DateRange
}

func (d Details) normalize() (Details, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)

	fields := make(map[string]string)
	switch {
	case d.Name == "":
		fields["name"] = domain.MsgRequired
	case len(d.Name) > maxNameLength:
		fields["name"] = fmt.Sprintf("must be at most %d characters", maxNameLength)
	}
	if len(d.Description) > maxDescriptionLength {
		fields["description"] = fmt.Sprintf("must be at most %d characters", maxDescriptionLength)
	}
	if d.Timeline.IsZero() {
		fields["timeline"] = domain.MsgRequired
	}
	if len(fields) > 0 {
		return Details{}, &domain.ValidationError{Fields: fields}
	}
	return d, nil
}

// Initiative is a strategic goal pursued over a timeline and tracked through
// KPIs.
type Initiative struct {
	id      uuid.UUID
	key     int
	details Details
	status  Status
	roles   domain.RoleSet[Role]
	kpis    []*Kpi
}

// Snapshot is the persisted state of an initiative.
type Snapshot struct {
	ID      uuid.UUID
	Key     int
	Details Details
	Status  Status
	Roles   map[Role][]uuid.UUID
	Kpis    []KpiSnapshot
}

// NewInitiative creates a proposed initiative.
func NewInitiative(key int, details Details, now time.Time) (*Initiative, []domain.Event, error) {
	if key <= 0 {
		return nil, nil, &domain.ValidationError{Fields: map[string]string{"key": fmt.Sprintf("must be positive, got %d", key)}}
	}
	d, err := details.normalize()
	if err != nil {
		return nil, nil, err
	}
	in := &Initiative{id: uuid.New(), key: key, details: d, status: StatusProposed}
	return in, domain.Events(in.event(EventInitiativeCreated, now).With("key", strconv.Itoa(key))), nil
}

// Rehydrate rebuilds an initiative from persisted state without emitting
// events.
func Rehydrate(s Snapshot) (*Initiative, error) {
	d, err := s.Details.normalize()
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
	in := &Initiative{id: s.ID, key: s.Key, details: d, status: s.Status, roles: roles}
	for _, ks := range s.Kpis {
		k, err := rehydrateKpi(ks)
		if err != nil {
			return nil, fmt.Errorf("kpi %s: %w", ks.ID, err)
		}
		in.kpis = append(in.kpis, k)
	}
	return in, nil
}

// ID returns the initiative identifier.
func (in *Initiative) ID() uuid.UUID { return in.id }

// Key returns the organization-scoped initiative number.
func (in *Initiative) Key() int { return in.key }

// Name returns the initiative name.
func (in *Initiative) Name() string { return in.details.Name }

// Description returns the initiative description.
func (in *Initiative) Description() string { return in.details.Description }

// Timeline returns the planned initiative dates.
func (in *Initiative) Timeline() domain.DateRange { return in.details.Timeline }

// Status returns the initiative lifecycle status.
func (in *Initiative) Status() Status { return in.status }

// Roles returns a copy of the role assignments.
func (in *Initiative) Roles() map[Role][]uuid.UUID { return in.roles.Map() }

// Kpis returns the initiative's KPIs in creation order.
func (in *Initiative) Kpis() []*Kpi { return slices.Clone(in.kpis) }

// Kpi returns the KPI with id.
func (in *Initiative) Kpi(id uuid.UUID) (*Kpi, bool) {
	i := slices.IndexFunc(in.kpis, func(k *Kpi) bool { return k.id == id })
	if i < 0 {
		return nil, false
	}
	return in.kpis[i], true
}

// Snapshot returns the persistable state of the initiative.
func (in *Initiative) Snapshot() Snapshot {
	s := Snapshot{ID: in.id, Key: in.key, Details: in.details, Status: in.status, Roles: in.roles.Map()}
	for _, k := range in.kpis {
		s.Kpis = append(s.Kpis, k.Snapshot())
	}
	return s
}

// Update replaces the name, description and timeline. Existing checkpoints
// must stay inside the new timeline.
func (in *Initiative) Update(details Details, now time.Time) ([]domain.Event, error) {
	if err := in.requireOpen(); err != nil {
		return nil, err
	}
	d, err := details.normalize()
	if err != nil {
		return nil, err
	}
	for _, k := range in.kpis {
		for _, c := range k.checkpoints {
			if !d.Timeline.Includes(c.Date) {
				return nil, ErrCheckpointOutsideTimeline.Violationf(
					"Checkpoint %q of KPI %q falls outside the timeline %s.", c.Label, k.Name(), d.Timeline)
			}
		}
	}
	in.details = d
	return domain.Events(in.event(EventInitiativeUpdated, now).With("timeline", d.Timeline.String())), nil
}

// Approve moves a proposed initiative to approved.
func (in *Initiative) Approve(now time.Time) ([]domain.Event, error) {
	return in.transition(StatusApproved, EventInitiativeApproved, now, StatusProposed)
}

// Activate starts an approved initiative.
func (in *Initiative) Activate(now time.Time) ([]domain.Event, error) {
	return in.transition(StatusActive, EventInitiativeActivated, now, StatusApproved)
}

// Pause puts an active initiative on hold.
func (in *Initiative) Pause(now time.Time) ([]domain.Event, error) {
	return in.transition(StatusOnHold, EventInitiativePaused, now, StatusActive)
}

// Resume reactivates an initiative that is on hold.
func (in *Initiative) Resume(now time.Time) ([]domain.Event, error) {
	return in.transition(StatusActive, EventInitiativeResumed, now, StatusOnHold)
}

// Complete finishes an active initiative.
func (in *Initiative) Complete(now time.Time) ([]domain.Event, error) {
	return in.transition(StatusCompleted, EventInitiativeCompleted, now, StatusActive)
}

// Cancel stops an initiative that has not yet completed or been cancelled.
func (in *Initiative) Cancel(now time.Time) ([]domain.Event, error) {
	return in.transition(StatusCancelled, EventInitiativeCancelled, now,
		StatusProposed, StatusApproved, StatusActive, StatusOnHold)
}

func (in *Initiative) transition(to Status, t domain.EventType, now time.Time, from ...Status) ([]domain.Event, error) {
	if !slices.Contains(from, in.status) {
		return nil, ErrInvalidTransition.Violationf("The initiative cannot move from %s to %s.", in.status, to)
	}
	in.status = to
	return domain.Events(in.event(t, now)), nil
}

// AssignRole gives role to person.
func (in *Initiative) AssignRole(role Role, person uuid.UUID, now time.Time) ([]domain.Event, error) {
	return in.changeRoles(now, func() error { return in.roles.Assign(role, person) })
}

// RemoveRole takes role away from person.
func (in *Initiative) RemoveRole(role Role, person uuid.UUID, now time.Time) ([]domain.Event, error) {
	return in.changeRoles(now, func() error { return in.roles.Remove(role, person) })
}

// UpdateRoles replaces every role assignment.
func (in *Initiative) UpdateRoles(roles map[Role][]uuid.UUID, now time.Time) ([]domain.Event, error) {
	return in.changeRoles(now, func() error { return in.roles.Update(roles) })
}

func (in *Initiative) changeRoles(now time.Time, apply func() error) ([]domain.Event, error) {
	if err := in.requireOpen(); err != nil {
		return nil, err
	}
	if err := apply(); err != nil {
		return nil, err
	}
	return domain.Events(in.event(EventInitiativeRolesUpdated, now)), nil
}

// AddKpi creates a KPI on the initiative.
func (in *Initiative) AddKpi(details KpiDetails, now time.Time) (*Kpi, []domain.Event, error) {
	if err := in.requireOpen(); err != nil {
		return nil, nil, err
	}
	k, err := newKpi(details)
	if err != nil {
		return nil, nil, err
	}
	in.kpis = append(in.kpis, k)
	return k, domain.Events(in.event(EventKpiAdded, now).About(k.id).With("name", k.Name())), nil
}

// UpdateKpi replaces a KPI's details.
func (in *Initiative) UpdateKpi(kpiID uuid.UUID, details KpiDetails, now time.Time) ([]domain.Event, error) {
	k, err := in.openKpi(kpiID)
	if err != nil {
		return nil, err
	}
	if err := k.update(details); err != nil {
		return nil, err
	}
	return domain.Events(in.event(EventKpiUpdated, now).About(kpiID)), nil
}

// RemoveKpi deletes a KPI with its checkpoints and measurements.
func (in *Initiative) RemoveKpi(kpiID uuid.UUID, now time.Time) ([]domain.Event, error) {
	if _, err := in.openKpi(kpiID); err != nil {
		return nil, err
	}
	in.kpis = slices.DeleteFunc(in.kpis, func(k *Kpi) bool { return k.id == kpiID })
	return domain.Events(in.event(EventKpiRemoved, now).About(kpiID)), nil
}

// AddCheckpoint plans a checkpoint for a KPI. Its date must fall inside the
// initiative timeline.
func (in *Initiative) AddCheckpoint(c Checkpoint, now time.Time) ([]domain.Event, error) {
	k, err := in.openKpi(c.KpiID)
	if err != nil {
		return nil, err
	}
	if !in.details.Timeline.Includes(c.Date) {
		return nil, ErrCheckpointOutsideTimeline.Violationf(
			"The checkpoint date %s must fall within the initiative timeline %s.",
			domain.FormatDate(c.Date), in.details.Timeline)
	}
	if err := k.AddCheckpoint(c); err != nil {
		return nil, err
	}
	e := in.event(EventCheckpointAdded, now).About(c.ID).
		With("kpi_id", k.id.String()).
		With("date", domain.FormatDate(c.Date))
	return domain.Events(e), nil
}

// RemoveCheckpoint deletes a checkpoint from a KPI.
func (in *Initiative) RemoveCheckpoint(kpiID, checkpointID uuid.UUID, now time.Time) ([]domain.Event, error) {
	k, err := in.openKpi(kpiID)
	if err != nil {
		return nil, err
	}
	if err := k.RemoveCheckpoint(checkpointID); err != nil {
		return nil, err
	}
	return domain.Events(in.event(EventCheckpointRemoved, now).About(checkpointID).With("kpi_id", kpiID.String())), nil
}

// AddMeasurement records a measurement on a KPI.
func (in *Initiative) AddMeasurement(m Measurement, now time.Time) ([]domain.Event, error) {
	k, err := in.openKpi(m.KpiID)
	if err != nil {
		return nil, err
	}
	if m.MeasuredAt.After(now) {
		return nil, ErrFutureMeasurement.Violation("The measurement date cannot be in the future.")
	}
	if err := k.AddMeasurement(m); err != nil {
		return nil, err
	}
	return domain.Events(in.measurementEvent(EventMeasurementAdded, k, m.ID, now)), nil
}

// RemoveMeasurement deletes a measurement from a KPI.
func (in *Initiative) RemoveMeasurement(kpiID, measurementID uuid.UUID, now time.Time) ([]domain.Event, error) {
	k, err := in.openKpi(kpiID)
	if err != nil {
		return nil, err
	}
	if err := k.RemoveMeasurement(measurementID); err != nil {
		return nil, err
	}
	return domain.Events(in.measurementEvent(EventMeasurementRemoved, k, measurementID, now)), nil
}

func (in *Initiative) measurementEvent(t domain.EventType, k *Kpi, measurementID uuid.UUID, now time.Time) domain.Event {
	e := in.event(t, now).About(measurementID).With("kpi_id", k.id.String())
	if v, ok := k.ActualValue(); ok {
		e = e.With("actual_value", strconv.FormatFloat(v, 'f', -1, 64))
	}
	return e
}

func (in *Initiative) openKpi(id uuid.UUID) (*Kpi, error) {
	if err := in.requireOpen(); err != nil {
		return nil, err
	}
	k, ok := in.Kpi(id)
	if !ok {
		return nil, ErrKpiNotFound.Violationf("KPI %s was not found.", id)
	}
	return k, nil
}

func (in *Initiative) requireOpen() error {
	if in.status.IsClosed() {
		return domain.ErrReadOnlyAggregate.Violationf("Initiative %s is %s and cannot be changed.", in.details.Name, in.status)
	}
	return nil
}

func (in *Initiative) event(t domain.EventType, now time.Time) domain.Event {
	return domain.NewEvent(t, in.id, now)
}
