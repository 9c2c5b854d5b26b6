package strategy

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

const maxKpiNameLength = 64

// Measurement is one observed value of a KPI.
type Measurement struct {
	ID          uuid.UUID
	KpiID       uuid.UUID
	ActualValue float64
	MeasuredAt  time.Time
	MeasuredBy  uuid.UUID
	Note        string
}

// NewMeasurement records value for kpiID at measuredAt. Measurements cannot be
// taken in the future relative to now.
func NewMeasurement(kpiID uuid.UUID, value float64, measuredAt time.Time, measuredBy uuid.UUID, note string, now time.Time) (Measurement, error) {
	if measuredAt.After(now) {
		return Measurement{}, ErrFutureMeasurement.Violation("The measurement date cannot be in the future.")
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Measurement{}, &domain.ValidationError{Fields: map[string]string{"actual_value": "must be a finite number"}}
	}
	return Measurement{
		ID:          uuid.New(),
		KpiID:       kpiID,
		ActualValue: value,
		MeasuredAt:  measuredAt,
		MeasuredBy:  measuredBy,
		Note:        strings.TrimSpace(note),
	}, nil
}

// Checkpoint is a planned intermediate target for a KPI.
type Checkpoint struct {
	ID          uuid.UUID
	KpiID       uuid.UUID
	TargetValue float64
	Date        time.Time
	Label       string
}

// NewCheckpoint plans target for kpiID on date.
func NewCheckpoint(kpiID uuid.UUID, target float64, date time.Time, label string) (Checkpoint, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Checkpoint{}, &domain.ValidationError{Fields: map[string]string{"label": domain.MsgRequired}}
	}
	return Checkpoint{ID: uuid.New(), KpiID: kpiID, TargetValue: target, Date: domain.DateOf(date), Label: label}, nil
}

// KpiDetails carries the editable attributes of a KPI.
type KpiDetails struct {
	Name        string
	Description string
	TargetValue float64
	Unit        Unit
	Direction   TargetDirection
}

func (d KpiDetails) normalize() (KpiDetails, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)

	fields := make(map[string]string)
	switch {
	case d.Name == "":
		fields["name"] = domain.MsgRequired
	case len(d.Name) > maxKpiNameLength:
		fields["name"] = fmt.Sprintf("must be at most %d characters", maxKpiNameLength)
	}
	if math.IsNaN(d.TargetValue) || math.IsInf(d.TargetValue, 0) {
		fields["target_value"] = "must be a finite number"
	}
	if !d.Unit.IsValid() {
		fields["unit"] = fmt.Sprintf("invalid: %q", d.Unit)
	}
	if !d.Direction.IsValid() {
		fields["target_direction"] = fmt.Sprintf("invalid: %q", d.Direction)
	}
	if len(fields) > 0 {
		return KpiDetails{}, &domain.ValidationError{Fields: fields}
	}
	return d, nil
}

// Kpi is a measurable target of a strategic initiative.
type Kpi struct {
	id           uuid.UUID
	details      KpiDetails
	checkpoints  []Checkpoint
	measurements []Measurement
	actual       *float64
}

// KpiSnapshot is the persisted state of a KPI. The actual value is not part
// of it; it is derived again on rehydration.
type KpiSnapshot struct {
	ID           uuid.UUID
	Details      KpiDetails
	Checkpoints  []Checkpoint
	Measurements []Measurement
}

func newKpi(details KpiDetails) (*Kpi, error) {
	d, err := details.normalize()
	if err != nil {
		return nil, err
	}
	return &Kpi{id: uuid.New(), details: d}, nil
}

func rehydrateKpi(s KpiSnapshot) (*Kpi, error) {
	d, err := s.Details.normalize()
	if err != nil {
		return nil, err
	}
	k := &Kpi{id: s.ID, details: d}
	for _, c := range s.Checkpoints {
		if err := k.AddCheckpoint(c); err != nil {
			return nil, err
		}
	}
	for _, m := range s.Measurements {
		if err := k.AddMeasurement(m); err != nil {
			return nil, err
		}
	}
	return k, nil
}

// ID returns the KPI identifier.
func (k *Kpi) ID() uuid.UUID { return k.id }

// Name returns the KPI name.
func (k *Kpi) Name() string { return k.details.Name }

// Details returns a copy of the KPI definition.
func (k *Kpi) Details() KpiDetails { return k.details }

// TargetValue returns the value the KPI aims for.
func (k *Kpi) TargetValue() float64 { return k.details.TargetValue }

// Unit returns the unit the KPI is measured in.
func (k *Kpi) Unit() Unit { return k.details.Unit }

// Direction reports whether higher or lower values are better.
func (k *Kpi) Direction() TargetDirection { return k.details.Direction }

// Checkpoints returns the planned checkpoints ordered by date.
func (k *Kpi) Checkpoints() []Checkpoint { return slices.Clone(k.checkpoints) }

// Measurements returns the measurements ordered by date, oldest first.
func (k *Kpi) Measurements() []Measurement { return slices.Clone(k.measurements) }

// ActualValue returns the value of the most recent measurement, or false when
// nothing has been measured.
func (k *Kpi) ActualValue() (float64, bool) {
	if k.actual == nil {
		return 0, false
	}
	return *k.actual, true
}

// TargetMet reports whether the actual value has reached the target in the
// KPI's direction.
func (k *Kpi) TargetMet() bool {
	actual, ok := k.ActualValue()
	if !ok {
		return false
	}
	if k.details.Direction == DirectionDecrease {
		return actual <= k.details.TargetValue
	}
	return actual >= k.details.TargetValue
}

// Snapshot returns the persistable state of the KPI.
func (k *Kpi) Snapshot() KpiSnapshot {
	return KpiSnapshot{
		ID:           k.id,
		Details:      k.details,
		Checkpoints:  slices.Clone(k.checkpoints),
		Measurements: slices.Clone(k.measurements),
	}
}

// AddCheckpoint adds a checkpoint that was created for this KPI.
func (k *Kpi) AddCheckpoint(c Checkpoint) error {
	if c.KpiID != k.id {
		return ErrKpiMismatch.Violation("The checkpoint does not belong to this KPI.")
	}
	k.checkpoints = append(k.checkpoints, c)
	slices.SortStableFunc(k.checkpoints, func(a, b Checkpoint) int { return a.Date.Compare(b.Date) })
	return nil
}

// RemoveCheckpoint deletes a checkpoint by id.
func (k *Kpi) RemoveCheckpoint(id uuid.UUID) error {
	i := slices.IndexFunc(k.checkpoints, func(c Checkpoint) bool { return c.ID == id })
	if i < 0 {
		return ErrCheckpointNotFound.Violationf("Checkpoint %s was not found.", id)
	}
	k.checkpoints = slices.Delete(k.checkpoints, i, i+1)
	return nil
}

// AddMeasurement adds a measurement that was taken for this KPI and derives
// the actual value again.
func (k *Kpi) AddMeasurement(m Measurement) error {
	if m.KpiID != k.id {
		return ErrKpiMismatch.Violation("The measurement does not belong to this KPI.")
	}
	k.measurements = append(k.measurements, m)
	slices.SortStableFunc(k.measurements, func(a, b Measurement) int { return a.MeasuredAt.Compare(b.MeasuredAt) })
	k.deriveActual()
	return nil
}

// RemoveMeasurement deletes a measurement by id and derives the actual value
// again.
func (k *Kpi) RemoveMeasurement(id uuid.UUID) error {
	i := slices.IndexFunc(k.measurements, func(m Measurement) bool { return m.ID == id })
	if i < 0 {
		return ErrMeasurementNotFound.Violationf("Measurement %s was not found.", id)
	}
	k.measurements = slices.Delete(k.measurements, i, i+1)
	k.deriveActual()
	return nil
}

// deriveActual takes the last measurement. Measurements are kept stably
// sorted by date, so among equal dates the one added last wins.
func (k *Kpi) deriveActual() {
	if len(k.measurements) == 0 {
		k.actual = nil
		return
	}
	v := k.measurements[len(k.measurements)-1].ActualValue
	k.actual = &v
}

func (k *Kpi) update(details KpiDetails) error {
	d, err := details.normalize()
	if err != nil {
		return err
	}
	k.details = d
	return nil
}
