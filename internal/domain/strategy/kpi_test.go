package strategy

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// requireRule fails unless err matches want through errors.Is.
func requireRule(t *testing.T, err, want error) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %v", want)
	}
	if !errors.Is(err, want) {
		t.Fatalf("error = %v (%s), want %v", err, domain.RuleName(err), want)
	}
}

func newTestKpi(t *testing.T, direction TargetDirection) *Kpi {
	t.Helper()
	k, err := newKpi(KpiDetails{Name: "NPS", TargetValue: 50, Unit: UnitNumber, Direction: direction})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return k
}

func measure(t *testing.T, k *Kpi, value float64, at time.Time) Measurement {
	t.Helper()
	m, err := NewMeasurement(k.ID(), value, at, uuid.New(), "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := k.AddMeasurement(m); err != nil {
		t.Fatalf("k.AddMeasurement(m): %v", err)
	}
	return m
}

func TestKpi_ActualValueTracksLatestMeasurement(t *testing.T) {
	t.Parallel()

	k := newTestKpi(t, DirectionIncrease)
	_, ok := k.ActualValue()
	if ok {
		t.Errorf("ok = true, want false")
	}

	latest := measure(t, k, 42, domain.Date(2024, 1, 10))
	earlier := measure(t, k, 17, domain.Date(2024, 1, 5))

	actual, ok := k.ActualValue()
	if !ok {
		t.Fatalf("ok = false, want true")
	}
	if actual != 42 {
		t.Errorf("actual = %v, want 42", actual)
	}

	if err := k.RemoveMeasurement(latest.ID); err != nil {
		t.Fatalf("k.RemoveMeasurement(latest.ID): %v", err)
	}
	actual, ok = k.ActualValue()
	if !ok {
		t.Fatalf("ok = false, want true")
	}
	if actual != 17 {
		t.Errorf("actual = %v, want 17", actual)
	}

	if err := k.RemoveMeasurement(earlier.ID); err != nil {
		t.Fatalf("k.RemoveMeasurement(earlier.ID): %v", err)
	}
	_, ok = k.ActualValue()
	if ok {
		t.Errorf("ok = true, want false")
	}
}

func TestKpi_SameDayMeasurementsPreferLastAdded(t *testing.T) {
	t.Parallel()

	k := newTestKpi(t, DirectionIncrease)
	measure(t, k, 1, domain.Date(2024, 2, 1))
	measure(t, k, 2, domain.Date(2024, 2, 1))

	actual, _ := k.ActualValue()
	if actual != 2 {
		t.Errorf("actual = %v, want 2", actual)
	}
}

func TestKpi_Measurements_Ordered(t *testing.T) {
	t.Parallel()

	k := newTestKpi(t, DirectionIncrease)
	measure(t, k, 3, domain.Date(2024, 3, 1))
	measure(t, k, 1, domain.Date(2024, 1, 1))
	measure(t, k, 2, domain.Date(2024, 2, 1))

	var values []float64
	for _, m := range k.Measurements() {
		values = append(values, m.ActualValue)
	}
	if !reflect.DeepEqual(values, []float64{1, 2, 3}) {
		t.Errorf("values = %v, want %v", values, []float64{1, 2, 3})
	}
}

func TestKpi_KpiMismatch(t *testing.T) {
	t.Parallel()

	k := newTestKpi(t, DirectionIncrease)

	m, err := NewMeasurement(uuid.New(), 10, domain.Date(2024, 1, 1), uuid.New(), "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireRule(t, k.AddMeasurement(m), ErrKpiMismatch)

	c, err := NewCheckpoint(uuid.New(), 10, domain.Date(2024, 1, 1), "Q1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireRule(t, k.AddCheckpoint(c), ErrKpiMismatch)

	if len(k.Measurements()) != 0 {
		t.Errorf("k.Measurements() = %v, want empty", k.Measurements())
	}
	if len(k.Checkpoints()) != 0 {
		t.Errorf("k.Checkpoints() = %v, want empty", k.Checkpoints())
	}
}

func TestKpi_RemoveUnknown(t *testing.T) {
	t.Parallel()

	k := newTestKpi(t, DirectionIncrease)

	err := k.RemoveMeasurement(uuid.New())
	requireRule(t, err, ErrMeasurementNotFound)
	requireRule(t, err, domain.ErrNotFound)
	requireRule(t, k.RemoveCheckpoint(uuid.New()), ErrCheckpointNotFound)
}

func TestNewMeasurement_Future(t *testing.T) {
	t.Parallel()

	_, err := NewMeasurement(uuid.New(), 1, now.Add(time.Minute), uuid.New(), "", now)
	requireRule(t, err, ErrFutureMeasurement)
	if err.Error() != "The measurement date cannot be in the future." {
		t.Errorf("err.Error() = %v, want %v", err.Error(), "The measurement date cannot be in the future.")
	}

	_, err = NewMeasurement(uuid.New(), 1, now, uuid.New(), "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestKpi_TargetMet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		direction TargetDirection
		value     float64
		want      bool
	}{
		{name: "increase below", direction: DirectionIncrease, value: 49, want: false},
		{name: "increase at target", direction: DirectionIncrease, value: 50, want: true},
		{name: "decrease above", direction: DirectionDecrease, value: 51, want: false},
		{name: "decrease below", direction: DirectionDecrease, value: 20, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			k := newTestKpi(t, tt.direction)
			if k.TargetMet() {
				t.Errorf("k.TargetMet() = true, want false (no measurement never meets the target)")
			}

			measure(t, k, tt.value, domain.Date(2024, 1, 1))
			if k.TargetMet() != tt.want {
				t.Errorf("k.TargetMet() = %v, want %v", k.TargetMet(), tt.want)
			}
		})
	}
}

func TestKpiDetails_Validation(t *testing.T) {
	t.Parallel()

	_, err := newKpi(KpiDetails{Name: "", Unit: "hours", Direction: "sideways"})

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want %T", err, verr)
	}
	if _, ok := verr.Fields["name"]; !ok {
		t.Errorf("verr.Fields missing key %q", "name")
	}
	if _, ok := verr.Fields["unit"]; !ok {
		t.Errorf("verr.Fields missing key %q", "unit")
	}
	if _, ok := verr.Fields["target_direction"]; !ok {
		t.Errorf("verr.Fields missing key %q", "target_direction")
	}
}
