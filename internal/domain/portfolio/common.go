package portfolio

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

const (
	maxNameLength        = 128
	maxDescriptionLength = 2048
)

// Details carries the editable attributes shared by portfolios, programs and
// projects.
type Details struct {
	Name        string
	Description string
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
	if len(fields) > 0 {
		return Details{}, &domain.ValidationError{Fields: fields}
	}
	return d, nil
}

// roleChange applies one role operation and reports it as an event. Closed
// aggregates reject every change.
func roleChange(readOnly bool, owner string, t domain.EventType, id uuid.UUID, now time.Time, apply func() error) ([]domain.Event, error) {
	if readOnly {
		return nil, domain.ErrReadOnlyAggregate.Violationf("%s is read-only and its roles cannot be changed.", owner)
	}
	if err := apply(); err != nil {
		return nil, err
	}
	return domain.Events(domain.NewEvent(t, id, now)), nil
}

// closeRange ends r on end, translating a backwards range into
// ErrInvalidDateRange.
func closeRange(r domain.DateRange, end time.Time) (domain.DateRange, error) {
	closed, err := r.EndAt(end)
	if err != nil {
		return domain.DateRange{}, ErrInvalidDateRange.Violationf(
			"The end date %s cannot be before the start date %s.",
			domain.FormatDate(end), domain.FormatDate(r.Start()))
	}
	return closed, nil
}
