package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a domain event as "<aggregate>.<verb>", e.g. "team.activated".
type EventType string

// String implements fmt.Stringer.
func (t EventType) String() string {
	return string(t)
}

// Event records a completed state change of an aggregate. Events are returned
// by aggregate operations and published by the caller after persistence
// commits; aggregates never hold on to them.
type Event struct {
	Type        EventType
	AggregateID uuid.UUID
	// SubjectID identifies the child entity the event is about (membership,
	// project, task, kpi, ...). It is uuid.Nil for aggregate-level events.
	SubjectID  uuid.UUID
	OccurredAt time.Time
	Data       map[string]string
}

// NewEvent builds an aggregate-level event.
func NewEvent(t EventType, aggregateID uuid.UUID, now time.Time) Event {
	return Event{Type: t, AggregateID: aggregateID, OccurredAt: now}
}

// About returns a copy of e scoped to a child entity.
func (e Event) About(subjectID uuid.UUID) Event {
	e.SubjectID = subjectID
	return e
}

// With returns a copy of e with an extra data attribute.
func (e Event) With(key, value string) Event {
	data := make(map[string]string, len(e.Data)+1)
	for k, v := range e.Data {
		data[k] = v
	}
	data[key] = value
	e.Data = data
	return e
}

// Events is a convenience constructor for single-event results.
func Events(e ...Event) []Event {
	return e
}
