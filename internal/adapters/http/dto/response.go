// Package dto provides the response bodies of the operations HTTP surface and
// RFC 9457 Problem Details error responses.
package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

// EventResponse is one domain event as exposed by the events endpoint.
type EventResponse struct {
	Type        string            `json:"type"`
	AggregateID string            `json:"aggregate_id"`
	SubjectID   string            `json:"subject_id,omitempty"`
	OccurredAt  string            `json:"occurred_at"`
	Data        map[string]string `json:"data,omitempty"`
}

// EventListResponse is a page of recent events, oldest first.
type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Count  int             `json:"count"`
}

// ToEventResponse converts a domain event to its HTTP representation.
func ToEventResponse(e domain.Event) EventResponse {
	resp := EventResponse{
		Type:        e.Type.String(),
		AggregateID: e.AggregateID.String(),
		OccurredAt:  e.OccurredAt.UTC().Format(time.RFC3339),
		Data:        e.Data,
	}
	if e.SubjectID != uuid.Nil {
		resp.SubjectID = e.SubjectID.String()
	}
	return resp
}

// ToEventListResponse converts events to a list response.
func ToEventListResponse(events []domain.Event) EventListResponse {
	items := make([]EventResponse, len(events))
	for i, e := range events {
		items[i] = ToEventResponse(e)
	}
	return EventListResponse{Events: items, Count: len(items)}
}

// Readiness states reported by the health endpoints.
const (
	HealthOK       = "ok"
	HealthReady    = "ready"
	HealthNotReady = "not_ready"
)

// HealthResponse is the body of the readiness endpoint.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ToHealthResponse folds checker results into a readiness body. The service
// is ready only when every result is nil.
func ToHealthResponse(results map[string]error) (HealthResponse, bool) {
	resp := HealthResponse{
		Status: HealthReady,
		Checks: make(map[string]string, len(results)),
	}
	for name, err := range results {
		if err == nil {
			resp.Checks[name] = HealthOK
			continue
		}
		resp.Checks[name] = err.Error()
		resp.Status = HealthNotReady
	}
	return resp, resp.Status == HealthReady
}
