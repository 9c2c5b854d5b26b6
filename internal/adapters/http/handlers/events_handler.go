package handlers

import (
	"log/slog"
	"net/http"

	"github.com/orgplan/orgplan/internal/adapters/http/dto"
	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/platform/logging"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 1000
)

// EventJournal is the read side of the in-memory event journal.
type EventJournal interface {
	Recent(n int) []domain.Event
}

// EventsHandler serves the most recently published domain events.
type EventsHandler struct {
	journal EventJournal
}

// NewEventsHandler creates an EventsHandler reading from journal.
func NewEventsHandler(journal EventJournal) *EventsHandler {
	return &EventsHandler{journal: journal}
}

// Recent handles GET /ops/events?limit=N. Events are returned oldest first;
// limit defaults to 50 and is capped at 1000.
func (h *EventsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultEventLimit, maxEventLimit)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	events := h.journal.Recent(limit)
	logging.FromContext(r.Context()).DebugContext(r.Context(), "serving recent events",
		slog.Int("limit", limit),
		slog.Int("count", len(events)),
	)
	writeJSON(w, http.StatusOK, dto.ToEventListResponse(events))
}
