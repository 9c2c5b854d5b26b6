package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgplan/orgplan/internal/adapters/events"
	adapthttp "github.com/orgplan/orgplan/internal/adapters/http"
	"github.com/orgplan/orgplan/internal/adapters/http/handlers"
	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/domain/organization"
	"github.com/orgplan/orgplan/internal/platform/health"
)

var testTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, journal *events.Journal, middlewares ...func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	if journal == nil {
		journal = events.NewJournal(0)
	}
	hh := handlers.NewHealthHandler(health.New())
	eh := handlers.NewEventsHandler(journal)
	return adapthttp.NewRouter(hh, eh, middlewares...)
}

func TestRouter_AllRoutesRegistered(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, nil)

	chiRouter, ok := router.(*chi.Mux)
	require.True(t, ok, "router is not *chi.Mux")

	registered := make(map[string]bool)
	err := chi.Walk(chiRouter, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		registered[method+" "+route] = true
		return nil
	})
	require.NoError(t, err)

	for _, key := range []string{
		"GET /health/live",
		"GET /health/ready",
		"GET /ops/events",
	} {
		assert.True(t, registered[key], "route %s not registered", key)
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	t.Parallel()

	called := false
	testMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}

	router := newTestRouter(t, nil, testMW)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.True(t, called, "middleware was not called")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_IntegrationRecentEvents(t *testing.T) {
	t.Parallel()

	journal := events.NewJournal(0)
	e := domain.NewEvent(organization.EventTeamCreated, uuid.New(), testTime)
	require.NoError(t, journal.Handle(context.Background(), e))

	router := newTestRouter(t, journal)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/events?limit=10", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"team.created"`)
}

func TestRouter_NotFoundReturns404(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/ops/events", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
