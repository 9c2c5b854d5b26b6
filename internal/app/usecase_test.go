package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/orgplan/orgplan/internal/adapters/memory"
	appctx "github.com/orgplan/orgplan/internal/app/context"
	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/platform/config"
	"github.com/orgplan/orgplan/internal/platform/logging"
	"github.com/orgplan/orgplan/internal/platform/telemetry"
	"github.com/orgplan/orgplan/internal/ports"
	"github.com/orgplan/orgplan/mocks"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testPlanning() config.PlanningConfig {
	return config.PlanningConfig{
		MaxTaskDepth:        3,
		DefaultMethodology:  "scrum",
		DefaultSizingMethod: "story_points",
	}
}

// fixture wires services to an in-memory store and a recording publisher.
type fixture struct {
	db  *memory.DB
	pub *mocks.MockEventPublisher

	mu        sync.Mutex
	published []domain.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: memory.New(), pub: mocks.NewMockEventPublisher(t)}
	f.pub.EXPECT().Publish(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, events []domain.Event) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.published = append(f.published, events...)
			return nil
		}).Maybe()
	return f
}

func (f *fixture) deps() Deps {
	return Deps{
		Publisher: f.pub,
		Clock:     ports.FixedClock{At: testNow},
		Metrics:   telemetry.NewNoopMetrics(),
		Logger:    discardLogger(),
	}
}

func (f *fixture) teams() *TeamService {
	return NewTeamService(f.db.Teams(), testPlanning(), f.deps())
}

func (f *fixture) portfolios() *PortfolioService {
	return NewPortfolioService(f.db.Portfolios(), testPlanning(), f.deps())
}

func (f *fixture) initiatives() *InitiativeService {
	return NewInitiativeService(f.db.Initiatives(), f.deps())
}

func (f *fixture) eventTypes() []domain.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.EventType, 0, len(f.published))
	for _, e := range f.published {
		out = append(out, e.Type)
	}
	return out
}

// stubAction is a domain.Action with scripted outcomes.
type stubAction struct {
	err      error
	executed bool
}

func (a *stubAction) Execute(context.Context) error {
	a.executed = true
	return a.err
}

func (a *stubAction) Rollback(context.Context) error { return nil }

func (a *stubAction) Description() string { return "stub" }

func TestNewRunner_Defaults(t *testing.T) {
	t.Parallel()

	r := newRunner(Deps{})
	if r.logger == nil || r.metrics == nil || r.clock == nil {
		t.Fatalf("newRunner(Deps{}) left nil collaborators: %+v", r)
	}
}

func TestCommand_PublishesCommittedEvents(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := newRunner(f.deps())
	action := &stubAction{}
	id := uuid.New()

	err := r.command(context.Background(), op("Test", "testing"), func(rc *appctx.RequestContext, now time.Time) error {
		assert.Equal(t, testNow, now)
		return stage(rc, "k", id, action, domain.Events(domain.NewEvent("test.done", id, now)))
	})

	require.NoError(t, err)
	assert.True(t, action.executed)
	assert.Equal(t, []domain.EventType{"test.done"}, f.eventTypes())
}

func TestCommand_FailedCommitPublishesNothing(t *testing.T) {
	t.Parallel()

	pub := mocks.NewMockEventPublisher(t)
	r := newRunner(Deps{Publisher: pub, Clock: ports.FixedClock{At: testNow}})
	action := &stubAction{err: domain.ErrConflict}

	err := r.command(context.Background(), op("Test", "testing"), func(rc *appctx.RequestContext, now time.Time) error {
		return stage(rc, "k", nil, action, domain.Events(domain.NewEvent("test.done", uuid.New(), now)))
	})

	require.ErrorIs(t, err, domain.ErrConflict)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCommand_RuleFailureSkipsCommit(t *testing.T) {
	t.Parallel()

	pub := mocks.NewMockEventPublisher(t)
	r := newRunner(Deps{Publisher: pub})
	rule := domain.NewRule(domain.ErrInvariant, "Nope")
	action := &stubAction{}

	err := r.command(context.Background(), op("Test", "testing"), func(rc *appctx.RequestContext, now time.Time) error {
		if err := rc.Stage("k", nil, action); err != nil {
			return err
		}
		return rule.Violation("not allowed")
	})

	require.ErrorIs(t, err, rule)
	assert.False(t, action.executed)
}

func TestCommand_PublishFailureKeepsResult(t *testing.T) {
	t.Parallel()

	pub := mocks.NewMockEventPublisher(t)
	pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(errors.New("subscriber down")).Once()
	r := newRunner(Deps{Publisher: pub})

	err := r.command(context.Background(), op("Test", "testing"), func(rc *appctx.RequestContext, now time.Time) error {
		return stage(rc, "k", nil, &stubAction{}, domain.Events(domain.NewEvent("test.done", uuid.New(), now)))
	})

	require.NoError(t, err)
}

func TestCommand_LogsThroughRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	requestLogger := slog.New(slog.NewTextHandler(&buf, nil)).With(slog.String("request_id", "req-42"))
	ctx := logging.WithLogger(context.Background(), requestLogger)

	r := newRunner(Deps{Logger: discardLogger()})
	rule := domain.NewRule(domain.ErrInvariant, "Nope")

	err := r.command(ctx, op("Test", "testing"), func(*appctx.RequestContext, time.Time) error {
		return rule.Violation("not allowed")
	})

	require.ErrorIs(t, err, rule)
	out := buf.String()
	assert.Contains(t, out, "request_id=req-42")
	assert.Contains(t, out, "use case rejected")
	assert.Contains(t, out, "rule=Nope")
}

func TestStage_NoEventsWritesNothing(t *testing.T) {
	t.Parallel()

	rc := appctx.New(context.Background())
	require.NoError(t, stage(rc, "k", nil, &stubAction{}, nil))
	assert.Equal(t, 0, rc.Pending())
}

func TestRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "validation", err: &domain.ValidationError{Fields: map[string]string{"name": "is required"}}, want: true},
		{name: "rule", err: domain.NewRule(domain.ErrInvariant, "X").Violation("x"), want: true},
		{name: "not found", err: domain.ErrNotFound, want: true},
		{name: "no changes", err: domain.ErrNoRoleChanges.Violation("same"), want: true},
		{name: "conflict", err: domain.ErrConflict, want: false},
		{name: "unavailable", err: domain.ErrUnavailable, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := rejected(tt.err); got != tt.want {
				t.Errorf("rejected(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
