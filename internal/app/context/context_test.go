package appctx

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

// testAction records calls and optionally returns errors.
type testAction struct {
	desc        string
	executed    bool
	rolledBack  bool
	executeErr  error
	rollbackErr error
	order       *[]string
}

func (a *testAction) Execute(_ context.Context) error {
	if a.executeErr != nil {
		return a.executeErr
	}
	a.executed = true
	if a.order != nil {
		*a.order = append(*a.order, "execute:"+a.desc)
	}
	return nil
}

func (a *testAction) Rollback(_ context.Context) error {
	a.rolledBack = true
	if a.order != nil {
		*a.order = append(*a.order, "rollback:"+a.desc)
	}
	return a.rollbackErr
}

func (a *testAction) Description() string { return a.desc }

func testEvent(t domain.EventType) domain.Event {
	return domain.NewEvent(t, uuid.New(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

// --- GetOrFetch ---

func TestGetOrFetch_Memoizes(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())
	calls := 0

	fetchFn := func(_ context.Context) (string, error) {
		calls++
		return "team", nil
	}

	_, _ = GetOrFetch(rc, "key", fetchFn)
	val, err := GetOrFetch(rc, "key", fetchFn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "team" {
		t.Fatalf("got %q, want %q", val, "team")
	}
	if calls != 1 {
		t.Fatalf("fetchFn called %d times, want 1", calls)
	}
}

func TestGetOrFetch_CachesErrors(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())
	calls := 0
	fetchErr := errors.New("fetch failed")

	fetchFn := func(_ context.Context) (string, error) {
		calls++
		return "", fetchErr
	}

	_, _ = GetOrFetch(rc, "key", fetchFn)
	_, err := GetOrFetch(rc, "key", fetchFn)

	if !errors.Is(err, fetchErr) {
		t.Fatalf("got error %v, want %v", err, fetchErr)
	}
	if calls != 1 {
		t.Fatalf("fetchFn called %d times, want 1", calls)
	}
}

func TestGetOrFetch_TypeMismatch(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())

	_, _ = GetOrFetch(rc, "key", func(_ context.Context) (int, error) { return 1, nil })
	_, err := GetOrFetch(rc, "key", func(_ context.Context) (string, error) { return "x", nil })
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("got %v, want ErrTypeMismatch", err)
	}
}

// --- Stage / Record ---

func TestStage_ReadYourWrites(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())

	_, _ = GetOrFetch(rc, "key", func(_ context.Context) (string, error) { return "old", nil })
	if err := rc.Stage("key", "new", &testAction{desc: "save"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	val, err := GetOrFetch(rc, "key", func(_ context.Context) (string, error) {
		t.Fatal("fetchFn should not be called for a staged key")
		return "", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "new" {
		t.Fatalf("got %q, want %q", val, "new")
	}
	if rc.Pending() != 1 {
		t.Fatalf("got %d pending actions, want 1", rc.Pending())
	}
}

func TestStage_NilAction(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())

	if err := rc.Stage("key", "v", nil); !errors.Is(err, ErrNilAction) {
		t.Fatalf("got %v, want ErrNilAction", err)
	}
}

func TestStage_AfterCommit(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())
	_, _ = rc.Commit(context.Background())

	err := rc.Stage("key", "v", &testAction{desc: "late"})
	if !errors.Is(err, ErrAlreadyCommitted) {
		t.Fatalf("got %v, want ErrAlreadyCommitted", err)
	}
}

// --- Commit ---

func TestCommit_ReleasesEventsInOrder(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())
	var order []string

	_ = rc.Stage("a", 1, &testAction{desc: "a1", order: &order})
	rc.Record(testEvent("team.created"))
	_ = rc.Stage("b", 2, &testAction{desc: "a2", order: &order})
	rc.Record(testEvent("team.membership_added"), testEvent("team.updated"))

	events, err := rc.Commit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.EventType{"team.created", "team.membership_added", "team.updated"}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i := range want {
		if events[i].Type != want[i] {
			t.Fatalf("events[%d] = %q, want %q", i, events[i].Type, want[i])
		}
	}
	if strings.Join(order, ",") != "execute:a1,execute:a2" {
		t.Fatalf("unexpected execution order %v", order)
	}
}

func TestCommit_FailureRollsBackAndDropsEvents(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())
	var order []string

	_ = rc.Stage("a", 1, &testAction{desc: "a1", order: &order})
	_ = rc.Stage("b", 2, &testAction{desc: "a2", order: &order})
	_ = rc.Stage("c", 3, &testAction{desc: "a3", order: &order, executeErr: errors.New("boom")})
	rc.Record(testEvent("portfolio.closed"))

	events, err := rc.Commit(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if events != nil {
		t.Fatalf("got %d events, want none", len(events))
	}

	want := "execute:a1,execute:a2,rollback:a2,rollback:a1"
	if got := strings.Join(order, ","); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestCommit_RollbackErrorDoesNotStopRollback(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())

	a1 := &testAction{desc: "a1"}
	a2 := &testAction{desc: "a2", rollbackErr: errors.New("rollback failed")}
	a3 := &testAction{desc: "a3", executeErr: errors.New("boom")}

	_ = rc.Stage("a1", nil, a1)
	_ = rc.Stage("a2", nil, a2)
	_ = rc.Stage("a3", nil, a3)

	_, _ = rc.Commit(context.Background())

	if !a1.rolledBack {
		t.Fatal("a1 should be rolled back")
	}
	if !a2.rolledBack {
		t.Fatal("a2 should be rolled back despite rollback error")
	}
	if a3.rolledBack {
		t.Fatal("the failing action must not be rolled back")
	}
}

func TestCommit_CalledTwice(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())
	_, _ = rc.Commit(context.Background())

	_, err := rc.Commit(context.Background())
	if !errors.Is(err, ErrAlreadyCommitted) {
		t.Fatalf("got %v, want ErrAlreadyCommitted", err)
	}
}

func TestCommit_RecordAfterCommitIsDropped(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())
	_, _ = rc.Commit(context.Background())

	rc.Record(testEvent("team.updated"))
	if len(rc.events) != 0 {
		t.Fatalf("got %d events, want 0", len(rc.events))
	}
}

func TestCommit_ErrorWrapsDescription(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())
	cause := errors.New("version mismatch")
	_ = rc.Stage("k", nil, &testAction{desc: "save team", executeErr: cause})

	_, err := rc.Commit(context.Background())
	if !errors.Is(err, cause) {
		t.Fatalf("got %v, want wrapped cause", err)
	}
	if !strings.Contains(err.Error(), "save team") {
		t.Fatalf("error %q does not name the action", err)
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())

	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no request context")
	}
	got, ok := FromContext(WithRequestContext(context.Background(), rc))
	if !ok || got != rc {
		t.Fatal("expected stored request context")
	}
}
