package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewMemoryStore(context.Background())
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRun(seed int64) *Run {
	now := time.Now().UTC().Truncate(time.Second)
	return &Run{
		ID:         uuid.NewString(),
		Seed:       seed,
		Ticks:      500,
		Agents:     10,
		TaskTarget: 5,
		Completed:  17,
		StartedAt:  now,
		FinishedAt: now.Add(2 * time.Second),
	}
}

func TestSaveAndGetRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := testRun(1234)
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Seed != run.Seed || got.Ticks != run.Ticks || got.Completed != run.Completed {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, run)
	}
}

func TestSaveRunIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := testRun(1)
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("first SaveRun: %v", err)
	}

	run.Completed = 42
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("second SaveRun: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Completed != 42 {
		t.Errorf("completed = %d, want 42 after update", got.Completed)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run after upsert, got %d", len(runs))
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetRun(context.Background(), "no-such-run"); err == nil {
		t.Fatal("expected error for missing run")
	}
}

func TestListRunsOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		run := testRun(int64(i))
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun %d: %v", i, err)
		}
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].StartedAt.Before(runs[i-1].StartedAt) {
			t.Errorf("runs out of order at index %d", i)
		}
	}
}

func TestTickStatsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := testRun(7)
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	rows := []TickRow{
		{Tick: 0, Searching: 10, TasksIdle: 5},
		{Tick: 1, Searching: 8, Working: 2, TasksIdle: 4, TasksActive: 1},
		{Tick: 2, Searching: 6, Working: 4, TasksIdle: 3, TasksActive: 2, TasksCompleted: 1},
	}
	if err := store.SaveTickStats(ctx, run.ID, rows); err != nil {
		t.Fatalf("SaveTickStats: %v", err)
	}

	got, err := store.GetTickStats(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetTickStats: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(got))
	}
	for i, r := range got {
		if r != rows[i] {
			t.Errorf("row %d: got %+v, want %+v", i, r, rows[i])
		}
	}
}

func TestTickStatsRejectUnknownRun(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveTickStats(context.Background(), "no-such-run", []TickRow{{Tick: 0}})
	if err == nil {
		t.Fatal("expected foreign key violation for unknown run")
	}
}

func TestTransitionsPreserveOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := testRun(9)
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	transitions := []Transition{
		{Seq: 0, Tick: 0, EventType: "task.spawned", TaskID: 1},
		{Seq: 1, Tick: 1, EventType: "task.assigned", TaskID: 1, AgentID: 3},
		{Seq: 2, Tick: 1, EventType: "agent.state", AgentID: 3, Detail: "searching->working"},
		{Seq: 3, Tick: 4, EventType: "task.completed", TaskID: 1, AgentID: 3},
	}
	if err := store.SaveTransitions(ctx, run.ID, transitions); err != nil {
		t.Fatalf("SaveTransitions: %v", err)
	}

	got, err := store.GetTransitions(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetTransitions: %v", err)
	}
	if len(got) != len(transitions) {
		t.Fatalf("expected %d transitions, got %d", len(transitions), len(got))
	}
	for i, tr := range got {
		if tr != transitions[i] {
			t.Errorf("transition %d: got %+v, want %+v", i, tr, transitions[i])
		}
	}
}
