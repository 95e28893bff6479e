package sim

import (
	"context"
	"reflect"
	"testing"

	"github.com/aristath/swarmsim/internal/agent"
	"github.com/aristath/swarmsim/internal/config"
	"github.com/aristath/swarmsim/internal/events"
	"github.com/aristath/swarmsim/internal/task"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Seed = 42
	cfg.Ticks = 50
	cfg.Environment.Width = 300
	cfg.Environment.Height = 300
	cfg.Agents.Count = 8
	cfg.Agents.Speed = config.FloatRange{Min: 5, Max: 5}
	cfg.Agents.CommRange = config.FloatRange{Min: 80, Max: 80}
	cfg.Tasks.Target = 4
	cfg.Tasks.Required = config.IntRange{Min: 1, Max: 2}
	cfg.Tasks.Work = config.FloatRange{Min: 3, Max: 8}
	return cfg
}

func TestNewProvisionsTasks(t *testing.T) {
	cfg := testConfig()
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tasks := s.Tasks()
	if len(tasks) != cfg.Tasks.Target {
		t.Fatalf("expected %d tasks before the first tick, got %d", cfg.Tasks.Target, len(tasks))
	}
	for _, tk := range tasks {
		if tk.Status != task.StatusIdle {
			t.Errorf("task %d: status = %v, want idle", tk.ID, tk.Status)
		}
	}

	snap := s.Snapshot()
	if snap.Tick != 0 {
		t.Errorf("snapshot tick = %d, want 0", snap.Tick)
	}
	if snap.Searching != cfg.Agents.Count {
		t.Errorf("searching = %d, want %d", snap.Searching, cfg.Agents.Count)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Agents.Count = 0
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for zero agents")
	}

	cfg = testConfig()
	cfg.Agents.Protocol = "telepathy"
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for unknown protocol")
	}

	cfg = testConfig()
	cfg.Policies.Driver = "coin-flip"
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for unknown driver policy")
	}
}

// The registry holds exactly T tasks at every tick boundary: reconciliation
// pairs each removal with a replacement spawn. A task completed mid-tick
// stays in the registry as Completed until the next tick's reconcile, so
// the check here is registry size, not non-Completed count.
func TestTaskPopulationHolds(t *testing.T) {
	cfg := testConfig()
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	pending := map[int64]bool{}
	for i := 0; i < cfg.Ticks; i++ {
		if err := s.Tick(); err != nil {
			t.Fatalf("tick %d: %v", i+1, err)
		}
		if got := len(s.Tasks()); got != cfg.Tasks.Target {
			t.Fatalf("tick %d: registry holds %d tasks, want %d", i+1, got, cfg.Tasks.Target)
		}
		completed := map[int64]bool{}
		for _, tk := range s.Tasks() {
			if tk.Status == task.StatusCompleted {
				completed[tk.ID] = true
			}
		}
		for id := range pending {
			if completed[id] {
				t.Fatalf("tick %d: completed task %d survived reconciliation", i+1, id)
			}
		}
		pending = completed
	}
}

// Every agent referencing a task must appear in that task's assigned set,
// and vice versa, at every tick boundary.
func TestReferenceConsistencyEachTick(t *testing.T) {
	cfg := testConfig()
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < cfg.Ticks; i++ {
		if err := s.Tick(); err != nil {
			t.Fatalf("tick %d: %v", i+1, err)
		}

		byID := make(map[int64]*task.Task)
		for _, tk := range s.Tasks() {
			byID[tk.ID] = tk
		}
		for _, a := range s.roster.All() {
			holds := a.TaskID != agent.NoTask
			engaged := a.State != agent.StateSearching
			if holds != engaged {
				t.Fatalf("tick %d: agent %d in state %s with task %d", i+1, a.ID, a.State, a.TaskID)
			}
			if !holds {
				continue
			}
			tk, ok := byID[a.TaskID]
			if !ok {
				t.Fatalf("tick %d: agent %d references missing task %d", i+1, a.ID, a.TaskID)
			}
			// Helpers in transit hold a reference before joining the
			// assigned set; everyone else must be assigned.
			if a.State != agent.StateHelping && !tk.IsAssigned(a.ID) {
				t.Fatalf("tick %d: agent %d in state %s references task %d but is not assigned", i+1, a.ID, a.State, tk.ID)
			}
		}
		for _, tk := range byID {
			for _, id := range tk.Assigned {
				a, ok := s.roster.Get(id)
				if !ok {
					t.Fatalf("tick %d: task %d assigns unknown agent %d", i+1, tk.ID, id)
				}
				if a.TaskID != tk.ID {
					t.Fatalf("tick %d: task %d assigns agent %d whose task is %d", i+1, tk.ID, id, a.TaskID)
				}
			}
		}
	}
}

func TestDeterministicJournal(t *testing.T) {
	run := func() []events.Event {
		cfg := testConfig()
		s, err := New(cfg, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := s.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return s.Journal()
	}

	first := run()
	second := run()

	if len(first) == 0 {
		t.Fatal("expected a non-empty journal")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("journals diverge: %d vs %d events", len(first), len(second))
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	run := func(seed int64) []events.Event {
		cfg := testConfig()
		cfg.Seed = seed
		s, err := New(cfg, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := s.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return s.Journal()
	}

	if reflect.DeepEqual(run(1), run(2)) {
		t.Fatal("expected different seeds to produce different journals")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	cfg := testConfig()
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); err != context.Canceled {
		t.Fatalf("Run with cancelled context: err = %v, want context.Canceled", err)
	}
	if s.Snapshot().Tick != 0 {
		t.Errorf("simulation advanced despite cancellation")
	}
}

func TestCompletedCounterMatchesJournal(t *testing.T) {
	cfg := testConfig()
	cfg.Ticks = 200
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	completions := 0
	for _, ev := range s.Journal() {
		if ev.EventType() == events.EventTypeTaskCompleted {
			completions++
		}
	}
	if completions == 0 {
		t.Fatal("expected at least one completion in 200 ticks")
	}
	if s.Completed() != completions {
		t.Errorf("Completed() = %d, journal has %d completion events", s.Completed(), completions)
	}
}

func TestBusReceivesTickStats(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	ch := bus.Subscribe(events.TopicSim, 16)

	cfg := testConfig()
	s, err := New(cfg, bus)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	// Construction publishes tick 0 stats, the first tick publishes tick 1.
	ev := <-ch
	stats, ok := ev.(events.TickStatsEvent)
	if !ok {
		t.Fatalf("expected TickStatsEvent, got %T", ev)
	}
	if stats.AtTick != 0 {
		t.Errorf("first stats tick = %d, want 0", stats.AtTick)
	}
}
