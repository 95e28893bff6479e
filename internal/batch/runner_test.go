package batch

import (
	"context"
	"strings"
	"testing"

	"github.com/aristath/swarmsim/internal/config"
	"github.com/aristath/swarmsim/internal/persistence"
)

func batchConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Seed = 100
	cfg.Ticks = 30
	cfg.Environment.Width = 200
	cfg.Environment.Height = 200
	cfg.Agents.Count = 6
	cfg.Agents.Speed = config.FloatRange{Min: 5, Max: 5}
	cfg.Agents.CommRange = config.FloatRange{Min: 60, Max: 60}
	cfg.Tasks.Target = 3
	cfg.Tasks.Required = config.IntRange{Min: 1, Max: 2}
	cfg.Tasks.Work = config.FloatRange{Min: 2, Max: 5}
	return cfg
}

func TestRunReplicates(t *testing.T) {
	store, err := persistence.NewMemoryStore(context.Background())
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	defer store.Close()

	runner := NewRunner(RunnerConfig{
		Replicates:       3,
		ConcurrencyLimit: 2,
		Store:            store,
		Base:             batchConfig(),
	})

	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Replicate != i {
			t.Errorf("result %d: replicate = %d, want %d", i, res.Replicate, i)
		}
		if res.Seed != 100+int64(i) {
			t.Errorf("replicate %d: seed = %d, want %d", i, res.Seed, 100+int64(i))
		}
		if res.Err != nil {
			t.Errorf("replicate %d: unexpected error: %v", i, res.Err)
		}
	}

	runs, err := store.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 persisted runs, got %d", len(runs))
	}

	// Every run has one stats row per tick plus the initial tick 0 row.
	for _, run := range runs {
		rows, err := store.GetTickStats(context.Background(), run.ID)
		if err != nil {
			t.Fatalf("GetTickStats(%s): %v", run.ID, err)
		}
		if len(rows) != batchConfig().Ticks+1 {
			t.Errorf("run %s: %d stats rows, want %d", run.ID, len(rows), batchConfig().Ticks+1)
		}

		transitions, err := store.GetTransitions(context.Background(), run.ID)
		if err != nil {
			t.Fatalf("GetTransitions(%s): %v", run.ID, err)
		}
		if len(transitions) == 0 {
			t.Errorf("run %s: empty transition journal", run.ID)
		}
	}
}

// Replicates derive their seeds from the base, so repeating a batch must
// reproduce every replicate's outcome.
func TestBatchIsReproducible(t *testing.T) {
	run := func() []Result {
		runner := NewRunner(RunnerConfig{
			Replicates:       3,
			ConcurrencyLimit: 3,
			Base:             batchConfig(),
		})
		results, err := runner.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return results
	}

	first := run()
	second := run()

	for i := range first {
		if first[i].Completed != second[i].Completed {
			t.Errorf("replicate %d: completed %d vs %d across batches",
				i, first[i].Completed, second[i].Completed)
		}
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	runner := NewRunner(RunnerConfig{
		Replicates: 4,
		Base:       batchConfig(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runner.Run(ctx); err == nil {
		t.Fatal("expected error from cancelled batch")
	}
}

func TestDefaultsApplied(t *testing.T) {
	runner := NewRunner(RunnerConfig{Base: batchConfig()})
	if runner.config.Replicates != 1 {
		t.Errorf("replicates = %d, want 1", runner.config.Replicates)
	}
	if runner.config.ConcurrencyLimit != 4 {
		t.Errorf("concurrency = %d, want 4", runner.config.ConcurrencyLimit)
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	results := []Result{
		{RunID: "a", Replicate: 0, Seed: 100, Completed: 7},
		{RunID: "b", Replicate: 1, Seed: 101, Completed: 9},
	}

	var sb strings.Builder
	if err := WriteSummaryCSV(&sb, results); err != nil {
		t.Fatalf("WriteSummaryCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "run_id,replicate,seed,completed,error" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "a,0,100,7") {
		t.Errorf("unexpected first row: %q", lines[1])
	}
}
