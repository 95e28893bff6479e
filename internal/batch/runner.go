package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/swarmsim/internal/config"
	"github.com/aristath/swarmsim/internal/events"
	"github.com/aristath/swarmsim/internal/persistence"
	"github.com/aristath/swarmsim/internal/sim"
)

// Result is the outcome of one replicate.
type Result struct {
	RunID     string
	Replicate int
	Seed      int64
	Completed int
	Err       error
}

// RunnerConfig configures the batch runner.
type RunnerConfig struct {
	Replicates       int               // Number of independent runs (default 1)
	ConcurrencyLimit int               // Max concurrent replicates (default 4)
	Store            persistence.Store // Optional; nil skips persistence
	Base             *config.Config    // Per-replicate seed is Base.Seed + replicate index
}

// Runner executes independent replicates of a simulation concurrently.
// Replicates share nothing: each gets its own world seeded from the base
// seed plus its replicate index, so a batch is reproducible run-for-run.
type Runner struct {
	config  RunnerConfig
	mu      sync.Mutex
	results []Result
}

// NewRunner creates a new batch runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Replicates <= 0 {
		cfg.Replicates = 1
	}
	if cfg.ConcurrencyLimit <= 0 {
		cfg.ConcurrencyLimit = 4
	}

	return &Runner{
		config:  cfg,
		results: []Result{},
	}
}

// Run executes all replicates with bounded concurrency. Replicate failures
// are recorded per-result rather than aborting the batch; only context
// cancellation stops it early. Results are ordered by replicate index.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.ConcurrencyLimit)

	for i := 0; i < r.config.Replicates; i++ {
		replicate := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.recordResult(r.runReplicate(gctx, replicate))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return r.sortedResults(), err
	}
	if err := ctx.Err(); err != nil {
		return r.sortedResults(), err
	}

	return r.sortedResults(), nil
}

// runReplicate runs one replicate to completion and persists its run
// record, per-tick counts, and transition journal.
func (r *Runner) runReplicate(ctx context.Context, replicate int) Result {
	seed := r.config.Base.Seed + int64(replicate)

	cfg := *r.config.Base
	cfg.Seed = seed

	result := Result{
		RunID:     uuid.NewString(),
		Replicate: replicate,
		Seed:      seed,
	}

	startedAt := time.Now().UTC()
	s, err := sim.New(&cfg, nil)
	if err != nil {
		result.Err = fmt.Errorf("replicate %d: %w", replicate, err)
		return result
	}

	if err := s.Run(ctx); err != nil {
		result.Err = fmt.Errorf("replicate %d: %w", replicate, err)
		return result
	}
	finishedAt := time.Now().UTC()

	result.Completed = s.Completed()

	if r.config.Store == nil {
		return result
	}

	run := &persistence.Run{
		ID:         result.RunID,
		Seed:       seed,
		Ticks:      cfg.Ticks,
		Agents:     cfg.Agents.Count,
		TaskTarget: cfg.Tasks.Target,
		Completed:  result.Completed,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	if err := r.config.Store.SaveRun(ctx, run); err != nil {
		result.Err = fmt.Errorf("replicate %d: %w", replicate, err)
		return result
	}

	journal := s.Journal()
	if err := r.config.Store.SaveTickStats(ctx, result.RunID, tickRows(journal)); err != nil {
		result.Err = fmt.Errorf("replicate %d: %w", replicate, err)
		return result
	}
	if err := r.config.Store.SaveTransitions(ctx, result.RunID, flatten(journal)); err != nil {
		result.Err = fmt.Errorf("replicate %d: %w", replicate, err)
		return result
	}

	return result
}

// recordResult appends a replicate result in a thread-safe manner.
func (r *Runner) recordResult(result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	if result.Err != nil {
		log.Printf("WARNING: replicate %d failed: %v", result.Replicate, result.Err)
	}
}

func (r *Runner) sortedResults() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]Result(nil), r.results...)
	sort.Slice(out, func(i, j int) bool { return out[i].Replicate < out[j].Replicate })
	return out
}

// tickRows extracts the per-tick population counts from a journal.
func tickRows(journal []events.Event) []persistence.TickRow {
	var rows []persistence.TickRow
	for _, ev := range journal {
		stats, ok := ev.(events.TickStatsEvent)
		if !ok {
			continue
		}
		rows = append(rows, persistence.TickRow{
			Tick:           stats.AtTick,
			Searching:      stats.Searching,
			WaitingForHelp: stats.WaitingForHelp,
			Helping:        stats.Helping,
			Working:        stats.Working,
			TasksIdle:      stats.TasksIdle,
			TasksActive:    stats.TasksActive,
			TasksCompleted: stats.TasksCompleted,
		})
	}
	return rows
}

// flatten converts a journal to storable transitions, preserving order.
// Tick statistics are stored separately and skipped here.
func flatten(journal []events.Event) []persistence.Transition {
	var out []persistence.Transition
	for _, ev := range journal {
		t := persistence.Transition{
			Seq:       len(out),
			Tick:      ev.Tick(),
			EventType: ev.EventType(),
		}
		switch e := ev.(type) {
		case events.TaskSpawnedEvent:
			t.TaskID = e.TaskID
			t.Detail = fmt.Sprintf("required=%d work=%.1f", e.Required, e.Work)
		case events.TaskAssignedEvent:
			t.TaskID = e.TaskID
			t.AgentID = e.AgentID
		case events.TaskStartedEvent:
			t.TaskID = e.TaskID
			t.AgentID = e.Driver
			t.Detail = fmt.Sprintf("crew=%v", e.Assigned)
		case events.TaskCompletedEvent:
			t.TaskID = e.TaskID
			t.AgentID = e.Driver
		case events.TaskRemovedEvent:
			t.TaskID = e.TaskID
		case events.AgentStateEvent:
			t.AgentID = e.AgentID
			t.TaskID = e.TaskID
			t.Detail = e.From + "->" + e.To
		case events.TickStatsEvent:
			continue
		}
		out = append(out, t)
	}
	return out
}

// WriteSummaryCSV writes one row per replicate: run id, seed, and the
// cumulative completed-task count.
func WriteSummaryCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"run_id", "replicate", "seed", "completed", "error"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, res := range results {
		errStr := ""
		if res.Err != nil {
			errStr = res.Err.Error()
		}
		row := []string{
			res.RunID,
			strconv.Itoa(res.Replicate),
			strconv.FormatInt(res.Seed, 10),
			strconv.Itoa(res.Completed),
			errStr,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
