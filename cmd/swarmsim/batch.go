package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aristath/swarmsim/internal/batch"
	"github.com/aristath/swarmsim/internal/persistence"
)

var (
	batchSeed        int64
	batchTicks       int
	batchReplicates  int
	batchConcurrency int
	batchDBPath      string
	batchOutPath     string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run replicated simulations and collect results",
	Long:  "Runs independent replicates of the configured simulation, seeds derived\nfrom the base seed, stores results in SQLite, and writes a CSV summary.",
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().Int64Var(&batchSeed, "seed", 0, "Override the configured base seed")
	batchCmd.Flags().IntVar(&batchTicks, "ticks", 0, "Override the configured tick count")
	batchCmd.Flags().IntVarP(&batchReplicates, "replicates", "n", 10, "Number of replicates")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 4, "Max concurrent replicates")
	batchCmd.Flags().StringVar(&batchDBPath, "db", ".swarmsim/runs.db", "SQLite database path (empty disables persistence)")
	batchCmd.Flags().StringVarP(&batchOutPath, "out", "o", "-", "CSV summary path ('-' for stdout)")
}

func runBatch(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(batchSeed, batchTicks)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store persistence.Store
	if batchDBPath != "" {
		sqlStore, err := persistence.NewSQLiteStore(ctx, batchDBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer sqlStore.Close()
		store = sqlStore
	}

	runner := batch.NewRunner(batch.RunnerConfig{
		Replicates:       batchReplicates,
		ConcurrencyLimit: batchConcurrency,
		Store:            store,
		Base:             cfg,
	})

	results, err := runner.Run(ctx)
	if err != nil && err != context.Canceled {
		return err
	}

	out := os.Stdout
	if batchOutPath != "-" {
		f, err := os.Create(batchOutPath)
		if err != nil {
			return fmt.Errorf("create summary: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := batch.WriteSummaryCSV(out, results); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if ctx.Err() != nil {
		fmt.Fprintf(os.Stderr, "interrupted after %d of %d replicates\n", len(results), batchReplicates)
	}
	return nil
}
