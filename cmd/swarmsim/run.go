package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aristath/swarmsim/internal/sim"
)

var (
	runSeed    int64
	runTicks   int
	runVerbose bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single simulation headless and print a summary",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Override the configured seed")
	runCmd.Flags().IntVar(&runTicks, "ticks", 0, "Override the configured tick count")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print the full transition journal")
}

func runRun(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(runSeed, runTicks)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := sim.New(cfg, nil)
	if err != nil {
		return err
	}

	if err := s.Run(ctx); err != nil && err != context.Canceled {
		return err
	}

	if runVerbose {
		for _, ev := range s.Journal() {
			fmt.Printf("%5d  %s  %+v\n", ev.Tick(), ev.EventType(), ev)
		}
	}

	snap := s.Snapshot()
	fmt.Printf("seed %d, %d ticks\n", cfg.Seed, snap.Tick)
	fmt.Printf("completed tasks:  %d\n", s.Completed())
	fmt.Printf("agents searching: %d  waiting: %d  helping: %d  working: %d\n",
		snap.Searching, snap.WaitingForHelp, snap.Helping, snap.Working)
	fmt.Printf("tasks idle: %d  active: %d\n", snap.TasksIdle, snap.TasksActive)

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "interrupted")
	}
	return nil
}
