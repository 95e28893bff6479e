package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aristath/swarmsim/internal/events"
	"github.com/aristath/swarmsim/internal/sim"
	"github.com/aristath/swarmsim/internal/tui"
)

var (
	dashSeed     int64
	dashTicks    int
	dashInterval time.Duration
)

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Run a simulation with a live dashboard",
	RunE:  runDash,
}

func init() {
	dashCmd.Flags().Int64Var(&dashSeed, "seed", 0, "Override the configured seed")
	dashCmd.Flags().IntVar(&dashTicks, "ticks", 0, "Override the configured tick count")
	dashCmd.Flags().DurationVar(&dashInterval, "interval", 50*time.Millisecond, "Wall-clock delay between ticks")
}

func runDash(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(dashSeed, dashTicks)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	globalPath, projectPath, err := configPaths()
	if err != nil {
		return err
	}

	bus := events.NewBus()
	defer bus.Close()

	s, err := sim.New(cfg, bus)
	if err != nil {
		return err
	}

	model := tui.New(bus, cfg, globalPath, projectPath)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Drive the simulation at a human-visible pace while the TUI renders.
	simErr := make(chan error, 1)
	go func() {
		defer close(simErr)
		ticker := time.NewTicker(dashInterval)
		defer ticker.Stop()

		for i := 0; i < cfg.Ticks; i++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if err := s.Tick(); err != nil {
				simErr <- err
				return
			}
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errChan <- err
	}()

	// Quit the TUI but give it a bounded window to restore the terminal.
	quitAndWait := func() error {
		p.Quit()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		select {
		case err := <-errChan:
			return err
		case <-shutdownCtx.Done():
			log.Println("Shutdown timeout exceeded, forcing exit")
			return nil
		}
	}

	select {
	case err := <-errChan:
		// Normal TUI exit (user pressed 'q')
		return err

	case err := <-simErr:
		if err != nil {
			_ = quitAndWait()
			return err
		}
		// Simulation finished; leave the dashboard up until the user quits
		// or a signal arrives.
		select {
		case err := <-errChan:
			return err
		case <-ctx.Done():
			stop()
			return quitAndWait()
		}

	case <-ctx.Done():
		stop()
		log.Println("Shutdown signal received, cleaning up...")
		return quitAndWait()
	}
}
