// Command swarmsim runs cooperative task-allocation simulations: agents
// search a shared arena for tasks, recruit help over a limited
// communication range, and work tasks to completion while the task
// manager keeps the live population constant.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aristath/swarmsim/internal/config"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "swarmsim",
	Short: "swarmsim — cooperative multi-agent task simulation",
	Long:  "swarmsim runs discrete-tick simulations of agents searching for,\nrecruiting help with, and completing spatially distributed tasks.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(dashCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(initCmd)
}

// configPaths returns the global and project config file locations.
func configPaths() (globalPath, projectPath string, err error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".swarmsim", "config.json"),
		filepath.Join(".swarmsim", "config.json"),
		nil
}

// loadConfig loads the merged configuration and applies flag overrides.
func loadConfig(seed int64, ticks int) (*config.Config, error) {
	globalPath, projectPath, err := configPaths()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(globalPath, projectPath)
	if err != nil {
		return nil, err
	}

	if seed != 0 {
		cfg.Seed = seed
	}
	if ticks > 0 {
		cfg.Ticks = ticks
	}

	return cfg, cfg.Validate()
}
