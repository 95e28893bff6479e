package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aristath/swarmsim/internal/config"
)

var (
	initGlobal bool
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initGlobal, "global", "g", false, "Write to ~/.swarmsim instead of the project directory")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration file")
}

func runInit(_ *cobra.Command, _ []string) error {
	globalPath, projectPath, err := configPaths()
	if err != nil {
		return err
	}

	path := projectPath
	if initGlobal {
		path = globalPath
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := config.Save(config.DefaultConfig(), path); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}
