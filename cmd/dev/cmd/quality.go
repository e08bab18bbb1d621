package cmd

import (
	"fmt"
	"log/slog"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// step is one quality gate run before a Pi build is shipped.
type step struct {
	name string
	run  func() error
}

var (
	unitStep = step{name: "unit tests", run: test.Test}
	lintStep = step{name: "lint", run: test.Lint}
)

func runSteps(steps ...step) error {
	for _, s := range steps {
		slog.Info("running", "step", s.name)
		if err := s.run(); err != nil {
			return fmt.Errorf("%s failed: %w", s.name, err)
		}
	}
	return nil
}

func TestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run unit tests (protocol, polling and storage run against mock transports)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSteps(unitStep)
		},
	}
}

func LintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Run linters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSteps(lintStep)
		},
	}
}

// CheckCmd is what to run before "build --pi": lint first, it is faster.
func CheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run lint and unit tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSteps(lintStep, unitStep)
		},
	}
}
