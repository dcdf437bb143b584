package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/polyseed/internal/config"
	"github.com/dbsmedya/polyseed/internal/seed"
	"github.com/dbsmedya/polyseed/internal/store"
)

var (
	planRelationships bool
	planParallel      bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the seed execution plan",
	Long: `Plan displays the stages the orchestrator would run and the
dependency reasons behind the ordering, without touching any store.

Example:
  polyseed plan --relationships`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planRelationships, "relationships", false,
		"Plan with referential integrity (sequential stages)")
	planCmd.Flags().BoolVar(&planParallel, "parallel", false,
		"Plan a concurrent single stage (only without --relationships)")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		// Plan construction needs no store settings; defaults suffice
		// when no config file is present.
		cfg = config.DefaultConfig()
	}
	cfg.ApplyOverrides(logLevel, logFormat, environment, retryAttempts)

	opts := seed.OptionsFromDefaults(cfg.Seed.Defaults)
	opts.CreateRelationships = planRelationships
	opts.EnableParallelExecution = planParallel

	plan, err := seed.BuildPlan(opts, store.Names())
	if err != nil {
		return fmt.Errorf("failed to build plan: %w", err)
	}

	fmt.Fprintf(outputWriter, "\n=== Execution Plan ===\n")
	var rows [][]string
	for i, stage := range plan.Stages {
		mode := "sequential"
		if stage.Parallel {
			mode = "parallel"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			strings.Join(stage.Stores, ", "),
			mode,
			stage.Description,
		})
	}
	renderTable(outputWriter, []string{"STAGE", "STORES", "MODE", "DESCRIPTION"}, rows)

	if len(plan.Dependencies) > 0 {
		fmt.Fprintf(outputWriter, "\n=== Dependencies ===\n")
		rows = rows[:0]
		for _, d := range plan.Dependencies {
			rows = append(rows, []string{d.From + " -> " + d.To, d.Reason})
		}
		renderTable(outputWriter, []string{"EDGE", "REASON"}, rows)
	}
	return nil
}
