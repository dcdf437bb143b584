package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/polyseed/internal/lifecycle"
	"github.com/dbsmedya/polyseed/internal/lock"
	"github.com/dbsmedya/polyseed/internal/seed"
)

var (
	seedScenario      string
	seedUsers         int
	seedProducts      int
	seedOrders        int
	seedTasks         int
	seedMessages      int
	seedVectors       int
	seedCleanup       bool
	seedRelationships bool
	seedValidate      bool
	seedParallel      bool
	seedNoRollback    bool
	seedForce         bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate all stores with scenario data",
	Long: `Seed connects to every store, builds a dependency-aware execution
plan, and runs the per-store seeders in order.

With --relationships the plan is sequential: the relational store seeds
first and owns the canonical IDs, the document and cache stores follow,
and the vector index runs last. Without it a single stage covers all
stores, concurrently when --parallel is set.

Example:
  polyseed seed --config polyseed.yaml --scenario demo --relationships`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedScenario, "scenario", "s", "",
		"Scenario tag for the seeded records")
	seedCmd.Flags().IntVar(&seedUsers, "users", -1, "Number of users to seed")
	seedCmd.Flags().IntVar(&seedProducts, "products", -1, "Number of products to seed")
	seedCmd.Flags().IntVar(&seedOrders, "orders", -1, "Number of orders to seed")
	seedCmd.Flags().IntVar(&seedTasks, "tasks", -1, "Number of task documents to seed")
	seedCmd.Flags().IntVar(&seedMessages, "messages", -1, "Number of cache messages to seed")
	seedCmd.Flags().IntVar(&seedVectors, "vectors", -1, "Number of vector documents to seed")

	seedCmd.Flags().BoolVar(&seedCleanup, "cleanup", false,
		"Wipe existing seed data first (refused in production)")
	seedCmd.Flags().BoolVar(&seedRelationships, "relationships", false,
		"Maintain referential integrity across stores (sequential plan)")
	seedCmd.Flags().BoolVar(&seedValidate, "validate", false,
		"Validate record counts after a successful run")
	seedCmd.Flags().BoolVar(&seedParallel, "parallel", false,
		"Run all stores concurrently (only without --relationships)")
	seedCmd.Flags().BoolVar(&seedNoRollback, "no-rollback", false,
		"Do not roll back completed stores when a stage fails")
	seedCmd.Flags().BoolVar(&seedForce, "force", false,
		"Skip the scenario run lock (use with caution)")

	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	deps, err := loadRuntime()
	if err != nil {
		return err
	}
	defer deps.log.Sync()

	ctx := lifecycle.SetupSignalHandler()

	if err := deps.coord.Initialize(ctx); err != nil {
		return fmt.Errorf("store initialization failed: %w", err)
	}
	defer deps.coord.GracefulShutdown(context.Background())

	opts := deps.seedOptions()

	// One seed run per scenario at a time across all instances.
	if !seedForce {
		runLock := lock.NewSeedLock(deps.mysql.DB(), opts.Scenario)
		if err := runLock.AcquireOrFail(ctx); err != nil {
			if errors.Is(err, lock.ErrLockTimeout) {
				return fmt.Errorf("scenario %q is already being seeded by another instance (use --force to override)", opts.Scenario)
			}
			return fmt.Errorf("failed to acquire run lock: %w", err)
		}
		defer runLock.Release(context.Background())
	} else {
		deps.log.Warnw("Skipping run lock acquisition (--force flag used)", "scenario", opts.Scenario)
	}

	orch := deps.buildOrchestrator()
	report := orch.Run(ctx, opts)

	printReport(report)
	if !report.Success {
		if report.RollbackRequired && !report.RollbackCompleted {
			return fmt.Errorf("seeding failed and rollback did not complete: manual cleanup required")
		}
		return fmt.Errorf("seeding failed")
	}
	return nil
}

// printReport renders the execution report as a table plus totals.
func printReport(report *seed.ExecutionReport) {
	fmt.Fprintf(outputWriter, "\n=== Seed Report %s ===\n", report.ExecutionID)

	var rows [][]string
	for name, sr := range report.Stores {
		status := "ok"
		switch {
		case sr.RolledBack:
			status = "rolled back"
		case !sr.Success:
			status = "FAILED"
		}
		rows = append(rows, []string{
			name,
			status,
			fmt.Sprintf("%d", sr.RecordsCreated),
			sr.Duration.String(),
			fmt.Sprintf("%d", len(sr.Errors)),
		})
	}
	renderTable(outputWriter, []string{"STORE", "STATUS", "RECORDS", "DURATION", "ERRORS"}, rows)

	fmt.Fprintf(outputWriter, "\n  Total records: %d\n", report.TotalRecords)
	fmt.Fprintf(outputWriter, "  Duration:      %s\n", report.TotalDuration)
	fmt.Fprintf(outputWriter, "  Success:       %v\n", report.Success)
	if report.RollbackRequired {
		fmt.Fprintf(outputWriter, "  Rollback:      attempted, completed=%v\n", report.RollbackCompleted)
	}
	for _, w := range report.ValidationWarnings {
		fmt.Fprintf(outputWriter, "  Warning:       %s\n", w)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(outputWriter, "  Error:         %s\n", e)
	}
}
