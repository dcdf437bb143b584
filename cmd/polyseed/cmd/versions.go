package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/polyseed/internal/lifecycle"
	"github.com/dbsmedya/polyseed/internal/version"
)

var versionsForce bool

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Manage versioned seed sets",
	Long: `Versions drives the named seed sets declared in the config file.
Each version seeds under its own scenario tag so it can be rolled back
independently, and applying a version applies its dependencies first.`,
}

var versionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured versions and their dependencies",
	RunE:  runVersionsList,
}

var versionsApplyCmd = &cobra.Command{
	Use:   "apply <name>",
	Short: "Apply a version and its dependencies",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsApply,
}

var versionsRollbackCmd = &cobra.Command{
	Use:   "rollback <name>",
	Short: "Roll back an applied version",
	Long: `Rollback removes the records a completed version seeded. It is
refused while other applied versions still depend on the target unless
--force is given, which rolls the dependents back first.`,
	Args: cobra.ExactArgs(1),
	RunE: runVersionsRollback,
}

func init() {
	versionsRollbackCmd.Flags().BoolVar(&versionsForce, "force", false,
		"Cascade the rollback through applied dependents")

	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsApplyCmd)
	versionsCmd.AddCommand(versionsRollbackCmd)
	rootCmd.AddCommand(versionsCmd)
}

func runVersionsList(cmd *cobra.Command, args []string) error {
	deps, err := loadRuntime()
	if err != nil {
		return err
	}
	defer deps.log.Sync()

	// Listing needs no store connections; the manager is built from
	// config alone. The orchestrator is only wired for apply/rollback.
	mgr, err := deps.buildVersionManager(nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(outputWriter, "\n=== Seed Versions ===\n")
	var rows [][]string
	for _, v := range mgr.List() {
		dependsOn := "-"
		if len(v.DependsOn) > 0 {
			dependsOn = strings.Join(v.DependsOn, ", ")
		}
		rows = append(rows, []string{
			v.Name,
			v.ID.String(),
			dependsOn,
			string(v.State()),
			v.Scenario(),
		})
	}
	renderTable(outputWriter, []string{"NAME", "VERSION", "DEPENDS ON", "STATE", "SCENARIO"}, rows)
	return nil
}

func runVersionsApply(cmd *cobra.Command, args []string) error {
	name := args[0]

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

	mgr, err := deps.buildVersionManager(deps.buildOrchestrator())
	if err != nil {
		return err
	}

	if err := mgr.Apply(ctx, name); err != nil {
		return fmt.Errorf("apply %s: %w", name, err)
	}
	fmt.Fprintf(outputWriter, "Version %s applied.\n", name)
	return nil
}

func runVersionsRollback(cmd *cobra.Command, args []string) error {
	name := args[0]

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

	orch := deps.buildOrchestrator()
	mgr, err := deps.buildVersionManager(orch)
	if err != nil {
		return err
	}

	target, err := mgr.Get(name)
	if err != nil {
		return err
	}

	// Version state lives in the process that applied it, so a fresh CLI
	// invocation cannot consult it. Rollback here is driven purely by the
	// scenario tags on the stored records, which makes it idempotent:
	// dependents first when forced, then the target.
	var scenarios []string
	if versionsForce {
		for _, dep := range transitiveDependents(mgr.List(), name) {
			scenarios = append(scenarios, dep.Scenario())
		}
	}
	scenarios = append(scenarios, target.Scenario())

	for _, scenario := range scenarios {
		report := orch.RollbackScenario(ctx, scenario)
		if report.RollbackRequired && !report.RollbackCompleted {
			return fmt.Errorf("rollback of scenario %s did not complete: manual cleanup required", scenario)
		}
		fmt.Fprintf(outputWriter, "Rolled back scenario %s.\n", scenario)
	}
	fmt.Fprintf(outputWriter, "Version %s rolled back.\n", name)
	return nil
}

// transitiveDependents returns every registered version that depends on
// name, directly or through other versions, dependents-first.
func transitiveDependents(all []*version.Version, name string) []*version.Version {
	marked := map[string]bool{name: true}
	var out []*version.Version

	// Passes settle transitive edges; registration order bounds the loop.
	for changed := true; changed; {
		changed = false
		for _, v := range all {
			if marked[v.Name] {
				continue
			}
			for _, dep := range v.DependsOn {
				if marked[dep] {
					marked[v.Name] = true
					out = append(out, v)
					changed = true
					break
				}
			}
		}
	}

	// Reverse so the deepest dependents roll back first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
