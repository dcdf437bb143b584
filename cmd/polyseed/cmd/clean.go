package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/polyseed/internal/lifecycle"
	"github.com/dbsmedya/polyseed/internal/store"
)

var cleanYes bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove all seed data from every store",
	Long: `Clean wipes the seed tables, collections, keys, and vectors from
every store regardless of scenario. It is refused outright when the
environment is production.

Example:
  polyseed clean --yes`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false,
		"Confirm deletion without prompting")

	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	if !cleanYes {
		return fmt.Errorf("clean removes all seed data from every store; re-run with --yes to confirm")
	}

	deps, err := loadRuntime()
	if err != nil {
		return err
	}
	defer deps.log.Sync()

	// Fail before connecting anywhere when the guard would refuse anyway.
	if err := deps.guard.Check("clean all stores"); err != nil {
		return err
	}

	ctx := lifecycle.SetupSignalHandler()

	if err := deps.coord.Initialize(ctx); err != nil {
		return fmt.Errorf("store initialization failed: %w", err)
	}
	defer deps.coord.GracefulShutdown(context.Background())

	if err := deps.coord.CleanAll(ctx); err != nil {
		if errors.Is(err, store.ErrProductionGuard) {
			return err
		}
		return fmt.Errorf("clean failed: %w", err)
	}

	fmt.Fprintln(outputWriter, "All seed data removed.")
	return nil
}
