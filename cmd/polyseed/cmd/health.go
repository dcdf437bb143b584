package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/polyseed/internal/health"
	"github.com/dbsmedya/polyseed/internal/lifecycle"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every store and report aggregate health",
	Long: `Health connects to all stores, probes each one concurrently under
the configured timeout, and prints a per-store table plus the overall
classification. The command exits non-zero unless every store is healthy.`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
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

	result := deps.agg.CheckAll(ctx)

	fmt.Fprintf(outputWriter, "\n=== Store Health ===\n")
	var rows [][]string
	for _, r := range result.Reports {
		detail := r.Detail
		if r.Err != nil {
			detail = r.Err.Error()
		}
		rows = append(rows, []string{
			r.Store,
			colorBool(r.Status == health.StatusHealthy),
			r.ResponseTime.String(),
			detail,
		})
	}
	renderTable(outputWriter, []string{"STORE", "STATUS", "RESPONSE", "DETAIL"}, rows)

	fmt.Fprintf(outputWriter, "\n  Overall: %s (%d/%d healthy)\n",
		colorStatus(result.Overall), result.Summary.Healthy, result.Summary.Total)

	if result.Overall != health.OverallHealthy {
		return fmt.Errorf("stores are %s", result.Overall)
	}
	return nil
}
