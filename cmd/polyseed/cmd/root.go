package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile       string
	logLevel      string
	logFormat     string
	environment   string
	retryAttempts int
)

var rootCmd = &cobra.Command{
	Use:   "polyseed",
	Short: "Multi-store lifecycle coordinator and seed orchestrator",
	Long: `polyseed manages a fleet of four data stores (MySQL, MongoDB, Redis,
sqlite-vec) behind a single lifecycle and test-data-seeding layer.

Features:
  - Bounded-retry startup with exponential backoff per store
  - Parallel health aggregation (healthy / degraded / unhealthy)
  - Dependency-aware seed plans with per-step retry
  - Best-effort compensating rollback in reverse stage order
  - Named, dependency-ordered seed versions with cycle detection
  - Hard production guard on every destructive operation`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "polyseed.yaml",
		"Path to configuration file")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	rootCmd.PersistentFlags().StringVar(&environment, "environment", "",
		"Override environment (development, staging, production)")
	rootCmd.PersistentFlags().IntVar(&retryAttempts, "retry-attempts", 0,
		"Override per-step seed retry attempts")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}
