package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/dbsmedya/polyseed/internal/config"
)

// ErrProductionGuard is returned when a destructive operation is attempted
// against a production environment. It is never retried.
var ErrProductionGuard = errors.New("destructive operation refused in production environment")

// Guard enforces the single hard safety invariant of the subsystem: no
// destructive operation (cleanup, rollback, full wipe) may run when the
// environment is production, independent of any caller-supplied flag.
type Guard struct {
	environment string
}

// NewGuard creates a guard for the given environment name.
func NewGuard(environment string) *Guard {
	return &Guard{environment: environment}
}

// Environment returns the environment the guard was built with, unless
// POLYSEED_ENV overrides it. The env var wins so a misconfigured config
// file cannot disarm the guard on a production host.
func (g *Guard) Environment() string {
	if env := os.Getenv("POLYSEED_ENV"); env != "" {
		return env
	}
	return g.environment
}

// Check returns ErrProductionGuard (wrapped with the operation name) when
// the effective environment is production, nil otherwise.
func (g *Guard) Check(operation string) error {
	if g.Environment() == config.EnvProduction {
		return fmt.Errorf("%s: %w", operation, ErrProductionGuard)
	}
	return nil
}
