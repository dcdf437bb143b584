// Package version manages named, dependency-ordered seed versions: a
// registry with cycle detection, recursive dependency application, and
// cascading rollback.
package version

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/dbsmedya/polyseed/internal/graph"
	"github.com/dbsmedya/polyseed/internal/seed"
)

// State is the lifecycle state of a registered version.
// rolled_back is only reachable from completed.
type State string

const (
	StatePending    State = "pending"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateRolledBack State = "rolled_back"
)

// ErrUnknownVersion is returned for operations on unregistered versions.
var ErrUnknownVersion = errors.New("unknown seed version")

// ErrDependentsApplied is returned when a rollback would strand applied
// versions that depend on the target.
var ErrDependentsApplied = errors.New("applied versions depend on this version")

// CyclicDependencyError rejects a registration that would create a cycle
// in the version dependency graph. The registry is left untouched.
type CyclicDependencyError struct {
	Version string
	Cycle   []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("registering version %s would create a dependency cycle: %s",
		e.Version, strings.Join(e.Cycle, " -> "))
}

func (e *CyclicDependencyError) Unwrap() error { return graph.ErrCycleDetected }

// Version is a named, semver-identified seed dataset with dependencies
// on other versions.
type Version struct {
	Name      string
	ID        *semver.Version
	DependsOn []string
	Options   seed.Options

	state     State
	appliedAt time.Time
	lastErr   error
}

// State returns the current lifecycle state.
func (v *Version) State() State { return v.state }

// AppliedAt returns when the version was last applied successfully.
func (v *Version) AppliedAt() time.Time { return v.appliedAt }

// Err returns the error of the last failed apply, nil otherwise.
func (v *Version) Err() error { return v.lastErr }

// Scenario returns the scenario tag the version seeds under. The
// version name wins over the option default so each version's data can
// be rolled back independently.
func (v *Version) Scenario() string {
	return "version-" + v.Name
}
