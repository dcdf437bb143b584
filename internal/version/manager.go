package version

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/elliotchance/orderedmap/v2"
	"go.uber.org/multierr"

	"github.com/dbsmedya/polyseed/internal/graph"
	"github.com/dbsmedya/polyseed/internal/logger"
	"github.com/dbsmedya/polyseed/internal/seed"
)

// Runner executes and compensates seed runs on behalf of the manager.
// The seed orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, opts seed.Options) *seed.ExecutionReport
	RollbackScenario(ctx context.Context, scenario string) *seed.ExecutionReport
}

// Manager is the version registry and migration runner. Versions apply
// in dependency order; rollbacks cascade to dependents only when forced.
type Manager struct {
	mu       sync.Mutex
	versions *orderedmap.OrderedMap[string, *Version]
	runner   Runner
	logger   *logger.Logger
}

// NewManager creates an empty version manager over the given runner.
func NewManager(runner Runner, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Manager{
		versions: orderedmap.NewOrderedMap[string, *Version](),
		runner:   runner,
		logger:   log,
	}
}

// Register adds a version to the registry. The semver ID must parse and
// the resulting dependency graph must stay acyclic; any violation
// rejects the registration before the registry is mutated. Dependencies
// may be declared before they are registered; applying resolves them.
func (m *Manager) Register(name, id string, dependsOn []string, opts seed.Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.versions.Get(name); exists {
		return fmt.Errorf("version %s already registered", name)
	}
	parsed, err := semver.NewVersion(id)
	if err != nil {
		return fmt.Errorf("version %s: invalid semver %q: %w", name, id, err)
	}

	if cycle := m.wouldCycle(name, dependsOn); cycle != nil {
		return &CyclicDependencyError{Version: name, Cycle: cycle}
	}

	m.versions.Set(name, &Version{
		Name:      name,
		ID:        parsed,
		DependsOn: append([]string(nil), dependsOn...),
		Options:   opts,
		state:     StatePending,
	})
	m.logger.WithVersion(name).Infow("Version registered", "id", id, "depends_on", dependsOn)
	return nil
}

// wouldCycle builds the dependency graph with the candidate edges added
// and runs the DFS cycle check. Must be called with the lock held.
func (m *Manager) wouldCycle(name string, dependsOn []string) []string {
	g := graph.New()
	g.AddNode(name)
	for el := m.versions.Front(); el != nil; el = el.Next() {
		g.AddNode(el.Key)
		for _, dep := range el.Value.DependsOn {
			g.AddEdge(dep, el.Key)
		}
	}
	for _, dep := range dependsOn {
		g.AddEdge(dep, name)
	}
	return g.FindCycle()
}

// Get returns the named version.
func (m *Manager) Get(name string) (*Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions.Get(name)
	if !ok {
		return nil, fmt.Errorf("version %s: %w", name, ErrUnknownVersion)
	}
	return v, nil
}

// List returns all versions in registration order.
func (m *Manager) List() []*Version {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Version, 0, m.versions.Len())
	for el := m.versions.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Apply runs the named version, recursively applying its unapplied
// dependencies first. Already-completed versions are skipped.
func (m *Manager) Apply(ctx context.Context, name string) error {
	m.mu.Lock()
	v, ok := m.versions.Get(name)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("version %s: %w", name, ErrUnknownVersion)
	}

	for _, dep := range v.DependsOn {
		depV, err := m.Get(dep)
		if err != nil {
			return err
		}
		if depV.state == StateCompleted {
			continue
		}
		if err := m.Apply(ctx, dep); err != nil {
			return fmt.Errorf("applying dependency %s of %s: %w", dep, name, err)
		}
	}

	m.mu.Lock()
	if v.state == StateCompleted {
		m.mu.Unlock()
		return nil
	}
	v.state = StateRunning
	m.mu.Unlock()

	log := m.logger.WithVersion(name)
	log.Infow("Applying version", "id", v.ID.String())

	opts := v.Options
	opts.Scenario = v.Scenario()
	report := m.runner.Run(ctx, opts)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !report.Success {
		v.state = StateFailed
		v.lastErr = fmt.Errorf("version %s apply failed: %v", name, report.Errors)
		log.Errorw("Version apply failed", "errors", report.Errors)
		return v.lastErr
	}

	v.state = StateCompleted
	v.appliedAt = time.Now()
	v.lastErr = nil
	log.Infow("Version applied", "records", report.TotalRecords)
	return nil
}

// Rollback undoes a completed version. It is refused while applied
// versions still depend on the target, unless forceDependents cascades
// the rollback to those dependents first, in dependency order.
func (m *Manager) Rollback(ctx context.Context, name string, forceDependents bool) error {
	m.mu.Lock()
	v, ok := m.versions.Get(name)
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("version %s: %w", name, ErrUnknownVersion)
	}
	if v.state != StateCompleted {
		state := v.state
		m.mu.Unlock()
		return fmt.Errorf("version %s is %s, only completed versions roll back", name, state)
	}
	dependents := m.appliedDependents(name)
	m.mu.Unlock()

	if len(dependents) > 0 {
		if !forceDependents {
			return fmt.Errorf("version %s: %w: %v", name, ErrDependentsApplied, dependents)
		}
		var errs error
		for _, dep := range dependents {
			if err := m.Rollback(ctx, dep, true); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		if errs != nil {
			return fmt.Errorf("cascading rollback of %s: %w", name, errs)
		}
	}

	log := m.logger.WithVersion(name)
	log.Warnw("Rolling back version", "scenario", v.Scenario())

	report := m.runner.RollbackScenario(ctx, v.Scenario())
	if report.RollbackRequired && !report.RollbackCompleted {
		return fmt.Errorf("version %s: %w: %v", name, seed.ErrRollbackFailed, report.Errors)
	}

	m.mu.Lock()
	v.state = StateRolledBack
	m.mu.Unlock()
	log.Infow("Version rolled back")
	return nil
}

// appliedDependents returns the completed versions that directly depend
// on name. Must be called with the lock held.
func (m *Manager) appliedDependents(name string) []string {
	var out []string
	for el := m.versions.Front(); el != nil; el = el.Next() {
		if el.Value.state != StateCompleted {
			continue
		}
		for _, dep := range el.Value.DependsOn {
			if dep == name {
				out = append(out, el.Key)
				break
			}
		}
	}
	return out
}
