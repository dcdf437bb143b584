package seed

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/polyseed/internal/graph"
	"github.com/dbsmedya/polyseed/internal/store"
)

// Stage is one step of the execution plan. Stores within a parallel
// stage run concurrently; a sequential stage runs them in order.
type Stage struct {
	Stores      []string
	Description string
	Parallel    bool
}

// Dependency records why one store must be seeded before another.
type Dependency struct {
	From   string
	To     string
	Reason string
}

// Plan is an ordered set of stages plus the dependency reasons that
// justify the ordering.
type Plan struct {
	Stages         []Stage
	Dependencies   []Dependency
	Parallelizable bool
}

// storeDependencies is the fixed ordering rule for referential
// integrity: the relational store owns canonical IDs, the document and
// cache stores reference them, and the vector index is derived from both.
var storeDependencies = []Dependency{
	{From: store.MySQL, To: store.Mongo, Reason: "documents reference relational user IDs"},
	{From: store.MySQL, To: store.Redis, Reason: "cache entries reference relational user IDs"},
	{From: store.Mongo, To: store.Vector, Reason: "embeddings derive from seeded documents"},
	{From: store.Redis, To: store.Vector, Reason: "vector stage runs after all content stages"},
}

// BuildPlan constructs the execution plan for the given options over the
// listed stores. With CreateRelationships the plan is sequential and
// dependency-ordered; otherwise it is a single stage containing every
// store, parallel when EnableParallelExecution is set.
func BuildPlan(opts Options, stores []string) (*Plan, error) {
	if !opts.CreateRelationships {
		return &Plan{
			Stages: []Stage{{
				Stores:      append([]string(nil), stores...),
				Description: "all stores, no cross-store relationships",
				Parallel:    opts.EnableParallelExecution,
			}},
			Parallelizable: opts.EnableParallelExecution,
		}, nil
	}

	g := graph.New()
	present := make(map[string]bool, len(stores))
	for _, name := range stores {
		g.AddNode(name)
		present[name] = true
	}

	var deps []Dependency
	for _, d := range storeDependencies {
		if !present[d.From] || !present[d.To] {
			continue
		}
		g.AddEdge(d.From, d.To)
		deps = append(deps, d)
	}

	levels, err := g.Levels()
	if err != nil {
		return nil, fmt.Errorf("build plan: %w", err)
	}

	stages := make([]Stage, 0, len(levels))
	for _, level := range levels {
		stages = append(stages, Stage{
			Stores:      level,
			Description: stageDescription(level),
			Parallel:    len(level) > 1,
		})
	}

	return &Plan{Stages: stages, Dependencies: deps}, nil
}

func stageDescription(stores []string) string {
	switch {
	case len(stores) == 1 && stores[0] == store.MySQL:
		return "relational store seeds canonical IDs"
	case len(stores) == 1 && stores[0] == store.Vector:
		return "vector index built from seeded content"
	default:
		return "stores consuming canonical IDs: " + strings.Join(stores, ", ")
	}
}

// StoreOrder flattens the plan into seeding order.
func (p *Plan) StoreOrder() []string {
	var order []string
	for _, stage := range p.Stages {
		order = append(order, stage.Stores...)
	}
	return order
}
