// Package seed plans and orchestrates test-data population across the
// store fleet: plan construction from dependency rules, staged execution
// with per-step retry, compensating rollback, and a structured report.
package seed

import (
	"time"

	"github.com/dbsmedya/polyseed/internal/config"
)

// Options is the input contract for one orchestration run.
type Options struct {
	UserCount    int
	ProductCount int
	OrderCount   int
	TaskCount    int
	MessageCount int
	VectorCount  int

	// Scenario tags every written record so rollback and repeated runs
	// stay isolated from each other.
	Scenario string

	Cleanup             bool
	CreateRelationships bool
	ValidateData        bool

	RetryAttempts int
	RetryDelay    time.Duration

	EnableRollbackOnFailure bool
	EnableParallelExecution bool
}

// OptionsFromDefaults builds Options from configured seed defaults.
func OptionsFromDefaults(d config.SeedDefaults) Options {
	return Options{
		UserCount:               d.UserCount,
		ProductCount:            d.ProductCount,
		OrderCount:              d.OrderCount,
		TaskCount:               d.TaskCount,
		MessageCount:            d.MessageCount,
		VectorCount:             d.VectorCount,
		Scenario:                d.Scenario,
		Cleanup:                 d.Cleanup,
		CreateRelationships:     d.CreateRelationships,
		ValidateData:            d.ValidateData,
		RetryAttempts:           d.RetryAttempts,
		RetryDelay:              time.Duration(d.RetryDelaySeconds * float64(time.Second)),
		EnableRollbackOnFailure: d.EnableRollbackOnFailure,
		EnableParallelExecution: d.EnableParallelExecution,
	}
}

// normalize clamps invalid values to safe defaults.
func (o *Options) normalize() {
	if o.Scenario == "" {
		o.Scenario = "default"
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 3
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	clamp := func(n *int) {
		if *n < 0 {
			*n = 0
		}
	}
	clamp(&o.UserCount)
	clamp(&o.ProductCount)
	clamp(&o.OrderCount)
	clamp(&o.TaskCount)
	clamp(&o.MessageCount)
	clamp(&o.VectorCount)
}
