package seed

import "context"

// Seeder populates one store with scenario data and can undo it.
// Implementations collect batch errors into the Result instead of
// returning them; the orchestrator decides whether to retry or abort.
type Seeder interface {
	// Store returns the store name this seeder writes to.
	Store() string

	// Execute generates and bulk-writes records per the options.
	Execute(ctx context.Context, opts Options) Result

	// Rollback deletes everything this seeder is responsible for under
	// its last-seeded scenario. Idempotent: rolling back an empty store
	// succeeds with zero records.
	Rollback(ctx context.Context) Result

	// Validate checks that the seeded tables/collections are non-empty.
	// An empty store is a warning signal, not an error.
	Validate(ctx context.Context) (bool, error)
}
