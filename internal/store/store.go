// Package store provides connection clients for the four backing data
// stores: MySQL (relational), MongoDB (document), Redis (key-value cache),
// and sqlite-vec (vector index).
package store

import "context"

// Store names used across plans, health reports, and seed events.
const (
	MySQL  = "mysql"
	Mongo  = "mongo"
	Redis  = "redis"
	Vector = "vector"
)

// Names returns all store names in canonical dependency order: the
// relational store owns canonical IDs, the document and cache stores
// consume them, and the vector index needs both.
func Names() []string {
	return []string{MySQL, Mongo, Redis, Vector}
}

// Connection is the lifecycle contract every store client implements.
// Connect is a single attempt; retry policy belongs to the lifecycle
// coordinator. Clean wipes all seeded data and must be guarded against
// production by the caller and by the implementation.
type Connection interface {
	Name() string
	Connect(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Clean(ctx context.Context) error
}
