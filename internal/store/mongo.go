package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dbsmedya/polyseed/internal/config"
)

// SeedCollections lists the document collections owned by the seeding layer.
var SeedCollections = []string{"seed_tasks", "seed_profiles"}

// MongoStore is the document store client.
type MongoStore struct {
	cfg    config.MongoConfig
	guard  *Guard
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore creates an unconnected MongoDB client.
func NewMongoStore(cfg config.MongoConfig, guard *Guard) *MongoStore {
	return &MongoStore{cfg: cfg, guard: guard}
}

// Name implements Connection.
func (s *MongoStore) Name() string { return Mongo }

// Connect establishes the MongoDB connection and verifies it with a ping.
func (s *MongoStore) Connect(ctx context.Context) error {
	timeout := time.Duration(s.cfg.ConnectTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(s.cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("ping mongo: %w", err)
	}

	s.client = client
	s.db = client.Database(s.cfg.Database)
	return nil
}

// HealthCheck pings the primary.
func (s *MongoStore) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("mongo: not connected")
	}
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

// Disconnect closes the client.
func (s *MongoStore) Disconnect(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client = nil
	s.db = nil
	if err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

// Clean drops all seed collections. Refused in production.
func (s *MongoStore) Clean(ctx context.Context) error {
	if err := s.guard.Check("mongo clean"); err != nil {
		return err
	}
	if s.db == nil {
		return fmt.Errorf("mongo: not connected")
	}

	for _, name := range SeedCollections {
		if err := s.db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}

// Database returns the native handle for seeders.
func (s *MongoStore) Database() *mongo.Database { return s.db }
