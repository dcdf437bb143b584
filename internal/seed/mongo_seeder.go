package seed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/dbsmedya/polyseed/internal/datagen"
	"github.com/dbsmedya/polyseed/internal/logger"
	"github.com/dbsmedya/polyseed/internal/store"
)

// MongoSeeder populates the document store with tasks and user profiles.
// When relationships are enabled, both reference the canonical user IDs
// published by the relational stage.
type MongoSeeder struct {
	store   *store.MongoStore
	gen     *datagen.Generator
	catalog *datagen.Catalog
	guard   *store.Guard
	batch   int
	logger  *logger.Logger

	mu       sync.Mutex
	scenario string
}

// NewMongoSeeder creates the document seeder.
func NewMongoSeeder(s *store.MongoStore, gen *datagen.Generator, catalog *datagen.Catalog, guard *store.Guard, batchSize int, log *logger.Logger) *MongoSeeder {
	if batchSize <= 0 {
		batchSize = 250
	}
	return &MongoSeeder{store: s, gen: gen, catalog: catalog, guard: guard, batch: batchSize, logger: log.WithStore(store.Mongo)}
}

// Store implements Seeder.
func (s *MongoSeeder) Store() string { return store.Mongo }

// Execute bulk-inserts tasks and profiles in batches.
func (s *MongoSeeder) Execute(ctx context.Context, opts Options) Result {
	start := time.Now()
	db := s.store.Database()
	if db == nil {
		return failedResult(store.Mongo, fmt.Errorf("mongo: not connected"))
	}
	s.SetScenario(opts.Scenario)

	if opts.Cleanup {
		if err := s.store.Clean(ctx); err != nil {
			return failedResult(store.Mongo, err)
		}
	}

	var userIDs []string
	if opts.CreateRelationships {
		userIDs = s.catalog.UserIDs()
	}

	tasks := s.gen.Tasks(opts.TaskCount, userIDs)
	taskDocs := make([]any, len(tasks))
	for i, t := range tasks {
		taskDocs[i] = bson.M{
			"_id":         t.ID,
			"title":       t.Title,
			"description": t.Description,
			"status":      t.Status,
			"assignee_id": t.AssigneeID,
			"priority":    t.Priority,
			"scenario":    opts.Scenario,
		}
	}

	profiles := s.gen.Profiles(opts.UserCount, userIDs)
	profileDocs := make([]any, len(profiles))
	for i, p := range profiles {
		profileDocs[i] = bson.M{
			"_id":        p.ID,
			"user_id":    p.UserID,
			"bio":        p.Bio,
			"avatar_url": p.AvatarURL,
			"interests":  p.Interests,
			"scenario":   opts.Scenario,
		}
	}

	result := Result{Store: store.Mongo}
	result.RecordsCreated += s.insertDocs(ctx, "seed_tasks", taskDocs, &result)
	result.RecordsCreated += s.insertDocs(ctx, "seed_profiles", profileDocs, &result)

	result.Duration = time.Since(start)
	result.Success = len(result.Errors) == 0
	s.logger.Infow("Document seeding finished",
		"records", result.RecordsCreated,
		"errors", len(result.Errors),
		"duration", result.Duration,
	)
	return result
}

// insertDocs writes docs in batches; a failed batch is recorded and the
// next batch proceeds.
func (s *MongoSeeder) insertDocs(ctx context.Context, collection string, docs []any, result *Result) int {
	coll := s.store.Database().Collection(collection)
	created := 0
	for lo := 0; lo < len(docs); lo += s.batch {
		chunk := docs[lo:minInt(lo+s.batch, len(docs))]
		res, err := coll.InsertMany(ctx, chunk)
		if err != nil {
			if res != nil {
				created += len(res.InsertedIDs)
			}
			result.Errors = append(result.Errors, fmt.Errorf("%s batch %d: %w", collection, lo/s.batch, err))
			continue
		}
		created += len(res.InsertedIDs)
	}
	return created
}

// Rollback deletes every scenario-tagged document. Safe on empty
// collections.
func (s *MongoSeeder) Rollback(ctx context.Context) Result {
	start := time.Now()
	if err := s.guard.Check("mongo rollback"); err != nil {
		return failedResult(store.Mongo, err)
	}
	db := s.store.Database()
	if db == nil {
		return failedResult(store.Mongo, fmt.Errorf("mongo: not connected"))
	}

	filter := bson.M{"scenario": s.Scenario()}
	deleted := int64(0)
	for _, name := range store.SeedCollections {
		res, err := db.Collection(name).DeleteMany(ctx, filter)
		if err != nil {
			return failedResult(store.Mongo, fmt.Errorf("rollback %s: %w", name, err))
		}
		deleted += res.DeletedCount
	}

	return Result{
		Store:          store.Mongo,
		Success:        true,
		RecordsCreated: int(deleted),
		Duration:       time.Since(start),
	}
}

// Validate checks the seed collections are non-empty for the scenario.
func (s *MongoSeeder) Validate(ctx context.Context) (bool, error) {
	db := s.store.Database()
	if db == nil {
		return false, fmt.Errorf("mongo: not connected")
	}

	filter := bson.M{"scenario": s.Scenario()}
	allPopulated := true
	for _, name := range store.SeedCollections {
		count, err := db.Collection(name).CountDocuments(ctx, filter)
		if err != nil {
			return false, fmt.Errorf("validate %s: %w", name, err)
		}
		if count == 0 {
			s.logger.Warnw("Seed collection is empty", "collection", name, "scenario", s.Scenario())
			allPopulated = false
		}
	}
	return allPopulated, nil
}

// SetScenario retargets rollback and validation at another scenario.
func (s *MongoSeeder) SetScenario(scenario string) {
	s.mu.Lock()
	s.scenario = scenario
	s.mu.Unlock()
}

// Scenario returns the scenario of the last Execute.
func (s *MongoSeeder) Scenario() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scenario == "" {
		return "default"
	}
	return s.scenario
}
