package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dbsmedya/polyseed/internal/datagen"
	"github.com/dbsmedya/polyseed/internal/logger"
	"github.com/dbsmedya/polyseed/internal/store"
)

// RedisSeeder populates the cache with message entries. Every key lives
// under the polyseed prefix and scenario namespace so rollback is a
// single pattern deletion.
type RedisSeeder struct {
	store   *store.RedisStore
	gen     *datagen.Generator
	catalog *datagen.Catalog
	guard   *store.Guard
	batch   int
	logger  *logger.Logger

	mu       sync.Mutex
	scenario string
}

// NewRedisSeeder creates the cache seeder.
func NewRedisSeeder(s *store.RedisStore, gen *datagen.Generator, catalog *datagen.Catalog, guard *store.Guard, batchSize int, log *logger.Logger) *RedisSeeder {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &RedisSeeder{store: s, gen: gen, catalog: catalog, guard: guard, batch: batchSize, logger: log.WithStore(store.Redis)}
}

// Store implements Seeder.
func (s *RedisSeeder) Store() string { return store.Redis }

// Execute writes messages with per-key TTLs via pipelined SETs.
func (s *RedisSeeder) Execute(ctx context.Context, opts Options) Result {
	start := time.Now()
	client := s.store.Client()
	if client == nil {
		return failedResult(store.Redis, fmt.Errorf("redis: not connected"))
	}
	s.SetScenario(opts.Scenario)

	if opts.Cleanup {
		if err := s.store.Clean(ctx); err != nil {
			return failedResult(store.Redis, err)
		}
	}

	var userIDs []string
	if opts.CreateRelationships {
		userIDs = s.catalog.UserIDs()
	}
	messages := s.gen.Messages(opts.MessageCount, userIDs)

	result := Result{Store: store.Redis}
	for lo := 0; lo < len(messages); lo += s.batch {
		chunk := messages[lo:minInt(lo+s.batch, len(messages))]

		pipe := client.Pipeline()
		skipped := 0
		for _, m := range chunk {
			payload, err := json.Marshal(map[string]any{
				"id":      m.ID,
				"user_id": m.UserID,
				"body":    m.Body,
			})
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("encode message %s: %w", m.ID, err))
				skipped++
				continue
			}
			key := datagen.Key(store.KeyPrefix, opts.Scenario, "message", m.ID)
			pipe.Set(ctx, key, payload, time.Duration(m.TTLSec)*time.Second)
		}

		if _, err := pipe.Exec(ctx); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("messages batch %d: %w", lo/s.batch, err))
			continue
		}
		result.RecordsCreated += len(chunk) - skipped
	}

	result.Duration = time.Since(start)
	result.Success = len(result.Errors) == 0
	s.logger.Infow("Cache seeding finished",
		"records", result.RecordsCreated,
		"errors", len(result.Errors),
		"duration", result.Duration,
	)
	return result
}

// Rollback deletes every key under the scenario namespace. Deleting an
// empty namespace succeeds with zero records.
func (s *RedisSeeder) Rollback(ctx context.Context) Result {
	start := time.Now()
	if err := s.guard.Check("redis rollback"); err != nil {
		return failedResult(store.Redis, err)
	}
	if s.store.Client() == nil {
		return failedResult(store.Redis, fmt.Errorf("redis: not connected"))
	}

	deleted, err := s.store.DeletePattern(ctx, store.KeyPrefix+s.Scenario()+":*")
	if err != nil {
		return failedResult(store.Redis, fmt.Errorf("rollback: %w", err))
	}

	return Result{
		Store:          store.Redis,
		Success:        true,
		RecordsCreated: deleted,
		Duration:       time.Since(start),
	}
}

// Validate checks that at least one key exists under the scenario.
func (s *RedisSeeder) Validate(ctx context.Context) (bool, error) {
	client := s.store.Client()
	if client == nil {
		return false, fmt.Errorf("redis: not connected")
	}

	pattern := store.KeyPrefix + s.Scenario() + ":*"
	iter := client.Scan(ctx, 0, pattern, 1).Iterator()
	if iter.Next(ctx) {
		return true, nil
	}
	if err := iter.Err(); err != nil {
		return false, fmt.Errorf("validate: %w", err)
	}
	s.logger.Warnw("No cache keys under scenario", "scenario", s.Scenario())
	return false, nil
}

// SetScenario retargets rollback and validation at another scenario.
func (s *RedisSeeder) SetScenario(scenario string) {
	s.mu.Lock()
	s.scenario = scenario
	s.mu.Unlock()
}

// Scenario returns the scenario of the last Execute.
func (s *RedisSeeder) Scenario() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scenario == "" {
		return "default"
	}
	return s.scenario
}
