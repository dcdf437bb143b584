package seed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dbsmedya/polyseed/internal/datagen"
	"github.com/dbsmedya/polyseed/internal/logger"
	"github.com/dbsmedya/polyseed/internal/store"
)

// VectorSeeder populates the vector index. Each document gets a metadata
// row plus an embedding in the vec0 table, linked by rowid and written
// in small transactional batches.
type VectorSeeder struct {
	store  *store.VectorStore
	gen    *datagen.Generator
	guard  *store.Guard
	batch  int
	logger *logger.Logger

	mu       sync.Mutex
	scenario string
}

// NewVectorSeeder creates the vector index seeder.
func NewVectorSeeder(s *store.VectorStore, gen *datagen.Generator, guard *store.Guard, batchSize int, log *logger.Logger) *VectorSeeder {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &VectorSeeder{store: s, gen: gen, guard: guard, batch: batchSize, logger: log.WithStore(store.Vector)}
}

// Store implements Seeder.
func (s *VectorSeeder) Store() string { return store.Vector }

// Execute writes documents and their embeddings batch by batch. Each
// batch is one transaction; a failed batch rolls back alone and the next
// one proceeds.
func (s *VectorSeeder) Execute(ctx context.Context, opts Options) Result {
	start := time.Now()
	db := s.store.DB()
	if db == nil {
		return failedResult(store.Vector, fmt.Errorf("vector: not connected"))
	}
	s.SetScenario(opts.Scenario)

	if opts.Cleanup {
		if err := s.store.Clean(ctx); err != nil {
			return failedResult(store.Vector, err)
		}
	}

	docs := s.gen.Documents(opts.VectorCount, s.store.Dimensions())

	result := Result{Store: store.Vector}
	for lo := 0; lo < len(docs); lo += s.batch {
		chunk := docs[lo:minInt(lo+s.batch, len(docs))]
		if err := s.insertBatch(ctx, chunk, opts.Scenario); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("vectors batch %d: %w", lo/s.batch, err))
			continue
		}
		result.RecordsCreated += len(chunk)
	}

	result.Duration = time.Since(start)
	result.Success = len(result.Errors) == 0
	s.logger.Infow("Vector seeding finished",
		"records", result.RecordsCreated,
		"errors", len(result.Errors),
		"duration", result.Duration,
	)
	return result
}

func (s *VectorSeeder) insertBatch(ctx context.Context, docs []datagen.Document, scenario string) error {
	tx, err := s.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO seed_vec_meta (doc_id, scenario, text) VALUES (?, ?, ?)`,
			doc.ID, scenario, doc.Text,
		)
		if err != nil {
			return fmt.Errorf("insert metadata %s: %w", doc.ID, err)
		}
		rowid, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("metadata rowid %s: %w", doc.ID, err)
		}

		blob, err := store.SerializeEmbedding(doc.Embedding)
		if err != nil {
			return fmt.Errorf("serialize embedding %s: %w", doc.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO seed_vectors (rowid, embedding) VALUES (?, ?)`,
			rowid, blob,
		); err != nil {
			return fmt.Errorf("insert embedding %s: %w", doc.ID, err)
		}
	}

	return tx.Commit()
}

// Rollback deletes the scenario's embeddings then its metadata. Safe on
// an empty index.
func (s *VectorSeeder) Rollback(ctx context.Context) Result {
	start := time.Now()
	if err := s.guard.Check("vector rollback"); err != nil {
		return failedResult(store.Vector, err)
	}
	db := s.store.DB()
	if db == nil {
		return failedResult(store.Vector, fmt.Errorf("vector: not connected"))
	}

	scenario := s.Scenario()
	if _, err := db.ExecContext(ctx,
		`DELETE FROM seed_vectors WHERE rowid IN (SELECT rowid FROM seed_vec_meta WHERE scenario = ?)`,
		scenario,
	); err != nil {
		return failedResult(store.Vector, fmt.Errorf("rollback vectors: %w", err))
	}

	res, err := db.ExecContext(ctx, `DELETE FROM seed_vec_meta WHERE scenario = ?`, scenario)
	if err != nil {
		return failedResult(store.Vector, fmt.Errorf("rollback metadata: %w", err))
	}
	deleted, _ := res.RowsAffected()

	return Result{
		Store:          store.Vector,
		Success:        true,
		RecordsCreated: int(deleted),
		Duration:       time.Since(start),
	}
}

// Validate checks the index holds embeddings for the scenario.
func (s *VectorSeeder) Validate(ctx context.Context) (bool, error) {
	db := s.store.DB()
	if db == nil {
		return false, fmt.Errorf("vector: not connected")
	}

	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seed_vec_meta WHERE scenario = ?`, s.Scenario(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("validate: %w", err)
	}
	if count == 0 {
		s.logger.Warnw("Vector index is empty", "scenario", s.Scenario())
		return false, nil
	}
	return true, nil
}

// SetScenario retargets rollback and validation at another scenario.
func (s *VectorSeeder) SetScenario(scenario string) {
	s.mu.Lock()
	s.scenario = scenario
	s.mu.Unlock()
}

// Scenario returns the scenario of the last Execute.
func (s *VectorSeeder) Scenario() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scenario == "" {
		return "default"
	}
	return s.scenario
}
