package store

import (
	"context"
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/dbsmedya/polyseed/internal/config"
)

func init() {
	sqlite_vec.Auto()
}

// VectorStore is the vector index client, backed by SQLite with the
// sqlite-vec extension. It maintains a metadata table (seed_vec_meta)
// keyed by document ID and a vec0 virtual table (seed_vectors) holding
// the embeddings for KNN search.
type VectorStore struct {
	cfg   config.VectorConfig
	guard *Guard
	db    *sql.DB
}

// NewVectorStore creates an unconnected vector index client.
func NewVectorStore(cfg config.VectorConfig, guard *Guard) *VectorStore {
	return &VectorStore{cfg: cfg, guard: guard}
}

// Name implements Connection.
func (s *VectorStore) Name() string { return Vector }

// Connect opens (or creates) the index file and ensures both tables exist.
func (s *VectorStore) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite3", s.cfg.Path)
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}

	// Force a connection so the file is created.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping vector index: %w", err)
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS seed_vec_meta (
		doc_id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return fmt.Errorf("create meta table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS seed_vectors USING vec0(embedding float[%d])`,
		s.cfg.Dimensions,
	)
	if _, err := db.ExecContext(ctx, createVec); err != nil {
		db.Close()
		return fmt.Errorf("create vec table: %w", err)
	}

	s.db = db
	return nil
}

// HealthCheck pings the index and verifies the vec0 table answers.
func (s *VectorStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("vector: not connected")
	}
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seed_vec_meta`).Scan(&count)
	if err != nil {
		return fmt.Errorf("vector index check failed: %w", err)
	}
	return nil
}

// Disconnect closes the index file.
func (s *VectorStore) Disconnect(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("close vector index: %w", err)
	}
	return nil
}

// Clean removes all embeddings and metadata. Refused in production.
func (s *VectorStore) Clean(ctx context.Context) error {
	if err := s.guard.Check("vector clean"); err != nil {
		return err
	}
	if s.db == nil {
		return fmt.Errorf("vector: not connected")
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM seed_vectors`); err != nil {
		return fmt.Errorf("clean vectors: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM seed_vec_meta`); err != nil {
		return fmt.Errorf("clean vector metadata: %w", err)
	}
	return nil
}

// DB returns the native handle for seeders.
func (s *VectorStore) DB() *sql.DB { return s.db }

// SetDB injects a prepared handle. Used by tests with sqlmock.
func (s *VectorStore) SetDB(db *sql.DB) { s.db = db }

// Dimensions returns the configured embedding size.
func (s *VectorStore) Dimensions() int { return s.cfg.Dimensions }

// SerializeEmbedding converts an embedding to the sqlite-vec wire format.
func SerializeEmbedding(embedding []float32) ([]byte, error) {
	return sqlite_vec.SerializeFloat32(embedding)
}
