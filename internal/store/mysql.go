package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/dbsmedya/polyseed/internal/config"
	"github.com/dbsmedya/polyseed/internal/sqlutil"
)

// SeedTables lists the relational tables owned by the seeding layer, in
// insert order (parents first). Clean and rollback iterate it in reverse.
var SeedTables = []string{"seed_users", "seed_products", "seed_orders"}

// MySQLStore is the relational store client. It owns the canonical entity
// IDs that the document, cache, and vector stores reference.
type MySQLStore struct {
	cfg   config.MySQLConfig
	guard *Guard
	db    *sql.DB
}

// NewMySQLStore creates an unconnected MySQL client.
func NewMySQLStore(cfg config.MySQLConfig, guard *Guard) *MySQLStore {
	return &MySQLStore{cfg: cfg, guard: guard}
}

// Name implements Connection.
func (s *MySQLStore) Name() string { return MySQL }

// Connect opens the connection pool and verifies it with a ping.
// A single attempt; the lifecycle coordinator owns retry and backoff.
func (s *MySQLStore) Connect(ctx context.Context) error {
	db, err := sql.Open("mysql", BuildDSN(s.cfg))
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}

	if s.cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(s.cfg.MaxConnections)
	}
	if s.cfg.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(s.cfg.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping mysql: %w", err)
	}

	s.db = db
	return nil
}

// HealthCheck pings the pool.
func (s *MySQLStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("mysql: not connected")
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}
	return nil
}

// Disconnect closes the connection pool.
func (s *MySQLStore) Disconnect(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("close mysql: %w", err)
	}
	return nil
}

// Clean truncates all seed tables. Refused in production.
func (s *MySQLStore) Clean(ctx context.Context) error {
	if err := s.guard.Check("mysql clean"); err != nil {
		return err
	}
	if s.db == nil {
		return fmt.Errorf("mysql: not connected")
	}

	// Child tables first so foreign keys never block the truncate.
	for i := len(SeedTables) - 1; i >= 0; i-- {
		table, err := sqlutil.QuoteIdentifierSafe(SeedTables[i])
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			// Missing table means there is nothing to clean.
			if isUnknownTable(err) {
				continue
			}
			return fmt.Errorf("clean %s: %w", SeedTables[i], err)
		}
	}
	return nil
}

// DB returns the native handle for seeders and the run lock.
func (s *MySQLStore) DB() *sql.DB { return s.db }

// SetDB injects a prepared handle. Used by tests with sqlmock.
func (s *MySQLStore) SetDB(db *sql.DB) { s.db = db }

// isUnknownTable detects MySQL error 1146 (table doesn't exist) without
// depending on the driver's error type.
func isUnknownTable(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "Error 1146") || strings.Contains(err.Error(), "doesn't exist"))
}

// BuildDSN constructs a MySQL DSN from configuration.
func BuildDSN(cfg config.MySQLConfig) string {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	params := "?parseTime=true&multiStatements=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}
