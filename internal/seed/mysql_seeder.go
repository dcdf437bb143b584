package seed

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dbsmedya/polyseed/internal/datagen"
	"github.com/dbsmedya/polyseed/internal/logger"
	"github.com/dbsmedya/polyseed/internal/store"
)

// mysqlSchema creates the seed tables. Parents first so the foreign keys
// on seed_orders resolve.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS seed_users (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		country CHAR(2) NOT NULL,
		scenario VARCHAR(64) NOT NULL,
		created_at DATETIME NOT NULL,
		INDEX idx_seed_users_scenario (scenario)
	)`,
	`CREATE TABLE IF NOT EXISTS seed_products (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		category VARCHAR(128) NOT NULL,
		price_cts BIGINT NOT NULL,
		scenario VARCHAR(64) NOT NULL,
		INDEX idx_seed_products_scenario (scenario)
	)`,
	`CREATE TABLE IF NOT EXISTS seed_orders (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL,
		product_id VARCHAR(36) NOT NULL,
		quantity INT NOT NULL,
		total_cts BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL,
		scenario VARCHAR(64) NOT NULL,
		INDEX idx_seed_orders_scenario (scenario),
		FOREIGN KEY (user_id) REFERENCES seed_users(id),
		FOREIGN KEY (product_id) REFERENCES seed_products(id)
	)`,
}

// MySQLSeeder populates the relational store. It owns the canonical user
// and product IDs and publishes them to the catalog for later stages.
type MySQLSeeder struct {
	store   *store.MySQLStore
	gen     *datagen.Generator
	catalog *datagen.Catalog
	guard   *store.Guard
	batch   int
	logger  *logger.Logger

	mu       sync.Mutex
	scenario string
}

// NewMySQLSeeder creates the relational seeder.
func NewMySQLSeeder(s *store.MySQLStore, gen *datagen.Generator, catalog *datagen.Catalog, guard *store.Guard, batchSize int, log *logger.Logger) *MySQLSeeder {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &MySQLSeeder{store: s, gen: gen, catalog: catalog, guard: guard, batch: batchSize, logger: log.WithStore(store.MySQL)}
}

// Store implements Seeder.
func (s *MySQLSeeder) Store() string { return store.MySQL }

// Execute generates users, products, and orders and bulk-inserts them in
// batches. A failed batch is recorded and skipped; earlier batches stay
// committed.
func (s *MySQLSeeder) Execute(ctx context.Context, opts Options) Result {
	start := time.Now()
	db := s.store.DB()
	if db == nil {
		return failedResult(store.MySQL, fmt.Errorf("mysql: not connected"))
	}
	s.SetScenario(opts.Scenario)

	if opts.Cleanup {
		if err := s.store.Clean(ctx); err != nil {
			return failedResult(store.MySQL, err)
		}
	}
	for _, ddl := range mysqlSchema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return failedResult(store.MySQL, fmt.Errorf("ensure schema: %w", err))
		}
	}

	users := s.gen.Users(opts.UserCount)
	products := s.gen.Products(opts.ProductCount)

	userIDs := make([]string, len(users))
	for i, u := range users {
		userIDs[i] = u.ID
	}
	productIDs := make([]string, len(products))
	for i, p := range products {
		productIDs[i] = p.ID
	}
	orders := s.gen.Orders(opts.OrderCount, userIDs, productIDs)

	result := Result{Store: store.MySQL}
	result.RecordsCreated += s.insertUsers(ctx, db, users, opts.Scenario, &result)
	result.RecordsCreated += s.insertProducts(ctx, db, products, opts.Scenario, &result)
	result.RecordsCreated += s.insertOrders(ctx, db, orders, opts.Scenario, &result)

	if opts.CreateRelationships {
		s.catalog.PublishUsers(userIDs)
		s.catalog.PublishProducts(productIDs)
		orderIDs := make([]string, len(orders))
		for i, o := range orders {
			orderIDs[i] = o.ID
		}
		s.catalog.PublishOrders(orderIDs)
	}

	result.Duration = time.Since(start)
	result.Success = len(result.Errors) == 0
	s.logger.Infow("Relational seeding finished",
		"records", result.RecordsCreated,
		"errors", len(result.Errors),
		"duration", result.Duration,
	)
	return result
}

func (s *MySQLSeeder) insertUsers(ctx context.Context, db *sql.DB, users []datagen.User, scenario string, result *Result) int {
	created := 0
	for lo := 0; lo < len(users); lo += s.batch {
		chunk := users[lo:minInt(lo+s.batch, len(users))]
		rows := make([][]any, len(chunk))
		for i, u := range chunk {
			rows[i] = []any{u.ID, u.Name, u.Email, u.Country, scenario, u.CreatedAt}
		}
		if err := execBatch(ctx, db, "seed_users", []string{"id", "name", "email", "country", "scenario", "created_at"}, rows); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("users batch %d: %w", lo/s.batch, err))
			continue
		}
		created += len(chunk)
	}
	return created
}

func (s *MySQLSeeder) insertProducts(ctx context.Context, db *sql.DB, products []datagen.Product, scenario string, result *Result) int {
	created := 0
	for lo := 0; lo < len(products); lo += s.batch {
		chunk := products[lo:minInt(lo+s.batch, len(products))]
		rows := make([][]any, len(chunk))
		for i, p := range chunk {
			rows[i] = []any{p.ID, p.Name, p.Category, p.PriceCts, scenario}
		}
		if err := execBatch(ctx, db, "seed_products", []string{"id", "name", "category", "price_cts", "scenario"}, rows); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("products batch %d: %w", lo/s.batch, err))
			continue
		}
		created += len(chunk)
	}
	return created
}

func (s *MySQLSeeder) insertOrders(ctx context.Context, db *sql.DB, orders []datagen.Order, scenario string, result *Result) int {
	created := 0
	for lo := 0; lo < len(orders); lo += s.batch {
		chunk := orders[lo:minInt(lo+s.batch, len(orders))]
		rows := make([][]any, len(chunk))
		for i, o := range chunk {
			rows[i] = []any{o.ID, o.UserID, o.ProductID, o.Quantity, o.TotalCts, o.Status, scenario}
		}
		if err := execBatch(ctx, db, "seed_orders", []string{"id", "user_id", "product_id", "quantity", "total_cts", "status", "scenario"}, rows); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("orders batch %d: %w", lo/s.batch, err))
			continue
		}
		created += len(chunk)
	}
	return created
}

// Rollback deletes all scenario-tagged rows, children first. Safe on an
// empty or never-seeded store.
func (s *MySQLSeeder) Rollback(ctx context.Context) Result {
	start := time.Now()
	if err := s.guard.Check("mysql rollback"); err != nil {
		return failedResult(store.MySQL, err)
	}
	db := s.store.DB()
	if db == nil {
		return failedResult(store.MySQL, fmt.Errorf("mysql: not connected"))
	}

	scenario := s.Scenario()
	deleted := int64(0)
	for i := len(store.SeedTables) - 1; i >= 0; i-- {
		res, err := db.ExecContext(ctx, "DELETE FROM "+store.SeedTables[i]+" WHERE scenario = ?", scenario)
		if err != nil {
			// A missing table means nothing was ever seeded there.
			if strings.Contains(err.Error(), "Error 1146") || strings.Contains(err.Error(), "doesn't exist") {
				continue
			}
			return failedResult(store.MySQL, fmt.Errorf("rollback %s: %w", store.SeedTables[i], err))
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += n
		}
	}

	return Result{
		Store:          store.MySQL,
		Success:        true,
		RecordsCreated: int(deleted),
		Duration:       time.Since(start),
	}
}

// Validate checks the seed tables are non-empty for the current scenario.
func (s *MySQLSeeder) Validate(ctx context.Context) (bool, error) {
	db := s.store.DB()
	if db == nil {
		return false, fmt.Errorf("mysql: not connected")
	}

	scenario := s.Scenario()
	allPopulated := true
	for _, table := range store.SeedTables {
		var count int
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE scenario = ?", scenario).Scan(&count)
		if err != nil {
			return false, fmt.Errorf("validate %s: %w", table, err)
		}
		if count == 0 {
			s.logger.Warnw("Seed table is empty", "table", table, "scenario", scenario)
			allPopulated = false
		}
	}
	return allPopulated, nil
}

// SetScenario retargets rollback and validation at another scenario.
func (s *MySQLSeeder) SetScenario(scenario string) {
	s.mu.Lock()
	s.scenario = scenario
	s.mu.Unlock()
}

// Scenario returns the scenario of the last Execute, defaulting before
// any run.
func (s *MySQLSeeder) Scenario() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scenario == "" {
		return "default"
	}
	return s.scenario
}

// execBatch issues one multi-row INSERT for the chunk.
func execBatch(ctx context.Context, db *sql.DB, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"
	placeholders := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		placeholders[i] = placeholder
		args = append(args, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
	_, err := db.ExecContext(ctx, query, args...)
	return err
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
