package cmd

import (
	"fmt"

	"github.com/dbsmedya/polyseed/internal/config"
	"github.com/dbsmedya/polyseed/internal/datagen"
	"github.com/dbsmedya/polyseed/internal/health"
	"github.com/dbsmedya/polyseed/internal/lifecycle"
	"github.com/dbsmedya/polyseed/internal/logger"
	"github.com/dbsmedya/polyseed/internal/seed"
	"github.com/dbsmedya/polyseed/internal/store"
	"github.com/dbsmedya/polyseed/internal/version"
)

// runtimeDeps is the wired object graph shared by the store-facing
// commands.
type runtimeDeps struct {
	cfg     *config.Config
	log     *logger.Logger
	guard   *store.Guard
	mysql   *store.MySQLStore
	conns   []store.Connection
	agg     *health.Aggregator
	coord   *lifecycle.Coordinator
	catalog *datagen.Catalog
}

// loadRuntime loads config, applies CLI overrides, validates, and wires
// logger, guard, stores, and the lifecycle coordinator. Nothing is
// connected yet; callers run coord.Initialize.
func loadRuntime() (*runtimeDeps, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyOverrides(logLevel, logFormat, environment, retryAttempts)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	guard := store.NewGuard(cfg.Environment)

	mysql := store.NewMySQLStore(cfg.Stores.MySQL, guard)
	conns := []store.Connection{
		mysql,
		store.NewMongoStore(cfg.Stores.Mongo, guard),
		store.NewRedisStore(cfg.Stores.Redis, guard),
		store.NewVectorStore(cfg.Stores.Vector, guard),
	}

	agg := health.NewAggregator(conns, cfg.Health.ProbeTimeout(), log)
	coord := lifecycle.NewCoordinator(conns, cfg.Lifecycle, agg, guard, log)

	return &runtimeDeps{
		cfg:     cfg,
		log:     log,
		guard:   guard,
		mysql:   mysql,
		conns:   conns,
		agg:     agg,
		coord:   coord,
		catalog: datagen.NewCatalog(),
	}, nil
}

// buildOrchestrator wires the four seeders over connected stores.
func (d *runtimeDeps) buildOrchestrator() *seed.Orchestrator {
	gen := datagen.New()
	batch := d.cfg.Seed.Batch

	var mongo *store.MongoStore
	var redis *store.RedisStore
	var vector *store.VectorStore
	for _, conn := range d.conns {
		switch c := conn.(type) {
		case *store.MongoStore:
			mongo = c
		case *store.RedisStore:
			redis = c
		case *store.VectorStore:
			vector = c
		}
	}

	seeders := []seed.Seeder{
		seed.NewMySQLSeeder(d.mysql, gen, d.catalog, d.guard, batch.MySQLBatchSize, d.log),
		seed.NewMongoSeeder(mongo, gen, d.catalog, d.guard, batch.MongoBatchSize, d.log),
		seed.NewRedisSeeder(redis, gen, d.catalog, d.guard, batch.RedisBatchSize, d.log),
		seed.NewVectorSeeder(vector, gen, d.guard, batch.VectorBatchSize, d.log),
	}

	retry := seed.FixedDelay{Interval: seed.OptionsFromDefaults(d.cfg.Seed.Defaults).RetryDelay}
	return seed.NewOrchestrator(seeders, retry, d.guard, d.log)
}

// buildVersionManager registers every configured version on a fresh
// manager over the given runner.
func (d *runtimeDeps) buildVersionManager(runner version.Runner) (*version.Manager, error) {
	mgr := version.NewManager(runner, d.log)
	for _, vc := range d.cfg.Versions {
		opts := seed.OptionsFromDefaults(d.cfg.Seed.Defaults)
		if vc.Options != nil {
			opts = seed.OptionsFromDefaults(*vc.Options)
		}
		if err := mgr.Register(vc.Name, vc.ID, vc.DependsOn, opts); err != nil {
			return nil, fmt.Errorf("registering version %s: %w", vc.Name, err)
		}
	}
	return mgr, nil
}

// seedOptions builds the effective options from config defaults plus
// seed command flags.
func (d *runtimeDeps) seedOptions() seed.Options {
	opts := seed.OptionsFromDefaults(d.cfg.Seed.Defaults)

	if seedScenario != "" {
		opts.Scenario = seedScenario
	}
	if seedUsers >= 0 {
		opts.UserCount = seedUsers
	}
	if seedProducts >= 0 {
		opts.ProductCount = seedProducts
	}
	if seedOrders >= 0 {
		opts.OrderCount = seedOrders
	}
	if seedTasks >= 0 {
		opts.TaskCount = seedTasks
	}
	if seedMessages >= 0 {
		opts.MessageCount = seedMessages
	}
	if seedVectors >= 0 {
		opts.VectorCount = seedVectors
	}
	if retryAttempts > 0 {
		opts.RetryAttempts = retryAttempts
	}

	opts.Cleanup = seedCleanup
	opts.CreateRelationships = seedRelationships
	opts.ValidateData = seedValidate
	opts.EnableParallelExecution = seedParallel
	opts.EnableRollbackOnFailure = !seedNoRollback
	return opts
}
