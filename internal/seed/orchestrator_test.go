package seed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/polyseed/internal/config"
	"github.com/dbsmedya/polyseed/internal/logger"
	"github.com/dbsmedya/polyseed/internal/store"
)

// ============================================================================
// Test Helpers
// ============================================================================

// fakeSeeder is a scriptable Seeder recording calls into a shared log.
type fakeSeeder struct {
	mu            sync.Mutex
	name          string
	failures      int // fail this many Execute calls before succeeding
	records       int
	execCalls     int
	rollbackCalls int
	rollbackErr   error
	panicOnExec   bool
	barrier       *sync.WaitGroup // when set, Execute waits for the whole stage
	events        *eventLog
}

type eventLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *eventLog) add(entry string) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func (f *fakeSeeder) Store() string { return f.name }

func (f *fakeSeeder) Execute(ctx context.Context, opts Options) Result {
	f.mu.Lock()
	f.execCalls++
	calls := f.execCalls
	f.mu.Unlock()

	if f.events != nil {
		f.events.add("execute:" + f.name)
	}
	if f.panicOnExec {
		panic("seeder exploded")
	}
	if f.barrier != nil {
		f.barrier.Done()
		f.barrier.Wait()
	}
	if calls <= f.failures {
		return failedResult(f.name, errors.New("write refused"))
	}
	return Result{Store: f.name, Success: true, RecordsCreated: f.records}
}

func (f *fakeSeeder) Rollback(ctx context.Context) Result {
	f.mu.Lock()
	f.rollbackCalls++
	f.mu.Unlock()

	if f.events != nil {
		f.events.add("rollback:" + f.name)
	}
	if f.rollbackErr != nil {
		return failedResult(f.name, f.rollbackErr)
	}
	return Result{Store: f.name, Success: true, RecordsCreated: f.records}
}

func (f *fakeSeeder) Validate(ctx context.Context) (bool, error) {
	return f.records > 0, nil
}

func newTestOrchestrator(env string, seeders []Seeder, listeners ...Listener) *Orchestrator {
	guard := store.NewGuard(env)
	retry := FixedDelay{Interval: time.Millisecond}
	return NewOrchestrator(seeders, retry, guard, logger.NewNop(), listeners...)
}

func testOptions() Options {
	return Options{
		Scenario:                "test",
		RetryAttempts:           3,
		RetryDelay:              time.Millisecond,
		EnableRollbackOnFailure: true,
	}
}

// ============================================================================
// Happy Path
// ============================================================================

func TestRun_AllSucceed(t *testing.T) {
	mysql := &fakeSeeder{name: store.MySQL, records: 100}
	mongo := &fakeSeeder{name: store.Mongo, records: 50}
	o := newTestOrchestrator(config.EnvDevelopment, []Seeder{mysql, mongo})

	opts := testOptions()
	opts.CreateRelationships = true
	report := o.Run(context.Background(), opts)

	assert.True(t, report.Success)
	assert.NotEmpty(t, report.ExecutionID)
	assert.Equal(t, 150, report.TotalRecords)
	assert.False(t, report.RollbackRequired)
	assert.Empty(t, report.Errors)

	require.Contains(t, report.Stores, store.MySQL)
	assert.True(t, report.Stores[store.MySQL].Success)
	assert.Equal(t, 100, report.Stores[store.MySQL].RecordsCreated)
}

func TestRun_RetriesThenSucceeds(t *testing.T) {
	mysql := &fakeSeeder{name: store.MySQL, records: 10, failures: 2}
	o := newTestOrchestrator(config.EnvDevelopment, []Seeder{mysql})

	report := o.Run(context.Background(), testOptions())

	assert.True(t, report.Success)
	assert.Equal(t, 3, mysql.execCalls)
	assert.Equal(t, 10, report.TotalRecords)
}

// ============================================================================
// Failure and Rollback
// ============================================================================

// Sequential plan, first store succeeds, second exhausts its retries:
// the orchestrator must roll back the first store and report a failed
// but fully compensated run.
func TestRun_FailureRollsBackCompletedStores(t *testing.T) {
	mysql := &fakeSeeder{name: store.MySQL, records: 100}
	mongo := &fakeSeeder{name: store.Mongo, failures: 100}
	o := newTestOrchestrator(config.EnvDevelopment, []Seeder{mysql, mongo})

	opts := testOptions()
	opts.CreateRelationships = true
	report := o.Run(context.Background(), opts)

	assert.False(t, report.Success)
	assert.Equal(t, 3, mongo.execCalls, "failing step retried up to the limit")
	assert.Equal(t, 1, mysql.rollbackCalls)
	assert.Zero(t, mongo.rollbackCalls, "failed store has nothing to compensate")

	assert.True(t, report.RollbackRequired)
	assert.True(t, report.RollbackCompleted)
	assert.True(t, report.Stores[store.MySQL].RolledBack)
	assert.NotEmpty(t, report.Errors)
}

func TestRun_RollbackReverseOrderCollectsAllErrors(t *testing.T) {
	log := &eventLog{}
	mysql := &fakeSeeder{name: store.MySQL, records: 1, events: log}
	mongo := &fakeSeeder{name: store.Mongo, records: 1, events: log, rollbackErr: errors.New("delete refused")}
	redis := &fakeSeeder{name: store.Redis, records: 1, events: log}
	vector := &fakeSeeder{name: store.Vector, failures: 100, events: log}
	o := newTestOrchestrator(config.EnvDevelopment, []Seeder{mysql, mongo, redis, vector})

	opts := testOptions()
	opts.CreateRelationships = true
	report := o.Run(context.Background(), opts)

	// A failed rollback never stops the remaining compensations.
	assert.Equal(t, 1, mysql.rollbackCalls)
	assert.Equal(t, 1, mongo.rollbackCalls)
	assert.Equal(t, 1, redis.rollbackCalls)

	var rollbacks []string
	for _, e := range log.all() {
		if len(e) > 9 && e[:9] == "rollback:" {
			rollbacks = append(rollbacks, e)
		}
	}
	assert.Equal(t, []string{"rollback:redis", "rollback:mongo", "rollback:mysql"}, rollbacks)

	assert.True(t, report.RollbackRequired)
	assert.False(t, report.RollbackCompleted, "one failed compensation marks the run inconsistent")
}

func TestRun_RollbackDisabled(t *testing.T) {
	mysql := &fakeSeeder{name: store.MySQL, records: 100}
	mongo := &fakeSeeder{name: store.Mongo, failures: 100}
	o := newTestOrchestrator(config.EnvDevelopment, []Seeder{mysql, mongo})

	opts := testOptions()
	opts.CreateRelationships = true
	opts.EnableRollbackOnFailure = false
	report := o.Run(context.Background(), opts)

	assert.False(t, report.Success)
	assert.Zero(t, mysql.rollbackCalls)
	assert.False(t, report.RollbackRequired)
}

func TestRun_RollbackRefusedInProduction(t *testing.T) {
	mysql := &fakeSeeder{name: store.MySQL, records: 100}
	mongo := &fakeSeeder{name: store.Mongo, failures: 100}
	o := newTestOrchestrator(config.EnvProduction, []Seeder{mysql, mongo})

	opts := testOptions()
	opts.CreateRelationships = true
	report := o.Run(context.Background(), opts)

	assert.False(t, report.Success)
	assert.Zero(t, mysql.rollbackCalls, "guard must refuse before any store operation")
	assert.True(t, report.RollbackRequired)
	assert.False(t, report.RollbackCompleted)
}

func TestRun_PanicBecomesFailedResult(t *testing.T) {
	mysql := &fakeSeeder{name: store.MySQL, panicOnExec: true}
	o := newTestOrchestrator(config.EnvDevelopment, []Seeder{mysql})

	report := o.Run(context.Background(), testOptions())

	assert.False(t, report.Success)
	require.Contains(t, report.Stores, store.MySQL)
	require.NotEmpty(t, report.Stores[store.MySQL].Errors)
	assert.Contains(t, report.Stores[store.MySQL].Errors[0], "panic")
}

// ============================================================================
// Parallel Execution
// ============================================================================

// Without relationships and with parallel execution enabled, all four
// seeders must run concurrently in a single stage. Each seeder blocks on
// a shared barrier, so a sequential orchestrator would deadlock here.
func TestRun_ParallelSingleStage(t *testing.T) {
	var barrier sync.WaitGroup
	barrier.Add(4)

	var seeders []Seeder
	for _, name := range store.Names() {
		seeders = append(seeders, &fakeSeeder{name: name, records: 5, barrier: &barrier})
	}
	o := newTestOrchestrator(config.EnvDevelopment, seeders)

	opts := testOptions()
	opts.EnableParallelExecution = true

	done := make(chan *ExecutionReport, 1)
	go func() { done <- o.Run(context.Background(), opts) }()

	select {
	case report := <-done:
		assert.True(t, report.Success)
		assert.Equal(t, 20, report.TotalRecords)
	case <-time.After(5 * time.Second):
		t.Fatal("seeders did not run concurrently")
	}
}

func TestRun_ParallelStageCollectsEveryFailure(t *testing.T) {
	mysql := &fakeSeeder{name: store.MySQL, failures: 100}
	mongo := &fakeSeeder{name: store.Mongo, failures: 100}
	redis := &fakeSeeder{name: store.Redis, records: 5}
	o := newTestOrchestrator(config.EnvDevelopment, []Seeder{mysql, mongo, redis})

	opts := testOptions()
	opts.EnableParallelExecution = true
	report := o.Run(context.Background(), opts)

	assert.False(t, report.Success)
	assert.False(t, report.Stores[store.MySQL].Success)
	assert.False(t, report.Stores[store.Mongo].Success)
	assert.True(t, report.Stores[store.Redis].RolledBack, "the surviving store is compensated")
}

// ============================================================================
// Events and Report
// ============================================================================

func TestRun_EventSequence(t *testing.T) {
	var mu sync.Mutex
	var types []EventType
	listener := func(e Event) {
		mu.Lock()
		types = append(types, e.Type)
		mu.Unlock()
	}

	mysql := &fakeSeeder{name: store.MySQL, records: 7}
	o := newTestOrchestrator(config.EnvDevelopment, []Seeder{mysql}, listener)

	report := o.Run(context.Background(), testOptions())
	require.True(t, report.Success)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, types)
	assert.Equal(t, EventOrchStart, types[0])
	assert.Equal(t, EventOrchComplete, types[len(types)-1])
	assert.Contains(t, types, EventSeedStart)
	assert.Contains(t, types, EventSeedComplete)
}

func TestRun_ValidationWarningDoesNotFailRun(t *testing.T) {
	// records=0 makes Validate return false.
	mysql := &fakeSeeder{name: store.MySQL, records: 0}
	o := newTestOrchestrator(config.EnvDevelopment, []Seeder{mysql})

	opts := testOptions()
	opts.ValidateData = true
	report := o.Run(context.Background(), opts)

	assert.True(t, report.Success, "validation is informational")
	assert.NotEmpty(t, report.ValidationWarnings)
	assert.False(t, report.RollbackRequired)
}

func TestPlan_ExposedWithoutExecution(t *testing.T) {
	mysql := &fakeSeeder{name: store.MySQL}
	mongo := &fakeSeeder{name: store.Mongo}
	o := newTestOrchestrator(config.EnvDevelopment, []Seeder{mysql, mongo})

	plan, err := o.Plan(Options{CreateRelationships: true})
	require.NoError(t, err)
	assert.Len(t, plan.Stages, 2)
	assert.Zero(t, mysql.execCalls)
}

func TestOptionsFromDefaults(t *testing.T) {
	d := config.DefaultConfig().Seed.Defaults
	opts := OptionsFromDefaults(d)

	assert.Equal(t, 100, opts.UserCount)
	assert.Equal(t, 3, opts.RetryAttempts)
	assert.Equal(t, time.Second, opts.RetryDelay)
	assert.True(t, opts.EnableRollbackOnFailure)
}

func TestOptions_Normalize(t *testing.T) {
	opts := Options{UserCount: -5, RetryAttempts: 0}
	opts.normalize()

	assert.Equal(t, 0, opts.UserCount)
	assert.Equal(t, 3, opts.RetryAttempts)
	assert.Equal(t, "default", opts.Scenario)
}
