package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dbsmedya/polyseed/internal/logger"
	"github.com/dbsmedya/polyseed/internal/store"
)

// ErrRollbackFailed marks a run whose compensation did not fully
// complete: seeded state is inconsistent and needs manual cleanup.
var ErrRollbackFailed = errors.New("rollback failed")

// eventBufferSize bounds the event channel so a slow listener applies
// backpressure instead of growing memory.
const eventBufferSize = 64

// Orchestrator coordinates seeders across the store fleet: plan
// construction, staged execution with per-step retry, compensating
// rollback in reverse order, and report assembly.
//
// The ExecutionReport is mutated only by the report-writer goroutine
// draining the run's event channel, so concurrently running seeders
// never touch it directly.
type Orchestrator struct {
	seeders   map[string]Seeder
	order     []string
	retry     RetryStrategy
	guard     *store.Guard
	logger    *logger.Logger
	listeners []Listener
}

// NewOrchestrator creates an orchestrator over the given seeders. The
// slice order is the declaration order used when a stage runs
// sequentially. Listeners receive every event of every run.
func NewOrchestrator(seeders []Seeder, retry RetryStrategy, guard *store.Guard, log *logger.Logger, listeners ...Listener) *Orchestrator {
	if log == nil {
		log = logger.NewDefault()
	}
	if retry == nil {
		retry = FixedDelay{Interval: time.Second}
	}
	byName := make(map[string]Seeder, len(seeders))
	order := make([]string, 0, len(seeders))
	for _, s := range seeders {
		byName[s.Store()] = s
		order = append(order, s.Store())
	}
	return &Orchestrator{
		seeders:   byName,
		order:     order,
		retry:     retry,
		guard:     guard,
		logger:    log,
		listeners: listeners,
	}
}

// Plan builds the execution plan this orchestrator would run for the
// given options, without executing anything.
func (o *Orchestrator) Plan(opts Options) (*Plan, error) {
	opts.normalize()
	return BuildPlan(opts, o.order)
}

// Run executes one orchestration. It never returns an error for seeding
// failures: the report carries success, the collected errors, and whether
// rollback was attempted and completed, so the caller can tell
// "failed but fully compensated" from "failed, manual cleanup required".
func (o *Orchestrator) Run(ctx context.Context, opts Options) *ExecutionReport {
	opts.normalize()

	executionID := uuid.NewString()
	report := newExecutionReport(executionID)
	log := o.logger.WithExecution(executionID)

	events := make(chan Event, eventBufferSize)
	writerDone := make(chan struct{})
	go o.writeReport(report, events, writerDone)

	emit := func(e Event) {
		e.ExecutionID = executionID
		e.Timestamp = time.Now()
		events <- e
	}

	plan, err := BuildPlan(opts, o.order)
	if err != nil {
		emit(Event{Type: EventOrchError, Err: err})
		close(events)
		<-writerDone
		report.finalize()
		return report
	}

	log.Infow("Orchestration started",
		"scenario", opts.Scenario,
		"stages", len(plan.Stages),
		"relationships", opts.CreateRelationships,
	)
	emit(Event{Type: EventOrchStart, Data: map[string]any{
		"stores":   o.order,
		"scenario": opts.Scenario,
		"stages":   len(plan.Stages),
	}})

	var completed []Seeder
	var runErr error
	for i, stage := range plan.Stages {
		log.Infow("Stage started", "stage", i+1, "stores", stage.Stores, "parallel", stage.Parallel)
		stageDone, err := o.runStage(ctx, stage, opts, emit)
		completed = append(completed, stageDone...)
		if err != nil {
			runErr = fmt.Errorf("stage %d: %w", i+1, err)
			break
		}
	}

	switch {
	case runErr == nil:
		if opts.ValidateData {
			o.validateAll(ctx, completed, emit, log)
		}
		emit(Event{Type: EventOrchComplete})
		log.Infow("Orchestration complete")
	default:
		log.Errorw("Orchestration failed", "error", runErr)
		if opts.EnableRollbackOnFailure && len(completed) > 0 {
			if rbErr := o.rollback(ctx, completed, emit, log); rbErr != nil {
				runErr = multierr.Append(runErr, rbErr)
			}
		}
		emit(Event{Type: EventOrchError, Err: runErr})
	}

	close(events)
	<-writerDone
	report.finalize()
	return report
}

// RollbackScenario compensates every store for the named scenario, in
// reverse declaration order, regardless of what the seeders last
// executed. Used by the version manager to undo an applied version.
func (o *Orchestrator) RollbackScenario(ctx context.Context, scenario string) *ExecutionReport {
	executionID := uuid.NewString()
	report := newExecutionReport(executionID)
	log := o.logger.WithExecution(executionID)

	events := make(chan Event, eventBufferSize)
	writerDone := make(chan struct{})
	go o.writeReport(report, events, writerDone)

	emit := func(e Event) {
		e.ExecutionID = executionID
		e.Timestamp = time.Now()
		events <- e
	}

	var targets []Seeder
	for _, name := range o.order {
		seeder := o.seeders[name]
		if s, ok := seeder.(interface{ SetScenario(string) }); ok {
			s.SetScenario(scenario)
		}
		targets = append(targets, seeder)
	}

	log.Infow("Scenario rollback started", "scenario", scenario)
	if err := o.rollback(ctx, targets, emit, log); err != nil {
		emit(Event{Type: EventOrchError, Err: err})
	} else {
		emit(Event{Type: EventOrchComplete})
	}

	close(events)
	<-writerDone
	report.finalize()
	return report
}

// runStage executes one stage and returns the seeders that succeeded.
// A sequential stage stops at the first failure; a parallel stage lets
// every store settle before reporting.
func (o *Orchestrator) runStage(ctx context.Context, stage Stage, opts Options, emit func(Event)) ([]Seeder, error) {
	if stage.Parallel && len(stage.Stores) > 1 {
		return o.runParallel(ctx, stage.Stores, opts, emit)
	}

	var completed []Seeder
	for _, name := range stage.Stores {
		seeder := o.seeders[name]
		result := o.runStep(ctx, seeder, opts, emit)
		if !result.Success {
			return completed, stepError(name, result)
		}
		completed = append(completed, seeder)
	}
	return completed, nil
}

// runParallel runs every store of a stage concurrently and waits for all
// of them to settle.
func (o *Orchestrator) runParallel(ctx context.Context, stores []string, opts Options, emit func(Event)) ([]Seeder, error) {
	results := make([]Result, len(stores))
	var wg sync.WaitGroup
	for i, name := range stores {
		wg.Add(1)
		go func(i int, seeder Seeder) {
			defer wg.Done()
			results[i] = o.runStep(ctx, seeder, opts, emit)
		}(i, o.seeders[name])
	}
	wg.Wait()

	var completed []Seeder
	var errs error
	for i, name := range stores {
		if results[i].Success {
			completed = append(completed, o.seeders[name])
			continue
		}
		errs = multierr.Append(errs, stepError(name, results[i]))
	}
	return completed, errs
}

// runStep seeds one store, retrying up to RetryAttempts with the
// configured delay strategy. Panics and errors inside a seeder become a
// failed Result; the orchestrator, not the seeder, decides what happens
// next.
func (o *Orchestrator) runStep(ctx context.Context, seeder Seeder, opts Options, emit func(Event)) Result {
	name := seeder.Store()
	emit(Event{Type: EventSeedStart, Store: name})

	var result Result
	for attempt := 1; attempt <= opts.RetryAttempts; attempt++ {
		if attempt > 1 {
			delay := o.retry.Delay(attempt)
			if opts.RetryDelay > 0 {
				delay = opts.RetryDelay
			}
			if err := sleep(ctx, delay); err != nil {
				result = failedResult(name, err)
				break
			}
			o.logger.WithStore(name).Warnw("Retrying seed step",
				"attempt", attempt,
				"max_attempts", opts.RetryAttempts,
			)
		}

		result = safeExecute(ctx, seeder, opts)
		if result.Success {
			emit(Event{Type: EventSeedComplete, Store: name, Result: &result})
			return result
		}
	}

	emit(Event{Type: EventSeedError, Store: name, Result: &result, Err: firstError(result)})
	return result
}

// rollback compensates already-completed seeders in reverse order. Every
// rollback is attempted even when earlier ones fail; all failures are
// collected and surfaced under ErrRollbackFailed.
func (o *Orchestrator) rollback(ctx context.Context, completed []Seeder, emit func(Event), log *logger.Logger) error {
	if err := o.guard.Check("seed rollback"); err != nil {
		emit(Event{Type: EventRollbackStart})
		emit(Event{Type: EventRollbackError, Err: err})
		return err
	}

	log.Warnw("Rolling back completed stores", "stores", len(completed))

	var errs error
	for i := len(completed) - 1; i >= 0; i-- {
		seeder := completed[i]
		name := seeder.Store()
		emit(Event{Type: EventRollbackStart, Store: name})

		result := safeRollback(ctx, seeder)
		if result.Success {
			emit(Event{Type: EventRollbackDone, Store: name, Result: &result})
			continue
		}
		err := fmt.Errorf("rollback %s: %w", name, firstError(result))
		errs = multierr.Append(errs, err)
		emit(Event{Type: EventRollbackError, Store: name, Err: err})
	}

	if errs != nil {
		return fmt.Errorf("%w: %v", ErrRollbackFailed, errs)
	}
	return nil
}

// validateAll runs post-seed validation. Failures are informational:
// they are reported as warnings and never trigger rollback.
func (o *Orchestrator) validateAll(ctx context.Context, completed []Seeder, emit func(Event), log *logger.Logger) {
	for _, seeder := range completed {
		ok, err := seeder.Validate(ctx)
		switch {
		case err != nil:
			log.Warnw("Validation errored", "store", seeder.Store(), "error", err)
			emit(Event{Type: EventSeedComplete, Store: seeder.Store(), Data: map[string]any{
				"validation_error": err.Error(),
			}})
		case !ok:
			log.Warnw("Validation found empty store", "store", seeder.Store())
			emit(Event{Type: EventSeedComplete, Store: seeder.Store(), Data: map[string]any{
				"validation_warning": "store has no seeded records",
			}})
		}
	}
}

// writeReport is the single writer of the ExecutionReport. It drains the
// event channel, folds every event into the report, and forwards it to
// the registered listeners.
func (o *Orchestrator) writeReport(report *ExecutionReport, events <-chan Event, done chan<- struct{}) {
	defer close(done)
	for e := range events {
		o.applyEvent(report, e)
		for _, l := range o.listeners {
			l(e)
		}
	}
}

// applyEvent folds one event into the report. The switch is exhaustive
// over EventType; an unknown type is a programming error worth a log
// line, not a panic mid-run.
func (o *Orchestrator) applyEvent(report *ExecutionReport, e Event) {
	switch e.Type {
	case EventOrchStart:
		report.StartTime = e.Timestamp
	case EventOrchComplete:
		report.Success = true
	case EventOrchError:
		report.Success = false
		if e.Err != nil {
			report.Errors = append(report.Errors, e.Err.Error())
		}
	case EventSeedStart:
		report.storeReport(e.Store).StartTime = e.Timestamp
	case EventSeedComplete:
		sr := report.storeReport(e.Store)
		if e.Result != nil {
			sr.EndTime = e.Timestamp
			sr.Duration = e.Result.Duration
			sr.RecordsCreated = e.Result.RecordsCreated
			sr.Success = true
		}
		if w, ok := e.Data["validation_warning"].(string); ok {
			report.ValidationWarnings = append(report.ValidationWarnings, e.Store+": "+w)
		}
		if w, ok := e.Data["validation_error"].(string); ok {
			report.ValidationWarnings = append(report.ValidationWarnings, e.Store+": "+w)
		}
	case EventSeedError:
		sr := report.storeReport(e.Store)
		sr.EndTime = e.Timestamp
		sr.Success = false
		if e.Result != nil {
			sr.Duration = e.Result.Duration
			sr.RecordsCreated = e.Result.RecordsCreated
			for _, err := range e.Result.Errors {
				sr.Errors = append(sr.Errors, err.Error())
			}
		}
	case EventRollbackStart:
		report.RollbackRequired = true
	case EventRollbackDone:
		if e.Store != "" {
			report.storeReport(e.Store).RolledBack = true
		}
	case EventRollbackError:
		report.rollbackFailed = true
		if e.Err != nil {
			report.Errors = append(report.Errors, e.Err.Error())
		}
	default:
		o.logger.Warnw("Unknown seed event type", "type", e.Type)
	}
}

// safeExecute converts a panicking seeder into a failed Result.
func safeExecute(ctx context.Context, seeder Seeder, opts Options) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = failedResult(seeder.Store(), fmt.Errorf("seeder panic: %v", r))
		}
	}()
	return seeder.Execute(ctx, opts)
}

// safeRollback converts a panicking rollback into a failed Result.
func safeRollback(ctx context.Context, seeder Seeder) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = failedResult(seeder.Store(), fmt.Errorf("rollback panic: %v", r))
		}
	}()
	return seeder.Rollback(ctx)
}

// stepError summarizes a failed step for stage-level reporting.
func stepError(store string, result Result) error {
	return fmt.Errorf("seeding %s failed: %w", store, firstError(result))
}

// firstError returns the first collected error, or a placeholder so
// wrapping never sees nil.
func firstError(result Result) error {
	if len(result.Errors) > 0 {
		return result.Errors[0]
	}
	return errors.New("no records written")
}
