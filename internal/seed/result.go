package seed

import (
	"time"
)

// Result is the outcome of a single Seeder invocation. Immutable once
// returned; batch-level errors are collected, never thrown.
type Result struct {
	Store          string
	Success        bool
	RecordsCreated int
	Duration       time.Duration
	Errors         []error
}

// failedResult builds a Result for an operation that produced nothing.
func failedResult(store string, err error) Result {
	return Result{Store: store, Errors: []error{err}}
}

// StoreReport is the per-store section of an ExecutionReport.
type StoreReport struct {
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	RecordsCreated int
	Errors         []string
	Success        bool
	RolledBack     bool
}

// ExecutionReport is the single-writer record of one orchestration run.
// It is mutated only by the orchestrator's report-writer goroutine and
// finalized once at run end.
type ExecutionReport struct {
	ExecutionID   string
	StartTime     time.Time
	EndTime       time.Time
	TotalDuration time.Duration
	TotalRecords  int

	Stores map[string]*StoreReport

	Errors             []string
	ValidationWarnings []string

	Success           bool
	RollbackRequired  bool
	RollbackCompleted bool

	rollbackFailed bool
}

// newExecutionReport creates an empty report for the given run.
func newExecutionReport(executionID string) *ExecutionReport {
	return &ExecutionReport{
		ExecutionID: executionID,
		StartTime:   time.Now(),
		Stores:      make(map[string]*StoreReport),
	}
}

// storeReport returns the section for a store, creating it on first use.
func (r *ExecutionReport) storeReport(name string) *StoreReport {
	sr, ok := r.Stores[name]
	if !ok {
		sr = &StoreReport{}
		r.Stores[name] = sr
	}
	return sr
}

// finalize computes the run totals. Called exactly once, after the
// report writer has drained all events.
func (r *ExecutionReport) finalize() {
	r.EndTime = time.Now()
	r.TotalDuration = r.EndTime.Sub(r.StartTime)

	r.TotalRecords = 0
	for _, sr := range r.Stores {
		if sr.Success {
			r.TotalRecords += sr.RecordsCreated
		}
	}

	if r.RollbackRequired {
		r.RollbackCompleted = !r.rollbackFailed
	}
}
