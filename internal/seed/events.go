package seed

import "time"

// EventType tags seed lifecycle events. The report writer switches on it
// exhaustively; listeners receive the same stream.
type EventType string

const (
	EventSeedStart     EventType = "seed_start"
	EventSeedComplete  EventType = "seed_complete"
	EventSeedError     EventType = "seed_error"
	EventOrchStart     EventType = "orchestration_start"
	EventOrchComplete  EventType = "orchestration_complete"
	EventOrchError     EventType = "orchestration_error"
	EventRollbackStart EventType = "rollback_start"
	EventRollbackDone  EventType = "rollback_complete"
	EventRollbackError EventType = "rollback_error"
)

// Event is a transient notification emitted during a run. Store is empty
// for orchestration-level events; Result is set on seed_complete and
// rollback_complete.
type Event struct {
	Type        EventType
	ExecutionID string
	Store       string
	Timestamp   time.Time
	Result      *Result
	Err         error
	Data        map[string]any
}

// Listener receives every event of a run, invoked from the report-writer
// goroutine so callbacks never race with report mutation.
type Listener func(Event)
