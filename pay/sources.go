/*
sources.go - Read-only collaborators the engine consumes

PURPOSE:
  Defines the interfaces between the pay engine and the outside world:
  event/absence retrieval, prior pay records, and the distance lookup
  (in transport.go). Store implementations live elsewhere:
  - store/memory.go:  In-memory, for tests and dev
  - store/sqlite:     Production SQLite store

  The engine only reads. Persisting freshly computed records is the
  caller's concern (the API layer and the month-end scheduler do it).

SEE ALSO:
  - draft.go: The orchestrator wiring these together
*/
package pay

import (
	"context"
	"time"
)

// EventSource retrieves the events and absences to pay for a range.
// One WorkerEvents per worker that has any events in the range; events
// arrive grouped by day, absences flat.
type EventSource interface {
	EventsToPay(ctx context.Context, query DateRange, workerIDs []string) ([]WorkerEvents, error)
}

// PayStore retrieves stored pay records from previous runs.
type PayStore interface {
	// PreviousPayRecord returns the worker's record for the month
	// containing the given date, or nil when none was stored.
	PreviousPayRecord(ctx context.Context, workerID string, month time.Time) (*PayRecord, error)
}
